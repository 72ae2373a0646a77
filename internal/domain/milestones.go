package domain

// Milestone is a cumulative correct-answer threshold that unlocks an achievement once.
type Milestone struct {
	ID              string `json:"id"`
	RequiredCorrect int    `json:"requiredCorrect"`
	Name            string `json:"name"`
	Emoji           string `json:"emoji"`
	Description     string `json:"description"`
}

// DisplayName is the label shown on the results screen.
func (m Milestone) DisplayName() string {
	return m.Emoji + " " + m.Name
}

var milestones = []Milestone{
	{ID: "just_started", RequiredCorrect: 5, Name: "Just Started", Emoji: "🌱", Description: "Answered 5 questions correctly, the journey begins!"},
	{ID: "transforming_beginner", RequiredCorrect: 10, Name: "Transforming Beginner", Emoji: "🌿", Description: "10 correct answers, you're growing fast!"},
	{ID: "getting_serious", RequiredCorrect: 25, Name: "Getting Serious", Emoji: "🗺️", Description: "25 correct, you really know your geography!"},
	{ID: "geo_geek", RequiredCorrect: 50, Name: "Geo Geek", Emoji: "🌍", Description: "50 correct answers, you're officially a Geo Geek!"},
	{ID: "here_to_stay", RequiredCorrect: 100, Name: "You're Here to Stay", Emoji: "🏆", Description: "100 correct, true dedication to the world!"},
	{ID: "world_explorer", RequiredCorrect: 250, Name: "World Explorer", Emoji: "🌐", Description: "250 correct, you've mentally explored the whole planet!"},
	{ID: "geography_master", RequiredCorrect: 500, Name: "Geography Master", Emoji: "🎓", Description: "500 correct answers, a true master of geography!"},
	{ID: "globe_trotter_legend", RequiredCorrect: 1000, Name: "Globe Trotter Legend", Emoji: "👑", Description: "1000 correct, legendary status achieved!"},
}

// Milestones returns the catalog in ascending threshold order. The slice is a copy.
func Milestones() []Milestone {
	return append([]Milestone(nil), milestones...)
}

// EarnedMilestones lists every milestone reached with the given correct-answer count.
func EarnedMilestones(correct int) []Milestone {
	var out []Milestone
	for _, m := range milestones {
		if m.RequiredCorrect <= correct {
			out = append(out, m)
		}
	}
	return out
}

// LockedMilestones lists the milestones still out of reach.
func LockedMilestones(correct int) []Milestone {
	var out []Milestone
	for _, m := range milestones {
		if m.RequiredCorrect > correct {
			out = append(out, m)
		}
	}
	return out
}

// NextMilestone returns the closest unreached milestone, or false when all are earned.
func NextMilestone(correct int) (Milestone, bool) {
	for _, m := range milestones {
		if m.RequiredCorrect > correct {
			return m, true
		}
	}
	return Milestone{}, false
}
