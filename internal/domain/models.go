package domain

import "time"

// OptionsPerQuestion is the fixed number of answer slots on every question.
const OptionsPerQuestion = 4

// Question models a multiple-choice question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctOptionIndex"`
	Explanation  string   `json:"explanation,omitempty"`
	Difficulty   string   `json:"difficulty"`
	Points       int      `json:"points"`
}

// Category is the metadata shown next to a question pool.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawQuestion is a question as delivered by a content source, before normalization.
// CorrectIndex is a pointer so an explicit 0 can be told apart from a missing field.
type RawQuestion struct {
	ID           string    `json:"id,omitempty"`
	Text         string    `json:"questionText"`
	Options      OptionSet `json:"options"`
	CorrectIndex *int      `json:"correctOptionIndex,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Points       int       `json:"points,omitempty"`
}

// CategoryPayload is the raw question pool of one category keyed by question ID.
type CategoryPayload struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Questions map[string]RawQuestion `json:"questions"`
}

// UserRecord is the per-user profile the achievement evaluator reads and writes.
type UserRecord struct {
	UserID         string         `json:"userId" bson:"_id"`
	Username       string         `json:"username" bson:"username"`
	TotalPoints    int            `json:"totalPoints" bson:"total_points"`
	QuizzesPlayed  int            `json:"quizzesPlayed" bson:"quizzes_played"`
	CorrectAnswers int            `json:"correctAnswers" bson:"correct_answers"`
	Achievements   []string       `json:"achievements" bson:"achievements"`
	CategoryScores map[string]int `json:"categoryScores" bson:"category_scores"`
	CreatedAt      time.Time      `json:"createdAt" bson:"created_at"`
	LastActive     time.Time      `json:"lastActive" bson:"last_active"`
}

// HasAchievement reports whether the milestone id is already unlocked.
func (u UserRecord) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or maps with u.
func (u UserRecord) Clone() UserRecord {
	out := u
	if u.Achievements != nil {
		out.Achievements = append([]string(nil), u.Achievements...)
	}
	if u.CategoryScores != nil {
		out.CategoryScores = make(map[string]int, len(u.CategoryScores))
		for k, v := range u.CategoryScores {
			out.CategoryScores[k] = v
		}
	}
	return out
}

// LeaderboardRecord is the rolling per-user aggregate. Rank is derived at read time
// and never persisted.
type LeaderboardRecord struct {
	UserID         string    `json:"userId" bson:"_id"`
	Username       string    `json:"username" bson:"username"`
	TotalPoints    int       `json:"totalPoints" bson:"total_points"`
	QuizzesPlayed  int       `json:"quizzesPlayed" bson:"quizzes_played"`
	CorrectAnswers int       `json:"correctAnswers" bson:"correct_answers"`
	DailyPoints    int       `json:"dailyPoints" bson:"daily_points"`
	DailyKey       string    `json:"dailyKey" bson:"daily_key"`
	WeeklyPoints   int       `json:"weeklyPoints" bson:"weekly_points"`
	WeeklyKey      string    `json:"weeklyKey" bson:"weekly_key"`
	LastUpdated    time.Time `json:"lastUpdated" bson:"last_updated"`
	Rank           int       `json:"rank,omitempty" bson:"-"`
}

// Window selects which counter a ranked leaderboard view is ordered by.
type Window string

const (
	WindowAll    Window = "all"
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
)

// ParseWindow maps a query value to a Window; the empty string means all-time.
func ParseWindow(raw string) (Window, error) {
	switch Window(raw) {
	case "", WindowAll:
		return WindowAll, nil
	case WindowDaily:
		return WindowDaily, nil
	case WindowWeekly:
		return WindowWeekly, nil
	}
	return "", ErrUnknownWindow
}

// Score is the evaluated outcome of a finished session.
type Score struct {
	CorrectCount   int `json:"correctCount"`
	TotalQuestions int `json:"totalQuestions"`
	Percentage     int `json:"percentage"`
	Score          int `json:"score"`
}

// SessionResult is handed to the presentation layer once per finished session.
type SessionResult struct {
	SessionID                     string   `json:"sessionId"`
	UserID                        string   `json:"userId"`
	CorrectCount                  int      `json:"correctCount"`
	TotalQuestions                int      `json:"totalQuestions"`
	Percentage                    int      `json:"percentage"`
	Score                         int      `json:"score"`
	CategoryID                    string   `json:"categoryId"`
	CategoryName                  string   `json:"categoryName"`
	NewlyUnlockedAchievementNames []string `json:"newlyUnlockedAchievementNames"`
}
