package app

import (
	"context"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
)

// Achievements awards milestones from a user's cumulative correct answers.
type Achievements struct {
	store Store
}

func NewAchievements(store Store) *Achievements {
	return &Achievements{store: store}
}

// Evaluate unlocks every milestone reached but not yet recorded, persisting them in one
// write, and returns them in ascending threshold order. Repeated calls with an unchanged
// correct-answer count return nothing.
func (a *Achievements) Evaluate(ctx context.Context, userID string) ([]domain.Milestone, error) {
	var newly []domain.Milestone
	_, err := a.store.UpdateUser(ctx, userID, func(u *domain.UserRecord) error {
		newly = newly[:0]
		for _, m := range domain.EarnedMilestones(u.CorrectAnswers) {
			if !u.HasAchievement(m.ID) {
				newly = append(newly, m)
			}
		}
		if len(newly) == 0 {
			return domain.ErrSkipWrite
		}
		for _, m := range newly {
			u.Achievements = append(u.Achievements, m.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: evaluate achievements %s: %v", domain.ErrPersistence, userID, err)
	}
	return newly, nil
}

// Progress is the achievement overview of one user.
type Progress struct {
	CorrectAnswers int                `json:"correctAnswers"`
	Unlocked       []string           `json:"unlocked"`
	Earned         []domain.Milestone `json:"earned"`
	Locked         []domain.Milestone `json:"locked"`
	Next           *domain.Milestone  `json:"next,omitempty"`
}

// Progress reports earned, locked and next milestones. Unknown users have no progress.
func (a *Achievements) Progress(ctx context.Context, userID string) (Progress, error) {
	u, err := a.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return Progress{}, fmt.Errorf("%w: get user %s: %v", domain.ErrPersistence, userID, err)
	}
	p := Progress{
		CorrectAnswers: u.CorrectAnswers,
		Unlocked:       append([]string{}, u.Achievements...),
		Earned:         domain.EarnedMilestones(u.CorrectAnswers),
		Locked:         domain.LockedMilestones(u.CorrectAnswers),
	}
	if next, ok := domain.NextMilestone(u.CorrectAnswers); ok {
		p.Next = &next
	}
	return p, nil
}
