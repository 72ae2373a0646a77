package app

import (
	"math"

	"geoquiz-service/internal/domain"
)

// Finalize maps a session snapshot to its score. An empty session scores 0%.
func Finalize(s Snapshot) domain.Score {
	total := len(s.Questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(s.CorrectCount) / float64(total)))
	}
	return domain.Score{
		CorrectCount:   s.CorrectCount,
		TotalQuestions: total,
		Percentage:     percentage,
		Score:          s.TotalScore,
	}
}
