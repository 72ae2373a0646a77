package cli

import "geoquiz-service/internal/domain"

// sampleCategories is served when neither a bundle nor Postgres is configured.
func sampleCategories() map[string]domain.CategoryPayload {
	idx := func(i int) *int { return &i }
	return map[string]domain.CategoryPayload{
		"capitals": {
			ID:   "capitals",
			Name: "Capitals",
			Questions: map[string]domain.RawQuestion{
				"cap-1": {
					Text:         "What is the capital of Australia?",
					Options:      domain.OptionSet{"Sydney", "Melbourne", "Canberra", "Perth"},
					CorrectIndex: idx(2),
					Explanation:  "Canberra was purpose-built as a compromise between Sydney and Melbourne.",
					Difficulty:   "easy",
				},
				"cap-2": {
					Text:         "What is the capital of Canada?",
					Options:      domain.OptionSet{"Toronto", "Ottawa", "Montreal", "Vancouver"},
					CorrectIndex: idx(1),
					Difficulty:   "easy",
				},
				"cap-3": {
					Text:         "What is the capital of Kazakhstan?",
					Options:      domain.OptionSet{"Almaty", "Astana", "Shymkent", "Karaganda"},
					CorrectIndex: idx(1),
					Explanation:  "The capital moved from Almaty to Astana in 1997.",
					Difficulty:   "hard",
					Points:       2,
				},
			},
		},
		"rivers": {
			ID:   "rivers",
			Name: "Rivers",
			Questions: map[string]domain.RawQuestion{
				"riv-1": {
					Text:         "Which river flows through Cairo?",
					Options:      domain.OptionSet{"Congo", "Niger", "Nile", "Zambezi"},
					CorrectIndex: idx(2),
				},
				"riv-2": {
					Text:         "Which is the longest river in Europe?",
					Options:      domain.OptionSet{"Danube", "Volga", "Rhine", "Dnieper"},
					CorrectIndex: idx(1),
					Difficulty:   "hard",
					Points:       2,
				},
			},
		},
	}
}
