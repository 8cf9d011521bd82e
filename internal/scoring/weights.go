package scoring

import "github.com/iqscaler/iqscaler-backend/internal/model"

// Weights maps a difficulty to the points a correct answer earns.
type Weights map[model.Difficulty]int

// DefaultWeights returns the production weight table: easy 1, medium 3, hard 6.
// A fresh map is returned on every call so callers cannot alter the table in use.
func DefaultWeights() Weights {
	return Weights{
		model.DifficultyEasy:   1,
		model.DifficultyMedium: 3,
		model.DifficultyHard:   6,
	}
}

// Of returns the weight of d, or 0 for an unknown difficulty.
func (w Weights) Of(d model.Difficulty) int {
	return w[d]
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for d, v := range w {
		out[d] = v
	}
	return out
}
