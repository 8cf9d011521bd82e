package service

import (
	"math/rand/v2"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// SelectQuestions draws a test from pool. The per-difficulty counts of cfg are
// filled first, as far as the pool allows; the remaining slots up to
// cfg.TotalQuestions are drawn from everything not yet picked. The result is
// shuffled and contains no question twice.
func SelectQuestions(pool []model.Question, cfg model.TestConfig, rng *rand.Rand) []model.Question {
	total := cfg.TotalQuestions
	if total > len(pool) {
		total = len(pool)
	}
	if total <= 0 {
		return []model.Question{}
	}

	byDifficulty := make(map[model.Difficulty][]int)
	for i := range pool {
		d := pool[i].Difficulty
		byDifficulty[d] = append(byDifficulty[d], i)
	}

	picked := make([]bool, len(pool))
	selected := make([]model.Question, 0, total)

	for _, d := range model.Difficulties {
		want := cfg.CountFor(d)
		idx := byDifficulty[d]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx {
			if want == 0 || len(selected) == total {
				break
			}
			picked[i] = true
			selected = append(selected, pool[i])
			want--
		}
	}

	rest := make([]int, 0, len(pool)-len(selected))
	for i := range pool {
		if !picked[i] {
			rest = append(rest, i)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, i := range rest {
		if len(selected) == total {
			break
		}
		selected = append(selected, pool[i])
	}

	rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	return selected
}
