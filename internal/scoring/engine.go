// Package scoring grades submitted answers against a question set.
// Everything here is pure: no I/O, no clocks, no shared mutable state.
package scoring

import (
	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// ItemStatus describes what happened to one submitted entry.
type ItemStatus string

const (
	StatusCorrect    ItemStatus = "correct"
	StatusIncorrect  ItemStatus = "incorrect"
	StatusUnanswered ItemStatus = "unanswered"
	// StatusMalformed entries lack a usable id or index, or the index is out of range.
	StatusMalformed ItemStatus = "malformed"
	// StatusUnknown entries reference a question outside the graded set.
	StatusUnknown   ItemStatus = "unknown"
	StatusDuplicate ItemStatus = "duplicate"
)

// ItemGrade is the per-entry outcome, in submission order.
type ItemGrade struct {
	QuestionID string     `json:"questionId"`
	Status     ItemStatus `json:"status"`
	Points     int        `json:"points"`
}

// Grade is the aggregate outcome of a submission.
type Grade struct {
	TotalScore     int         `json:"totalScore"`
	CorrectCount   int         `json:"correctCount"`
	AttemptedCount int         `json:"attemptedCount"`
	Items          []ItemGrade `json:"items"`
}

// Engine grades with a fixed weight table.
type Engine struct {
	weights Weights
}

// NewEngine returns an engine using a private copy of w.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w.clone()}
}

var defaultEngine = NewEngine(DefaultWeights())

// Default returns the engine using DefaultWeights.
func Default() *Engine {
	return defaultEngine
}

// GradeAnswers scores answers against questions with DefaultWeights.
func GradeAnswers(questions []model.Question, answers []model.AnswerEntry) Grade {
	return defaultEngine.Grade(questions, answers)
}

// MaxScore is the best possible score for questions with DefaultWeights.
func MaxScore(questions []model.Question) int {
	return defaultEngine.MaxScore(questions)
}

// Weight returns the points a correct answer of difficulty d earns.
func (e *Engine) Weight(d model.Difficulty) int {
	return e.weights.Of(d)
}

// MaxScore sums the weights of all questions.
func (e *Engine) MaxScore(questions []model.Question) int {
	total := 0
	for i := range questions {
		total += e.weights.Of(questions[i].Difficulty)
	}
	return total
}

// Grade scores answers against questions. Only entries whose question is in
// questions can change the totals and each question counts at most once, so
// the score stays within [0, MaxScore(questions)].
func (e *Engine) Grade(questions []model.Question, answers []model.AnswerEntry) Grade {
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	g := Grade{Items: make([]ItemGrade, 0, len(answers))}
	counted := make(map[uuid.UUID]bool, len(answers))

	for _, a := range answers {
		item := ItemGrade{QuestionID: a.QuestionID}

		id, err := uuid.Parse(a.QuestionID)
		if err != nil || a.SelectedIndex == nil {
			item.Status = StatusMalformed
			g.Items = append(g.Items, item)
			continue
		}

		q, ok := byID[id]
		if !ok {
			item.Status = StatusUnknown
			g.Items = append(g.Items, item)
			continue
		}

		if counted[id] {
			item.Status = StatusDuplicate
			g.Items = append(g.Items, item)
			continue
		}

		selected := *a.SelectedIndex
		if selected < model.Unanswered || selected >= q.Options.PopulatedCount() {
			item.Status = StatusMalformed
			g.Items = append(g.Items, item)
			continue
		}
		counted[id] = true

		switch {
		case selected == model.Unanswered:
			item.Status = StatusUnanswered
		case selected == q.CorrectAnswerIndex:
			item.Status = StatusCorrect
			item.Points = e.weights.Of(q.Difficulty)
			g.AttemptedCount++
			g.CorrectCount++
			g.TotalScore += item.Points
		default:
			item.Status = StatusIncorrect
			g.AttemptedCount++
		}
		g.Items = append(g.Items, item)
	}

	return g
}
