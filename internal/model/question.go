package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty classifies a question and determines its weight when graded.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the valid difficulties from easiest to hardest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MaxOptions is the number of option slots every question has.
const MaxOptions = 4

// MinOptions is the number of options a question needs to be answerable.
const MinOptions = 2

// Option is one answer choice. It may carry text, an image, or both.
type Option struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Populated reports whether the option shows anything to the user.
func (o Option) Populated() bool {
	return strings.TrimSpace(o.Text) != "" || strings.TrimSpace(o.ImageURL) != ""
}

// Options is the fixed set of option slots of a question. Being an array,
// every question owns its own copy.
type Options [MaxOptions]Option

// PopulatedCount returns the number of leading populated options. Populated
// options always form a prefix, so this is also the valid answer range.
func (o Options) PopulatedCount() int {
	n := 0
	for _, opt := range o {
		if !opt.Populated() {
			break
		}
		n++
	}
	return n
}

// Question is a multiple-choice item in the bank.
type Question struct {
	ID                 uuid.UUID  `json:"id"`
	Text               string     `json:"text"`
	ImageURL           string     `json:"imageUrl,omitempty"`
	Options            Options    `json:"options"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex"`
	Difficulty         Difficulty `json:"difficulty"`
	Category           string     `json:"category"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ErrQuestionInvalid is wrapped by every error Validate returns.
var ErrQuestionInvalid = errors.New("invalid question")

// Validate checks the invariants a question must hold before it is stored.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" && strings.TrimSpace(q.ImageURL) == "" {
		return fmt.Errorf("%w: question needs text or an image", ErrQuestionInvalid)
	}
	n := q.Options.PopulatedCount()
	for i := n; i < MaxOptions; i++ {
		if q.Options[i].Populated() {
			return fmt.Errorf("%w: option %d follows an empty option", ErrQuestionInvalid, i+1)
		}
	}
	if n < MinOptions {
		return fmt.Errorf("%w: at least %d options are required", ErrQuestionInvalid, MinOptions)
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= n {
		return fmt.Errorf("%w: correct answer must point at one of the %d options", ErrQuestionInvalid, n)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrQuestionInvalid, q.Difficulty)
	}
	if strings.TrimSpace(q.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrQuestionInvalid)
	}
	return nil
}

// ForUser returns the question as served to test takers, without the correct answer.
func (q *Question) ForUser() QuestionForUser {
	n := q.Options.PopulatedCount()
	opts := make([]Option, n)
	copy(opts, q.Options[:n])
	return QuestionForUser{
		ID:         q.ID,
		Text:       q.Text,
		ImageURL:   q.ImageURL,
		Options:    opts,
		Difficulty: q.Difficulty,
		Category:   q.Category,
	}
}

// QuestionForUser is the delivery shape of a question. It never carries the correct index.
type QuestionForUser struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	Options    []Option   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category"`
}

// QuestionRequest is the admin create/update body.
type QuestionRequest struct {
	Text               string     `json:"text" binding:"required_without=ImageURL,max=2000"`
	ImageURL           string     `json:"imageUrl" binding:"omitempty,max=500"`
	Options            []Option   `json:"options" binding:"required,min=2,max=4,dive"`
	CorrectAnswerIndex *int       `json:"correctAnswerIndex" binding:"required,min=0,max=3"`
	Difficulty         Difficulty `json:"difficulty" binding:"required,difficulty"`
	Category           string     `json:"category" binding:"required,max=100"`
}

// ToQuestion copies the request into a fresh Question. Each option is copied
// into its own slot.
func (r *QuestionRequest) ToQuestion() *Question {
	q := &Question{
		Text:       strings.TrimSpace(r.Text),
		ImageURL:   strings.TrimSpace(r.ImageURL),
		Difficulty: r.Difficulty,
		Category:   strings.TrimSpace(r.Category),
	}
	for i := 0; i < len(r.Options) && i < MaxOptions; i++ {
		q.Options[i] = Option{
			Text:     strings.TrimSpace(r.Options[i].Text),
			ImageURL: strings.TrimSpace(r.Options[i].ImageURL),
		}
	}
	if r.CorrectAnswerIndex != nil {
		q.CorrectAnswerIndex = *r.CorrectAnswerIndex
	}
	return q
}

// QuestionListQuery holds the admin listing filters.
type QuestionListQuery struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PerPage    int        `form:"perPage" binding:"omitempty,min=1,max=100"`
	Category   string     `form:"category" binding:"omitempty,max=100"`
	Difficulty Difficulty `form:"difficulty" binding:"omitempty,difficulty"`
}

// CategoryCount is one row of the category summary.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
