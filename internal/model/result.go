package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the persisted outcome of one submitted test.
type Result struct {
	ID                   uuid.UUID   `json:"id"`
	UserID               uuid.UUID   `json:"userId"`
	QuestionIDs          []uuid.UUID `json:"questionIds"`
	TotalScore           int         `json:"totalScore"`
	MaxScore             int         `json:"maxScore"`
	QuestionsAttempted   int         `json:"questionsAttempted"`
	CorrectAnswers       int         `json:"correctAnswers"`
	TotalQuestions       int         `json:"totalQuestions"`
	TimeTakenSeconds     int         `json:"timeTakenSeconds"`
	CertificatePurchased bool        `json:"certificatePurchased"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// ResultWithUser joins a result with the owner's display data, for certificates.
type ResultWithUser struct {
	Result
	UserName string `json:"userName"`
	Username string `json:"username"`
	Email    string `json:"-"`
}

// LeaderboardEntry is the best result of one user.
type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	MaxScore int       `json:"maxScore"`
	ResultID uuid.UUID `json:"resultId"`
	TestDate time.Time `json:"testDate"`
}

// Beats reports whether e should replace other as the best entry of the same user.
// Higher scores win and ties keep the earlier test.
func (e LeaderboardEntry) Beats(other LeaderboardEntry) bool {
	if e.MaxScore != other.MaxScore {
		return e.MaxScore > other.MaxScore
	}
	return e.TestDate.Before(other.TestDate)
}

// ResultListQuery holds the history listing parameters.
type ResultListQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"perPage" binding:"omitempty,min=1,max=100"`
}
