package model

import "github.com/google/uuid"

// Unanswered is the selected index sent for a question the user left blank.
const Unanswered = -1

// AnswerEntry is one element of a submission. SelectedIndex is a pointer so a
// missing field can be told apart from index 0.
type AnswerEntry struct {
	QuestionID    string `json:"questionId"`
	SelectedIndex *int   `json:"selectedIndex"`
}

// NewAnswerEntry builds a well-formed entry.
func NewAnswerEntry(questionID uuid.UUID, selected int) AnswerEntry {
	idx := selected
	return AnswerEntry{QuestionID: questionID.String(), SelectedIndex: &idx}
}

// SubmitRequest is the body of a test submission. The answer count is bounded
// by the largest configurable test.
type SubmitRequest struct {
	UserAnswers      []AnswerEntry `json:"userAnswers" binding:"max=500"`
	TimeTakenSeconds int           `json:"timeTakenSeconds"`
}

// SubmitResponse is all the submitter learns about its result.
type SubmitResponse struct {
	ResultID uuid.UUID `json:"resultId"`
}
