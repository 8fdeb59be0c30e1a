package progress

import (
	"encoding/json"

	"github.com/mind-engage/quizgrade/internal/grading"
	"github.com/mind-engage/quizgrade/internal/quiz"
)

// Report is a learner's progress, scored when Result is set and raw otherwise.
type Report struct {
	AnswererID   string
	Confirmation *quiz.Confirmation
	Progress     grading.Progress
	Result       *grading.ProgressResult
}

// MarshalJSON flattens the buckets next to answererId and confirmation; a
// missing confirmation is rendered as {}.
func (r Report) MarshalJSON() ([]byte, error) {
	var confirmation any = struct{}{}
	if r.Confirmation != nil {
		confirmation = r.Confirmation
	}
	if r.Result != nil {
		return json.Marshal(struct {
			grading.ProgressResult
			AnswererID   string `json:"answererId"`
			Confirmation any    `json:"confirmation"`
		}{*r.Result, r.AnswererID, confirmation})
	}
	return json.Marshal(struct {
		grading.Progress
		AnswererID   string `json:"answererId"`
		Confirmation any    `json:"confirmation"`
	}{r.Progress, r.AnswererID, confirmation})
}
