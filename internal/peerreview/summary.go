// Package peerreview derives the per-answerer peer review figures shown to
// teachers next to each learner's latest answer.
package peerreview

import (
	"encoding/json"

	"github.com/mind-engage/quizgrade/internal/quiz"
)

// Answerer is one learner's latest answer to a quiz plus how much peer
// reviewing went on around it.
type Answerer struct {
	AnswerID              string            `json:"answerId"`
	AnswererID            string            `json:"answererId"`
	SpamFlags             int               `json:"spamFlags"`
	Data                  json.RawMessage   `json:"data,omitempty"`
	Confirmed             bool              `json:"confirmed"`
	PeerReviewCount       int               `json:"peerReviewCount"`
	ReceivedPeerReviews   []quiz.PeerReview `json:"receivedPeerReviews"`
	GivenPeerReviewsCount int               `json:"givenPeerReviewsCount"`
}

// Summarize pairs each answer with the reviews its author received and the
// number they gave. Answers keep their order; reviews are the ones written
// for the quiz being listed.
func Summarize(answers []quiz.Answer, reviews []quiz.PeerReview) []Answerer {
	received := map[string][]quiz.PeerReview{}
	given := map[string]int{}
	for _, pr := range reviews {
		received[pr.TargetAnswererID] = append(received[pr.TargetAnswererID], pr)
		given[pr.GiverAnswererID]++
	}

	out := make([]Answerer, 0, len(answers))
	for _, a := range answers {
		r := received[a.AnswererID]
		if r == nil {
			r = []quiz.PeerReview{}
		}
		out = append(out, Answerer{
			AnswerID:              a.ID,
			AnswererID:            a.AnswererID,
			SpamFlags:             a.SpamFlags,
			Data:                  a.Data,
			Confirmed:             a.Confirmed,
			PeerReviewCount:       a.PeerReviewCount,
			ReceivedPeerReviews:   r,
			GivenPeerReviewsCount: given[a.AnswererID],
		})
	}
	return out
}

// CountReceivedForAnswer counts the reviews that picked answerID as the
// better of the two answers shown.
func CountReceivedForAnswer(reviews []quiz.PeerReview, answerID string) int {
	n := 0
	for _, pr := range reviews {
		if answerID != "" && pr.ChosenQuizAnswerID == answerID {
			n++
		}
	}
	return n
}
