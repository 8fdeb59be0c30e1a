// Package progress loads a learner's quizzes, answers and peer reviews and
// turns them into the buckets the grading engine aggregates.
package progress

import (
	"sort"

	"github.com/mind-engage/quizgrade/internal/grading"
	"github.com/mind-engage/quizgrade/internal/peerreview"
	"github.com/mind-engage/quizgrade/internal/quiz"
)

// Options select what a progress report contains.
type Options struct {
	Answers      bool `json:"answers"`      // include submissions in entries
	PeerReviews  bool `json:"peerReviews"`  // attach given/received reviews to essays
	Validation   bool `json:"validation"`   // score and total the buckets
	StripAnswers bool `json:"stripAnswers"` // hide answer keys; disables Validation
}

func (o Options) validate() bool { return o.Validation && !o.StripAnswers }

// Assemble sorts quizzes into answered, rejected and notAnswered. A quiz is
// answered when it has a submission that was not rejected, and rejected when
// every submission was. Entries keep quiz order and carry answers newest
// first.
func Assemble(quizzes []quiz.Quiz, answers []quiz.Answer, given, received []quiz.PeerReview, opts Options) grading.Progress {
	byQuiz := map[string][]quiz.Answer{}
	for _, a := range answers {
		byQuiz[a.QuizID] = append(byQuiz[a.QuizID], a)
	}

	p := grading.Progress{
		Answered:    []grading.Entry{},
		NotAnswered: []grading.Entry{},
		Rejected:    []grading.Entry{},
	}
	keepAnswers := opts.Answers || opts.validate()
	for _, q := range quizzes {
		all := newestFirst(byQuiz[q.ID])
		kept := accepted(all)

		entry := grading.Entry{Quiz: q}
		if opts.StripAnswers {
			entry.Quiz = q.Stripped()
		}
		if opts.PeerReviews && q.Type == quiz.TypeEssay {
			entry.PeerReviews = &quiz.PeerReviewSet{
				Given:    fromSource(given, q.ID),
				Received: fromSource(received, q.ID),
			}
			kept = withReceivedCounts(kept, entry.PeerReviews.Received)
		}

		switch {
		case len(kept) > 0:
			if keepAnswers {
				entry.Answer = kept
			}
			p.Answered = append(p.Answered, entry)
		case len(all) > 0:
			if keepAnswers {
				entry.Answer = all
			}
			p.Rejected = append(p.Rejected, entry)
		default:
			p.NotAnswered = append(p.NotAnswered, entry)
		}
	}
	return p
}

func newestFirst(as []quiz.Answer) []quiz.Answer {
	out := append([]quiz.Answer(nil), as...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func accepted(as []quiz.Answer) []quiz.Answer {
	var out []quiz.Answer
	for _, a := range as {
		if !a.Rejected {
			out = append(out, a)
		}
	}
	return out
}

func fromSource(reviews []quiz.PeerReview, quizID string) []quiz.PeerReview {
	out := []quiz.PeerReview{}
	for _, pr := range reviews {
		if pr.SourceQuizID == quizID {
			out = append(out, pr)
		}
	}
	return out
}

// withReceivedCounts sets each answer's PeerReviewCount to the reviews that
// chose it.
func withReceivedCounts(as []quiz.Answer, received []quiz.PeerReview) []quiz.Answer {
	for i := range as {
		as[i].PeerReviewCount = peerreview.CountReceivedForAnswer(received, as[i].ID)
	}
	return as
}
