package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidQuiz = errors.New("invalid quiz")
)

// Store persists quizzes, learner answers and the side data the grading
// engine consumes. Implementations return answers newest first.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	// GetQuizzes returns quizzes in the order of ids; unknown ids are skipped.
	GetQuizzes(ctx context.Context, ids []string) ([]Quiz, error)
	// QuizzesByTags returns quizzes carrying all of tags, optionally owned by userID.
	QuizzesByTags(ctx context.Context, tags []string, userID string) ([]Quiz, error)
	QuizIDsByTags(ctx context.Context, tags []string) ([]string, error)
	DistinctTags(ctx context.Context, tags []string, userID string) ([]string, error)

	PutAnswer(ctx context.Context, a Answer) (Answer, error)
	GetAnswer(ctx context.Context, id string) (Answer, error)
	AnswersFor(ctx context.Context, answererID string, quizIDs []string) ([]Answer, error)
	SetAnswerStatus(ctx context.Context, answerID string, confirmed, rejected bool) (Answer, error)
	// LatestAnswersByAnswerer returns the newest answer of every answerer of
	// quizID created at or before dateTo (zero dateTo means no bound).
	LatestAnswersByAnswerer(ctx context.Context, quizID string, dateTo time.Time) ([]Answer, error)

	PutPeerReview(ctx context.Context, pr PeerReview) (PeerReview, error)
	PeerReviewsGiven(ctx context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error)
	PeerReviewsReceived(ctx context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error)
	PeerReviewsForQuiz(ctx context.Context, quizID string) ([]PeerReview, error)

	GetConfirmation(ctx context.Context, answererID string) (Confirmation, bool, error)
	// SetConfirmation stores data once; later calls return the stored record.
	SetConfirmation(ctx context.Context, answererID string, data json.RawMessage) (Confirmation, error)

	UpsertScore(ctx context.Context, s Score) (Score, error)
	ScoresFor(ctx context.Context, answererID string, quizIDs []string) ([]Score, error)
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func hasAllTags(q Quiz, tags []string) bool {
	for _, t := range tags {
		if !q.HasTag(t) {
			return false
		}
	}
	return true
}
