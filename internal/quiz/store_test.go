package quiz_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/quizgrade/internal/db"
	"github.com/mind-engage/quizgrade/internal/quiz"
)

func openSQLite(t *testing.T) quiz.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return quiz.NewSQLStore(conn, string(db.DriverSQLite))
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s quiz.Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, quiz.NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func sampleQuiz(id string, tags ...string) quiz.Quiz {
	return quiz.Quiz{
		ID:    id,
		Type:  quiz.TypeMultipleChoice,
		Title: "Quiz " + id,
		Tags:  tags,
		Data: quiz.Data{
			Choices: []quiz.Choice{{ID: "a"}, {ID: "b"}},
			Meta:    quiz.Meta{RightAnswer: json.RawMessage(`["a"]`)},
		},
	}
}

func TestStore_QuizRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		q := sampleQuiz("q1", "week-1")
		q.Data.Meta.Extra = map[string]json.RawMessage{"hint": json.RawMessage(`"think"`)}
		require.NoError(t, s.PutQuiz(ctx, q))

		got, err := s.GetQuizzes(ctx, []string{"missing", "q1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Quiz q1", got[0].Title)
		assert.JSONEq(t, `["a"]`, string(got[0].Data.Meta.RightAnswer))
		assert.JSONEq(t, `"think"`, string(got[0].Data.Meta.Extra["hint"]))
		assert.NotZero(t, got[0].CreatedAt)
	})
}

func TestStore_PutQuizRejectsInvalid(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		q := sampleQuiz("q1")
		q.Data.Meta.RightAnswer = nil
		err := s.PutQuiz(context.Background(), q)
		assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)
	})
}

func TestStore_Tags(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		q1 := sampleQuiz("q1", "course", "week-1")
		q1.UserID = "teacher-1"
		q2 := sampleQuiz("q2", "course", "week-2")
		require.NoError(t, s.PutQuiz(ctx, q1))
		require.NoError(t, s.PutQuiz(ctx, q2))
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz("q3", "other")))

		ids, err := s.QuizIDsByTags(ctx, []string{"course"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"q1", "q2"}, ids)

		ids, err = s.QuizIDsByTags(ctx, []string{"course", "week-2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"q2"}, ids)

		qs, err := s.QuizzesByTags(ctx, []string{"course"}, "teacher-1")
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, "q1", qs[0].ID)

		tags, err := s.DistinctTags(ctx, []string{"course"}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"course", "week-1", "week-2"}, tags)
	})
}

func TestStore_Answers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz("q1")))

		_, err := s.PutAnswer(ctx, quiz.Answer{QuizID: "nope", AnswererID: "l1"})
		assert.ErrorIs(t, err, quiz.ErrNotFound)

		first, err := s.PutAnswer(ctx, quiz.Answer{QuizID: "q1", AnswererID: "l1", Data: json.RawMessage(`"b"`), CreatedAt: 1000})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		second, err := s.PutAnswer(ctx, quiz.Answer{QuizID: "q1", AnswererID: "l1", Data: json.RawMessage(`"a"`), CreatedAt: 2000})
		require.NoError(t, err)
		_, err = s.PutAnswer(ctx, quiz.Answer{QuizID: "q1", AnswererID: "l2", Data: json.RawMessage(`"a"`), CreatedAt: 1500})
		require.NoError(t, err)

		got, err := s.AnswersFor(ctx, "l1", []string{"q1"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID, "newest first")

		updated, err := s.SetAnswerStatus(ctx, first.ID, true, false)
		require.NoError(t, err)
		assert.True(t, updated.Confirmed)
		back, err := s.GetAnswer(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, back.Confirmed)
		assert.JSONEq(t, `"b"`, string(back.Data))

		_, err = s.SetAnswerStatus(ctx, "missing", true, false)
		assert.ErrorIs(t, err, quiz.ErrNotFound)

		latest, err := s.LatestAnswersByAnswerer(ctx, "q1", time.Time{})
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, second.ID, latest[0].ID)

		bounded, err := s.LatestAnswersByAnswerer(ctx, "q1", time.UnixMilli(1200))
		require.NoError(t, err)
		require.Len(t, bounded, 1)
		assert.Equal(t, first.ID, bounded[0].ID)
	})
}

func TestStore_PeerReviews(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		_, err := s.PutPeerReview(ctx, quiz.PeerReview{QuizID: "pr", SourceQuizID: "essay", GiverAnswererID: "l1", TargetAnswererID: "l2", ChosenQuizAnswerID: "ans-2"})
		require.NoError(t, err)
		_, err = s.PutPeerReview(ctx, quiz.PeerReview{QuizID: "pr", SourceQuizID: "other", GiverAnswererID: "l2", TargetAnswererID: "l1"})
		require.NoError(t, err)

		given, err := s.PeerReviewsGiven(ctx, "l1", []string{"essay"})
		require.NoError(t, err)
		require.Len(t, given, 1)
		assert.Equal(t, "ans-2", given[0].ChosenQuizAnswerID)

		received, err := s.PeerReviewsReceived(ctx, "l1", []string{"essay"})
		require.NoError(t, err)
		assert.Empty(t, received)

		all, err := s.PeerReviewsForQuiz(ctx, "pr")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = s.PutPeerReview(ctx, quiz.PeerReview{QuizID: "pr"})
		assert.Error(t, err)
	})
}

func TestStore_ConfirmationIsSetOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		_, ok, err := s.GetConfirmation(ctx, "l1")
		require.NoError(t, err)
		assert.False(t, ok)

		c, err := s.SetConfirmation(ctx, "l1", json.RawMessage(`{"v":1}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(c.Data))

		c, err = s.SetConfirmation(ctx, "l1", json.RawMessage(`{"v":2}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(c.Data))

		c, ok, err = s.GetConfirmation(ctx, "l1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "l1", c.AnswererID)
	})
}

func TestStore_Scores(t *testing.T) {
	forEachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		_, err := s.UpsertScore(ctx, quiz.Score{AnswererID: "l1", QuizID: "q1", Score: 0.5})
		require.NoError(t, err)
		_, err = s.UpsertScore(ctx, quiz.Score{AnswererID: "l1", QuizID: "q1", Score: 1})
		require.NoError(t, err)
		_, err = s.UpsertScore(ctx, quiz.Score{AnswererID: "l1", QuizID: "q2", Score: 0.25})
		require.NoError(t, err)

		scores, err := s.ScoresFor(ctx, "l1", []string{"q2", "q1", "q3"})
		require.NoError(t, err)
		require.Len(t, scores, 2)
		assert.Equal(t, "q2", scores[0].QuizID)
		assert.Equal(t, 1.0, scores[1].Score)
	})
}
