package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/quizgrade/internal/grading"
	"github.com/mind-engage/quizgrade/internal/peerreview"
	"github.com/mind-engage/quizgrade/internal/quiz"
	syncx "github.com/mind-engage/quizgrade/internal/sync"
)

// ErrNoAnswer is returned when a learner has nothing to validate for a quiz.
var ErrNoAnswer = errors.New("no answer")

type Service struct {
	store  quiz.Store
	engine *grading.Engine
	events syncx.Log
	log    *zap.Logger
}

func NewService(store quiz.Store, engine *grading.Engine, events syncx.Log, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, engine: engine, events: events, log: log}
}

// Load fetches and buckets one learner's progress over quizIDs.
func (s *Service) Load(ctx context.Context, answererID string, quizIDs []string, opts Options) (grading.Progress, error) {
	quizzes, err := s.store.GetQuizzes(ctx, quizIDs)
	if err != nil {
		return grading.Progress{}, fmt.Errorf("load quizzes: %w", err)
	}
	answers, err := s.store.AnswersFor(ctx, answererID, quizIDs)
	if err != nil {
		return grading.Progress{}, fmt.Errorf("load answers: %w", err)
	}
	var given, received []quiz.PeerReview
	if opts.PeerReviews {
		if given, err = s.store.PeerReviewsGiven(ctx, answererID, quizIDs); err != nil {
			return grading.Progress{}, fmt.Errorf("load given reviews: %w", err)
		}
		if received, err = s.store.PeerReviewsReceived(ctx, answererID, quizIDs); err != nil {
			return grading.Progress{}, fmt.Errorf("load received reviews: %w", err)
		}
	}
	return Assemble(quizzes, answers, given, received, opts), nil
}

// ProgressWithValidation builds a learner's report, scoring it when opts ask
// for validation.
func (s *Service) ProgressWithValidation(ctx context.Context, answererID string, quizIDs []string, opts Options) (Report, error) {
	p, err := s.Load(ctx, answererID, quizIDs, opts)
	if err != nil {
		return Report{}, err
	}
	rep := Report{AnswererID: answererID, Progress: p}
	if c, ok, err := s.store.GetConfirmation(ctx, answererID); err != nil {
		return Report{}, fmt.Errorf("load confirmation: %w", err)
	} else if ok {
		rep.Confirmation = &c
	}
	if opts.validate() {
		res := s.engine.ValidateProgress(p)
		rep.Result = &res
		s.log.Debug("progress validated",
			zap.String("answerer_id", answererID),
			zap.Int("quizzes", len(quizIDs)),
			zap.Float64("score", res.Validation.Score),
		)
	}
	return rep, nil
}

// ValidateAnswer scores the newest accepted answer of answererID to quizID
// and records the normalized result as the learner's score.
func (s *Service) ValidateAnswer(ctx context.Context, answererID, quizID string) (grading.Validated, error) {
	p, err := s.Load(ctx, answererID, []string{quizID}, Options{Answers: true, PeerReviews: true})
	if err != nil {
		return grading.Validated{}, err
	}
	switch {
	case len(p.Answered) == 1:
	case len(p.Answered)+len(p.Rejected)+len(p.NotAnswered) == 0:
		return grading.Validated{}, fmt.Errorf("quiz %s: %w", quizID, quiz.ErrNotFound)
	default:
		return grading.Validated{}, fmt.Errorf("quiz %s: %w", quizID, ErrNoAnswer)
	}

	v, err := s.engine.ValidateAnswer(&p.Answered[0])
	if err != nil {
		return grading.Validated{}, err
	}

	meta, _ := json.Marshal(map[string]int{"points": v.Validation.Points, "maxPoints": v.Validation.MaxPoints})
	score, err := s.store.UpsertScore(ctx, quiz.Score{
		AnswererID: answererID,
		QuizID:     quizID,
		Score:      v.Validation.NormalizedPoints,
		Meta:       meta,
	})
	if err != nil {
		return grading.Validated{}, fmt.Errorf("record score: %w", err)
	}

	s.emit(ctx, syncx.EventAnswerValidated, v.Answer[0].ID, map[string]any{
		"answererId": answererID,
		"quizId":     quizID,
		"points":     v.Validation.Points,
		"maxPoints":  v.Validation.MaxPoints,
	})
	s.emit(ctx, syncx.EventScoreRecorded, answererID+"|"+quizID, score)
	s.log.Info("answer validated",
		zap.String("answerer_id", answererID),
		zap.String("quiz_id", quizID),
		zap.Int("points", v.Validation.Points),
		zap.Int("max_points", v.Validation.MaxPoints),
	)
	return v, nil
}

// Moderate confirms or rejects an answer.
func (s *Service) Moderate(ctx context.Context, answerID string, confirmed, rejected bool) (quiz.Answer, error) {
	a, err := s.store.SetAnswerStatus(ctx, answerID, confirmed, rejected)
	if err != nil {
		return quiz.Answer{}, err
	}
	s.emit(ctx, syncx.EventAnswerModerated, answerID, map[string]any{
		"quizId":     a.QuizID,
		"answererId": a.AnswererID,
		"confirmed":  confirmed,
		"rejected":   rejected,
	})
	return a, nil
}

// BatchProgress loads and scores several learners over the same quizzes.
func (s *Service) BatchProgress(ctx context.Context, answererIDs, quizIDs []string) (map[string]grading.ProgressResult, error) {
	opts := Options{Answers: true, Validation: true}
	loaded := make([]grading.Progress, len(answererIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.engine.Workers())
	for i, id := range answererIDs {
		g.Go(func() error {
			p, err := s.Load(gctx, id, quizIDs, opts)
			if err != nil {
				return fmt.Errorf("answerer %s: %w", id, err)
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make(map[string]grading.Progress, len(answererIDs))
	for i, id := range answererIDs {
		batch[id] = loaded[i]
	}
	return s.engine.ValidateProgressBatch(ctx, batch)
}

// Answerers lists the newest answer of everyone who answered quizID, created
// at or before dateTo when it is set.
func (s *Service) Answerers(ctx context.Context, quizID string, dateTo time.Time) ([]peerreview.Answerer, error) {
	answers, err := s.store.LatestAnswersByAnswerer(ctx, quizID, dateTo)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	reviews, err := s.store.PeerReviewsForQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return peerreview.Summarize(answers, reviews), nil
}

func (s *Service) emit(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(typ, key, payload)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		s.log.Warn("event not recorded", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}
