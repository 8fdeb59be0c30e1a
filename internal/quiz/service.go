package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu            sync.RWMutex
	quizzes       map[string]Quiz
	answers       []Answer // insertion order
	reviews       []PeerReview
	confirmations map[string]Confirmation
	scores        map[string]Score // answererID|quizID
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:       map[string]Quiz{},
		confirmations: map[string]Confirmation{},
		scores:        map[string]Score{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) error {
	if err := ValidateQuiz(q); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.quizzes[q.ID]; ok && q.CreatedAt == 0 {
		q.CreatedAt = prev.CreatedAt
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = nowMillis()
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuizzes(_ context.Context, ids []string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(ids))
	for _, id := range ids {
		if q, ok := m.quizzes[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryStore) QuizzesByTags(_ context.Context, tags []string, userID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Quiz
	for _, q := range m.quizzes {
		if !hasAllTags(q, tags) || (userID != "" && q.UserID != userID) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) QuizIDsByTags(ctx context.Context, tags []string) ([]string, error) {
	qs, err := m.QuizzesByTags(ctx, tags, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (m *memoryStore) DistinctTags(ctx context.Context, tags []string, userID string) ([]string, error) {
	qs, err := m.QuizzesByTags(ctx, tags, userID)
	if err != nil {
		return nil, err
	}
	return collectTags(qs), nil
}

func (m *memoryStore) PutAnswer(_ context.Context, a Answer) (Answer, error) {
	if a.QuizID == "" || a.AnswererID == "" {
		return Answer{}, fmt.Errorf("answer needs quizId and answererId")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[a.QuizID]; !ok {
		return Answer{}, fmt.Errorf("quiz %s: %w", a.QuizID, ErrNotFound)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = nowMillis()
	}
	m.answers = append(m.answers, a)
	return a, nil
}

func (m *memoryStore) GetAnswer(_ context.Context, id string) (Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.answers {
		if a.ID == id {
			return a, nil
		}
	}
	return Answer{}, fmt.Errorf("answer %s: %w", id, ErrNotFound)
}

func (m *memoryStore) AnswersFor(_ context.Context, answererID string, quizIDs []string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Answer
	for _, a := range m.answers {
		if a.AnswererID == answererID && slices.Contains(quizIDs, a.QuizID) {
			out = append(out, a)
		}
	}
	newestFirst(out)
	return out, nil
}

func (m *memoryStore) SetAnswerStatus(_ context.Context, answerID string, confirmed, rejected bool) (Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.answers {
		if m.answers[i].ID == answerID {
			m.answers[i].Confirmed = confirmed
			m.answers[i].Rejected = rejected
			return m.answers[i], nil
		}
	}
	return Answer{}, fmt.Errorf("answer %s: %w", answerID, ErrNotFound)
}

func (m *memoryStore) LatestAnswersByAnswerer(_ context.Context, quizID string, dateTo time.Time) ([]Answer, error) {
	m.mu.RLock()
	var matched []Answer
	for _, a := range m.answers {
		if a.QuizID != quizID {
			continue
		}
		if !dateTo.IsZero() && a.CreatedAt > dateTo.UnixMilli() {
			continue
		}
		matched = append(matched, a)
	}
	m.mu.RUnlock()
	newestFirst(matched)
	return latestPerAnswerer(matched), nil
}

func (m *memoryStore) PutPeerReview(_ context.Context, pr PeerReview) (PeerReview, error) {
	if pr.GiverAnswererID == "" || pr.TargetAnswererID == "" {
		return PeerReview{}, fmt.Errorf("peer review needs giver and target")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	if pr.CreatedAt == 0 {
		pr.CreatedAt = nowMillis()
	}
	m.reviews = append(m.reviews, pr)
	return pr, nil
}

func (m *memoryStore) filterReviews(keep func(PeerReview) bool) []PeerReview {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []PeerReview
	for _, pr := range m.reviews {
		if keep(pr) {
			out = append(out, pr)
		}
	}
	return out
}

func (m *memoryStore) PeerReviewsGiven(_ context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error) {
	return m.filterReviews(func(pr PeerReview) bool {
		return pr.GiverAnswererID == answererID && slices.Contains(sourceQuizIDs, pr.SourceQuizID)
	}), nil
}

func (m *memoryStore) PeerReviewsReceived(_ context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error) {
	return m.filterReviews(func(pr PeerReview) bool {
		return pr.TargetAnswererID == answererID && slices.Contains(sourceQuizIDs, pr.SourceQuizID)
	}), nil
}

func (m *memoryStore) PeerReviewsForQuiz(_ context.Context, quizID string) ([]PeerReview, error) {
	return m.filterReviews(func(pr PeerReview) bool { return pr.QuizID == quizID }), nil
}

func (m *memoryStore) GetConfirmation(_ context.Context, answererID string) (Confirmation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.confirmations[answererID]
	return c, ok, nil
}

func (m *memoryStore) SetConfirmation(_ context.Context, answererID string, data json.RawMessage) (Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.confirmations[answererID]; ok {
		return c, nil
	}
	c := Confirmation{AnswererID: answererID, Data: data, CreatedAt: nowMillis()}
	m.confirmations[answererID] = c
	return c, nil
}

func (m *memoryStore) UpsertScore(_ context.Context, s Score) (Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = nowMillis()
	m.scores[s.AnswererID+"|"+s.QuizID] = s
	return s, nil
}

func (m *memoryStore) ScoresFor(_ context.Context, answererID string, quizIDs []string) ([]Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Score, 0, len(quizIDs))
	for _, id := range quizIDs {
		if s, ok := m.scores[answererID+"|"+id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// newestFirst orders answers by creation time descending, keeping insertion
// order reversed for equal timestamps.
func newestFirst(as []Answer) {
	slices.Reverse(as)
	sort.SliceStable(as, func(i, j int) bool { return as[i].CreatedAt > as[j].CreatedAt })
}

func latestPerAnswerer(sorted []Answer) []Answer {
	seen := map[string]bool{}
	out := make([]Answer, 0, len(sorted))
	for _, a := range sorted {
		if seen[a.AnswererID] {
			continue
		}
		seen[a.AnswererID] = true
		out = append(out, a)
	}
	return out
}

func collectTags(qs []Quiz) []string {
	set := map[string]struct{}{}
	for _, q := range qs {
		for _, t := range q.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
