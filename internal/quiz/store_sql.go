package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	if err := ValidateQuiz(q); err != nil {
		return err
	}
	tj, err := json.Marshal(q.Tags)
	if err != nil {
		return err
	}
	dj, err := json.Marshal(q.Data)
	if err != nil {
		return err
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = nowMillis()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO quizzes (id,type,title,body,user_id,tags_json,data_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type, title=EXCLUDED.title, body=EXCLUDED.body,
		user_id=EXCLUDED.user_id, tags_json=EXCLUDED.tags_json, data_json=EXCLUDED.data_json`,
		q.ID, string(q.Type), q.Title, q.Body, q.UserID, string(tj), string(dj), q.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert quiz: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_tags WHERE quiz_id=$1`, q.ID); err != nil {
		return err
	}
	for _, t := range q.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO quiz_tags (quiz_id,tag) VALUES ($1,$2) ON CONFLICT DO NOTHING`, q.ID, t); err != nil {
			return fmt.Errorf("tag quiz: %w", err)
		}
	}
	return tx.Commit()
}

const quizColumns = `id,type,title,body,user_id,tags_json,data_json,created_at`

func scanQuiz(sc interface{ Scan(...any) error }) (Quiz, error) {
	var q Quiz
	var typ, tj, dj string
	if err := sc.Scan(&q.ID, &typ, &q.Title, &q.Body, &q.UserID, &tj, &dj, &q.CreatedAt); err != nil {
		return Quiz{}, err
	}
	q.Type = Type(typ)
	if err := json.Unmarshal([]byte(tj), &q.Tags); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s tags: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(dj), &q.Data); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s data: %w", q.ID, err)
	}
	return q, nil
}

func (s *SQLStore) GetQuizzes(ctx context.Context, ids []string) ([]Quiz, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inList(1, ids)
	rows, err := s.db.QueryContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := map[string]Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Quiz, 0, len(byID))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *SQLStore) QuizIDsByTags(ctx context.Context, tags []string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if len(tags) == 0 {
		rows, err = s.db.QueryContext(ctx, `SELECT id FROM quizzes ORDER BY created_at, id`)
	} else {
		in, args := inList(1, tags)
		args = append(args, len(tags))
		rows, err = s.db.QueryContext(ctx, `SELECT q.id FROM quizzes q
			JOIN quiz_tags t ON t.quiz_id = q.id
			WHERE t.tag IN (`+in+`)
			GROUP BY q.id, q.created_at
			HAVING COUNT(DISTINCT t.tag) = $`+strconv.Itoa(len(tags)+1)+`
			ORDER BY q.created_at, q.id`, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) QuizzesByTags(ctx context.Context, tags []string, userID string) ([]Quiz, error) {
	ids, err := s.QuizIDsByTags(ctx, tags)
	if err != nil {
		return nil, err
	}
	qs, err := s.GetQuizzes(ctx, ids)
	if err != nil || userID == "" {
		return qs, err
	}
	out := qs[:0]
	for _, q := range qs {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *SQLStore) DistinctTags(ctx context.Context, tags []string, userID string) ([]string, error) {
	qs, err := s.QuizzesByTags(ctx, tags, userID)
	if err != nil {
		return nil, err
	}
	return collectTags(qs), nil
}

const answerColumns = `id,quiz_id,answerer_id,data_json,confirmed,rejected,spam_flags,peer_review_count,created_at`

func scanAnswer(sc interface{ Scan(...any) error }) (Answer, error) {
	var a Answer
	var data string
	var confirmed, rejected int
	if err := sc.Scan(&a.ID, &a.QuizID, &a.AnswererID, &data, &confirmed, &rejected, &a.SpamFlags, &a.PeerReviewCount, &a.CreatedAt); err != nil {
		return Answer{}, err
	}
	if data != "" {
		a.Data = json.RawMessage(data)
	}
	a.Confirmed, a.Rejected = confirmed != 0, rejected != 0
	return a, nil
}

func collectAnswers(rows *sql.Rows) ([]Answer, error) {
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutAnswer(ctx context.Context, a Answer) (Answer, error) {
	if a.QuizID == "" || a.AnswererID == "" {
		return Answer{}, fmt.Errorf("answer needs quizId and answererId")
	}
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, a.QuizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Answer{}, fmt.Errorf("quiz %s: %w", a.QuizID, ErrNotFound)
		}
		return Answer{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = nowMillis()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_answers (`+answerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.QuizID, a.AnswererID, string(a.Data), b2i(a.Confirmed), b2i(a.Rejected), a.SpamFlags, a.PeerReviewCount, a.CreatedAt)
	if err != nil {
		return Answer{}, fmt.Errorf("insert answer: %w", err)
	}
	return a, nil
}

func (s *SQLStore) GetAnswer(ctx context.Context, id string) (Answer, error) {
	a, err := scanAnswer(s.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM quiz_answers WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Answer{}, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *SQLStore) AnswersFor(ctx context.Context, answererID string, quizIDs []string) ([]Answer, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	in, args := inList(2, quizIDs)
	args = append([]any{answererID}, args...)
	rows, err := s.db.QueryContext(ctx, `SELECT `+answerColumns+` FROM quiz_answers
		WHERE answerer_id=$1 AND quiz_id IN (`+in+`)
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}

func (s *SQLStore) SetAnswerStatus(ctx context.Context, answerID string, confirmed, rejected bool) (Answer, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE quiz_answers SET confirmed=$1, rejected=$2 WHERE id=$3`,
		b2i(confirmed), b2i(rejected), answerID)
	if err != nil {
		return Answer{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Answer{}, fmt.Errorf("answer %s: %w", answerID, ErrNotFound)
	}
	return s.GetAnswer(ctx, answerID)
}

func (s *SQLStore) LatestAnswersByAnswerer(ctx context.Context, quizID string, dateTo time.Time) ([]Answer, error) {
	q := `SELECT ` + answerColumns + ` FROM quiz_answers WHERE quiz_id=$1`
	args := []any{quizID}
	if !dateTo.IsZero() {
		q += ` AND created_at <= $2`
		args = append(args, dateTo.UnixMilli())
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	all, err := collectAnswers(rows)
	if err != nil {
		return nil, err
	}
	return latestPerAnswerer(all), nil
}

const reviewColumns = `id,quiz_id,source_quiz_id,giver_answerer_id,target_answerer_id,chosen_answer_id,rejected_answer_id,review_json,created_at`

func (s *SQLStore) PutPeerReview(ctx context.Context, pr PeerReview) (PeerReview, error) {
	if pr.GiverAnswererID == "" || pr.TargetAnswererID == "" {
		return PeerReview{}, fmt.Errorf("peer review needs giver and target")
	}
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	if pr.CreatedAt == 0 {
		pr.CreatedAt = nowMillis()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO peer_reviews (`+reviewColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		pr.ID, pr.QuizID, pr.SourceQuizID, pr.GiverAnswererID, pr.TargetAnswererID,
		pr.ChosenQuizAnswerID, pr.RejectedQuizAnswerID, string(pr.Review), pr.CreatedAt)
	if err != nil {
		return PeerReview{}, fmt.Errorf("insert peer review: %w", err)
	}
	return pr, nil
}

func (s *SQLStore) queryReviews(ctx context.Context, where string, args ...any) ([]PeerReview, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM peer_reviews WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PeerReview
	for rows.Next() {
		var pr PeerReview
		var review string
		if err := rows.Scan(&pr.ID, &pr.QuizID, &pr.SourceQuizID, &pr.GiverAnswererID, &pr.TargetAnswererID,
			&pr.ChosenQuizAnswerID, &pr.RejectedQuizAnswerID, &review, &pr.CreatedAt); err != nil {
			return nil, err
		}
		if review != "" {
			pr.Review = json.RawMessage(review)
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (s *SQLStore) PeerReviewsGiven(ctx context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error) {
	if len(sourceQuizIDs) == 0 {
		return nil, nil
	}
	in, args := inList(2, sourceQuizIDs)
	return s.queryReviews(ctx, `giver_answerer_id=$1 AND source_quiz_id IN (`+in+`)`, append([]any{answererID}, args...)...)
}

func (s *SQLStore) PeerReviewsReceived(ctx context.Context, answererID string, sourceQuizIDs []string) ([]PeerReview, error) {
	if len(sourceQuizIDs) == 0 {
		return nil, nil
	}
	in, args := inList(2, sourceQuizIDs)
	return s.queryReviews(ctx, `target_answerer_id=$1 AND source_quiz_id IN (`+in+`)`, append([]any{answererID}, args...)...)
}

func (s *SQLStore) PeerReviewsForQuiz(ctx context.Context, quizID string) ([]PeerReview, error) {
	return s.queryReviews(ctx, `quiz_id=$1`, quizID)
}

func (s *SQLStore) GetConfirmation(ctx context.Context, answererID string) (Confirmation, bool, error) {
	c := Confirmation{AnswererID: answererID}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data_json, created_at FROM confirmations WHERE answerer_id=$1`, answererID).
		Scan(&data, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Confirmation{}, false, nil
	}
	if err != nil {
		return Confirmation{}, false, err
	}
	if data != "" {
		c.Data = json.RawMessage(data)
	}
	return c, true, nil
}

func (s *SQLStore) SetConfirmation(ctx context.Context, answererID string, data json.RawMessage) (Confirmation, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO confirmations (answerer_id,data_json,created_at)
		VALUES ($1,$2,$3) ON CONFLICT (answerer_id) DO NOTHING`, answererID, string(data), nowMillis())
	if err != nil {
		return Confirmation{}, fmt.Errorf("set confirmation: %w", err)
	}
	c, _, err := s.GetConfirmation(ctx, answererID)
	return c, err
}

func (s *SQLStore) UpsertScore(ctx context.Context, sc Score) (Score, error) {
	sc.UpdatedAt = nowMillis()
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_scores (answerer_id,quiz_id,score,meta_json,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (answerer_id,quiz_id) DO UPDATE SET score=EXCLUDED.score, meta_json=EXCLUDED.meta_json, updated_at=EXCLUDED.updated_at`,
		sc.AnswererID, sc.QuizID, sc.Score, string(sc.Meta), sc.UpdatedAt)
	if err != nil {
		return Score{}, fmt.Errorf("upsert score: %w", err)
	}
	return sc, nil
}

func (s *SQLStore) ScoresFor(ctx context.Context, answererID string, quizIDs []string) ([]Score, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	in, args := inList(2, quizIDs)
	rows, err := s.db.QueryContext(ctx, `SELECT answerer_id,quiz_id,score,meta_json,updated_at FROM quiz_scores
		WHERE answerer_id=$1 AND quiz_id IN (`+in+`)`, append([]any{answererID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byQuiz := map[string]Score{}
	for rows.Next() {
		var sc Score
		var meta string
		if err := rows.Scan(&sc.AnswererID, &sc.QuizID, &sc.Score, &meta, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		if meta != "" {
			sc.Meta = json.RawMessage(meta)
		}
		byQuiz[sc.QuizID] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Score, 0, len(byQuiz))
	for _, id := range quizIDs {
		if sc, ok := byQuiz[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

// inList renders "$start,$start+1,..." for values and returns them as args.
func inList(start int, values []string) (string, []any) {
	ph := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		ph[i] = "$" + strconv.Itoa(start+i)
		args[i] = v
	}
	return strings.Join(ph, ","), args
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
