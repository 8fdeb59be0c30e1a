package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mind-engage/quizgrade/internal/progress"
	"github.com/mind-engage/quizgrade/internal/quiz"
	"github.com/mind-engage/quizgrade/internal/rbac"
)

// dateToLayout is the DD-MM-YYYY form accepted by /answerers.
const dateToLayout = "02-01-2006"

type progressReq struct {
	AnswererID   string   `json:"answererId"`
	QuizIDs      []string `json:"quizIds"`
	Answers      bool     `json:"answers"`
	PeerReviews  bool     `json:"peerReviews"`
	Validation   bool     `json:"validation"`
	StripAnswers bool     `json:"stripAnswers"`
}

// POST /progress
func ProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req progressReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		answerer := answererFor(r, req.AnswererID)
		rep, err := svc.ProgressWithValidation(r.Context(), answerer, req.QuizIDs, progress.Options{
			Answers:      req.Answers,
			PeerReviews:  req.PeerReviews,
			Validation:   req.Validation,
			StripAnswers: req.StripAnswers,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, rep)
	}
}

// POST /answers/validate
// Body: {"quizId":"...","answererId":"..."}; answererId is honoured for staff only.
func ValidateAnswerHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID     string `json:"quizId"`
			AnswererID string `json:"answererId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quizId required", http.StatusBadRequest)
			return
		}
		v, err := svc.ValidateAnswer(r.Context(), answererFor(r, req.AnswererID), req.QuizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, v)
	}
}

// POST /progress/batch
func BatchProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AnswererIDs []string `json:"answererIds"`
			QuizIDs     []string `json:"quizIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.BatchProgress(r.Context(), req.AnswererIDs, req.QuizIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// GET /answerers?quizId=...&dateTo=DD-MM-YYYY
func AnswerersHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := r.URL.Query().Get("quizId")
		if quizID == "" {
			http.Error(w, "quizId required", http.StatusBadRequest)
			return
		}
		var dateTo time.Time
		if s := r.URL.Query().Get("dateTo"); s != "" {
			d, err := time.ParseInLocation(dateToLayout, s, time.UTC)
			if err != nil {
				http.Error(w, "dateTo must be DD-MM-YYYY", http.StatusBadRequest)
				return
			}
			dateTo = d
		}
		out, err := svc.Answerers(r.Context(), quizID, dateTo)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// GET /scores?quizzes=a,b&answererId=...
func ScoresHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answerer := answererFor(r, r.URL.Query().Get("answererId"))
		scores, err := store.ScoresFor(r.Context(), answerer, csv(r.URL.Query().Get("quizzes")))
		if err != nil {
			writeErr(w, err)
			return
		}
		if scores == nil {
			scores = []quiz.Score{}
		}
		writeJSON(w, scores)
	}
}

// POST /confirmations
// Body: arbitrary JSON stored once per learner.
func ConfirmHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c, err := store.SetConfirmation(r.Context(), rbac.SubjectFromContext(r.Context()), data)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, c)
	}
}
