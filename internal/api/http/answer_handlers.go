package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizgrade/internal/progress"
	"github.com/mind-engage/quizgrade/internal/quiz"
	"github.com/mind-engage/quizgrade/internal/rbac"
)

type createAnswerReq struct {
	QuizID     string          `json:"quizId"`
	AnswererID string          `json:"answererId"`
	Data       json.RawMessage `json:"data"`
	Confirmed  bool            `json:"confirmed"`
	Rejected   bool            `json:"rejected"`
}

// POST /answers
// Learners always answer as themselves and cannot self-confirm.
func CreateAnswerHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnswerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quizId required", http.StatusBadRequest)
			return
		}
		a := quiz.Answer{
			QuizID:     req.QuizID,
			AnswererID: answererFor(r, req.AnswererID),
			Data:       req.Data,
		}
		if a.AnswererID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if rbac.Allowed(r.Context(), rbac.PermAnswerModerate) {
			a.Confirmed, a.Rejected = req.Confirmed, req.Rejected
		}
		saved, err := store.PutAnswer(r.Context(), a)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(saved)
	}
}

// POST /answers/{answerID}/status
// Body: {"confirmed":true,"rejected":false}
func ModerateAnswerHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Confirmed bool `json:"confirmed"`
			Rejected  bool `json:"rejected"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Confirmed && req.Rejected {
			http.Error(w, "answer cannot be both confirmed and rejected", http.StatusBadRequest)
			return
		}
		a, err := svc.Moderate(r.Context(), chi.URLParam(r, "answerID"), req.Confirmed, req.Rejected)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, a)
	}
}

// POST /peer-reviews
// The giver is the caller unless the caller may act for other learners.
func CreatePeerReviewHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pr quiz.PeerReview
		if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		pr.ID = ""
		pr.CreatedAt = 0
		pr.GiverAnswererID = answererFor(r, pr.GiverAnswererID)
		if pr.TargetAnswererID == "" || pr.SourceQuizID == "" {
			http.Error(w, "targetAnswererId and sourceQuizId required", http.StatusBadRequest)
			return
		}
		saved, err := store.PutPeerReview(r.Context(), pr)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(saved)
	}
}
