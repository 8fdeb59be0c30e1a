package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/quizgrade/internal/quiz"
	"github.com/mind-engage/quizgrade/internal/rbac"
)

// POST /quizzes
// Body: a single quiz object or an array of them.
func UploadQuizHandler(store quiz.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var qs []quiz.Quiz
		if len(raw) > 0 && raw[0] == '[' {
			if err := json.Unmarshal(raw, &qs); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		} else {
			var q quiz.Quiz
			if err := json.Unmarshal(raw, &q); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			qs = []quiz.Quiz{q}
		}

		owner := rbac.SubjectFromContext(r.Context())
		ids := make([]string, 0, len(qs))
		for _, q := range qs {
			if q.UserID == "" {
				q.UserID = owner
			}
			if err := store.PutQuiz(r.Context(), q); err != nil {
				writeErr(w, err)
				return
			}
			ids = append(ids, q.ID)
		}
		log.Info("quizzes stored", zap.Strings("quiz_ids", ids), zap.String("user_id", owner))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ids": ids})
	}
}

// GET /quizzes?tags=a,b&mine=1
// Learners get stripped definitions.
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var owner string
		if r.URL.Query().Get("mine") == "1" {
			owner = rbac.SubjectFromContext(r.Context())
		}
		qs, err := store.QuizzesByTags(r.Context(), csv(r.URL.Query().Get("tags")), owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		if !rbac.Allowed(r.Context(), rbac.PermQuizCreate) {
			for i := range qs {
				qs[i] = qs[i].Stripped()
			}
		}
		if qs == nil {
			qs = []quiz.Quiz{}
		}
		writeJSON(w, qs)
	}
}

// GET /quizzes/ids?tags=a,b
func QuizIDsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := store.QuizIDsByTags(r.Context(), csv(r.URL.Query().Get("tags")))
		if err != nil {
			writeErr(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, ids)
	}
}

// GET /tags?tags=a,b&mine=1
func TagsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var owner string
		if r.URL.Query().Get("mine") == "1" {
			owner = rbac.SubjectFromContext(r.Context())
		}
		tags, err := store.DistinctTags(r.Context(), csv(r.URL.Query().Get("tags")), owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, tags)
	}
}
