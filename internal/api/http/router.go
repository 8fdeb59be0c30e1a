package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/quizgrade/internal/auth/middleware"
	"github.com/mind-engage/quizgrade/internal/progress"
	"github.com/mind-engage/quizgrade/internal/quiz"
	"github.com/mind-engage/quizgrade/internal/rbac"
	syncx "github.com/mind-engage/quizgrade/internal/sync"
)

type Deps struct {
	Store       quiz.Store
	Progress    *progress.Service
	Events      syncx.Log
	Auth        *auth.AuthService
	Log         *zap.Logger
	CORSOrigins []string
	// Ready reports whether backing storage answers; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermTokenIssue)).
			Post("/auth/tokens", auth.IssueHandler(d.Auth))

		// Quiz definitions
		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quizzes", UploadQuizHandler(d.Store, d.Log))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes", ListQuizzesHandler(d.Store))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes/ids", QuizIDsHandler(d.Store))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/tags", TagsHandler(d.Store))

		// Learner submissions
		pr.With(rbac.Require(rbac.PermAnswerCreate)).
			Post("/answers", CreateAnswerHandler(d.Store))
		pr.With(rbac.Require(rbac.PermAnswerModerate)).
			Post("/answers/{answerID}/status", ModerateAnswerHandler(d.Progress))
		pr.With(rbac.Require(rbac.PermReviewCreate)).
			Post("/peer-reviews", CreatePeerReviewHandler(d.Store))

		// Grading
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Post("/answers/validate", ValidateAnswerHandler(d.Progress))
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Post("/progress", ProgressHandler(d.Progress))
		pr.With(rbac.Require(rbac.PermProgressViewAll)).
			Post("/progress/batch", BatchProgressHandler(d.Progress))
		pr.With(rbac.Require(rbac.PermAnswerersList)).
			Get("/answerers", AnswerersHandler(d.Progress))
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Get("/scores", ScoresHandler(d.Store))
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Post("/confirmations", ConfirmHandler(d.Store))

		// Replication feed
		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsRead)).
				Get("/events", EventsHandler(d.Events))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	return r
}
