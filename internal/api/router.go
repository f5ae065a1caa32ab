package api

import (
	"net/http"
	"time"

	"leetcode_backend/internal/api/handler"
	"leetcode_backend/internal/api/middleware"
	"leetcode_backend/internal/app/service"
	"leetcode_backend/internal/common/security"
	"leetcode_backend/internal/domain/language"
	"leetcode_backend/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/jwtauth/v5"
)

type RouterDeps struct {
	TokenAuth   *security.TokenAuth
	Problems    *service.ProblemService
	Submissions *service.SubmissionService
	Languages   *language.Registry
	Metrics     *metrics.Metrics
	Logger      *httplog.Logger

	CORSAllowedOrigins []string
	// Judging a submission blocks until the judge finishes, so this must
	// exceed the judge's poll budget.
	RequestTimeout time.Duration
}

func NewRouter(deps RouterDeps) http.Handler {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 90 * time.Second
	}
	if len(deps.CORSAllowedOrigins) == 0 {
		deps.CORSAllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if deps.Logger != nil {
		r.Use(httplog.RequestLogger(deps.Logger, []string{"/health", "/metrics"}))
		r.Use(middleware.ContextLogger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(deps.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	// Searches "Authorization: Bearer T" and puts the verified token in context.
	r.Use(jwtauth.Verifier(deps.TokenAuth.JWTAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/languages", handler.NewLanguageHandler(deps.Languages).RegisterRoutes)
		v1.Route("/problems", handler.NewProblemHandler(deps.Problems).RegisterRoutes)
		v1.Route("/submissions", handler.NewSubmissionHandler(deps.Submissions).RegisterRoutes)
	})

	return r
}
