package web

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	redisinfra "skill-platform/internal/infra/redis"
	"skill-platform/internal/usecase"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
	runRateLimit    = 30
	runRateWindow   = time.Minute

	requestTimeout = 30 * time.Second
)

type Server struct {
	userUC  usecase.UserUseCase
	skillUC usecase.SkillUseCase
	jobUC   usecase.JobUseCase
	auth    *AuthManager
	limiter *redisinfra.RateLimiter // nil when redis is not configured
	log     *zerolog.Logger
}

func NewServer(
	userUC usecase.UserUseCase,
	skillUC usecase.SkillUseCase,
	jobUC usecase.JobUseCase,
	auth *AuthManager,
	limiter *redisinfra.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		userUC:  userUC,
		skillUC: skillUC,
		jobUC:   jobUC,
		auth:    auth,
		limiter: limiter,
		log:     &srvLog,
	}
}

// Routes assembles the full router, middleware included.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(HTTPMetrics())
	r.Use(Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireUser)

		r.Get("/auth/me", s.handleMe)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.handleSkillList)
			r.Post("/", s.handleSkillCreate)
			r.Route("/{skillID}", func(r chi.Router) {
				r.Get("/", s.handleSkillGet)
				r.Patch("/", s.handleSkillUpdate)
				r.Get("/versions", s.handleSkillVersions)
				r.Post("/collaborators", s.handleCollaboratorAdd)
				r.Post("/run", s.handleSkillRun)
				r.Get("/jobs", s.handleSkillJobs)
			})
		})

		r.Get("/jobs/{jobID}", s.handleJobGet)
	})

	return r
}

func loginRateKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return redisinfra.LoginKey(host)
}

func runRateKey(userID int64) string {
	return redisinfra.RunKey(userID)
}
