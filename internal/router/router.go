package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mjajones/notifiq-app/internal/config"
	"github.com/mjajones/notifiq-app/internal/handlers"
	"github.com/mjajones/notifiq-app/internal/mail"
	"github.com/mjajones/notifiq-app/internal/metrics"
	"github.com/mjajones/notifiq-app/internal/middleware"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/repository/postgres"
	"github.com/mjajones/notifiq-app/internal/service"
	"github.com/mjajones/notifiq-app/internal/token"
)

// Repos bundles the per-entity repositories so the router can be built
// against postgres in production and the in-memory store in tests.
type Repos struct {
	Users     repository.UserRepository
	Labels    repository.StatusLabelRepository
	Incidents repository.IncidentRepository
	Assets    repository.AssetRepository
	Notes     repository.UserNoteRepository
}

func New(log zerolog.Logger, db *pgxpool.Pool, cfg config.Config) http.Handler {
	repos := Repos{
		Users:     postgres.NewUserRepo(db),
		Labels:    postgres.NewStatusLabelRepo(db),
		Incidents: postgres.NewIncidentRepo(db),
		Assets:    postgres.NewAssetRepo(db),
		Notes:     postgres.NewUserNoteRepo(db),
	}
	var mailer mail.Mailer = mail.Noop{}
	if cfg.SMTP.Enabled {
		mailer = mail.NewSMTP(cfg.SMTP)
	}
	return Build(log, cfg, repos, mailer, metrics.New())
}

// Build wires middleware, services and handlers. m may be nil to skip
// instrumentation (tests).
func Build(log zerolog.Logger, cfg config.Config, repos Repos, mailer mail.Mailer, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(log, cfg))
	if m != nil {
		r.Use(middleware.Instrument(m))
	}

	tokens := token.NewGenerator(cfg.JWTSecret, 72*time.Hour)
	authSvc := service.NewAuthService(repos.Users, tokens, mailer, service.AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		AccessTTL:   cfg.AccessTTL,
		RefreshTTL:  cfg.RefreshTTL,
		FrontendURL: cfg.FrontendURL,
	}, log)
	incSvc := service.NewIncidentService(repos.Incidents, repos.Labels, repos.Users, m, log)

	ah := handlers.NewAuthHTTP(authSvc)
	ih := handlers.NewIncidentHTTP(incSvc, cfg.MediaDir, log)
	sh := handlers.NewStatusLabelHTTP(repos.Labels)
	uh := handlers.NewUserHTTP(repos.Users)
	xh := handlers.NewAssetHTTP(repos.Assets)
	nh := handlers.NewUserNoteHTTP(repos.Notes, repos.Users)

	r.Get("/healthz", handlers.Health())
	if m != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	r.Route("/api", func(r chi.Router) {
		r.Post("/token/", ah.Token())
		r.Post("/token/refresh/", ah.Refresh())
		r.Post("/register/", ah.Register())
		r.Get("/verify-email/{uid}/{token}/", ah.VerifyEmail())

		r.Route("/incidents", func(r chi.Router) {
			// diagnostic endpoint, no auth
			r.Get("/test_serialization/", ih.TestSerialization())

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/", ih.List())
				r.Post("/", ih.Create())
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", ih.Get())
					r.Patch("/", ih.Update())
					r.Delete("/", ih.Delete())
					r.Post("/duplicate/", ih.Duplicate())
				})
			})
		})

		r.Route("/status-labels", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", sh.List())
			r.Post("/", sh.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sh.Get())
				r.Patch("/", sh.Update())
				r.Delete("/", sh.Delete())
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", uh.List())
			r.Get("/employees/", uh.Employees())
			r.Get("/it-staff/", uh.ITStaff())
			r.Get("/{id}/", uh.Get())
		})

		r.Route("/assets", func(r chi.Router) {
			// non-staff visibility (empty list / 404) is handled in
			// the asset handlers themselves
			r.Use(middleware.RequireAuth)
			r.Get("/", xh.List())
			r.Post("/", xh.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", xh.Get())
				r.Patch("/", xh.Update())
				r.Delete("/", xh.Delete())
			})
		})

		r.Route("/user-notes", func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/", nh.List())
			r.Post("/", nh.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", nh.Get())
				r.Patch("/", nh.Update())
				r.Delete("/", nh.Delete())
			})
		})
	})

	return r
}
