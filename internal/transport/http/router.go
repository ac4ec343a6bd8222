// Package httptransport assembles the desk's HTTP surface from its services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "regdesk/internal/admin"
	"regdesk/internal/drafts"
	"regdesk/internal/platform/metrics"
	"regdesk/internal/platform/middleware"
	registrationhandler "regdesk/internal/registration/handler"
	sessionhandler "regdesk/internal/session/handler"
	"regdesk/internal/subject/i18n"
	"regdesk/pkg/platform/middleware/admin"
	"regdesk/pkg/platform/middleware/metadata"
	"regdesk/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 75 * time.Second

// Deps are the services behind the router. Metrics, Drafts and Audit are
// optional.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Bundle       *i18n.Bundle
	Sessions     sessionhandler.Service
	Registration registrationhandler.Service
	Drafts       *drafts.Service
	Audit        adminhandler.AuditReader

	// AdminToken guards /metrics when set and /admin always; without it the
	// audit routes refuse every request. MetricsHandler defaults to the
	// default Prometheus registry.
	AdminToken     string
	MetricsHandler http.Handler
	RequestTimeout time.Duration
}

// NewRouter mounts every route behind the common middleware chain.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	metricsHandler := d.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	bundle := d.Bundle
	if bundle == nil {
		bundle = i18n.NewBundle("en")
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(bundle.Middleware)

	r.Group(func(ops chi.Router) {
		if d.AdminToken != "" {
			ops.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
		}
		ops.Handle("/metrics", metricsHandler)
	})
	if d.Audit != nil {
		r.Group(func(review chi.Router) {
			review.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			adminhandler.NewHandler(d.Audit, d.Logger).Register(review)
		})
	}

	requireSession := middleware.RequireSession(d.Sessions, d.Logger)
	sessionhandler.New(d.Sessions, d.Logger).Register(r)
	registrationhandler.New(d.Registration, requireSession, d.Logger).Register(r)
	if d.Drafts != nil {
		r.Group(func(protected chi.Router) {
			protected.Use(requireSession)
			drafts.NewHandler(d.Drafts, d.Logger).Register(protected)
		})
	}
	return r
}
