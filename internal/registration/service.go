// Package registration drives the desk's wizard end to end: form state,
// section validation, submission to the registry and the lookup screens.
package registration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"regdesk/internal/backend"
	"regdesk/internal/platform/metrics"
	"regdesk/internal/searchcache"
	"regdesk/internal/subject/display"
	"regdesk/internal/subject/i18n"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/internal/subject/validation"
	"regdesk/pkg/domain"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/platform/circuit"
)

// Backend is the registry API.
type Backend interface {
	Register(ctx context.Context, sub *mapping.Submission) (*backend.RegistrationResult, error)
	GetUser(ctx context.Context, id domain.SubjectID) (backend.Record, error)
	DeleteUser(ctx context.Context, id domain.SubjectID) error
	Search(ctx context.Context, q backend.SearchQuery) (*backend.SearchResult, error)
	Count(ctx context.Context) (*backend.Counts, error)
	Recognize(ctx context.Context, img *imaging.Image) (*backend.Recognition, error)
	RecognizeBase64(ctx context.Context, data string) (*backend.Recognition, error)
	Health(ctx context.Context) error
	ClearCache(ctx context.Context) error
}

// AuditPublisher records registry events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SearchCache holds recent search results per operator and scope.
type SearchCache interface {
	Get(ctx context.Context, key searchcache.Key, dst any) (searchcache.Slot, bool)
	Put(ctx context.Context, slot searchcache.Slot, v any)
	Invalidate(ctx context.Context, scope domain.SearchScope) error
}

const (
	defaultFollowUpTimeout = 20 * time.Second
	defaultSearchLimit     = 50
)

// Service is safe for concurrent use.
type Service struct {
	backend   Backend
	validator *validation.Validator
	display   *display.Mapper
	bundle    *i18n.Bundle
	cache     SearchCache
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	breaker   *circuit.Breaker

	followUpTimeout time.Duration
	searchLimit     int

	flight   singleflight.Group
	inflight sync.WaitGroup
}

type Option func(*Service)

func WithValidator(v *validation.Validator) Option {
	return func(s *Service) { s.validator = v }
}

func WithDisplay(m *display.Mapper) Option {
	return func(s *Service) { s.display = m }
}

func WithBundle(b *i18n.Bundle) Option {
	return func(s *Service) { s.bundle = b }
}

func WithSearchCache(c SearchCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRecognizerBreaker replaces the breaker guarding post-registration face
// verification.
func WithRecognizerBreaker(b *circuit.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

func WithFollowUpTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.followUpTimeout = d
		}
	}
}

func WithSearchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

func New(b Backend, opts ...Option) *Service {
	s := &Service{
		backend:         b,
		logger:          slog.Default(),
		followUpTimeout: defaultFollowUpTimeout,
		searchLimit:     defaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	if s.display == nil {
		s.display = display.New()
	}
	if s.bundle == nil {
		s.bundle = i18n.NewBundle("en")
	}
	if s.breaker == nil {
		s.breaker = circuit.New("recognizer")
	}
	return s
}

// Close waits for in-flight follow-up work.
func (s *Service) Close() {
	s.inflight.Wait()
}

func (s *Service) localizer(ctx context.Context) *i18n.Localizer {
	return s.bundle.ForContext(ctx)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
