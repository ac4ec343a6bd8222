// Package session authenticates desk operators and issues their access tokens.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"regdesk/internal/platform/middleware"
	"regdesk/internal/session/lockout"
	"regdesk/internal/session/revocation"
	id "regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/platform/middleware/device"
	"regdesk/pkg/requestcontext"
)

const defaultTTL = 8 * time.Hour

// AuditPublisher records session events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service logs operators in and out and validates their tokens.
type Service struct {
	operators   *Directory
	tokens      *TokenService
	revocations revocation.List
	lockout     *lockout.Guard
	ttl         time.Duration
	auditor     AuditPublisher
	logger      *slog.Logger
	// dummyHash keeps unknown-user logins as slow as wrong-password ones.
	dummyHash []byte
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithRevocationList(l revocation.List) Option {
	return func(s *Service) { s.revocations = l }
}

// WithLockout throttles repeated failed logins. Without it logins are not
// throttled.
func WithLockout(g *lockout.Guard) Option {
	return func(s *Service) { s.lockout = g }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(operators *Directory, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		operators:   operators,
		tokens:      tokens,
		revocations: revocation.NewInMemory(),
		ttl:         defaultTTL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("regdesk-dummy"), bcrypt.MinCost)
	return s
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ip := requestcontext.ClientIP(ctx)
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, username, ip); err != nil {
			s.emit(ctx, audit.Event{
				Action:   string(audit.EventLoginFailed),
				Subject:  username,
				Username: username,
				Decision: "denied",
				Reason:   "locked out",
			})
			return nil, err
		}
	}

	op, ok := s.operators.Lookup(username)
	hash := s.dummyHash
	if ok {
		hash = op.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		s.emit(ctx, audit.Event{
			Action:   string(audit.EventLoginFailed),
			Subject:  username,
			Username: username,
			Decision: "denied",
			Reason:   "invalid credentials",
		})
		if s.lockout != nil && s.lockout.Failure(ctx, username, ip) {
			s.emit(ctx, audit.Event{
				Action:   string(audit.EventOperatorLockedOut),
				Subject:  username,
				Username: username,
				Decision: "locked",
			})
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}
	if s.lockout != nil {
		s.lockout.Success(ctx, username, ip)
	}

	now := requestcontext.Now(ctx)
	sessionID := uuid.New()
	label := device.Label(requestcontext.UserAgent(ctx))
	token, claims, err := s.tokens.Issue(op, sessionID, label, now, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventOperatorLoggedIn),
		OperatorID: op.ID,
		Username:   op.Username,
		Subject:    op.Username,
		Decision:   "granted",
	})
	s.logger.InfoContext(ctx, "operator logged in",
		"username", op.Username,
		"session_id", sessionID.String(),
		"device", label,
		"request_id", requestcontext.RequestID(ctx),
	)

	profile := op.Profile()
	profile.SessionID = sessionID.String()
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		ExpiresAt:   claims.ExpiresAt.Time,
		SessionID:   sessionID.String(),
		Device:      label,
		Operator:    profile,
	}, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	now := requestcontext.Now(ctx)
	claims, err := s.tokens.Parse(token, now)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	opID, _ := id.ParseOperatorID(claims.OperatorID)
	s.emit(ctx, audit.Event{
		Action:     string(audit.EventOperatorLoggedOut),
		OperatorID: opID,
		Username:   claims.Username,
		Subject:    claims.Username,
	})
	return nil
}

// ValidateToken backs the RequireSession middleware.
func (s *Service) ValidateToken(ctx context.Context, token string) (*middleware.SessionClaims, error) {
	claims, err := s.tokens.Parse(token, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "revocation check failed")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session has ended")
	}
	opID, err := id.ParseOperatorID(claims.OperatorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if _, ok := s.operators.ByID(opID); !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator no longer exists")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.SessionClaims{
		OperatorID: opID,
		Username:   claims.Username,
		SessionID:  sessionID,
	}, nil
}

// Profile returns the operator bound to the request.
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	op, ok := s.operators.ByID(requestcontext.OperatorID(ctx))
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no operator session")
	}
	p := op.Profile()
	if sid := requestcontext.SessionID(ctx); !sid.IsNil() {
		p.SessionID = sid.String()
	}
	return &p, nil
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
