// Package lockout slows down password guessing at the login desk. Failures
// are counted per username and client IP inside a sliding window; reaching
// the limit locks that pair out for a while.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

// Config bounds login attempts.
type Config struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig allows 5 failures in 15 minutes, then locks for 15 minutes.
var DefaultConfig = Config{MaxAttempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}

// Store counts failures and holds locks.
type Store interface {
	// RecordFailure increments the counter for key and returns the new count.
	// The window starts at the first failure.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, d time.Duration) error
	// LockedFor returns the remaining lock time, zero when not locked.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	Clear(ctx context.Context, key string) error
}

type Guard struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

type Option func(*Guard)

func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		if cfg.MaxAttempts > 0 {
			g.cfg.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.Window > 0 {
			g.cfg.Window = cfg.Window
		}
		if cfg.LockDuration > 0 {
			g.cfg.LockDuration = cfg.LockDuration
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func New(store Store, opts ...Option) *Guard {
	g := &Guard{store: store, cfg: DefaultConfig, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key builds the counter key. ':' in the username is escaped so a crafted
// name cannot collide with another pair.
func Key(username, ip string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(username)), ":", "_") + ":" + ip
}

// Check returns a rate_limited error while the pair is locked out. Store
// errors fail open.
func (g *Guard) Check(ctx context.Context, username, ip string) error {
	remaining, err := g.store.LockedFor(ctx, Key(username, ip))
	if err != nil {
		g.logger.WarnContext(ctx, "login lockout check failed", "error", err)
		return nil
	}
	if remaining <= 0 {
		return nil
	}
	minutes := int(math.Ceil(remaining.Minutes()))
	return dErrors.New(dErrors.CodeRateLimited,
		fmt.Sprintf("too many failed logins, try again in %d minute(s)", minutes))
}

// Failure records a failed login and reports whether it triggered a lock.
func (g *Guard) Failure(ctx context.Context, username, ip string) bool {
	key := Key(username, ip)
	n, err := g.store.RecordFailure(ctx, key, g.cfg.Window)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		return false
	}
	if n < g.cfg.MaxAttempts {
		return false
	}
	if err := g.store.Lock(ctx, key, g.cfg.LockDuration); err != nil {
		g.logger.WarnContext(ctx, "failed to lock out operator", "error", err)
		return false
	}
	g.logger.WarnContext(ctx, "operator locked out",
		"username", username,
		"failures", n,
		"locked_until", requestcontext.Now(ctx).Add(g.cfg.LockDuration),
		"request_id", requestcontext.RequestID(ctx),
	)
	return true
}

// Success resets the counter after a good login.
func (g *Guard) Success(ctx context.Context, username, ip string) {
	if err := g.store.Clear(ctx, Key(username, ip)); err != nil {
		g.logger.WarnContext(ctx, "failed to clear login failures", "error", err)
	}
}
