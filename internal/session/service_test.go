package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regdesk/internal/session/lockout"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	auditmemory "regdesk/pkg/platform/audit/store/memory"
	"regdesk/pkg/platform/audit/publisher"
	"regdesk/pkg/requestcontext"
)

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *auditmemory.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "10.0.0.7", firefoxUA)
	s.store = auditmemory.NewInMemoryStore()
	s.service = New(DevDirectory(), NewTokenService("test-signing-key"),
		WithTTL(time.Hour),
		WithAuditPublisher(publisher.NewPublisher(s.store)),
	)
}

func (s *ServiceSuite) TestLogin() {
	s.Run("valid credentials issue a session token", func() {
		res, err := s.service.Login(s.ctx, "Officer", "officer123")
		s.Require().NoError(err)
		s.NotEmpty(res.AccessToken)
		s.Equal("Bearer", res.TokenType)
		s.Equal(3600, res.ExpiresIn)
		s.Equal(s.now.Add(time.Hour), res.ExpiresAt)
		s.Equal("officer", res.Operator.Username)
		s.Equal(res.SessionID, res.Operator.SessionID)
		s.Contains(res.Device, "Firefox")

		claims, err := s.service.ValidateToken(s.ctx, res.AccessToken)
		s.Require().NoError(err)
		s.Equal("officer", claims.Username)
		s.Equal(res.SessionID, claims.SessionID.String())
	})

	s.Run("wrong password is rejected and audited", func() {
		_, err := s.service.Login(s.ctx, "officer", "guess")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		events, err := s.store.ListRecent(s.ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventLoginFailed), events[0].Action)
		s.Equal(audit.CategorySecurity, events[0].Category)
	})

	s.Run("unknown operator gets the same answer", func() {
		_, err := s.service.Login(s.ctx, "ghost", "officer123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestLogoutRevokesToken() {
	res, err := s.service.Login(s.ctx, "admin", "admin123")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, res.AccessToken))

	_, err = s.service.ValidateToken(s.ctx, res.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	events, err := s.store.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(string(audit.EventOperatorLoggedOut), events[0].Action)
}

func (s *ServiceSuite) TestValidateToken() {
	res, err := s.service.Login(s.ctx, "supervisor", "supervisor123")
	s.Require().NoError(err)

	s.Run("expired", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
		_, err := s.service.ValidateToken(later, res.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("signed with another key", func() {
		other := New(DevDirectory(), NewTokenService("other-key"))
		_, err := other.ValidateToken(s.ctx, res.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("garbage", func() {
		_, err := s.service.ValidateToken(s.ctx, "not-a-jwt")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestProfile() {
	res, err := s.service.Login(s.ctx, "admin", "admin123")
	s.Require().NoError(err)
	claims, err := s.service.ValidateToken(s.ctx, res.AccessToken)
	s.Require().NoError(err)

	ctx := requestcontext.WithOperator(s.ctx, claims.OperatorID, claims.Username)
	ctx = requestcontext.WithSessionID(ctx, claims.SessionID)
	profile, err := s.service.Profile(ctx)
	s.Require().NoError(err)
	s.Equal("admin", profile.Role)
	s.Equal(res.SessionID, profile.SessionID)

	_, err = s.service.Profile(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestLoginLockout() {
	svc := New(DevDirectory(), NewTokenService("test-signing-key"),
		WithAuditPublisher(publisher.NewPublisher(s.store)),
		WithLockout(lockout.New(lockout.NewInMemoryStore(),
			lockout.WithConfig(lockout.Config{MaxAttempts: 2, Window: time.Minute, LockDuration: 10 * time.Minute}))),
	)

	_, err := svc.Login(s.ctx, "officer", "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = svc.Login(s.ctx, "officer", "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	events, err := s.store.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventOperatorLockedOut), events[0].Action)

	_, err = svc.Login(s.ctx, "officer", "officer123")
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited), "correct password is refused while locked")

	other := requestcontext.WithClientMetadata(s.ctx, "10.0.0.8", firefoxUA)
	_, err = svc.Login(other, "officer", "officer123")
	s.NoError(err, "lock is per client address")

	later := requestcontext.WithTime(s.ctx, s.now.Add(11*time.Minute))
	_, err = svc.Login(later, "officer", "officer123")
	s.NoError(err)
}
