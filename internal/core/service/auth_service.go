package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
	"github.com/storefront/sessions-api/internal/pkg/metrics"
	"github.com/storefront/sessions-api/pkg/logger"
)

// Failure reasons surfaced to clients. They never carry the underlying cause.
const (
	reasonRegisterFailed = "error creating user"
	reasonLoginFailed    = "error logging in"
	reasonResetFailed    = "error resetting password"
	reasonGithubFailed   = "error with Github login"
)

// StrategySet implements ports.StrategySet over a user repository and a
// password hasher.
type StrategySet struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

// NewStrategySet builds the strategy set. audit may be nil.
func NewStrategySet(repo ports.UserRepository, hasher ports.PasswordHasher, audit ports.AuditRecorder, log zerolog.Logger) *StrategySet {
	if audit == nil {
		audit = noopRecorder{}
	}
	return &StrategySet{
		repo:   repo,
		hasher: hasher,
		audit:  audit,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a local account for an unused email.
func (s *StrategySet) Register(ctx context.Context, in ports.RegisterInput) domain.Outcome {
	started := s.now()
	email := strings.TrimSpace(in.Email)
	out := s.register(ctx, email, in)
	s.observe(domain.StrategyRegister, email, started, out)
	return out
}

func (s *StrategySet) register(ctx context.Context, email string, in ports.RegisterInput) domain.Outcome {
	if email == "" || in.Password == "" {
		return domain.Reject(domain.ErrMissingCredentials)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.Reject(domain.ErrUserExists)
	case !errors.Is(err, domain.ErrUserNotFound):
		return domain.Fail(reasonRegisterFailed, err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			return domain.Reject(err)
		}
		return domain.Fail(reasonRegisterFailed, err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       email,
		DateOfBirth: in.DateOfBirth,
		Password:    digest,
		Role:        domain.RoleUser,
	})
	if err != nil {
		// Lost a race against a concurrent registration; the unique index held.
		if errors.Is(err, domain.ErrUserExists) {
			return domain.Reject(domain.ErrUserExists)
		}
		return domain.Fail(reasonRegisterFailed, err)
	}
	return domain.Accept(created)
}

// Login verifies local credentials.
func (s *StrategySet) Login(ctx context.Context, in ports.LoginInput) domain.Outcome {
	started := s.now()
	email := strings.TrimSpace(in.Email)
	out := s.login(ctx, email, in.Password)
	s.observe(domain.StrategyLogin, email, started, out)
	return out
}

func (s *StrategySet) login(ctx context.Context, email, password string) domain.Outcome {
	if email == "" || password == "" {
		return domain.Reject(domain.ErrMissingCredentials)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Reject(domain.ErrUserNotFound)
		}
		return domain.Fail(reasonLoginFailed, err)
	}

	if !s.hasher.Verify(user, password) {
		return domain.Reject(domain.ErrIncorrectPassword)
	}
	return domain.Accept(user)
}

// ResetPassword replaces the password of the account matching the email,
// preferring an exact match over one that differs only in case. The requester
// is not otherwise authenticated.
func (s *StrategySet) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) domain.Outcome {
	started := s.now()
	email := strings.TrimSpace(in.Email)
	out := s.resetPassword(ctx, email, in.NewPassword)
	s.observe(domain.StrategyResetPassword, email, started, out)
	return out
}

func (s *StrategySet) resetPassword(ctx context.Context, email, newPassword string) domain.Outcome {
	if email == "" || newPassword == "" {
		return domain.Reject(domain.ErrMissingCredentials)
	}

	user, err := s.lookupEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Reject(domain.ErrUserNotFound)
		}
		return domain.Fail(reasonResetFailed, err)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			return domain.Reject(err)
		}
		return domain.Fail(reasonResetFailed, err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, digest); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Reject(domain.ErrUserNotFound)
		}
		return domain.Fail(reasonResetFailed, err)
	}

	s.log.Warn().
		Str("user_id", user.ID).
		Msg("password reset accepted without prior authentication")

	user.Password = digest
	return domain.Accept(user)
}

// Github logs in the account matching the profile email (exact match first,
// then ignoring case), creating an OAuth-only account on first login.
func (s *StrategySet) Github(ctx context.Context, profile ports.GithubProfile) domain.Outcome {
	started := s.now()
	email := strings.TrimSpace(profile.Email)
	out := s.github(ctx, email, profile)
	s.observe(domain.StrategyGithub, email, started, out)
	return out
}

func (s *StrategySet) github(ctx context.Context, email string, profile ports.GithubProfile) domain.Outcome {
	if email == "" {
		return domain.Reject(domain.ErrMissingEmail)
	}

	user, err := s.lookupEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = user.EffectiveRole()
		return domain.Accept(user)
	case !errors.Is(err, domain.ErrUserNotFound):
		return domain.Fail(reasonGithubFailed, err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.Login
	}

	created, err := s.repo.Create(ctx, &domain.User{
		FirstName: name,
		Email:     email,
		Role:      domain.RoleUser,
	})
	if err == nil {
		return domain.Accept(created)
	}
	if !errors.Is(err, domain.ErrUserExists) {
		return domain.Fail(reasonGithubFailed, err)
	}

	// A concurrent first login created the account; use it.
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.Fail(reasonGithubFailed, err)
	}
	existing.Role = existing.EffectiveRole()
	return domain.Accept(existing)
}

// lookupEmail prefers the account whose email matches exactly and only then
// falls back to a case-insensitive match. Emails are unique case-sensitively,
// so "Bob@x.com" and "bob@x.com" may both exist.
func (s *StrategySet) lookupEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}
	return s.repo.FindByEmailFold(ctx, email)
}

func (s *StrategySet) observe(strategy, email string, started time.Time, out domain.Outcome) {
	metrics.StrategyOutcomesTotal.WithLabelValues(strategy, out.Kind.String()).Inc()
	metrics.StrategyDuration.WithLabelValues(strategy).Observe(s.now().Sub(started).Seconds())

	event := domain.AuthEvent{
		Strategy:   strategy,
		Outcome:    out.Kind.String(),
		Email:      email,
		Reason:     out.Reason,
		OccurredAt: started,
	}

	switch out.Kind {
	case domain.OutcomeAccepted:
		event.UserID = out.User.ID
		s.log.Info().
			Str("strategy", strategy).
			Str("user_id", out.User.ID).
			Msg("strategy accepted")
	case domain.OutcomeRejected:
		s.log.Info().
			Str("strategy", strategy).
			Str("email", logger.MaskEmail(email)).
			Str("reason", out.Reason).
			Msg("strategy rejected")
	case domain.OutcomeFailed:
		s.log.Error().
			Err(out.Err).
			Str("strategy", strategy).
			Msg(out.Reason)
	}

	s.audit.Record(event)
}

type noopRecorder struct{}

func (noopRecorder) Record(domain.AuthEvent) {}
