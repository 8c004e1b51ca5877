package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/DenysVerbitskyi/verba-store/pkg/auth"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/metrics"
)

const (
	codeMin = 100000
	codeMax = 999999

	// outcomes recorded on the verify counter
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeMismatch = "mismatch"
	OutcomeExpired  = "expired"
)

// CodeSender delivers a one-time code to a customer address.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error
}

// ServiceParams groups dependencies for the verification service.
type ServiceParams struct {
	Repo    Repository
	Sender  CodeSender
	JWT     config.JWTConfig
	CodeTTL time.Duration
	Metrics *metrics.StoreMetrics
	Logger  *logger.Logger

	// test seams
	Now          func() time.Time
	GenerateCode func() (string, error)
}

// Service issues and verifies one-time login codes for order lookup.
type Service struct {
	repo     Repository
	sender   CodeSender
	jwt      config.JWTConfig
	codeTTL  time.Duration
	metrics  *metrics.StoreMetrics
	logg     *logger.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewService builds a verification service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.JWT.Secret == "" {
		return nil, errors.New("jwt config is required")
	}
	if params.CodeTTL <= 0 {
		return nil, errors.New("code ttl must be positive")
	}

	s := &Service{
		repo:     params.Repo,
		sender:   params.Sender,
		jwt:      params.JWT,
		codeTTL:  params.CodeTTL,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
		generate: params.GenerateCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generate == nil {
		s.generate = GenerateCode
	}
	return s, nil
}

// GenerateCode draws a uniform six digit code from crypto/rand.
func GenerateCode() (string, error) {
	span := big.NewInt(codeMax - codeMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("draw verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// RequestCode issues a fresh code for the email, replacing any pending one.
// Email delivery is best effort: a send failure is logged and counted but
// never surfaces to the caller, so the response never reveals whether a
// mailbox exists.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	code, err := s.generate()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}

	now := s.now()
	record := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.codeTTL),
	}
	if err := s.repo.Replace(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}

	s.metrics.IncCodeRequested()

	if s.sender != nil {
		if err := s.sender.SendVerificationCode(ctx, email, code, s.codeTTL); err != nil {
			s.metrics.IncMailerFailure("verification_code")
			if s.logg != nil {
				s.logg.Error(ctx, "send verification code", err)
			}
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerEmail(ctx, email), "verification code issued")
	}
	return nil
}

// VerifyCode checks the submitted code, consumes it on success, and mints
// a customer session token. A mismatched code leaves the stored code
// intact; an expired one is reported as expired and removed. An email
// with no pending code at all carries its own internal code, though on
// the wire it reads the same as a mismatch.
func (s *Service) VerifyCode(ctx context.Context, email string, code string) (string, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email and code are required")
	}

	now := s.now()

	record, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}
	if record == nil {
		s.metrics.IncCodeVerified(OutcomeNotFound)
		return "", pkgerrors.New(pkgerrors.CodeMissing, "invalid code")
	}
	if record.Code != code {
		s.metrics.IncCodeVerified(OutcomeMismatch)
		return "", pkgerrors.New(pkgerrors.CodeMismatch, "invalid code")
	}
	if record.Expired(now) {
		s.metrics.IncCodeVerified(OutcomeExpired)
		if _, err := s.repo.DeleteExpired(ctx, now); err != nil && s.logg != nil {
			s.logg.Error(ctx, "purge expired verification codes", err)
		}
		return "", pkgerrors.New(pkgerrors.CodeExpired, "code expired, request a new one")
	}

	// the single-row delete decides races between concurrent verifies
	won, err := s.repo.Consume(ctx, email, code, now)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume verification code")
	}
	if !won {
		s.metrics.IncCodeVerified(OutcomeMismatch)
		return "", pkgerrors.New(pkgerrors.CodeMismatch, "invalid code")
	}

	token, err := auth.MintCustomerToken(s.jwt, now, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint customer token")
	}

	s.metrics.IncCodeVerified(OutcomeSuccess)
	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerEmail(ctx, email), "customer verified")
	}
	return token, nil
}

// CleanupExpired removes stale codes; meant for a periodic job.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// NormalizeEmail lowercases and trims an address so lookups and rate
// limit keys agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
