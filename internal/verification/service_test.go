package verification

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/auth"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/metrics"
)

var testJWT = config.JWTConfig{
	Secret:           "test-secret",
	Issuer:           "verba-store-test",
	AdminTTLMinutes:  60,
	CustomerTTLHours: 24,
}

type stubRepo struct {
	stored       *models.VerificationCode
	replaceErr   error
	consumeWon   bool
	consumeErr   error
	consumeCalls int
	deletedAt    *time.Time
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Replace(ctx context.Context, code *models.VerificationCode) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.stored = code
	return nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	if s.stored == nil || s.stored.Email != email {
		return nil, nil
	}
	record := *s.stored
	return &record, nil
}

func (s *stubRepo) Consume(ctx context.Context, email string, code string, now time.Time) (bool, error) {
	s.consumeCalls++
	if s.consumeErr != nil {
		return false, s.consumeErr
	}
	if s.consumeWon {
		s.stored = nil
	}
	return s.consumeWon, nil
}

func (s *stubRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.deletedAt = &now
	if s.stored != nil && !s.stored.ExpiresAt.After(now) {
		s.stored = nil
		return 1, nil
	}
	return 0, nil
}

type stubSender struct {
	to    string
	code  string
	fail  bool
	calls int
}

func (s *stubSender) SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error {
	s.calls++
	s.to = to
	s.code = code
	if s.fail {
		return errors.New("smtp down")
	}
	return nil
}

func newTestService(t *testing.T, repo *stubRepo, sender CodeSender, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Sender:  sender,
		JWT:     testJWT,
		CodeTTL: 10 * time.Minute,
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRequestCodeStoresAndSends(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	sender := &stubSender{}
	svc := newTestService(t, repo, sender, now)

	if err := svc.RequestCode(context.Background(), "  Buyer@Example.COM "); err != nil {
		t.Fatalf("request code: %v", err)
	}

	if repo.stored == nil {
		t.Fatal("expected a stored code")
	}
	if repo.stored.Email != "buyer@example.com" {
		t.Fatalf("stored email = %q, want normalized", repo.stored.Email)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(repo.stored.Code) {
		t.Fatalf("stored code %q is not six digits", repo.stored.Code)
	}
	if !repo.stored.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expires at = %v, want now+10m", repo.stored.ExpiresAt)
	}
	if sender.calls != 1 || sender.to != "buyer@example.com" || sender.code != repo.stored.Code {
		t.Fatalf("sender got to=%q code=%q calls=%d", sender.to, sender.code, sender.calls)
	}
}

func TestRequestCodeSwallowsSendFailure(t *testing.T) {
	now := time.Now()
	repo := &stubRepo{}
	sender := &stubSender{fail: true}
	svc := newTestService(t, repo, sender, now)

	if err := svc.RequestCode(context.Background(), "buyer@example.com"); err != nil {
		t.Fatalf("send failure must not surface: %v", err)
	}
	if repo.stored == nil {
		t.Fatal("code should be stored even when delivery fails")
	}
}

func TestRequestCodeRejectsEmptyEmail(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil, time.Now())

	err := svc.RequestCode(context.Background(), "   ")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyCodeSuccessMintsCustomerToken(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		stored: &models.VerificationCode{
			Email:     "buyer@example.com",
			Code:      "123456",
			ExpiresAt: now.Add(5 * time.Minute),
		},
		consumeWon: true,
	}
	svc := newTestService(t, repo, nil, now)

	token, err := svc.VerifyCode(context.Background(), "Buyer@Example.com", "123456")
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}

	claims, err := auth.ParseCustomerToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Email != "buyer@example.com" {
		t.Fatalf("claims email = %q", claims.Email)
	}
	if repo.consumeCalls != 1 {
		t.Fatalf("consume calls = %d, want 1", repo.consumeCalls)
	}
}

func TestVerifyCodeMismatchKeepsStoredCode(t *testing.T) {
	now := time.Now()
	repo := &stubRepo{
		stored: &models.VerificationCode{
			Email:     "buyer@example.com",
			Code:      "123456",
			ExpiresAt: now.Add(5 * time.Minute),
		},
	}
	svc := newTestService(t, repo, nil, now)

	_, err := svc.VerifyCode(context.Background(), "buyer@example.com", "654321")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeMismatch {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if repo.consumeCalls != 0 {
		t.Fatal("mismatch must not consume the stored code")
	}
	if repo.stored == nil {
		t.Fatal("stored code should survive a mismatch")
	}
}

func TestVerifyCodeWithoutPendingCodeKeepsDistinctReason(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil, time.Now())

	_, err := svc.VerifyCode(context.Background(), "nobody@example.com", "123456")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeMissing {
		t.Fatalf("expected missing-code error, got %v", err)
	}
	if pkgerrors.MetadataFor(pkgerrors.CodeMissing).PublicCode != pkgerrors.CodeMismatch {
		t.Fatal("missing code must present as a mismatch on the wire")
	}
}

func TestVerifyCodeOutcomeMetricsDistinguishMissingFromMismatch(t *testing.T) {
	now := time.Now()
	reg := prometheus.NewRegistry()
	repo := &stubRepo{}
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		JWT:     testJWT,
		CodeTTL: 10 * time.Minute,
		Metrics: metrics.NewStoreMetrics(reg),
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.VerifyCode(context.Background(), "nobody@example.com", "123456"); err == nil {
		t.Fatal("expected an error for an email without a pending code")
	}

	repo.stored = &models.VerificationCode{
		Email:     "buyer@example.com",
		Code:      "123456",
		ExpiresAt: now.Add(5 * time.Minute),
	}
	if _, err := svc.VerifyCode(context.Background(), "buyer@example.com", "654321"); err == nil {
		t.Fatal("expected an error for a wrong code")
	}

	expected := `
# HELP verification_code_verify_total Verification attempts by outcome.
# TYPE verification_code_verify_total counter
verification_code_verify_total{outcome="mismatch"} 1
verification_code_verify_total{outcome="not_found"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "verification_code_verify_total"); err != nil {
		t.Fatalf("unexpected verify outcomes: %v", err)
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		stored: &models.VerificationCode{
			Email:     "buyer@example.com",
			Code:      "123456",
			ExpiresAt: now.Add(-time.Minute),
		},
	}
	svc := newTestService(t, repo, nil, now)

	_, err := svc.VerifyCode(context.Background(), "buyer@example.com", "123456")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected expired error, got %v", err)
	}
	if repo.stored != nil {
		t.Fatal("expired code should be purged")
	}
	if repo.consumeCalls != 0 {
		t.Fatal("expired code must not be consumed")
	}
}

func TestVerifyCodeAtExpiryInstantIsExpired(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		stored: &models.VerificationCode{
			Email:     "buyer@example.com",
			Code:      "123456",
			ExpiresAt: now,
		},
	}
	svc := newTestService(t, repo, nil, now)

	_, err := svc.VerifyCode(context.Background(), "buyer@example.com", "123456")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected expired error at the boundary instant, got %v", err)
	}
	if repo.consumeCalls != 0 {
		t.Fatal("boundary code must not reach consume")
	}
}

func TestVerifyCodeLostRaceIsMismatch(t *testing.T) {
	now := time.Now()
	repo := &stubRepo{
		stored: &models.VerificationCode{
			Email:     "buyer@example.com",
			Code:      "123456",
			ExpiresAt: now.Add(5 * time.Minute),
		},
		consumeWon: false,
	}
	svc := newTestService(t, repo, nil, now)

	_, err := svc.VerifyCode(context.Background(), "buyer@example.com", "123456")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeMismatch {
		t.Fatalf("expected mismatch after lost race, got %v", err)
	}
	if repo.consumeCalls != 1 {
		t.Fatalf("consume calls = %d, want 1", repo.consumeCalls)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not six digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
