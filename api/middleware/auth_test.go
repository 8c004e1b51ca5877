package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/DenysVerbitskyi/verba-store/pkg/auth"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
)

var testJWTConfig = config.JWTConfig{
	Secret:           "secret",
	Issuer:           "verba-store",
	AdminTTLMinutes:  60,
	CustomerTTLHours: 24,
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	handler := AdminAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	handler := AdminAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsCustomerToken(t *testing.T) {
	token, err := pkgauth.MintCustomerToken(testJWTConfig, time.Now(), "shopper@example.com")
	if err != nil {
		t.Fatalf("mint customer token: %v", err)
	}

	handler := AdminAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthAllowsValidToken(t *testing.T) {
	userID := uuid.New()
	token, err := pkgauth.MintAdminToken(testJWTConfig, time.Now(), pkgauth.AdminTokenPayload{
		UserID:   userID,
		Username: "store-admin",
	})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	var captured struct {
		id       string
		username string
	}
	handler := AdminAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.id = AdminIDFromContext(r.Context())
		captured.username = AdminUsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.id != userID.String() {
		t.Fatalf("expected admin id %s got %s", userID, captured.id)
	}
	if captured.username != "store-admin" {
		t.Fatalf("expected username store-admin got %s", captured.username)
	}
}

func TestCustomerAuthSeedsEmail(t *testing.T) {
	token, err := pkgauth.MintCustomerToken(testJWTConfig, time.Now(), "shopper@example.com")
	if err != nil {
		t.Fatalf("mint customer token: %v", err)
	}

	var captured string
	handler := CustomerAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = CustomerEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured != "shopper@example.com" {
		t.Fatalf("expected customer email in context, got %q", captured)
	}
}

func TestCustomerAuthRejectsAdminToken(t *testing.T) {
	token, err := pkgauth.MintAdminToken(testJWTConfig, time.Now(), pkgauth.AdminTokenPayload{
		UserID:   uuid.New(),
		Username: "store-admin",
	})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	handler := CustomerAuth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
