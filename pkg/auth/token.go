package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAdminToken issues a signed JWT for an admin panel user.
func MintAdminToken(cfg config.JWTConfig, now time.Time, payload AdminTokenPayload) (string, error) {
	if err := validateJWTConfig(cfg); err != nil {
		return "", err
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(payload.Username) == "" {
		return "", fmt.Errorf("username is required")
	}

	claims := AdminTokenClaims{
		UserID:   payload.UserID,
		Username: payload.Username,
		Type:     enums.TokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AdminTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// MintCustomerToken issues the stateless 24h session asserting a verified email.
func MintCustomerToken(cfg config.JWTConfig, now time.Time, email string) (string, error) {
	if err := validateJWTConfig(cfg); err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	claims := CustomerTokenClaims{
		Email: email,
		Type:  enums.TokenTypeCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.CustomerTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAdminToken validates the JWT string and returns typed admin claims.
func ParseAdminToken(cfg config.JWTConfig, tokenString string) (*AdminTokenClaims, error) {
	claims := &AdminTokenClaims{}
	if err := parseToken(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != enums.TokenTypeAdmin {
		return nil, fmt.Errorf("not an admin token")
	}
	return claims, nil
}

// ParseCustomerToken validates the JWT string and returns typed customer claims.
func ParseCustomerToken(cfg config.JWTConfig, tokenString string) (*CustomerTokenClaims, error) {
	claims := &CustomerTokenClaims{}
	if err := parseToken(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != enums.TokenTypeCustomer {
		return nil, fmt.Errorf("not a customer token")
	}
	return claims, nil
}

func parseToken(cfg config.JWTConfig, tokenString string, claims jwt.Claims) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	return err
}

func validateJWTConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	return nil
}
