package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgauth "github.com/DenysVerbitskyi/verba-store/pkg/auth"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// LoginInput carries an admin login attempt.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is the minted session.
type LoginResult struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// RegisterInput carries a new admin account. Registration only works in
// dev unless the allow-register flag is set.
type RegisterInput struct {
	Username string
	Password string
}

// ServiceParams groups dependencies for the admin auth service.
type ServiceParams struct {
	Repo          Repository
	JWT           config.JWTConfig
	Password      config.PasswordConfig
	AllowRegister bool
	Logger        *logger.Logger

	Now func() time.Time
}

// Service authenticates admin panel accounts.
type Service struct {
	repo          Repository
	jwt           config.JWTConfig
	password      config.PasswordConfig
	allowRegister bool
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds an admin auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.JWT.Secret == "" {
		return nil, errors.New("jwt config is required")
	}
	s := &Service{
		repo:          params.Repo,
		jwt:           params.JWT,
		password:      params.Password,
		allowRegister: params.AllowRegister,
		logg:          params.Logger,
		now:           params.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Login checks the credentials and mints an admin token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	token, err := pkgauth.MintAdminToken(s.jwt, now, pkgauth.AdminTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil && s.logg != nil {
		s.logg.Error(ctx, "record last login", err)
	}

	return &LoginResult{Token: token, Username: user.Username, IssuedAt: now}, nil
}

// Register creates an admin account. Outside dev the endpoint is off.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	if !s.allowRegister {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "registration is disabled")
	}

	username := strings.TrimSpace(input.Username)
	if len(username) < 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must be at least 3 characters")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.Login(ctx, LoginInput{Username: username, Password: input.Password})
}
