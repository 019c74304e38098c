package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/pkg/validation"
	"geoevents.io/geoevents/internal/pkg/worker"
)

const (
	passwordHashCost = 12

	loginMethodPassword = "password"
)

// UserStore is the persistence surface the account use cases need.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLastSignedIn(ctx context.Context, id int64) error
}

// DetachedRunner runs work that must outlive the request that scheduled it.
type DetachedRunner interface {
	SubmitDetached(task worker.Task) error
}

// SignupRequest registers a password account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest authenticates a password account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService manages accounts. Token issuance stays in the HTTP layer.
type AuthService struct {
	users      UserStore
	detached   DetachedRunner
	ownerEmail string
	hashCost   int
}

// NewAuthService creates a new AuthService. Signups with ownerEmail get the
// admin role.
func NewAuthService(users UserStore, detached DetachedRunner, ownerEmail string) *AuthService {
	return &AuthService{
		users:      users,
		detached:   detached,
		ownerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
		hashCost:   passwordHashCost,
	}
}

// Signup creates a user. A taken email is USER_ALREADY_EXISTS.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to hash password",
			http.StatusInternalServerError)
	}

	role := domain.RoleUser
	if s.ownerEmail != "" && req.Email == s.ownerEmail {
		role = domain.RoleAdmin
	}

	u, err := s.users.Create(ctx, &domain.User{
		OpenID:       uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		LoginMethod:  loginMethodPassword,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("User signed up", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are the same
// INVALID_CREDENTIALS error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Ctx(ctx).Warn("login failed: invalid credentials")
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		logger.Ctx(ctx).Warn("login failed: invalid credentials", zap.Int64("user_id", u.ID))
		return nil, invalidCredentials()
	}

	s.touchLastSignedIn(u.ID)
	return u, nil
}

// Me returns the user behind an authenticated session.
func (s *AuthService) Me(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) touchLastSignedIn(id int64) {
	task := func(ctx context.Context) {
		if err := s.users.TouchLastSignedIn(ctx, id); err != nil {
			logger.Warn("failed to update last_signed_in", zap.Error(err), zap.Int64("user_id", id))
		}
	}
	if s.detached == nil {
		return
	}
	if err := s.detached.SubmitDetached(task); err != nil {
		logger.Warn("last_signed_in update not scheduled", zap.Error(err), zap.Int64("user_id", id))
	}
}

func invalidCredentials() error {
	return apperrors.Unauthorized(apperrors.CodeInvalidCredentials, "invalid email or password")
}
