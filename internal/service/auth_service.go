package service

import (
	"context"
	"errors"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"
	"go-repairshop/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ResetPassword(email, oldPassword, newPassword string) error
	// Authenticate turns a bearer token into the session the engine trusts.
	Authenticate(tokenString string) (tenancy.Session, error)
	Heartbeat(ctx context.Context) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a fresh token version invalidates older tokens.
	version := uuid.NewString()
	if err := s.userRepo.StartSession(user.ID, version); err != nil {
		return nil, apperr.Internal("start session", err)
	}

	token, err := s.tokens.GenerateToken(jwt.Claims{
		UserID:       user.ID,
		TenantID:     user.TenantID,
		Role:         string(user.Role),
		Email:        user.Email,
		Name:         user.FullName,
		TokenVersion: version,
	})
	if err != nil {
		return nil, apperr.Internal("sign token", err)
	}

	now := time.Now()
	user.LastSeenAt = &now
	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("tenant_id", user.TenantID.String()))
	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return apperr.Validation("new password must be at least 6 characters")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return apperr.Internal("hash password", err)
	}
	return s.userRepo.UpdatePassword(user.ID, user.Password)
}

func (s *authService) Authenticate(tokenString string) (tenancy.Session, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return tenancy.Session{}, apperr.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return tenancy.Session{}, apperr.ErrUnauthorized
	}
	if !user.IsActive {
		return tenancy.Session{}, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return tenancy.Session{}, ErrSessionReplaced
	}
	if user.TenantID != claims.TenantID {
		return tenancy.Session{}, apperr.ErrUnauthorized
	}
	return tenancy.Session{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Name:     user.FullName,
	}, nil
}

func (s *authService) Heartbeat(ctx context.Context) error {
	session, err := tenancy.FromContext(ctx)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateLastSeen(session.UserID)
}
