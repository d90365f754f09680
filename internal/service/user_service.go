package service

import (
	"context"
	"errors"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"
)

var ErrEmailExists = errors.New("email already exists")

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*model.UserResponse, error)
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
}

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	FullName string     `json:"full_name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=OWNER MANAGER TECHNICIAN CASHIER"`
}

type userService struct {
	runner   *tenancy.Runner
	userRepo repository.UserRepository
}

func NewUserService(runner *tenancy.Runner, userRepo repository.UserRepository) UserService {
	return &userService{runner: runner, userRepo: userRepo}
}

// CreateUser adds a user to the caller's tenant.
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperr.Validation(ErrEmailExists.Error())
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		return s.userRepo.Create(tx, user)
	})
	if apperr.IsUniqueViolation(err) {
		return nil, apperr.Validation(ErrEmailExists.Error())
	}
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	var users []model.User
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		users, err = s.userRepo.FindAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}
