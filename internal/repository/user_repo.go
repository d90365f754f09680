package repository

import (
	"errors"
	"time"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository serves login and session checks, which run before a tenant
// session exists, so its lookups by email or id are not tenant scoped.
// Listing and creating users go through a session.
type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(tx *tenancy.Tx, user *model.User) error
	FindAll(tx *tenancy.Tx) ([]model.User, error)
	UpdatePassword(userID uuid.UUID, hashedPassword string) error
	StartSession(userID uuid.UUID, tokenVersion string) error
	UpdateLastSeen(userID uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Internal("find user", err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Internal("find user", err)
	}
	return &user, nil
}

func (r *userRepo) Create(tx *tenancy.Tx, user *model.User) error {
	user.CreatedBy = tx.Actor()
	return tx.Create(user)
}

func (r *userRepo) FindAll(tx *tenancy.Tx) ([]model.User, error) {
	var users []model.User
	if err := tx.Query().Order("full_name ASC").Find(&users).Error; err != nil {
		return nil, apperr.Internal("list users", err)
	}
	return users, nil
}

func (r *userRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password":      hashedPassword,
		"token_version": uuid.NewString(),
	}).Error
}

// StartSession rotates the token version so older tokens stop validating.
func (r *userRepo) StartSession(userID uuid.UUID, tokenVersion string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"token_version": tokenVersion,
		"last_seen_at":  time.Now(),
	}).Error
}

func (r *userRepo) UpdateLastSeen(userID uuid.UUID) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("last_seen_at", time.Now()).Error
}
