package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"foodorder/internal/model"
)

// UserRepository defines credential and cart persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateCart replaces the cart only if the stored cart version still equals expectedVersion.
	UpdateCart(ctx context.Context, id string, cart map[string]int, expectedVersion int64) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SetRole(ctx context.Context, id, role string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.Cart == nil {
		user.Cart = map[string]int{}
	}
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateCart(ctx context.Context, id string, cart map[string]int, expectedVersion int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND cart_version = ?", id, expectedVersion).
		Select("Cart", "CartVersion", "UpdatedAt").
		Updates(&model.User{Cart: cart, CartVersion: expectedVersion + 1, UpdatedAt: time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id, role string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
