package repository

import (
	"context"

	"gorm.io/gorm"

	"foodorder/internal/model"
)

// FoodRepository defines catalog persistence operations.
type FoodRepository interface {
	Create(ctx context.Context, food *model.Food) error
	FindByID(ctx context.Context, id string) (*model.Food, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Food, error)
	List(ctx context.Context) ([]model.Food, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type foodRepository struct {
	db *gorm.DB
}

// NewFoodRepository creates a new food repository.
func NewFoodRepository(db *gorm.DB) FoodRepository {
	return &foodRepository{db: db}
}

// Create creates a new catalog item.
func (r *foodRepository) Create(ctx context.Context, food *model.Food) error {
	return translateError(r.db.WithContext(ctx).Create(food).Error)
}

// FindByID finds a catalog item by ID.
func (r *foodRepository) FindByID(ctx context.Context, id string) (*model.Food, error) {
	var food model.Food
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&food).Error; err != nil {
		return nil, translateError(err)
	}
	return &food, nil
}

// FindByIDs returns the items that exist among ids; missing ids are simply absent.
func (r *foodRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Food, error) {
	var foods []model.Food
	if len(ids) == 0 {
		return foods, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

// List lists the whole catalog.
func (r *foodRepository) List(ctx context.Context) ([]model.Food, error) {
	var foods []model.Food
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

// Delete removes a catalog item.
func (r *foodRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Food{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of catalog items.
func (r *foodRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Food{}).Count(&n).Error
	return n, err
}
