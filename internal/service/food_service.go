package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foodorder/internal/cache"
	"foodorder/internal/errors"
	"foodorder/internal/metrics"
	"foodorder/internal/model"
	"foodorder/internal/repository"
	"foodorder/internal/storage"
)

const (
	foodListCacheKey = "food:list"
	foodListCacheTTL = 5 * time.Minute
)

// FoodInput carries the fields of a new catalog item.
type FoodInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
}

// Upload is an image file received with a catalog item.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// FoodService manages the catalog.
type FoodService interface {
	Add(ctx context.Context, in FoodInput, image *Upload) (*model.Food, error)
	List(ctx context.Context) ([]model.Food, error)
	Get(ctx context.Context, id string) (*model.Food, error)
	Remove(ctx context.Context, id string) error
}

type foodService struct {
	repo   repository.FoodRepository
	cache  *cache.Client
	images storage.Store
}

// NewFoodService builds a FoodService with repository, cache and image store.
func NewFoodService(repo repository.FoodRepository, cache *cache.Client, images storage.Store) FoodService {
	return &foodService{repo: repo, cache: cache, images: images}
}

func (s *foodService) Add(ctx context.Context, in FoodInput, image *Upload) (*model.Food, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.Validation("name is required")
	}
	if !in.Price.IsPositive() {
		return nil, errors.Validation("price must be greater than zero")
	}

	food := &model.Food{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
	}
	if image != nil {
		ref, err := s.images.Put(ctx, image.Filename, image.Body, image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		food.Image = ref
	}

	if err := s.repo.Create(ctx, food); err != nil {
		if food.Image != "" {
			_ = s.images.Delete(ctx, food.Image)
		}
		return nil, fmt.Errorf("create food: %w", err)
	}
	_ = s.cache.Delete(ctx, foodListCacheKey)

	s.withURL(food)
	slog.InfoContext(ctx, "food added", "food_id", food.ID, "name", food.Name)
	return food, nil
}

// List returns the catalog, served from cache when possible.
func (s *foodService) List(ctx context.Context) ([]model.Food, error) {
	var foods []model.Food
	if s.cache.GetJSON(ctx, foodListCacheKey, &foods) {
		metrics.CacheHits.WithLabelValues(foodListCacheKey).Inc()
		return foods, nil
	}
	metrics.CacheMisses.WithLabelValues(foodListCacheKey).Inc()

	foods, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	for i := range foods {
		s.withURL(&foods[i])
	}
	_ = s.cache.SetJSON(ctx, foodListCacheKey, foods, foodListCacheTTL)
	return foods, nil
}

func (s *foodService) Get(ctx context.Context, id string) (*model.Food, error) {
	food, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Food item not found")
		}
		return nil, fmt.Errorf("find food: %w", err)
	}
	s.withURL(food)
	return food, nil
}

// Remove deletes the item and its image. Orders keep their snapshots.
func (s *foodService) Remove(ctx context.Context, id string) error {
	food, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("Food item not found")
		}
		return fmt.Errorf("delete food: %w", err)
	}
	_ = s.cache.Delete(ctx, foodListCacheKey)

	if food.Image != "" {
		if err := s.images.Delete(ctx, food.Image); err != nil {
			slog.WarnContext(ctx, "image not removed", "food_id", id, "error", err)
		}
	}
	slog.InfoContext(ctx, "food removed", "food_id", id)
	return nil
}

func (s *foodService) withURL(food *model.Food) {
	if food.Image != "" && s.images != nil {
		food.ImageURL = s.images.URL(food.Image)
	}
}
