package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"foodorder/internal/errors"
	"foodorder/internal/metrics"
	"foodorder/internal/repository"
)

// cartWriteAttempts bounds compare-and-swap retries per cart mutation.
const cartWriteAttempts = 5

// CartService manages the per-user cart stored on the user record.
type CartService interface {
	Add(ctx context.Context, userID, itemID string) (map[string]int, error)
	Remove(ctx context.Context, userID, itemID string) (map[string]int, error)
	Get(ctx context.Context, userID string) (map[string]int, error)
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	userRepo    repository.UserRepository
	foodRepo    repository.FoodRepository
	maxQuantity int
}

// NewCartService builds a CartService. maxQuantity caps a single line.
func NewCartService(userRepo repository.UserRepository, foodRepo repository.FoodRepository, maxQuantity int) CartService {
	return &cartService{userRepo: userRepo, foodRepo: foodRepo, maxQuantity: maxQuantity}
}

func (s *cartService) Add(ctx context.Context, userID, itemID string) (map[string]int, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, errors.Validation("itemId is required")
	}
	if _, err := s.foodRepo.FindByID(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Food item not found")
		}
		return nil, fmt.Errorf("find food: %w", err)
	}

	return s.mutate(ctx, userID, func(cart map[string]int) (bool, error) {
		if s.maxQuantity > 0 && cart[itemID]+1 > s.maxQuantity {
			return false, errors.Validation(fmt.Sprintf("Cannot add more than %d of one item", s.maxQuantity))
		}
		cart[itemID]++
		return true, nil
	})
}

func (s *cartService) Remove(ctx context.Context, userID, itemID string) (map[string]int, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, errors.Validation("itemId is required")
	}
	return s.mutate(ctx, userID, func(cart map[string]int) (bool, error) {
		qty, ok := cart[itemID]
		if !ok {
			return false, nil
		}
		if qty <= 1 {
			delete(cart, itemID)
		} else {
			cart[itemID] = qty - 1
		}
		return true, nil
	})
}

func (s *cartService) Get(ctx context.Context, userID string) (map[string]int, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	if user.Cart == nil {
		return map[string]int{}, nil
	}
	return user.Cart, nil
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	_, err := s.mutate(ctx, userID, func(cart map[string]int) (bool, error) {
		if len(cart) == 0 {
			return false, nil
		}
		for k := range cart {
			delete(cart, k)
		}
		return true, nil
	})
	return err
}

// mutate applies fn to a copy of the cart and writes it back guarded by the cart
// version, re-reading on conflict. fn reports whether it changed anything.
func (s *cartService) mutate(ctx context.Context, userID string, fn func(map[string]int) (bool, error)) (map[string]int, error) {
	for attempt := 1; attempt <= cartWriteAttempts; attempt++ {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return nil, userLookupError(err)
		}

		cart := make(map[string]int, len(user.Cart)+1)
		for k, v := range user.Cart {
			if v > 0 {
				cart[k] = v
			}
		}

		changed, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cart, nil
		}

		err = s.userRepo.UpdateCart(ctx, userID, cart, user.CartVersion)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("update cart: %w", err)
		}
		metrics.CartConflicts.Inc()
		slog.DebugContext(ctx, "cart version conflict, retrying", "user_id", userID, "attempt", attempt)
	}
	return nil, errors.Upstream("Cart is busy, please retry")
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("User not found")
	}
	return fmt.Errorf("find user: %w", err)
}
