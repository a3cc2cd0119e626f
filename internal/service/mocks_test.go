package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"foodorder/internal/model"
	"foodorder/internal/payment"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateCart(ctx context.Context, id string, cart map[string]int, expectedVersion int64) error {
	args := m.Called(ctx, id, cart, expectedVersion)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

// MockFoodRepository is a mock implementation of FoodRepository.
type MockFoodRepository struct {
	mock.Mock
}

func (m *MockFoodRepository) Create(ctx context.Context, food *model.Food) error {
	args := m.Called(ctx, food)
	return args.Error(0)
}

func (m *MockFoodRepository) FindByID(ctx context.Context, id string) (*model.Food, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Food), args.Error(1)
}

func (m *MockFoodRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Food, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Food), args.Error(1)
}

func (m *MockFoodRepository) List(ctx context.Context) ([]model.Food, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Food), args.Error(1)
}

func (m *MockFoodRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFoodRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) SetSession(ctx context.Context, id, sessionID string) error {
	args := m.Called(ctx, id, sessionID)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	args := m.Called(ctx, id, change)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Cancel(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	args := m.Called(ctx, id, change)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, change model.StatusChange) (bool, error) {
	args := m.Called(ctx, id, from, to, change)
	return args.Bool(0), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, userID, itemID string) (map[string]int, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID, itemID string) (map[string]int, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, order *model.Order) (*payment.Session, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// MockThrottle is a mock implementation of auth.Throttle.
type MockThrottle struct {
	mock.Mock
}

func (m *MockThrottle) Allowed(ctx context.Context, email string) bool {
	return m.Called(ctx, email).Bool(0)
}

func (m *MockThrottle) RecordFailure(ctx context.Context, email string) {
	m.Called(ctx, email)
}

func (m *MockThrottle) Reset(ctx context.Context, email string) {
	m.Called(ctx, email)
}
