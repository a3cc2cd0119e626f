package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodorder/internal/errors"
	"foodorder/internal/model"
	"foodorder/internal/payment"
	"foodorder/internal/repository"
)

var testAddress = model.Address{
	FirstName: "Alice",
	LastName:  "Smith",
	Street:    "1 Main St",
	City:      "Springfield",
	Phone:     "555-0100",
}

type orderMocks struct {
	orders  *MockOrderRepository
	foods   *MockFoodRepository
	cart    *MockCartService
	gateway *MockGateway
}

func newOrderService() (OrderService, orderMocks) {
	m := orderMocks{
		orders:  new(MockOrderRepository),
		foods:   new(MockFoodRepository),
		cart:    new(MockCartService),
		gateway: new(MockGateway),
	}
	return NewOrderService(m.orders, m.foods, m.cart, m.gateway, 20), m
}

func (m orderMocks) assertExpectations(t *testing.T) {
	m.orders.AssertExpectations(t)
	m.foods.AssertExpectations(t)
	m.cart.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
}

func TestOrderService_CreateOrderSnapshotsPrices(t *testing.T) {
	svc, m := newOrderService()
	m.foods.On("FindByIDs", mock.Anything, []string{"I1", "I2"}).Return([]model.Food{
		{ID: "I1", Name: "Veg rolls", Price: decimal.NewFromInt(10)},
		{ID: "I2", Name: "Greek salad", Price: decimal.RequireFromString("12.50")},
	}, nil)
	m.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "o-1"
	}).Return(nil)
	m.gateway.On("CreateSession", mock.Anything, mock.AnythingOfType("*model.Order")).
		Return(&payment.Session{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil)
	m.orders.On("SetSession", mock.Anything, "o-1", "cs_1").Return(nil)

	order, url, err := svc.CreateOrder(context.Background(), "u-1", []ItemRequest{
		{ItemID: "I1", Quantity: 1},
		{ItemID: "I2", Quantity: 1},
		{ItemID: "I1", Quantity: 1},
	}, testAddress)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example.com/cs_1", url)
	assert.Equal(t, model.OrderStatusPlaced, order.Status)
	assert.False(t, order.Payment)
	assert.True(t, order.Amount.Equal(decimal.RequireFromString("32.50")))
	assert.True(t, order.Amount.Equal(model.SumItems(order.Items)))
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "Greek salad", order.Items[1].Name)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.ActorCustomer, order.StatusHistory[0].Actor)

	// the cart is left alone until payment is verified
	m.cart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestOrderService_CreateOrderRejects(t *testing.T) {
	tests := []struct {
		name         string
		items        []ItemRequest
		address      model.Address
		setupMock    func(orderMocks)
		expectedKind error
	}{
		{
			name:         "no items",
			address:      testAddress,
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrValidation,
		},
		{
			name:         "zero quantity",
			items:        []ItemRequest{{ItemID: "I1", Quantity: 0}},
			address:      testAddress,
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrValidation,
		},
		{
			name:         "above quantity cap",
			items:        []ItemRequest{{ItemID: "I1", Quantity: 15}, {ItemID: "I1", Quantity: 6}},
			address:      testAddress,
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrValidation,
		},
		{
			name:         "incomplete address",
			items:        []ItemRequest{{ItemID: "I1", Quantity: 1}},
			address:      model.Address{FirstName: "Alice"},
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrValidation,
		},
		{
			name:    "unknown item",
			items:   []ItemRequest{{ItemID: "I1", Quantity: 1}, {ItemID: "ghost", Quantity: 1}},
			address: testAddress,
			setupMock: func(m orderMocks) {
				m.foods.On("FindByIDs", mock.Anything, []string{"I1", "ghost"}).
					Return([]model.Food{{ID: "I1", Name: "Veg rolls", Price: decimal.NewFromInt(10)}}, nil)
			},
			expectedKind: errors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newOrderService()
			tt.setupMock(m)

			order, _, err := svc.CreateOrder(context.Background(), "u-1", tt.items, tt.address)
			assert.ErrorIs(t, err, tt.expectedKind)
			assert.Nil(t, order)
			m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			m.assertExpectations(t)
		})
	}
}

func TestOrderService_CreateOrderCancelsWhenGatewayFails(t *testing.T) {
	svc, m := newOrderService()
	m.foods.On("FindByIDs", mock.Anything, []string{"I1"}).
		Return([]model.Food{{ID: "I1", Name: "Veg rolls", Price: decimal.NewFromInt(10)}}, nil)
	m.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "o-1"
	}).Return(nil)
	m.gateway.On("CreateSession", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection refused"))
	m.orders.On("Cancel", mock.Anything, "o-1", mock.MatchedBy(func(c model.StatusChange) bool {
		return c.To == model.OrderStatusCancelled && c.Note == "gateway unavailable"
	})).Return(true, nil)

	_, _, err := svc.CreateOrder(context.Background(), "u-1", []ItemRequest{{ItemID: "I1", Quantity: 1}}, testAddress)
	assert.ErrorIs(t, err, errors.ErrUpstream)
	m.assertExpectations(t)
}

func TestOrderService_CreateOrderCancelsWhenSessionNotStored(t *testing.T) {
	svc, m := newOrderService()
	m.foods.On("FindByIDs", mock.Anything, []string{"I1"}).
		Return([]model.Food{{ID: "I1", Name: "Veg rolls", Price: decimal.NewFromInt(10)}}, nil)
	m.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "o-1"
	}).Return(nil)
	m.gateway.On("CreateSession", mock.Anything, mock.Anything).Return(&payment.Session{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil)
	m.orders.On("SetSession", mock.Anything, "o-1", "cs_1").Return(stderrors.New("write timeout"))
	m.orders.On("Cancel", mock.Anything, "o-1", mock.MatchedBy(func(c model.StatusChange) bool {
		return c.To == model.OrderStatusCancelled && c.Actor == model.ActorSystem && c.Note == "payment session not recorded"
	})).Return(true, nil)

	order, url, err := svc.CreateOrder(context.Background(), "u-1", []ItemRequest{{ItemID: "I1", Quantity: 1}}, testAddress)
	assert.ErrorIs(t, err, errors.ErrUpstream)
	assert.Nil(t, order)
	assert.Empty(t, url)
	m.assertExpectations(t)
}

func placedOrder() *model.Order {
	return &model.Order{
		ID:        "o-1",
		UserID:    "u-1",
		Amount:    decimal.NewFromInt(20),
		Status:    model.OrderStatusPlaced,
		SessionID: "cs_1",
	}
}

func TestOrderService_VerifyPaymentIsIdempotent(t *testing.T) {
	svc, m := newOrderService()
	unpaid := placedOrder()
	paid := placedOrder()
	paid.Payment = true

	m.orders.On("FindByID", mock.Anything, "o-1").Return(unpaid, nil).Once()
	m.orders.On("FindByID", mock.Anything, "o-1").Return(paid, nil)
	m.gateway.On("SessionPaid", mock.Anything, "cs_1").Return(true, nil).Once()
	m.orders.On("MarkPaid", mock.Anything, "o-1", mock.Anything).Return(true, nil).Once()
	m.cart.On("Clear", mock.Anything, "u-1").Return(nil).Once()

	first, changed, err := svc.VerifyPayment(context.Background(), "o-1", true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, first.Payment)
	assert.Equal(t, model.OrderStatusPlaced, first.Status)

	second, changed, err := svc.VerifyPayment(context.Background(), "o-1", true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, second)

	m.cart.AssertNumberOfCalls(t, "Clear", 1)
	m.assertExpectations(t)
}

func TestOrderService_VerifyPaymentLosingRaceKeepsCart(t *testing.T) {
	svc, m := newOrderService()
	paid := placedOrder()
	paid.Payment = true

	m.orders.On("FindByID", mock.Anything, "o-1").Return(placedOrder(), nil).Once()
	m.orders.On("FindByID", mock.Anything, "o-1").Return(paid, nil)
	m.gateway.On("SessionPaid", mock.Anything, "cs_1").Return(true, nil)
	m.orders.On("MarkPaid", mock.Anything, "o-1", mock.Anything).Return(false, nil)

	order, changed, err := svc.VerifyPayment(context.Background(), "o-1", true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, order.Payment)
	m.cart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestOrderService_VerifyPaymentFailureCancels(t *testing.T) {
	svc, m := newOrderService()
	cancelled := placedOrder()
	cancelled.Status = model.OrderStatusCancelled

	m.orders.On("FindByID", mock.Anything, "o-1").Return(placedOrder(), nil).Once()
	m.orders.On("FindByID", mock.Anything, "o-1").Return(cancelled, nil)
	m.orders.On("Cancel", mock.Anything, "o-1", mock.Anything).Return(true, nil).Once()

	order, changed, err := svc.VerifyPayment(context.Background(), "o-1", false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.False(t, order.Payment)

	// a late success callback on a cancelled order changes nothing
	order, changed, err = svc.VerifyPayment(context.Background(), "o-1", true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)

	m.gateway.AssertNotCalled(t, "SessionPaid", mock.Anything, mock.Anything)
	m.cart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestOrderService_VerifyPaymentErrors(t *testing.T) {
	t.Run("unknown order", func(t *testing.T) {
		svc, m := newOrderService()
		m.orders.On("FindByID", mock.Anything, "nope").Return(nil, repository.ErrNotFound)
		_, _, err := svc.VerifyPayment(context.Background(), "nope", true)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("gateway says unpaid", func(t *testing.T) {
		svc, m := newOrderService()
		m.orders.On("FindByID", mock.Anything, "o-1").Return(placedOrder(), nil)
		m.gateway.On("SessionPaid", mock.Anything, "cs_1").Return(false, nil)
		_, _, err := svc.VerifyPayment(context.Background(), "o-1", true)
		assert.ErrorIs(t, err, errors.ErrValidation)
		m.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gateway unreachable", func(t *testing.T) {
		svc, m := newOrderService()
		m.orders.On("FindByID", mock.Anything, "o-1").Return(placedOrder(), nil)
		m.gateway.On("SessionPaid", mock.Anything, "cs_1").Return(false, stderrors.New("timeout"))
		_, _, err := svc.VerifyPayment(context.Background(), "o-1", true)
		assert.ErrorIs(t, err, errors.ErrUpstream)
	})

	t.Run("missing id", func(t *testing.T) {
		svc, _ := newOrderService()
		_, _, err := svc.VerifyPayment(context.Background(), " ", true)
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestOrderService_AdvanceStatus(t *testing.T) {
	paidPlaced := placedOrder()
	paidPlaced.Payment = true
	delivered := placedOrder()
	delivered.Payment = true
	delivered.Status = model.OrderStatusDelivered

	tests := []struct {
		name         string
		current      *model.Order
		status       string
		setupMock    func(orderMocks)
		expectedKind error
	}{
		{
			name:    "forward move",
			current: paidPlaced,
			status:  "preparing",
			setupMock: func(m orderMocks) {
				m.orders.On("UpdateStatus", mock.Anything, "o-1", model.OrderStatusPlaced, model.OrderStatusPreparing, mock.MatchedBy(func(c model.StatusChange) bool {
					return c.Actor == model.ActorAdmin && c.From == model.OrderStatusPlaced
				})).Return(true, nil)
			},
		},
		{
			name:         "backward move",
			current:      delivered,
			status:       "PLACED",
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrInvalidTransition,
		},
		{
			name:         "unpaid cannot be prepared",
			current:      placedOrder(),
			status:       "PREPARING",
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrInvalidTransition,
		},
		{
			name:         "unknown status",
			current:      paidPlaced,
			status:       "SHIPPED",
			setupMock:    func(orderMocks) {},
			expectedKind: errors.ErrValidation,
		},
		{
			name:    "lost race",
			current: paidPlaced,
			status:  "DELIVERED",
			setupMock: func(m orderMocks) {
				m.orders.On("UpdateStatus", mock.Anything, "o-1", model.OrderStatusPlaced, model.OrderStatusDelivered, mock.Anything).Return(false, nil)
			},
			expectedKind: errors.ErrInvalidTransition,
		},
		{
			name:    "cancel unpaid",
			current: placedOrder(),
			status:  "CANCELLED",
			setupMock: func(m orderMocks) {
				m.orders.On("Cancel", mock.Anything, "o-1", mock.Anything).Return(true, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newOrderService()
			m.orders.On("FindByID", mock.Anything, "o-1").Return(tt.current, nil).Maybe()
			tt.setupMock(m)

			order, err := svc.AdvanceStatus(context.Background(), "o-1", tt.status, model.ActorAdmin)
			if tt.expectedKind != nil {
				assert.ErrorIs(t, err, tt.expectedKind)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, order)
			}
			m.assertExpectations(t)
		})
	}
}

func TestOrderService_Lists(t *testing.T) {
	svc, m := newOrderService()
	m.orders.On("ListByUser", mock.Anything, "u-1").Return([]model.Order{*placedOrder()}, nil)
	m.orders.On("List", mock.Anything).Return([]model.Order{*placedOrder(), *placedOrder()}, nil)

	mine, err := svc.ListOrdersForUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListAllOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
