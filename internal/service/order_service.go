package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"foodorder/internal/errors"
	"foodorder/internal/metrics"
	"foodorder/internal/model"
	"foodorder/internal/payment"
	"foodorder/internal/repository"
	"foodorder/internal/statemachine"
)

// ItemRequest is one requested line of an order.
type ItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// OrderService manages the order lifecycle.
type OrderService interface {
	// CreateOrder persists a PLACED order and returns it with the gateway redirect URL.
	CreateOrder(ctx context.Context, userID string, items []ItemRequest, address model.Address) (*model.Order, string, error)
	// VerifyPayment settles an order from the gateway callback. changed is false for repeats.
	VerifyPayment(ctx context.Context, orderID string, success bool) (order *model.Order, changed bool, err error)
	AdvanceStatus(ctx context.Context, orderID, status, actor string) (*model.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	foodRepo    repository.FoodRepository
	cart        CartService
	gateway     payment.Gateway
	validate    *validator.Validate
	maxQuantity int
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	foodRepo repository.FoodRepository,
	cart CartService,
	gateway payment.Gateway,
	maxQuantity int,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		foodRepo:    foodRepo,
		cart:        cart,
		gateway:     gateway,
		validate:    validator.New(),
		maxQuantity: maxQuantity,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, items []ItemRequest, address model.Address) (*model.Order, string, error) {
	ids, quantities, err := s.normalizeItems(items)
	if err != nil {
		return nil, "", err
	}
	if err := s.validate.Struct(address); err != nil {
		return nil, "", errors.Validation("Invalid delivery address: " + describeValidation(err))
	}

	foods, err := s.foodRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("load foods: %w", err)
	}
	byID := make(map[string]model.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	// Snapshot name and price so later catalog edits never change this order.
	snapshots := make([]model.OrderItem, 0, len(ids))
	for _, id := range ids {
		food, ok := byID[id]
		if !ok {
			return nil, "", errors.NotFound(fmt.Sprintf("Food item %s not found", id))
		}
		snapshots = append(snapshots, model.OrderItem{
			FoodID:   food.ID,
			Name:     food.Name,
			Price:    food.Price,
			Quantity: quantities[id],
		})
	}
	amount := model.SumItems(snapshots)
	if !amount.IsPositive() {
		return nil, "", errors.Validation("Order amount must be greater than zero")
	}

	now := time.Now()
	order := &model.Order{
		UserID:  userID,
		Items:   snapshots,
		Amount:  amount,
		Address: address,
		Status:  model.OrderStatusPlaced,
		StatusHistory: []model.StatusChange{
			{To: model.OrderStatusPlaced, Actor: model.ActorCustomer, Note: "order placed", At: now},
		},
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, "", fmt.Errorf("create order: %w", err)
	}
	metrics.OrdersPlaced.Inc()
	slog.InfoContext(ctx, "order placed", "order_id", order.ID, "user_id", userID, "amount", amount.String())

	session, err := s.gateway.CreateSession(ctx, order)
	if err != nil {
		slog.ErrorContext(ctx, "payment session failed", "order_id", order.ID, "error", err)
		s.abandon(ctx, order.ID, "gateway unavailable")
		return nil, "", errors.Upstream("Payment gateway unavailable")
	}

	if err := s.orderRepo.SetSession(ctx, order.ID, session.ID); err != nil {
		slog.ErrorContext(ctx, "store payment session failed", "order_id", order.ID, "session_id", session.ID, "error", err)
		s.abandon(ctx, order.ID, "payment session not recorded")
		return nil, "", errors.Upstream("Could not start payment, please retry")
	}
	order.SessionID = session.ID
	return order, session.URL, nil
}

// abandon cancels a just-created order whose payment could not be set up.
func (s *orderService) abandon(ctx context.Context, orderID, note string) {
	_, err := s.orderRepo.Cancel(ctx, orderID, model.StatusChange{
		From:  model.OrderStatusPlaced,
		To:    model.OrderStatusCancelled,
		Actor: model.ActorSystem,
		Note:  note,
		At:    time.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "cancel abandoned order", "order_id", orderID, "error", err)
	}
}

// normalizeItems merges duplicate ids and checks quantities, preserving first-seen order.
func (s *orderService) normalizeItems(items []ItemRequest) ([]string, map[string]int, error) {
	if len(items) == 0 {
		return nil, nil, errors.Validation("Order has no items")
	}
	var ids []string
	quantities := make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ItemID)
		if id == "" {
			return nil, nil, errors.Validation("Every item needs an itemId")
		}
		if it.Quantity < 1 {
			return nil, nil, errors.Validation(fmt.Sprintf("Quantity for %s must be at least 1", id))
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += it.Quantity
		if s.maxQuantity > 0 && quantities[id] > s.maxQuantity {
			return nil, nil, errors.Validation(fmt.Sprintf("Cannot order more than %d of one item", s.maxQuantity))
		}
	}
	return ids, quantities, nil
}

func (s *orderService) VerifyPayment(ctx context.Context, orderID string, success bool) (*model.Order, bool, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, false, errors.Validation("orderId is required")
	}
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order.Settled() {
		metrics.PaymentsVerified.WithLabelValues("noop").Inc()
		return order, false, nil
	}

	if !success {
		changed, err := s.orderRepo.Cancel(ctx, orderID, model.StatusChange{
			From:  model.OrderStatusPlaced,
			To:    model.OrderStatusCancelled,
			Actor: model.ActorCustomer,
			Note:  "payment not completed",
			At:    time.Now(),
		})
		if err != nil {
			return nil, false, fmt.Errorf("cancel order: %w", err)
		}
		if changed {
			metrics.PaymentsVerified.WithLabelValues("cancelled").Inc()
			slog.InfoContext(ctx, "order cancelled", "order_id", orderID)
		}
		return s.reload(ctx, orderID, changed)
	}

	paid, err := s.gateway.SessionPaid(ctx, order.SessionID)
	if err != nil {
		slog.ErrorContext(ctx, "payment status lookup failed", "order_id", orderID, "error", err)
		return nil, false, errors.Upstream("Payment gateway unavailable")
	}
	if !paid {
		metrics.PaymentsVerified.WithLabelValues("rejected").Inc()
		return nil, false, errors.Validation("Payment has not been completed")
	}

	changed, err := s.orderRepo.MarkPaid(ctx, orderID, model.StatusChange{
		From:  model.OrderStatusPlaced,
		To:    model.OrderStatusPlaced,
		Actor: model.ActorSystem,
		Note:  "payment received",
		At:    time.Now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("mark order paid: %w", err)
	}
	if changed {
		metrics.PaymentsVerified.WithLabelValues("paid").Inc()
		slog.InfoContext(ctx, "order paid", "order_id", orderID, "user_id", order.UserID)
		// only the call that settled the order empties the cart
		if err := s.cart.Clear(ctx, order.UserID); err != nil {
			slog.WarnContext(ctx, "cart not cleared after payment", "order_id", orderID, "user_id", order.UserID, "error", err)
		}
	}
	return s.reload(ctx, orderID, changed)
}

func (s *orderService) AdvanceStatus(ctx context.Context, orderID, status, actor string) (*model.Order, error) {
	to, ok := statemachine.Parse(status)
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("Unknown order status %q", status))
	}
	if actor == "" {
		actor = model.ActorAdmin
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(order.Status, to, order.Payment); err != nil {
		return nil, errors.InvalidTransition(err.Error())
	}

	entry := model.StatusChange{From: order.Status, To: to, Actor: actor, At: time.Now()}
	var changed bool
	if to == model.OrderStatusCancelled {
		changed, err = s.orderRepo.Cancel(ctx, orderID, entry)
	} else {
		changed, err = s.orderRepo.UpdateStatus(ctx, orderID, order.Status, to, entry)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !changed {
		return nil, errors.InvalidTransition("Order was modified concurrently, reload and retry")
	}

	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	slog.InfoContext(ctx, "order status changed", "order_id", orderID, "from", order.Status, "to", to, "actor", actor)
	updated, _, err := s.reload(ctx, orderID, true)
	return updated, err
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) find(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderService) reload(ctx context.Context, orderID string, changed bool) (*model.Order, bool, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}

// describeValidation lists the failing fields of a validator error.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return strings.Join(fields, ", ")
}
