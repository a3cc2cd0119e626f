package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"foodorder/internal/model"
)

// OrderRepository defines order persistence operations.
//
// MarkPaid, Cancel and UpdateStatus are conditional: they report false and leave
// the order untouched when its current state no longer matches.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	SetSession(ctx context.Context, id, sessionID string) error
	// MarkPaid sets payment=true on a PLACED, unpaid order.
	MarkPaid(ctx context.Context, id string, change model.StatusChange) (bool, error)
	// Cancel moves a PLACED, unpaid order to CANCELLED.
	Cancel(ctx context.Context, id string, change model.StatusChange) (bool, error)
	// UpdateStatus moves an order from one status to another.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, change model.StatusChange) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order record.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return translateError(r.db.WithContext(ctx).Create(order).Error)
}

// FindByID finds an order by ID.
func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// ListByUser lists a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List lists every order, newest first.
func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SetSession records the payment gateway session for an order.
func (r *orderRepository) SetSession(ctx context.Context, id, sessionID string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Update("session_id", sessionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		func(o *model.Order) bool { return o.Status == model.OrderStatusPlaced && !o.Payment },
		func(o *model.Order) { o.Payment = true },
		change,
	)
}

func (r *orderRepository) Cancel(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		func(o *model.Order) bool { return o.Status == model.OrderStatusPlaced && !o.Payment },
		func(o *model.Order) { o.Status = model.OrderStatusCancelled },
		change,
	)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, change model.StatusChange) (bool, error) {
	return r.applyIf(ctx, id,
		func(o *model.Order) bool { return o.Status == from },
		func(o *model.Order) { o.Status = to },
		change,
	)
}

// applyIf reads the order, and when match holds writes the mutation plus a history
// entry guarded by the status/payment values it read.
func (r *orderRepository) applyIf(
	ctx context.Context,
	id string,
	match func(*model.Order) bool,
	mutate func(*model.Order),
	change model.StatusChange,
) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
			return translateError(err)
		}
		if !match(&order) {
			return nil
		}

		prevStatus, prevPayment := order.Status, order.Payment
		mutate(&order)
		order.StatusHistory = append(order.StatusHistory, change)
		order.UpdatedAt = time.Now()

		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ? AND payment = ?", id, prevStatus, prevPayment).
			Select("Status", "Payment", "StatusHistory", "UpdatedAt").
			Updates(&order)
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0
		return nil
	})
	return changed, err
}
