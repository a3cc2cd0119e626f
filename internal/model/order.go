package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents a stage of the order lifecycle.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Actors recorded in the status history.
const (
	ActorCustomer = "customer"
	ActorSystem   = "system"
	ActorAdmin    = "admin"
)

// OrderItem is a snapshot of a catalog item taken when the order was placed.
type OrderItem struct {
	FoodID   string          `json:"_id" bson:"food_id"`
	Name     string          `json:"name" bson:"name"`
	Price    decimal.Decimal `json:"price" bson:"price"`
	Quantity int             `json:"quantity" bson:"quantity"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Address is the delivery address captured at checkout.
type Address struct {
	FirstName string `json:"firstName" bson:"firstName" validate:"required"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email" bson:"email" validate:"omitempty,email"`
	Street    string `json:"street" bson:"street" validate:"required"`
	City      string `json:"city" bson:"city" validate:"required"`
	State     string `json:"state" bson:"state"`
	Zipcode   string `json:"zipcode" bson:"zipcode"`
	Country   string `json:"country" bson:"country"`
	Phone     string `json:"phone" bson:"phone" validate:"required"`
}

// StatusChange is one entry of an order's audit trail.
type StatusChange struct {
	From  OrderStatus `json:"from,omitempty" bson:"from,omitempty"`
	To    OrderStatus `json:"to" bson:"to"`
	Actor string      `json:"actor" bson:"actor"`
	Note  string      `json:"note,omitempty" bson:"note,omitempty"`
	At    time.Time   `json:"at" bson:"at"`
}

// Order is a placed order. Items are snapshots; Amount never changes after creation.
type Order struct {
	ID            string          `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	UserID        string          `json:"userId" bson:"userId" gorm:"type:char(36);not null;index"`
	Items         []OrderItem     `json:"items" bson:"items" gorm:"type:text;serializer:json"`
	Amount        decimal.Decimal `json:"amount" bson:"amount" gorm:"type:decimal(20,2);not null"`
	Address       Address         `json:"address" bson:"address" gorm:"type:text;serializer:json"`
	Status        OrderStatus     `json:"status" bson:"status" gorm:"type:varchar(32);not null;default:'PLACED';index"`
	Payment       bool            `json:"payment" bson:"payment" gorm:"not null;default:false"`
	SessionID     string          `json:"-" bson:"session_id,omitempty" gorm:"size:255"`
	StatusHistory []StatusChange  `json:"statusHistory" bson:"status_history" gorm:"type:text;serializer:json"`
	CreatedAt     time.Time       `json:"date" bson:"created_at" gorm:"index"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Settled reports whether payment verification has already concluded.
func (o *Order) Settled() bool {
	return o.Payment || o.Status == OrderStatusCancelled
}

// SumItems returns Σ price × quantity over the given snapshots.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
