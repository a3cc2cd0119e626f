package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"foodorder/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    model.OrderStatus
		to      model.OrderStatus
		paid    bool
		wantErr bool
	}{
		{"placed to paid", model.OrderStatusPlaced, model.OrderStatusPaid, true, false},
		{"placed to paid without payment", model.OrderStatusPlaced, model.OrderStatusPaid, false, true},
		{"paid to preparing", model.OrderStatusPaid, model.OrderStatusPreparing, true, false},
		{"forward skip", model.OrderStatusPaid, model.OrderStatusOutForDelivery, true, false},
		{"out for delivery to delivered", model.OrderStatusOutForDelivery, model.OrderStatusDelivered, true, false},
		{"delivered to placed", model.OrderStatusDelivered, model.OrderStatusPlaced, true, true},
		{"preparing to paid", model.OrderStatusPreparing, model.OrderStatusPaid, true, true},
		{"same status", model.OrderStatusPreparing, model.OrderStatusPreparing, true, true},
		{"cancel unpaid placed", model.OrderStatusPlaced, model.OrderStatusCancelled, false, false},
		{"cancel paid placed", model.OrderStatusPlaced, model.OrderStatusCancelled, true, true},
		{"cancel preparing", model.OrderStatusPreparing, model.OrderStatusCancelled, true, true},
		{"leave cancelled", model.OrderStatusCancelled, model.OrderStatusPaid, false, true},
		{"unknown target", model.OrderStatusPlaced, model.OrderStatus("LOST"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.paid)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]model.OrderStatus{model.OrderStatusCancelled},
		ValidTransitionsFrom(model.OrderStatusPlaced, false))
	assert.Equal(t,
		[]model.OrderStatus{model.OrderStatusOutForDelivery, model.OrderStatusDelivered},
		ValidTransitionsFrom(model.OrderStatusPreparing, true))
	assert.Empty(t, ValidTransitionsFrom(model.OrderStatusDelivered, true))
}

func TestDescribeTerminal(t *testing.T) {
	err := CanTransition(model.OrderStatusDelivered, model.OrderStatusPlaced, true)
	assert.Contains(t, err.Error(), "none (terminal state)")
	assert.True(t, IsTerminal(model.OrderStatusCancelled))
	assert.False(t, IsTerminal(model.OrderStatusPaid))
}

func TestParse(t *testing.T) {
	s, ok := Parse(" out_for_delivery ")
	assert.True(t, ok)
	assert.Equal(t, model.OrderStatusOutForDelivery, s)

	_, ok = Parse("Food Processing")
	assert.False(t, ok)
}

func TestCanTransitionMessages(t *testing.T) {
	err := CanTransition(model.OrderStatusPlaced, model.OrderStatusPreparing, false)
	assert.EqualError(t, err, "invalid transition: PLACED → PREPARING requires a paid order")

	err = CanTransition(model.OrderStatusPreparing, model.OrderStatusPlaced, true)
	assert.Contains(t, err.Error(), "Valid transitions from PREPARING are: OUT_FOR_DELIVERY, DELIVERED")

	err = CanTransition(model.OrderStatusPlaced, model.OrderStatusCancelled, true)
	assert.Contains(t, err.Error(), "Valid transitions from PLACED are: PAID, PREPARING, OUT_FOR_DELIVERY, DELIVERED")
}
