// Package statemachine holds the order lifecycle rules.
package statemachine

import (
	"fmt"
	"strings"

	"foodorder/internal/model"
)

// forward is the fulfilment sequence. An order only ever moves right along it.
var forward = []model.OrderStatus{
	model.OrderStatusPlaced,
	model.OrderStatusPaid,
	model.OrderStatusPreparing,
	model.OrderStatusOutForDelivery,
	model.OrderStatusDelivered,
}

// targets lists every state an admin may ask for, in display order.
var targets = []model.OrderStatus{
	model.OrderStatusPaid,
	model.OrderStatusPreparing,
	model.OrderStatusOutForDelivery,
	model.OrderStatusDelivered,
	model.OrderStatusCancelled,
}

var rank = func() map[model.OrderStatus]int {
	m := make(map[model.OrderStatus]int, len(forward))
	for i, s := range forward {
		m[s] = i
	}
	return m
}()

// Parse validates a status string.
func Parse(s string) (model.OrderStatus, bool) {
	status := model.OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if status == model.OrderStatusCancelled {
		return status, true
	}
	_, ok := rank[status]
	return status, ok
}

// CanTransition checks whether an order in state from, with the given payment flag, may move to to.
//
// Forward skips are allowed. Anything past PLACED needs a settled payment.
// CANCELLED is reachable only from PLACED.
func CanTransition(from, to model.OrderStatus, paid bool) error {
	if allowed(from, to, paid) {
		return nil
	}
	if allowed(from, to, true) {
		return fmt.Errorf("invalid transition: %s → %s requires a paid order", from, to)
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed. Valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from, paid))
}

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status model.OrderStatus, paid bool) []model.OrderStatus {
	var nexts []model.OrderStatus
	for _, s := range targets {
		if allowed(status, s, paid) {
			nexts = append(nexts, s)
		}
	}
	return nexts
}

func allowed(from, to model.OrderStatus, paid bool) bool {
	if to == model.OrderStatusCancelled {
		return from == model.OrderStatusPlaced && !paid
	}
	fromRank, okFrom := rank[from]
	toRank, okTo := rank[to]
	return okFrom && okTo && toRank > fromRank && paid
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status model.OrderStatus) bool {
	return status == model.OrderStatusDelivered || status == model.OrderStatusCancelled
}

func describeValidFrom(status model.OrderStatus, paid bool) string {
	nexts := ValidTransitionsFrom(status, paid)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
