// Package payment creates checkout sessions with an external payment gateway.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"foodorder/internal/model"
)

// Session is a hosted checkout the customer is redirected to.
type Session struct {
	ID  string
	URL string
}

// Gateway is the payment provider seen by the order service.
type Gateway interface {
	CreateSession(ctx context.Context, order *model.Order) (*Session, error)
	// SessionPaid reports whether the customer completed payment for the session.
	SessionPaid(ctx context.Context, sessionID string) (bool, error)
}

// ReturnURLs builds the browser redirect targets for an order.
// The storefront's verify page posts {success, orderId} back to the API.
func ReturnURLs(frontendURL, orderID string) (success, cancel string) {
	base := strings.TrimRight(frontendURL, "/") + "/verify"
	q := func(ok string) string {
		v := url.Values{}
		v.Set("success", ok)
		v.Set("orderId", orderID)
		return fmt.Sprintf("%s?%s", base, v.Encode())
	}
	return q("true"), q("false")
}
