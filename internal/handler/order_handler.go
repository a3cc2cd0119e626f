package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"foodorder/internal/model"
	"foodorder/internal/service"
)

// OrderHandler handles checkout and order management endpoints.
type OrderHandler struct {
	orderService service.OrderService
	cartService  service.CartService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService, cartService service.CartService) *OrderHandler {
	return &OrderHandler{orderService: orderService, cartService: cartService}
}

// OrderLine is one requested line. The storefront posts catalog items with "_id".
type OrderLine struct {
	ItemID   string `json:"itemId"`
	ID       string `json:"_id"`
	Quantity int    `json:"quantity"`
}

// PlaceOrderRequest represents a checkout request. Items default to the caller's cart.
type PlaceOrderRequest struct {
	Items   []OrderLine   `json:"items"`
	Address model.Address `json:"address"`
}

// PlaceOrderResponse carries the new order id and the gateway redirect.
type PlaceOrderResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderId"`
	SessionURL string `json:"session_url"`
}

// Flag decodes a JSON bool or the strings "true" and "false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		*f = true
	case "false":
		*f = false
	default:
		return fmt.Errorf("invalid flag %q", s)
	}
	return nil
}

// VerifyRequest is the payment gateway callback relayed by the storefront.
type VerifyRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Success Flag   `json:"success"`
}

// StatusRequest asks for an order status change.
type StatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// OrderResponse carries one order after a change.
type OrderResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

// OrderListResponse wraps a list of orders.
type OrderListResponse struct {
	Success bool          `json:"success"`
	Data    []model.Order `json:"data"`
}

// Place godoc
// @Summary Place an order and open a payment session
// @Tags order
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body PlaceOrderRequest true "Order"
// @Success 201 {object} PlaceOrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/order/place [post]
func (h *OrderHandler) Place(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	ctx := c.Request().Context()
	items := make([]service.ItemRequest, 0, len(req.Items))
	for _, line := range req.Items {
		id := line.ItemID
		if id == "" {
			id = line.ID
		}
		items = append(items, service.ItemRequest{ItemID: id, Quantity: line.Quantity})
	}
	if len(items) == 0 {
		cart, err := h.cartService.Get(ctx, user.ID)
		if err != nil {
			return fail(err)
		}
		items = fromCart(cart)
	}

	order, sessionURL, err := h.orderService.CreateOrder(ctx, user.ID, items, req.Address)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, PlaceOrderResponse{Success: true, OrderID: order.ID, SessionURL: sessionURL})
}

// fromCart turns a cart into order lines in a stable order.
func fromCart(cart map[string]int) []service.ItemRequest {
	ids := make([]string, 0, len(cart))
	for id, qty := range cart {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	items := make([]service.ItemRequest, 0, len(ids))
	for _, id := range ids {
		items = append(items, service.ItemRequest{ItemID: id, Quantity: cart[id]})
	}
	return items
}

// Verify godoc
// @Summary Settle an order from the payment redirect
// @Tags order
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/order/verify [post]
func (h *OrderHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, changed, err := h.orderService.VerifyPayment(c.Request().Context(), req.OrderID, bool(req.Success))
	if err != nil {
		return fail(err)
	}

	message := "Not Paid"
	if order.Payment {
		message = "Paid"
	}
	if !changed {
		message += " (already settled)"
	}
	return c.JSON(http.StatusOK, OrderResponse{Success: true, Message: message, Order: order})
}

// UserOrders godoc
// @Summary List the caller's orders
// @Tags order
// @Produce json
// @Security TokenAuth
// @Success 200 {object} OrderListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/order/userorders [post]
func (h *OrderHandler) UserOrders(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	orders, err := h.orderService.ListOrdersForUser(c.Request().Context(), user.ID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, OrderListResponse{Success: true, Data: orders})
}

// List godoc
// @Summary List every order
// @Tags order
// @Produce json
// @Security TokenAuth
// @Success 200 {object} OrderListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/order/list [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orderService.ListAllOrders(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, OrderListResponse{Success: true, Data: orders})
}

// UpdateStatus godoc
// @Summary Move an order along its lifecycle
// @Tags order
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body StatusRequest true "Status change"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/order/status [post]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.orderService.AdvanceStatus(c.Request().Context(), req.OrderID, req.Status, model.ActorAdmin)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, OrderResponse{Success: true, Message: "Status Updated", Order: order})
}
