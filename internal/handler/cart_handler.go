package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"foodorder/internal/service"
)

// CartHandler handles cart endpoints.
type CartHandler struct {
	cartService service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// CartItemRequest names the item to add or remove.
type CartItemRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// CartResponse carries the cart after an operation.
type CartResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	CartData map[string]int `json:"cartData"`
}

// Add godoc
// @Summary Add one unit of an item to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body CartItemRequest true "Item"
// @Success 200 {object} CartResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/cart/add [post]
func (h *CartHandler) Add(c echo.Context) error {
	return h.change(c, "Added To Cart", h.cartService.Add)
}

// Remove godoc
// @Summary Remove one unit of an item from the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body CartItemRequest true "Item"
// @Success 200 {object} CartResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/cart/remove [post]
func (h *CartHandler) Remove(c echo.Context) error {
	return h.change(c, "Removed From Cart", h.cartService.Remove)
}

// Get godoc
// @Summary Get the caller's cart
// @Tags cart
// @Produce json
// @Security TokenAuth
// @Success 200 {object} CartResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/cart/get [post]
func (h *CartHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	cart, err := h.cartService.Get(c.Request().Context(), user.ID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, CartResponse{Success: true, CartData: cart})
}

type cartOp func(ctx context.Context, userID, itemID string) (map[string]int, error)

func (h *CartHandler) change(c echo.Context, message string, op cartOp) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cart, err := op(c.Request().Context(), user.ID, req.ItemID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, CartResponse{Success: true, Message: message, CartData: cart})
}
