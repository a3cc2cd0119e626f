package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"foodorder/internal/model"
	"foodorder/internal/service"
)

// maxImageSize bounds uploaded food images.
const maxImageSize = 5 << 20

// FoodHandler handles catalog endpoints.
type FoodHandler struct {
	foodService service.FoodService
}

// NewFoodHandler creates a new food handler.
func NewFoodHandler(foodService service.FoodService) *FoodHandler {
	return &FoodHandler{foodService: foodService}
}

// FoodListResponse wraps the catalog.
type FoodListResponse struct {
	Success bool         `json:"success"`
	Data    []model.Food `json:"data"`
}

// FoodResponse wraps one catalog item.
type FoodResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *model.Food `json:"data"`
}

// RemoveFoodRequest identifies the item to delete.
type RemoveFoodRequest struct {
	ID string `json:"id" validate:"required"`
}

// List godoc
// @Summary List the catalog
// @Tags food
// @Produce json
// @Success 200 {object} FoodListResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/food/list [get]
func (h *FoodHandler) List(c echo.Context) error {
	foods, err := h.foodService.List(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, FoodListResponse{Success: true, Data: foods})
}

// Add godoc
// @Summary Add a catalog item
// @Tags food
// @Accept multipart/form-data
// @Produce json
// @Security TokenAuth
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Param price formData string true "Price"
// @Param category formData string false "Category"
// @Param image formData file false "Image"
// @Success 201 {object} FoodResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/food/add [post]
func (h *FoodHandler) Add(c echo.Context) error {
	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price")))
	if err != nil {
		return badRequest("price must be a number")
	}
	in := service.FoodInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Price:       price,
	}

	var upload *service.Upload
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxImageSize {
			return badRequest("image is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest("image could not be read")
		}
		defer f.Close()
		upload = &service.Upload{Filename: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Body: f}
	}

	food, err := h.foodService.Add(c.Request().Context(), in, upload)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, FoodResponse{Success: true, Message: "Food Added", Data: food})
}

// Remove godoc
// @Summary Remove a catalog item
// @Tags food
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body RemoveFoodRequest true "Item id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/food/remove [post]
func (h *FoodHandler) Remove(c echo.Context) error {
	var req RemoveFoodRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.foodService.Remove(c.Request().Context(), req.ID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Food Removed"})
}
