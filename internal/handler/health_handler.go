package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running"})
}

// Ping godoc
// @Summary Ping
// @Tags health
// @Produce plain
// @Success 200 {string} string "pong"
// @Router /ping [get]
func Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

// Root answers the bare root path.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "API Working")
}
