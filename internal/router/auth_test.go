package router

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"foodorder/internal/errors"
	"foodorder/internal/model"
	"foodorder/internal/service"
)

type stubAuthService struct {
	service.AuthService
	profile *model.Profile
	err     error
}

func (s stubAuthService) ValidateToken(context.Context, string) (*model.Profile, error) {
	return s.profile, s.err
}

func TestAuthMiddlewareStatus(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		auth   stubAuthService
		status int
		code   string
	}{
		{"valid token", "t", stubAuthService{profile: &model.Profile{ID: "u-1", Role: model.RoleUser}}, http.StatusOK, ""},
		{"missing token", "", stubAuthService{}, http.StatusUnauthorized, "AUTH_ERROR"},
		{"rejected token", "t", stubAuthService{err: errors.Auth("Invalid token")}, http.StatusUnauthorized, "AUTH_ERROR"},
		{"store unavailable", "t", stubAuthService{err: stderrors.New("find user: connection refused")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = errorHandler
			e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, authMiddleware(tt.auth))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.token != "" {
				req.Header.Set("token", tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
		})
	}
}
