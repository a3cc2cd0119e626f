package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"foodorder/internal/config"
	"foodorder/internal/errors"
	"foodorder/internal/handler"
	"foodorder/internal/metrics"
	"foodorder/internal/model"
	"foodorder/internal/service"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	User  *handler.UserHandler
	Food  *handler.FoodHandler
	Cart  *handler.CartHandler
	Order *handler.OrderHandler
}

// Register wires routes and middleware. imagesDir is served on /images when non-empty.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authService service.AuthService,
	h Handlers,
	imagesDir string,
) {
	e.HTTPErrorHandler = errorHandler
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: NewOriginPolicy(cfg.CORSOrigins, cfg.CORSSuffixes).Allow,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "token",
		},
		AllowCredentials: true,
	}))

	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
	e.GET("/ping", handler.Ping)
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if imagesDir != "" {
		e.Static("/images", imagesDir)
	}

	api := e.Group("/api")
	auth := authMiddleware(authService)

	user := api.Group("/user")
	user.POST("/register", h.User.Register)
	user.POST("/login", h.User.Login)
	user.POST("/validate", h.User.Validate, auth)
	user.POST("/logout-all", h.User.LogoutAll, auth)

	food := api.Group("/food")
	food.GET("/list", h.Food.List)
	food.POST("/add", h.Food.Add, auth, requireAdmin)
	food.POST("/remove", h.Food.Remove, auth, requireAdmin)

	cart := api.Group("/cart", auth)
	cart.POST("/add", h.Cart.Add)
	cart.POST("/remove", h.Cart.Remove)
	cart.POST("/get", h.Cart.Get)

	order := api.Group("/order")
	order.POST("/place", h.Order.Place, auth)
	order.POST("/verify", h.Order.Verify)
	order.POST("/userorders", h.Order.UserOrders, auth)
	order.GET("/list", h.Order.List, auth, requireAdmin)
	order.POST("/status", h.Order.UpdateStatus, auth, requireAdmin)
}

// authMiddleware resolves the token header to a profile stored under handler.ContextUserKey.
// Store failures surface as upstream errors, not as a bad token.
func authMiddleware(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextUserKey,
		TokenLookup: "header:token,header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			profile, err := authService.ValidateToken(c.Request().Context(), token)
			if err == nil {
				return profile, nil
			}
			var de *errors.DomainError
			if errors.As(err, &de) {
				return nil, de
			}
			slog.ErrorContext(c.Request().Context(), "token validation failed", "error", err)
			return nil, errors.Upstream("Could not validate session, please retry")
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var de *errors.DomainError
			if errors.As(err, &de) {
				return de
			}
			return errors.Auth("Not Authorized Login Again")
		},
	})
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		profile, _ := c.Get(handler.ContextUserKey).(*model.Profile)
		if profile == nil || profile.Role != model.RoleAdmin {
			return errors.Forbidden("Admin access required")
		}
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// errorHandler renders every failure as an ErrorResponse with the mapped status.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := renderError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", "error", err, "path", c.Path())
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}

func renderError(err error) (int, errors.ErrorResponse) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		mapped := errors.MapErrorToHTTP(err)
		return mapped.StatusCode, mapped.ToErrorResponse()
	}

	switch msg := he.Message.(type) {
	case errors.ErrorResponse:
		return he.Code, msg
	case string:
		return he.Code, errors.ErrorResponse{Message: msg, Code: codeFor(he.Code)}
	default:
		return he.Code, errors.ErrorResponse{Message: http.StatusText(he.Code), Code: codeFor(he.Code)}
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "AUTH_ERROR"
	case http.StatusForbidden:
		return "FORBIDDEN"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
