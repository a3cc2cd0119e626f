package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodorder/internal/errors"
	"foodorder/internal/model"
)

// ContextUserKey is where the auth middleware stores the caller's *model.Profile.
const ContextUserKey = "user"

// fail converts a service error into an echo HTTP error carrying an ErrorResponse.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	if httpErr.StatusCode >= http.StatusInternalServerError {
		he.Internal = err
	}
	return he
}

func badRequest(message string) error {
	return fail(errors.Validation(message))
}

// currentUser returns the authenticated caller.
func currentUser(c echo.Context) (*model.Profile, error) {
	profile, ok := c.Get(ContextUserKey).(*model.Profile)
	if !ok || profile == nil {
		return nil, fail(errors.Auth("Not Authorized Login Again"))
	}
	return profile, nil
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
