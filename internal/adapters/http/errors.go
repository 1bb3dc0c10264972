package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, conflict, unprocessable, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errUnprocessable returns a 422 error for well-formed input the
// compositor cannot work with.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

var badRequestErrs = []error{
	domain.ErrInvalidInputKind,
	domain.ErrUnsupportedInputType,
	domain.ErrUnknownBufferMode,
	domain.ErrMissingBufferMode,
	domain.ErrInvalidDistance,
	domain.ErrInvalidLayer,
	domain.ErrInvalidFeature,
}

// respondError maps a service error onto the API error envelope.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrLayerNotFound), errors.Is(err, domain.ErrFeatureNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrLayerExists):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrBoundaryIntersectionMissing), errors.Is(err, domain.ErrBoundaryIndexNotFound):
		return errUnprocessable(c, err.Error())
	}
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return errBadRequest(c, err.Error())
		}
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, "internal error")
}
