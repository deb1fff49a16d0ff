package serverutils

import "github.com/gofiber/fiber/v2"

// HttpError is the error type services return when they want a specific
// status code. Anything else surfaces as a generic 500.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *HttpError {
	return &HttpError{Code: fiber.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *HttpError {
	return &HttpError{Code: fiber.StatusNotFound, Message: message}
}

func NewInternalError(message string) *HttpError {
	return &HttpError{Code: fiber.StatusInternalServerError, Message: message}
}
