package server

import "github.com/gofiber/fiber/v3"

// Shared response messages.
const (
	MessageOK                  = "OK"
	MessageBadRequest          = "Bad request"
	MessageUnauthorized        = "No active session"
	MessageNotFound            = "Not found"
	MessageInternalServerError = "Something went wrong. Please try again."
)

// SemanticResponse is the uniform JSON envelope for every endpoint.
type SemanticResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success writes a success envelope with the given payload.
func Success(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(SemanticResponse{Status: status, Message: message, Data: data})
}

// Error writes an error envelope.
func Error(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(SemanticResponse{Status: status, Message: message, Data: data})
}
