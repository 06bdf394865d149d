package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/session"
)

// Locals keys.
const (
	ctxSessionKey = "cn_session"
)

// Session cookie/header names.
const (
	SessionCookie = "cn_session"
	SessionHeader = "X-Session-Token"
)

// AppError is an HTTP-mapped error carried through handlers to the error
// middleware. Validation failures become 4xx responses with their field
// details; everything else collapses to a generic 500 so storage faults
// never leak internals.
type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewAppError creates an AppError.
func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

// ErrorMiddleware normalizes handler errors into response envelopes and
// recovers panics.
func ErrorMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", "panic", r, "path", c.Path())
				err = Error(c, fiber.StatusInternalServerError, MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= 500 {
			logger.Error("request failed", "path", c.Path(), "error", err)
		}
		return Error(c, status, msg, data)
	}
}

func normalizeError(err error) (int, string, any) {
	var vErr *onboarding.ValidationError
	if errors.As(err, &vErr) {
		return fiber.StatusUnprocessableEntity, vErr.Message, fiber.Map{"field": vErr.Field}
	}

	var stepErr *onboarding.ErrWrongStep
	if errors.As(err, &stepErr) {
		return fiber.StatusConflict, stepErr.Error(), nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, MessageInternalServerError, nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = MessageBadRequest
		}
		return status, msg, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, MessageInternalServerError, nil
		}
		return status, fiberErr.Message, nil
	}

	return fiber.StatusInternalServerError, MessageInternalServerError, nil
}

// AccessLogMiddleware logs one line per request with a request id.
func AccessLogMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
			c.Set("X-Request-ID", rid)
		}

		err := c.Next()

		logger.Info("HTTP access",
			"rid", rid,
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
		)

		return err
	}
}

// SessionMiddleware resolves the session token from the cookie or header and
// attaches the live session, when one exists, to the request.
func SessionMiddleware(sessions *session.Manager) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			token = c.Get(SessionHeader)
		}

		if sess := sessions.Get(token); sess != nil {
			c.Locals(ctxSessionKey, sess)
		}

		return c.Next()
	}
}

// currentSession returns the request's session, or nil when none is active.
func currentSession(c fiber.Ctx) *session.Session {
	sess, _ := c.Locals(ctxSessionKey).(*session.Session)
	return sess
}

// requireSession returns the request's session or an unauthorized AppError.
func requireSession(c fiber.Ctx) (*session.Session, error) {
	sess := currentSession(c)
	if sess == nil {
		return nil, NewAppError(fiber.StatusUnauthorized, MessageUnauthorized, nil, nil)
	}
	return sess, nil
}

// requireProfile returns the session's profile id or an unauthorized error
// when onboarding has not committed yet.
func requireProfile(c fiber.Ctx) (*session.Session, error) {
	sess, err := requireSession(c)
	if err != nil {
		return nil, err
	}
	if sess.ProfileID == 0 {
		return nil, NewAppError(fiber.StatusUnauthorized, "Complete onboarding first", nil, nil)
	}
	return sess, nil
}

func setSessionCookie(c fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
