// Package server provides the HTTP delivery layer: route registration,
// middleware, and the request handlers that drive the onboarding wizard,
// browse, messaging, and connections against session and store state.
package server

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/config"
	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/session"
	"github.com/creatornet/creatornet/internal/uploads"
)

// Server wires handlers to their collaborators.
type Server struct {
	cfg      *config.Config
	store    database.Store
	sessions *session.Manager
	onb      *onboarding.Service
	saver    *uploads.Saver
	logger   *slog.Logger
}

// New creates the Fiber application with all routes and middleware
// registered.
func New(cfg *config.Config, store database.Store, sessions *session.Manager,
	onb *onboarding.Service, saver *uploads.Saver, logger *slog.Logger) (*Server, *fiber.App) {

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		onb:      onb,
		saver:    saver,
		logger:   logger.With("component", "server"),
	}

	app := fiber.New(fiber.Config{
		AppName:   "creatornet",
		BodyLimit: int(cfg.MaxUploadBytes) * cfg.MaxPhotos,
	})

	app.Use(ErrorMiddleware(s.logger))
	app.Use(AccessLogMiddleware(s.logger))
	app.Use(SessionMiddleware(sessions))

	app.Get("/health", s.Health)
	app.Get("/uploads/:name", s.ServeUpload)

	v1 := app.Group("/api/v1")

	ob := v1.Group("/onboarding")
	ob.Get("/", s.OnboardingState)
	ob.Post("/role", s.ChooseRole)
	ob.Post("/name", s.EnterName)
	ob.Post("/step", s.SubmitStep)
	ob.Post("/back", s.StepBack)
	ob.Post("/edit", s.EditProfile)
	ob.Post("/photos", s.UploadPhotos)
	ob.Post("/selfie", s.UploadSelfie)

	v1.Get("/browse", s.Browse)

	v1.Get("/profiles/me", s.MyProfile)
	v1.Get("/profiles/:id", s.ProfileByID)

	v1.Post("/messages", s.SendMessage)
	v1.Post("/messages/compose", s.Compose)
	v1.Get("/messages/compose", s.ComposeTarget)
	v1.Get("/messages/inbox", s.InboxView)
	v1.Get("/messages/conversations", s.ConversationsView)

	v1.Post("/connections", s.Connect)
	v1.Get("/connections", s.ListConnections)

	v1.Post("/session/signout", s.SignOut)

	return s, app
}

// Health reports liveness and database reachability.
func (s *Server) Health(c fiber.Ctx) error {
	if err := s.store.Ping(c.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		return Error(c, fiber.StatusServiceUnavailable, "database unreachable", nil)
	}
	return Success(c, fiber.StatusOK, MessageOK, nil)
}

// SignOut ends the current session entirely, drafts included.
func (s *Server) SignOut(c fiber.Ctx) error {
	if sess := currentSession(c); sess != nil {
		s.sessions.End(sess.Token)
	}
	c.ClearCookie(SessionCookie)
	return Success(c, fiber.StatusOK, MessageOK, nil)
}
