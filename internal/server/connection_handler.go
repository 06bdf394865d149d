package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

type connectRequest struct {
	ProfileID int64 `json:"profile_id"`
}

type connectionView struct {
	ID        int64     `json:"id"`
	OtherID   int64     `json:"other_id"`
	OtherName string    `json:"other_name,omitempty"`
	Created   time.Time `json:"created"`
}

// Connect records one-sided interest in another profile. Repeating the same
// pair returns the existing connection.
func (s *Server) Connect(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req connectRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.ProfileID == 0 {
		return NewAppError(fiber.StatusUnprocessableEntity, "Pick a profile to connect with.", nil, nil)
	}
	if req.ProfileID == sess.ProfileID {
		return NewAppError(fiber.StatusUnprocessableEntity, "You cannot connect with yourself.", nil, nil)
	}

	conn, err := s.store.SaveConnection(c.Context(), sess.ProfileID, req.ProfileID)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	return Success(c, fiber.StatusCreated, MessageOK, connectionView{
		ID:      conn.ID,
		OtherID: conn.Other(sess.ProfileID),
		Created: conn.Created,
	})
}

// ListConnections returns every connection involving the viewer, newest first.
func (s *Server) ListConnections(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	conns, err := s.store.ListConnections(c.Context(), sess.ProfileID)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	names, err := s.profileNames(c)
	if err != nil {
		return err
	}

	views := make([]connectionView, 0, len(conns))
	for _, conn := range conns {
		other := conn.Other(sess.ProfileID)
		views = append(views, connectionView{
			ID:        conn.ID,
			OtherID:   other,
			OtherName: names[other],
			Created:   conn.Created,
		})
	}

	return Success(c, fiber.StatusOK, MessageOK, views)
}
