package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/database"
)

// MyProfile returns the signed-in profile. If session state was lost but the
// identity pair is known, the profile id is recovered from the store.
func (s *Server) MyProfile(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	if sess.ProfileID == 0 && sess.DisplayName != "" && sess.Role.Valid() {
		id, resolveErr := s.store.ResolveProfile(c.Context(), sess.DisplayName, sess.Role)
		if resolveErr != nil {
			return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, resolveErr)
		}
		sess.ProfileID = id
	}
	if sess.ProfileID == 0 {
		return NewAppError(fiber.StatusNotFound, "Profile not found. Please sign out and sign in again.", nil, nil)
	}

	profile, err := s.store.GetProfileByID(c.Context(), sess.ProfileID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NewAppError(fiber.StatusNotFound, "Profile missing. Please sign out and re-create.", nil, err)
		}
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	return Success(c, fiber.StatusOK, MessageOK, cardFromProfile(profile))
}

// ProfileByID returns any profile by surrogate id.
func (s *Server) ProfileByID(c fiber.Ctx) error {
	if _, err := requireProfile(c); err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return NewAppError(fiber.StatusBadRequest, "Invalid profile id", nil, err)
	}

	profile, err := s.store.GetProfileByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NewAppError(fiber.StatusNotFound, MessageNotFound, nil, err)
		}
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	return Success(c, fiber.StatusOK, MessageOK, cardFromProfile(profile))
}
