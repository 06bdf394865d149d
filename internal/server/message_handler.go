package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/database"
)

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Body       string `json:"body"`
}

type messageView struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Direction  string    `json:"direction"`
	OtherID    int64     `json:"other_id"`
	OtherName  string    `json:"other_name,omitempty"`
	Body       string    `json:"body"`
	Created    time.Time `json:"created"`
}

type conversationView struct {
	OtherID   int64     `json:"other_id"`
	OtherName string    `json:"other_name,omitempty"`
	LastBody  string    `json:"last_body"`
	LastSent  time.Time `json:"last_sent"`
	Direction string    `json:"direction"`
}

type composeRequest struct {
	ReceiverID int64 `json:"receiver_id"`
}

// Compose records a message target picked while browsing, so the message
// form opens prefilled.
func (s *Server) Compose(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req composeRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.ReceiverID == 0 {
		return NewAppError(fiber.StatusUnprocessableEntity, "Pick a profile to message.", nil, nil)
	}

	sess.ComposeToID = req.ReceiverID
	return Success(c, fiber.StatusOK, MessageOK, fiber.Map{"compose_to": sess.ComposeToID})
}

// ComposeTarget returns the current prefill target, zero when none is set.
func (s *Server) ComposeTarget(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}
	return Success(c, fiber.StatusOK, MessageOK, fiber.Map{"compose_to": sess.ComposeToID})
}

// SendMessage appends one immutable message row. The receiver is not
// required to exist as a profile.
func (s *Server) SendMessage(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	if req.ReceiverID == 0 || strings.TrimSpace(req.Body) == "" {
		return NewAppError(fiber.StatusUnprocessableEntity,
			"Pick a receiver and write a message.", nil, nil)
	}

	msg := &database.Message{
		SenderID:   sess.ProfileID,
		ReceiverID: req.ReceiverID,
		Body:       strings.TrimSpace(req.Body),
	}
	if err := s.store.SaveMessage(c.Context(), msg); err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	sess.ComposeToID = 0

	return Success(c, fiber.StatusCreated, "Sent.", fiber.Map{"id": msg.ID})
}

// InboxView returns every message the viewer sent or received, newest first.
func (s *Server) InboxView(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	messages, err := s.store.Inbox(c.Context(), sess.ProfileID)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	names, err := s.profileNames(c)
	if err != nil {
		return err
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toMessageView(m, sess.ProfileID, names))
	}

	return Success(c, fiber.StatusOK, MessageOK, views)
}

// ConversationsView reduces the inbox to one representative row — the most
// recent — per other party.
func (s *Server) ConversationsView(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	messages, err := s.store.Inbox(c.Context(), sess.ProfileID)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	names, err := s.profileNames(c)
	if err != nil {
		return err
	}

	// Inbox rows are newest first, so the first row seen per other party is
	// that conversation's representative.
	seen := make(map[int64]bool)
	conversations := make([]conversationView, 0)
	for _, m := range messages {
		view := toMessageView(m, sess.ProfileID, names)
		if seen[view.OtherID] {
			continue
		}
		seen[view.OtherID] = true
		conversations = append(conversations, conversationView{
			OtherID:   view.OtherID,
			OtherName: view.OtherName,
			LastBody:  view.Body,
			LastSent:  view.Created,
			Direction: view.Direction,
		})
	}

	return Success(c, fiber.StatusOK, MessageOK, conversations)
}

func toMessageView(m database.Message, viewer int64, names map[int64]string) messageView {
	view := messageView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		Created:    m.Created,
	}
	if m.SenderID == viewer {
		view.Direction = "to"
		view.OtherID = m.ReceiverID
	} else {
		view.Direction = "from"
		view.OtherID = m.SenderID
	}
	view.OtherName = names[view.OtherID]
	return view
}

// profileNames builds the id → "name (role)" labels used by inbox views.
func (s *Server) profileNames(c fiber.Ctx) (map[int64]string, error) {
	profiles, err := s.store.ListProfiles(c.Context())
	if err != nil {
		return nil, NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	names := make(map[int64]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName + " (" + string(p.AccountType) + ")"
	}
	return names, nil
}
