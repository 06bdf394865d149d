package server

import (
	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/session"
)

type chooseRoleRequest struct {
	Role string `json:"role"`
}

type enterNameRequest struct {
	DisplayName string `json:"display_name"`
}

// stepRequest carries the union of step inputs; the wizard's current step
// decides which fields apply and which validation set fires.
type stepRequest struct {
	// Creator
	Niche            string   `json:"niche"`
	ContentTypes     []string `json:"content_types"`
	EarningsBand     string   `json:"earnings_band"`
	Bio              string   `json:"bio"`
	LocationCurrent  string   `json:"location_current"`
	LocationHometown string   `json:"location_hometown"`
	Autofill         bool     `json:"autofill"`
	PlatformHandle   string   `json:"platform_handle"`
	PlatformURL      string   `json:"platform_url"`
	Personality      string   `json:"personality"`
	Consent          bool     `json:"consent"`

	// Agency
	AgencyName     string   `json:"agency_name"`
	Website        string   `json:"website"`
	Location       string   `json:"location"`
	SuccessStory   string   `json:"success_story"`
	Services       []string `json:"services"`
	Specialties    []string `json:"specialties"`
	PaymentModel   string   `json:"payment_model"`
	FeeBand        string   `json:"fee_band"`
	CommissionBand string   `json:"commission_band"`
	PaymentOther   string   `json:"payment_other"`

	// Honored only when signup_verified_editable is configured.
	Verified bool `json:"verified"`
}

type onboardingStateResponse struct {
	Step        onboarding.Step  `json:"step"`
	Role        string           `json:"role,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	StepIndex   int              `json:"step_index"`
	StepCount   int              `json:"step_count"`
	ProfileID   int64            `json:"profile_id,omitempty"`
	Draft       onboarding.Draft `json:"draft"`
	Warning     string           `json:"warning,omitempty"`
}

func (s *Server) stateResponse(sess sessionView, warning string) onboardingStateResponse {
	idx, count := sess.Wizard.StepIndex()
	return onboardingStateResponse{
		Step:        sess.Wizard.Step,
		Role:        string(sess.Wizard.Role),
		DisplayName: sess.Wizard.DisplayName,
		StepIndex:   idx,
		StepCount:   count,
		ProfileID:   sess.ProfileID,
		Draft:       sess.Wizard.Draft,
		Warning:     warning,
	}
}

// sessionView is the slice of session state the responses need.
type sessionView struct {
	Wizard    *onboarding.Wizard
	ProfileID int64
}

// OnboardingState returns the wizard's current step and draft.
func (s *Server) OnboardingState(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{sess.Wizard, sess.ProfileID}, ""))
}

// ChooseRole starts (or restarts) onboarding. A fresh session is created
// when none is active yet.
func (s *Server) ChooseRole(c fiber.Ctx) error {
	var req chooseRoleRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	sess := currentSession(c)
	if sess == nil {
		sess = s.sessions.Start()
		setSessionCookie(c, sess.Token, s.cfg.SessionTTL)
	}

	if err := sess.Wizard.ChooseRole(database.AccountType(req.Role)); err != nil {
		return err
	}
	sess.Role = sess.Wizard.Role

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{sess.Wizard, sess.ProfileID}, ""))
}

// EnterName records the display name and enters the role's first step.
func (s *Server) EnterName(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req enterNameRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	if err := sess.Wizard.EnterName(req.DisplayName); err != nil {
		return err
	}
	sess.DisplayName = sess.Wizard.DisplayName

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{sess.Wizard, sess.ProfileID}, ""))
}

// SubmitStep fires the current step's next/finish transition. On a terminal
// step a successful gate commits the whole draft and the session gains its
// profile identity.
func (s *Server) SubmitStep(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req stepRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	w := sess.Wizard
	var warning string

	switch w.Step {
	case onboarding.StepCreatorPhotos:
		err = w.SubmitCreatorPhotos()

	case onboarding.StepCreatorBasics:
		err = w.SubmitCreatorBasics(req.Niche, req.ContentTypes, req.EarningsBand, req.Bio)

	case onboarding.StepCreatorLocation:
		err = w.SubmitCreatorLocation(req.LocationCurrent, req.LocationHometown)

	case onboarding.StepCreatorPlatform:
		warning, err = w.SubmitCreatorPlatform(req.Autofill, req.PlatformHandle, req.PlatformURL)

	case onboarding.StepCreatorPersonality:
		err = w.SubmitCreatorPersonality(req.Personality)

	case onboarding.StepCreatorVerification:
		if s.cfg.SignupVerifiedEditable {
			w.Draft.Verified = req.Verified
		}
		if err = w.SubmitCreatorVerification(req.Consent); err == nil {
			return s.commit(c, sess)
		}

	case onboarding.StepAgencyIdentity:
		err = w.SubmitAgencyIdentity(req.AgencyName, req.Website, req.Location, req.Niche)

	case onboarding.StepAgencyProof:
		err = w.SubmitAgencyProof(req.SuccessStory, req.Bio)

	case onboarding.StepAgencyServices:
		err = w.SubmitAgencyServices(req.Services, req.Specialties)

	case onboarding.StepAgencyPayment:
		if s.cfg.SignupVerifiedEditable {
			w.Draft.Verified = req.Verified
		}
		if err = w.SubmitAgencyPayment(req.PaymentModel, req.FeeBand, req.CommissionBand, req.PaymentOther); err == nil {
			return s.commit(c, sess)
		}

	default:
		return NewAppError(fiber.StatusConflict, "No step to submit in state "+string(w.Step), nil, nil)
	}

	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{w, sess.ProfileID}, warning))
}

// StepBack fires the single backward transition; the draft keeps every
// already-entered value.
func (s *Server) StepBack(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	if err := sess.Wizard.Back(); err != nil {
		return NewAppError(fiber.StatusConflict, err.Error(), nil, err)
	}

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{sess.Wizard, sess.ProfileID}, ""))
}

// EditProfile re-enters the wizard with the persisted profile as the draft.
func (s *Server) EditProfile(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	w, err := s.onb.Edit(c.Context(), sess.ProfileID)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}
	sess.Wizard = w

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{w, sess.ProfileID}, ""))
}

// commit hands the finished draft to the onboarding service and stores the
// resulting profile identity on the session.
func (s *Server) commit(c fiber.Ctx, sess *session.Session) error {
	id, err := s.onb.Commit(c.Context(), sess.Wizard)
	if err != nil {
		return err
	}
	sess.ProfileID = id

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{sess.Wizard, sess.ProfileID}, ""))
}
