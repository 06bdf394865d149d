package onboarding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/creatornet/creatornet/internal/database"
)

// Service owns the commit side of the wizard: assembling the full profile
// record from a finished draft and handing it to the store's upsert, plus
// the edit flow that re-enters the wizard from a persisted row.
type Service struct {
	store            database.Store
	maxPhotos        int
	verifiedEditable bool
	logger           *slog.Logger
}

// NewService creates an onboarding service. verifiedEditable controls
// whether a draft's verified checkbox is honored at commit; when false,
// signup always writes verified as false.
func NewService(store database.Store, maxPhotos int, verifiedEditable bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:            store,
		maxPhotos:        maxPhotos,
		verifiedEditable: verifiedEditable,
		logger:           logger.With("component", "onboarding"),
	}
}

// MaxPhotos returns the configured upload ceiling for the photos step.
func (s *Service) MaxPhotos() int { return s.maxPhotos }

// Commit fires the terminal transition: it re-checks the terminal gate,
// builds the full record with role-appropriate nulls for the other role's
// fields, upserts it, and moves the wizard to committed. Returns the profile
// surrogate id.
func (s *Service) Commit(ctx context.Context, w *Wizard) (int64, error) {
	if !w.AtTerminalStep() {
		return 0, fmt.Errorf("wizard at step %s is not ready to commit", w.Step)
	}

	// The terminal gates must have fired; nothing may be persisted without
	// them even if a caller skips the step submit.
	if w.Role == database.AccountCreator && !w.Draft.Consent {
		return 0, invalid("consent", "please confirm consent to continue")
	}

	profile := s.buildProfile(w)

	id, err := s.store.UpsertProfile(ctx, profile)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit onboarding draft",
			"display_name", w.DisplayName, "role", w.Role, "error", err)
		return 0, fmt.Errorf("failed to commit profile: %w", err)
	}

	w.Step = StepCommitted
	s.logger.InfoContext(ctx, "Onboarding committed",
		"profile_id", id, "display_name", w.DisplayName, "role", w.Role)
	return id, nil
}

// Edit re-enters the wizard for an existing profile: the persisted values
// become the new draft and the wizard starts at the role's first step.
func (s *Service) Edit(ctx context.Context, profileID int64) (*Wizard, error) {
	profile, err := s.store.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for edit: %w", err)
	}

	w := New()
	w.Role = profile.AccountType
	w.DisplayName = profile.DisplayName
	w.Draft = draftFromProfile(profile)

	if profile.AccountType == database.AccountCreator {
		w.Step = StepCreatorPhotos
	} else {
		w.Step = StepAgencyIdentity
	}
	return w, nil
}

// buildProfile assembles the full field set from the draft. Fields belonging
// to the opposite role are left as NULL, never populated.
func (s *Service) buildProfile(w *Wizard) *database.Profile {
	verified := false
	if s.verifiedEditable {
		verified = w.Draft.Verified
	}

	p := &database.Profile{
		AccountType: w.Role,
		DisplayName: w.DisplayName,
		Created:     time.Now().UTC(),

		Niche:           w.Draft.Niche,
		LocationCurrent: w.Draft.LocationCurrent,
		Bio:             w.Draft.Bio,
		Verified:        verified,
	}

	if w.Role == database.AccountCreator {
		p.LocationHometown = w.Draft.LocationHometown
		p.SelfieUploaded = w.Draft.SelfieFile != ""

		p.CreatorPersonality = database.NullStr(w.Draft.Personality)
		p.CreatorPlatformHandle = database.NullStr(w.Draft.PlatformHandle)
		p.CreatorPlatformURL = database.NullStr(w.Draft.PlatformURL)
		p.CreatorAutofill = w.Draft.PlatformAutofill
		p.CreatorEarningsBand = database.NullStr(w.Draft.EarningsBand)
		p.CreatorContentTypes = append(database.StringList{}, w.Draft.ContentTypes...)
		p.CreatorPhotos = append(database.StringList{}, w.Draft.Photos...)
	} else {
		agencyName := w.Draft.AgencyName
		if agencyName == "" {
			agencyName = w.DisplayName
		}

		p.AgencyName = database.NullStr(agencyName)
		p.AgencyWebsite = database.NullStr(w.Draft.Website)
		p.AgencySuccessStory = database.NullStr(w.Draft.SuccessStory)
		p.AgencyServices = append(database.StringList{}, w.Draft.Services...)
		p.AgencyContentSpecialties = append(database.StringList{}, w.Draft.Specialties...)
		p.AgencyPaymentModel = database.NullStr(w.Draft.PaymentModel)
		p.AgencyFeeBand = database.NullStr(w.Draft.FeeBand)
		p.AgencyCommissionBand = database.NullStr(w.Draft.CommissionBand)
		p.AgencyPaymentOther = database.NullStr(w.Draft.PaymentOther)
	}

	return p
}

// draftFromProfile loads persisted values back into a draft for the edit flow.
func draftFromProfile(p *database.Profile) Draft {
	d := Draft{
		Niche:            p.Niche,
		LocationCurrent:  p.LocationCurrent,
		LocationHometown: p.LocationHometown,
		Bio:              p.Bio,
		Verified:         p.Verified,

		EarningsBand:   "Prefer not to say",
		PaymentModel:   "Commission-based",
		FeeBand:        "Prefer not to say",
		CommissionBand: "15–20%",
	}

	if p.AccountType == database.AccountCreator {
		d.Photos = append([]string{}, p.CreatorPhotos...)
		d.ContentTypes = append([]string{}, p.CreatorContentTypes...)
		if p.CreatorEarningsBand.Valid && p.CreatorEarningsBand.String != "" {
			d.EarningsBand = p.CreatorEarningsBand.String
		}
		d.PlatformAutofill = p.CreatorAutofill
		d.PlatformHandle = p.CreatorPlatformHandle.String
		d.PlatformURL = p.CreatorPlatformURL.String
		d.Personality = p.CreatorPersonality.String
	} else {
		d.AgencyName = p.AgencyName.String
		d.Website = p.AgencyWebsite.String
		d.SuccessStory = p.AgencySuccessStory.String
		d.Services = append([]string{}, p.AgencyServices...)
		d.Specialties = append([]string{}, p.AgencyContentSpecialties...)
		if p.AgencyPaymentModel.Valid && p.AgencyPaymentModel.String != "" {
			d.PaymentModel = p.AgencyPaymentModel.String
		}
		if p.AgencyFeeBand.Valid && p.AgencyFeeBand.String != "" {
			d.FeeBand = p.AgencyFeeBand.String
		}
		if p.AgencyCommissionBand.Valid && p.AgencyCommissionBand.String != "" {
			d.CommissionBand = p.AgencyCommissionBand.String
		}
		d.PaymentOther = p.AgencyPaymentOther.String
	}

	return d
}
