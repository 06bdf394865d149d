// Package onboarding implements the guided signup wizard: role selection,
// a linear sequence of role-specific data-entry steps with per-step
// validation gates, and a single commit of the accumulated draft at the end.
// Nothing is persisted before the terminal step's commit fires.
package onboarding

import (
	"fmt"
	"strings"

	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/market"
	"github.com/creatornet/creatornet/internal/validate"
)

// Step names one state of the onboarding state machine.
type Step string

const (
	StepRole Step = "role_selection"
	StepName Step = "name_entry"

	StepCreatorPhotos       Step = "creator_photos"
	StepCreatorBasics       Step = "creator_basics"
	StepCreatorLocation     Step = "creator_location"
	StepCreatorPlatform     Step = "creator_platform"
	StepCreatorPersonality  Step = "creator_personality"
	StepCreatorVerification Step = "creator_verification"

	StepAgencyIdentity Step = "agency_identity"
	StepAgencyProof    Step = "agency_proof"
	StepAgencyServices Step = "agency_services"
	StepAgencyPayment  Step = "agency_payment"

	StepCommitted Step = "committed"
)

// CreatorSteps and AgencySteps list each role's forward sequence after name
// entry, in order.
var (
	CreatorSteps = []Step{
		StepCreatorPhotos, StepCreatorBasics, StepCreatorLocation,
		StepCreatorPlatform, StepCreatorPersonality, StepCreatorVerification,
	}
	AgencySteps = []Step{
		StepAgencyIdentity, StepAgencyProof, StepAgencyServices, StepAgencyPayment,
	}
)

// previous maps each step to its single back transition.
var previous = map[Step]Step{
	StepName:                StepRole,
	StepCreatorPhotos:       StepName,
	StepCreatorBasics:       StepCreatorPhotos,
	StepCreatorLocation:     StepCreatorBasics,
	StepCreatorPlatform:     StepCreatorLocation,
	StepCreatorPersonality:  StepCreatorPlatform,
	StepCreatorVerification: StepCreatorPersonality,
	StepAgencyIdentity:      StepName,
	StepAgencyProof:         StepAgencyIdentity,
	StepAgencyServices:      StepAgencyProof,
	StepAgencyPayment:       StepAgencyServices,
}

// next maps each role step to its forward transition. Terminal steps have no
// entry; advancing from them is the commit action.
var next = map[Step]Step{
	StepCreatorPhotos:      StepCreatorBasics,
	StepCreatorBasics:      StepCreatorLocation,
	StepCreatorLocation:    StepCreatorPlatform,
	StepCreatorPlatform:    StepCreatorPersonality,
	StepCreatorPersonality: StepCreatorVerification,
	StepAgencyIdentity:     StepAgencyProof,
	StepAgencyProof:        StepAgencyServices,
	StepAgencyServices:     StepAgencyPayment,
}

// ValidationError is a user-input failure local to the current step. It
// re-renders the step and never advances state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrWrongStep is returned when an operation is applied in a state it does
// not belong to.
type ErrWrongStep struct {
	Want Step
	Got  Step
}

func (e *ErrWrongStep) Error() string {
	return fmt.Sprintf("operation belongs to step %s but wizard is at %s", e.Want, e.Got)
}

// Draft accumulates validated step inputs per session. It is additive:
// back-navigation does not discard values entered in other steps.
type Draft struct {
	// Shared
	Niche            string `json:"niche"`
	LocationCurrent  string `json:"location_current"`
	LocationHometown string `json:"location_hometown"`
	Bio              string `json:"bio"`
	Verified         bool   `json:"verified"`

	// Creator
	Photos           []string `json:"photos"`
	ContentTypes     []string `json:"content_types"`
	EarningsBand     string   `json:"earnings_band"`
	PlatformAutofill bool     `json:"platform_autofill"`
	PlatformHandle   string   `json:"platform_handle"`
	PlatformURL      string   `json:"platform_url"`
	Personality      string   `json:"personality"`
	SelfieFile       string   `json:"selfie_file"`
	Consent          bool     `json:"consent"`

	// Agency
	AgencyName     string   `json:"agency_name"`
	Website        string   `json:"website"`
	SuccessStory   string   `json:"success_story"`
	Services       []string `json:"services"`
	Specialties    []string `json:"specialties"`
	PaymentModel   string   `json:"payment_model"`
	FeeBand        string   `json:"fee_band"`
	CommissionBand string   `json:"commission_band"`
	PaymentOther   string   `json:"payment_other"`
}

// Wizard is the per-session onboarding state machine. The zero value is not
// usable; construct with New.
type Wizard struct {
	Step        Step                 `json:"step"`
	Role        database.AccountType `json:"role"`
	DisplayName string               `json:"display_name"`
	Draft       Draft                `json:"draft"`
}

// New returns a wizard in the initial role_selection state with the
// original defaults preloaded into the draft.
func New() *Wizard {
	return &Wizard{
		Step: StepRole,
		Draft: Draft{
			EarningsBand:   "Prefer not to say",
			PaymentModel:   "Commission-based",
			FeeBand:        "Prefer not to say",
			CommissionBand: "15–20%",
		},
	}
}

// ChooseRole fires the role_selection → name_entry transition.
func (w *Wizard) ChooseRole(role database.AccountType) error {
	if w.Step != StepRole {
		return &ErrWrongStep{Want: StepRole, Got: w.Step}
	}
	if !role.Valid() {
		return invalid("role", "role must be Creator or Agency")
	}
	w.Role = role
	w.Step = StepName
	return nil
}

// EnterName validates the display name and enters the role's first step.
func (w *Wizard) EnterName(name string) error {
	if w.Step != StepName {
		return &ErrWrongStep{Want: StepName, Got: w.Step}
	}
	trimmed, ok := validate.DisplayName(name)
	if !ok {
		return invalid("display_name", "display name is required")
	}
	w.DisplayName = trimmed
	if w.Role == database.AccountCreator {
		w.Step = StepCreatorPhotos
	} else {
		w.Step = StepAgencyIdentity
	}
	return nil
}

// Back fires the single backward transition from the current step. The draft
// keeps every already-entered value.
func (w *Wizard) Back() error {
	prev, ok := previous[w.Step]
	if !ok {
		return fmt.Errorf("no back transition from step %s", w.Step)
	}
	w.Step = prev
	return nil
}

// AddPhotos appends saved photo filenames to the draft. Uploads beyond
// maxPhotos are rejected outright rather than truncated.
func (w *Wizard) AddPhotos(names []string, maxPhotos int) error {
	if w.Step != StepCreatorPhotos {
		return &ErrWrongStep{Want: StepCreatorPhotos, Got: w.Step}
	}
	if len(names) == 0 {
		return invalid("photos", "upload at least 1 photo")
	}
	if len(w.Draft.Photos)+len(names) > maxPhotos {
		return invalid("photos", fmt.Sprintf("max %d photos for now", maxPhotos))
	}
	w.Draft.Photos = append(w.Draft.Photos, names...)
	return nil
}

// SubmitCreatorPhotos gates the photos step: at least one photo must have
// been uploaded before advancing.
func (w *Wizard) SubmitCreatorPhotos() error {
	if w.Step != StepCreatorPhotos {
		return &ErrWrongStep{Want: StepCreatorPhotos, Got: w.Step}
	}
	if len(w.Draft.Photos) == 0 {
		return invalid("photos", "please upload at least 1 photo")
	}
	w.Step = next[w.Step]
	return nil
}

// SubmitCreatorBasics records niche, content tags, earnings band, and bio.
func (w *Wizard) SubmitCreatorBasics(niche string, contentTypes []string, earningsBand, bio string) error {
	if w.Step != StepCreatorBasics {
		return &ErrWrongStep{Want: StepCreatorBasics, Got: w.Step}
	}
	for _, ct := range contentTypes {
		if !market.Contains(market.ContentTypes, ct) {
			return invalid("content_types", "unknown content type: "+ct)
		}
	}
	if earningsBand != "" && !market.Contains(market.EarningsBands, earningsBand) {
		return invalid("earnings_band", "unknown earnings band: "+earningsBand)
	}
	w.Draft.Niche = trim(niche)
	w.Draft.ContentTypes = contentTypes
	if earningsBand != "" {
		w.Draft.EarningsBand = earningsBand
	}
	w.Draft.Bio = trim(bio)
	w.Step = next[w.Step]
	return nil
}

// SubmitCreatorLocation records current location and optional hometown.
func (w *Wizard) SubmitCreatorLocation(current, hometown string) error {
	if w.Step != StepCreatorLocation {
		return &ErrWrongStep{Want: StepCreatorLocation, Got: w.Step}
	}
	w.Draft.LocationCurrent = trim(current)
	w.Draft.LocationHometown = trim(hometown)
	w.Step = next[w.Step]
	return nil
}

// SubmitCreatorPlatform records the platform handle/URL and the autofill
// mode flag. A malformed URL produces a non-blocking warning; the step still
// advances. Autofill is stored as a flag only and never triggers any
// integration.
func (w *Wizard) SubmitCreatorPlatform(autofill bool, handle, platformURL string) (warning string, err error) {
	if w.Step != StepCreatorPlatform {
		return "", &ErrWrongStep{Want: StepCreatorPlatform, Got: w.Step}
	}
	w.Draft.PlatformAutofill = autofill
	w.Draft.PlatformHandle = trim(handle)
	w.Draft.PlatformURL = trim(platformURL)
	if w.Draft.PlatformURL != "" && !validate.LooksLikeURL(w.Draft.PlatformURL) {
		warning = "URL should start with http:// or https://"
	}
	w.Step = next[w.Step]
	return warning, nil
}

// SubmitCreatorPersonality records the communication style from the fixed list.
func (w *Wizard) SubmitCreatorPersonality(personality string) error {
	if w.Step != StepCreatorPersonality {
		return &ErrWrongStep{Want: StepCreatorPersonality, Got: w.Step}
	}
	if !market.Contains(market.PersonalityTypes, personality) {
		return invalid("personality", "choose a personality style from the list")
	}
	w.Draft.Personality = personality
	w.Step = next[w.Step]
	return nil
}

// SetSelfie records the saved selfie filename. The selfie itself is optional.
func (w *Wizard) SetSelfie(filename string) error {
	if w.Step != StepCreatorVerification {
		return &ErrWrongStep{Want: StepCreatorVerification, Got: w.Step}
	}
	w.Draft.SelfieFile = filename
	return nil
}

// SubmitCreatorVerification gates the terminal creator step: the consent
// checkbox must be affirmatively checked before the wizard may commit,
// regardless of whether a selfie was uploaded.
func (w *Wizard) SubmitCreatorVerification(consent bool) error {
	if w.Step != StepCreatorVerification {
		return &ErrWrongStep{Want: StepCreatorVerification, Got: w.Step}
	}
	if !consent {
		return invalid("consent", "please confirm consent to continue")
	}
	w.Draft.Consent = true
	return nil
}

// SubmitAgencyIdentity gates the first agency step: the website is required
// and must be an absolute URL; both conditions block advancement. A blank
// agency name falls back to the display name at commit time.
func (w *Wizard) SubmitAgencyIdentity(agencyName, website, location, niche string) error {
	if w.Step != StepAgencyIdentity {
		return &ErrWrongStep{Want: StepAgencyIdentity, Got: w.Step}
	}
	website = trim(website)
	if website == "" {
		return invalid("website", "website is required (no phone numbers)")
	}
	if !validate.LooksLikeURL(website) {
		return invalid("website", "website should start with http:// or https://")
	}
	w.Draft.AgencyName = trim(agencyName)
	w.Draft.Website = website
	w.Draft.LocationCurrent = trim(location)
	w.Draft.Niche = trim(niche)
	w.Step = next[w.Step]
	return nil
}

// SubmitAgencyProof gates the proof step: the success story is required and
// both the success story and the bio are scanned for phone-number-shaped
// substrings. Phone numbers are disallowed anywhere in agency free text.
func (w *Wizard) SubmitAgencyProof(successStory, bio string) error {
	if w.Step != StepAgencyProof {
		return &ErrWrongStep{Want: StepAgencyProof, Got: w.Step}
	}
	successStory = trim(successStory)
	bio = trim(bio)
	if successStory == "" {
		return invalid("success_story", "success story is required")
	}
	if validate.ContainsPhone(successStory) {
		return invalid("success_story", "remove phone number(s); website only")
	}
	if validate.ContainsPhone(bio) {
		return invalid("bio", "remove phone number(s); website only")
	}
	w.Draft.SuccessStory = successStory
	w.Draft.Bio = bio
	w.Step = next[w.Step]
	return nil
}

// SubmitAgencyServices records service and specialty tags.
func (w *Wizard) SubmitAgencyServices(services, specialties []string) error {
	if w.Step != StepAgencyServices {
		return &ErrWrongStep{Want: StepAgencyServices, Got: w.Step}
	}
	for _, svc := range services {
		if !market.Contains(market.AgencyServices, svc) {
			return invalid("services", "unknown service: "+svc)
		}
	}
	for _, sp := range specialties {
		if !market.Contains(market.ContentTypes, sp) {
			return invalid("specialties", "unknown content category: "+sp)
		}
	}
	w.Draft.Services = services
	w.Draft.Specialties = specialties
	w.Step = next[w.Step]
	return nil
}

// SubmitAgencyPayment gates the terminal agency step. Fee and commission
// bands only apply to the payment models that carry them; an "Other" model's
// free-text description is phone-scanned before commit.
func (w *Wizard) SubmitAgencyPayment(model, feeBand, commissionBand, paymentOther string) error {
	if w.Step != StepAgencyPayment {
		return &ErrWrongStep{Want: StepAgencyPayment, Got: w.Step}
	}
	if !market.Contains(market.PaymentModels, model) {
		return invalid("payment_model", "choose a payment model from the list")
	}

	if market.ModelHasFee(model) {
		if feeBand == "" {
			feeBand = "Prefer not to say"
		}
		if !market.Contains(market.FeeBands, feeBand) {
			return invalid("fee_band", "unknown fee band: "+feeBand)
		}
	} else {
		feeBand = "Prefer not to say"
	}

	if market.ModelHasCommission(model) {
		if commissionBand == "" {
			commissionBand = "15–20%"
		}
		if !market.Contains(market.CommissionBands, commissionBand) {
			return invalid("commission_band", "unknown commission band: "+commissionBand)
		}
	} else {
		commissionBand = "Other / depends"
	}

	if model == "Other" {
		paymentOther = trim(paymentOther)
		if validate.ContainsPhone(paymentOther) {
			return invalid("payment_other", "remove phone number(s); website only")
		}
	} else {
		paymentOther = ""
	}

	w.Draft.PaymentModel = model
	w.Draft.FeeBand = feeBand
	w.Draft.CommissionBand = commissionBand
	w.Draft.PaymentOther = paymentOther
	return nil
}

// AtTerminalStep reports whether the wizard sits on its role's final step.
func (w *Wizard) AtTerminalStep() bool {
	return w.Step == StepCreatorVerification || w.Step == StepAgencyPayment
}

// StepIndex returns the zero-based position of the current role step and the
// role's total step count for progress display. Position -1 means the wizard
// is before the role steps.
func (w *Wizard) StepIndex() (int, int) {
	steps := CreatorSteps
	if w.Role == database.AccountAgency {
		steps = AgencySteps
	}
	for i, s := range steps {
		if s == w.Step {
			return i, len(steps)
		}
	}
	return -1, len(steps)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
