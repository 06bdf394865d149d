package server

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/browse"
	"github.com/creatornet/creatornet/internal/database"
)

type profileCard struct {
	ID             int64    `json:"id"`
	AccountType    string   `json:"account_type"`
	Title          string   `json:"title"`
	DisplayName    string   `json:"display_name"`
	Niche          string   `json:"niche,omitempty"`
	Location       string   `json:"location,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Verified       bool     `json:"verified"`
	SelfieUploaded bool     `json:"selfie_uploaded,omitempty"`
	Created        string   `json:"created"`

	Personality  string   `json:"personality,omitempty"`
	EarningsBand string   `json:"earnings_band,omitempty"`
	ContentTypes []string `json:"content_types,omitempty"`
	Photos       []string `json:"photos,omitempty"`

	Website        string   `json:"website,omitempty"`
	Services       []string `json:"services,omitempty"`
	Specialties    []string `json:"specialties,omitempty"`
	PaymentModel   string   `json:"payment_model,omitempty"`
	FeeBand        string   `json:"fee_band,omitempty"`
	CommissionBand string   `json:"commission_band,omitempty"`
}

func cardFromProfile(p *database.Profile) profileCard {
	card := profileCard{
		ID:          p.ID,
		AccountType: string(p.AccountType),
		Title:       p.Title(),
		DisplayName: p.DisplayName,
		Niche:       p.Niche,
		Location:    p.LocationCurrent,
		Bio:         p.Bio,
		Verified:    p.Verified,
		Created:     p.Created.Format("2006-01-02T15:04:05Z07:00"),
	}

	if p.AccountType == database.AccountCreator {
		card.SelfieUploaded = p.SelfieUploaded
		card.Personality = p.CreatorPersonality.String
		card.EarningsBand = p.CreatorEarningsBand.String
		card.ContentTypes = p.CreatorContentTypes
		card.Photos = p.CreatorPhotos
	} else {
		card.Website = p.AgencyWebsite.String
		card.Services = p.AgencyServices
		card.Specialties = p.AgencyContentSpecialties
		card.PaymentModel = p.AgencyPaymentModel.String
		// Bands are only meaningful for the models that carry them.
		if p.AgencyPaymentModel.Valid {
			model := p.AgencyPaymentModel.String
			if model == "Monthly fee" || model == "Yearly fee" || model == "Hybrid" {
				card.FeeBand = p.AgencyFeeBand.String
			}
			if model == "Commission-based" || model == "Hybrid" {
				card.CommissionBand = p.AgencyCommissionBand.String
			}
		}
	}

	return card
}

// Browse returns the opposite role's profiles matching the query-string
// criteria. Zero matches is an empty list, not an error.
func (s *Server) Browse(c fiber.Ctx) error {
	sess, err := requireProfile(c)
	if err != nil {
		return err
	}

	target := sess.Role.Complement()

	candidates, err := s.store.ListProfilesByType(c.Context(), target)
	if err != nil {
		return NewAppError(fiber.StatusInternalServerError, MessageInternalServerError, nil, err)
	}

	criteria := browse.Criteria{
		Query:        c.Query("q"),
		VerifiedOnly: c.Query("verified_only") == "true" || c.Query("verified_only") == "1",
		Sort:         c.Query("sort", s.cfg.DefaultSort),
	}
	if sess.Role == database.AccountCreator {
		criteria.Services = splitMulti(c.Query("services"))
		criteria.PaymentModels = splitMulti(c.Query("payment_models"))
	} else {
		criteria.Personalities = splitMulti(c.Query("personalities"))
		criteria.ContentTypes = splitMulti(c.Query("content_types"))
	}

	matched := browse.Apply(candidates, criteria)

	cards := make([]profileCard, 0, len(matched))
	for i := range matched {
		cards = append(cards, cardFromProfile(&matched[i]))
	}

	return Success(c, fiber.StatusOK, MessageOK, fiber.Map{
		"target_type": string(target),
		"profiles":    cards,
	})
}

// splitMulti parses a comma-separated multi-select query parameter.
func splitMulti(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
