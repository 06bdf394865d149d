// Package market holds the fixed option catalogs the marketplace offers
// during onboarding and browsing: personality styles, content tags, agency
// services, payment models, and the coarse categorical bands.
package market

// PersonalityTypes are the creator communication styles shown to agencies.
var PersonalityTypes = []string{
	"Direct (short messages, clear asks)",
	"Friendly (warm tone, supportive)",
	"Professional (formal, structured)",
	"Low-contact (minimal check-ins)",
	"High-touch (frequent updates)",
	"Prefer to discuss later",
}

// ContentTypes are the content category tags shared by creators (what they
// produce) and agencies (what they manage best).
var ContentTypes = []string{
	"Lifestyle", "Fitness", "Beauty", "Fashion", "Education", "Cosplay",
	"Gaming", "ASMR", "Couples", "Comedy", "Travel", "Other",
}

// AgencyServices are the services an agency can offer.
var AgencyServices = []string{
	"Account strategy", "Content planning", "Editing/post-production",
	"Chatting/DM management", "Promotion/marketing", "Brand deals",
	"Analytics/reporting", "Photoshoot support", "Operations/admin", "Other",
}

// PaymentModels are the ways an agency charges.
var PaymentModels = []string{
	"Commission-based", "Monthly fee", "Yearly fee", "Hybrid", "Other",
}

// Bands are coarse categorical ranges chosen from a fixed list rather than
// exact values.
var (
	FeeBands        = []string{"Prefer not to say", "$0–$500", "$500–$2k", "$2k–$5k", "$5k+"}
	CommissionBands = []string{"10–15%", "15–20%", "20–25%", "25%+", "Other / depends"}
	EarningsBands   = []string{"Prefer not to say", "$0–$5k", "$5k–$20k", "$20k–$50k", "$50k+"}
)

// Payment models that carry a fee band or a commission band respectively.
var (
	feeModels        = map[string]bool{"Monthly fee": true, "Yearly fee": true, "Hybrid": true}
	commissionModels = map[string]bool{"Commission-based": true, "Hybrid": true}
)

// ModelHasFee reports whether the payment model carries a fee band.
func ModelHasFee(model string) bool {
	return feeModels[model]
}

// ModelHasCommission reports whether the payment model carries a commission band.
func ModelHasCommission(model string) bool {
	return commissionModels[model]
}

// Contains reports whether list holds v.
func Contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
