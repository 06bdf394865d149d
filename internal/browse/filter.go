// Package browse translates UI-selected filter criteria into predicates over
// stored profiles. Viewers always browse the opposite role: creators see
// agencies and agencies see creators.
package browse

import (
	"sort"
	"strings"

	"github.com/creatornet/creatornet/internal/database"
)

// Sort orders for browse results.
const (
	SortNewest = "newest"
	SortName   = "name"
)

// Criteria is one browse request's filter set. All active filters are
// AND-composed; zero-valued fields are no-op filters.
type Criteria struct {
	// Query is matched case-insensitively as a substring of display name,
	// niche, or current location. Whitespace-only queries are ignored.
	Query string

	// VerifiedOnly restricts results to verified profiles.
	VerifiedOnly bool

	// Creator-viewer filters over candidate agencies.
	Services      []string
	PaymentModels []string

	// Agency-viewer filters over candidate creators.
	Personalities []string
	ContentTypes  []string

	// Sort is SortNewest (default) or SortName.
	Sort string
}

// Apply filters profiles (already restricted to the target role, newest
// first) down to the rows matching every active criterion, then orders them.
// An empty result is a valid outcome, not an error.
func Apply(profiles []database.Profile, c Criteria) []database.Profile {
	out := make([]database.Profile, 0, len(profiles))

	query := strings.ToLower(strings.TrimSpace(c.Query))

	for _, p := range profiles {
		if c.VerifiedOnly && !p.Verified {
			continue
		}
		if query != "" && !matchesQuery(&p, query) {
			continue
		}
		if len(c.Services) > 0 && !p.AgencyServices.Intersects(c.Services) {
			continue
		}
		if len(c.PaymentModels) > 0 && !contains(c.PaymentModels, p.AgencyPaymentModel.String) {
			continue
		}
		if len(c.Personalities) > 0 && !contains(c.Personalities, p.CreatorPersonality.String) {
			continue
		}
		if len(c.ContentTypes) > 0 && !p.CreatorContentTypes.Intersects(c.ContentTypes) {
			continue
		}
		out = append(out, p)
	}

	if c.Sort == SortName {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
		})
	}

	return out
}

// matchesQuery checks the free-text search across the three searchable
// fields with a logical OR.
func matchesQuery(p *database.Profile, lowered string) bool {
	return strings.Contains(strings.ToLower(p.DisplayName), lowered) ||
		strings.Contains(strings.ToLower(p.Niche), lowered) ||
		strings.Contains(strings.ToLower(p.LocationCurrent), lowered)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
