package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dalemusser/clubreviews/internal/domain/models"
)

// Listed is an organization with its stats, if it has any.
type Listed struct {
	Organization models.Organization       `json:"organization"`
	Stats        *models.OrganizationStats `json:"stats,omitempty"`
}

// ReviewCount is zero for organizations without stats.
func (l Listed) ReviewCount() int {
	if l.Stats == nil {
		return 0
	}
	return l.Stats.ReviewCount
}

// Rank attaches stats and orders by review count descending, then name.
// Name order is case-insensitive with a plain comparison as the final tie-break.
func Rank(orgs []models.Organization, stats map[string]models.OrganizationStats) []Listed {
	out := make([]Listed, len(orgs))
	for i, o := range orgs {
		out[i] = Listed{Organization: o}
		if s, ok := stats[o.ID]; ok {
			out[i].Stats = &s
		}
	}
	slices.SortStableFunc(out, func(a, b Listed) int {
		if d := cmp.Compare(b.ReviewCount(), a.ReviewCount()); d != 0 {
			return d
		}
		if d := strings.Compare(strings.ToLower(a.Organization.Name), strings.ToLower(b.Organization.Name)); d != 0 {
			return d
		}
		return strings.Compare(a.Organization.Name, b.Organization.Name)
	})
	return out
}

// Featured returns the first FeaturedCount entries of a ranked list.
func Featured(ranked []Listed) []Listed {
	return ranked[:min(FeaturedCount, len(ranked))]
}
