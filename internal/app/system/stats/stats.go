// Package stats computes per-organization review statistics.
//
// There are two ways to get the numbers: Direct reduces one organization's
// fetched review list in Go, and Batched asks the database for per-organization
// sums across every organization in one round trip. Both feed the same Totals
// accumulator and Finalize step, so exclusion and rounding are defined once.
package stats

import (
	"math"

	"github.com/dalemusser/clubreviews/internal/domain/models"
)

// Totals is the running sum over the non-flagged reviews of one organization.
// Missing vibe values are counted as models.DefaultVibe.
type Totals struct {
	Count       int
	SumRating   float64
	SumSocial   int
	SumWorkload int
	SumValue    int
}

// Add folds one review into the totals. Flagged reviews are ignored.
func (t *Totals) Add(r models.Review) {
	if r.Flagged {
		return
	}
	v := r.Vibes()
	t.Count++
	t.SumRating += r.Rating
	t.SumSocial += v.Social
	t.SumWorkload += v.Workload
	t.SumValue += v.Value
}

// Finalize converts totals to averages. The second return is false when
// there is nothing to average; callers treat that as "no stats".
func (t Totals) Finalize(orgID string) (models.OrganizationStats, bool) {
	if t.Count <= 0 {
		return models.OrganizationStats{}, false
	}
	n := float64(t.Count)
	return models.OrganizationStats{
		OrganizationID:  orgID,
		AverageRating:   RoundRating(t.SumRating / n),
		AverageSocial:   RoundVibe(float64(t.SumSocial) / n),
		AverageWorkload: RoundVibe(float64(t.SumWorkload) / n),
		AverageValue:    RoundVibe(float64(t.SumValue) / n),
		ReviewCount:     t.Count,
	}, true
}

// RoundRating rounds to one decimal place, halves away from zero.
func RoundRating(x float64) float64 {
	return math.Round(x*10) / 10
}

// RoundVibe rounds to the nearest integer, halves away from zero.
func RoundVibe(x float64) int {
	return int(math.Round(x))
}

// Reduce computes stats for orgID from reviews. Reviews for other
// organizations and flagged reviews are skipped.
func Reduce(orgID string, reviews []models.Review) (models.OrganizationStats, bool) {
	var t Totals
	for _, r := range reviews {
		if r.OrganizationID != orgID {
			continue
		}
		t.Add(r)
	}
	return t.Finalize(orgID)
}
