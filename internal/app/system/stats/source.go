package stats

import (
	"context"

	"github.com/dalemusser/clubreviews/internal/domain/models"
)

// Source produces statistics for a single organization.
// ok is false when the organization has no visible reviews.
type Source interface {
	Stats(ctx context.Context, orgID string) (s models.OrganizationStats, ok bool, err error)
}

// ReviewLister returns the visible reviews of one organization.
type ReviewLister interface {
	ListByOrganization(ctx context.Context, orgID string) ([]models.Review, error)
}

// TotalsAggregator returns per-organization totals over visible reviews.
// With no ids it covers every organization that has at least one review.
type TotalsAggregator interface {
	AggregateTotals(ctx context.Context, orgIDs ...string) (map[string]Totals, error)
}

// Direct reduces the fetched review list of one organization.
type Direct struct {
	Reviews ReviewLister
}

// NewDirect returns a Direct source over l.
func NewDirect(l ReviewLister) *Direct {
	return &Direct{Reviews: l}
}

func (d *Direct) Stats(ctx context.Context, orgID string) (models.OrganizationStats, bool, error) {
	reviews, err := d.Reviews.ListByOrganization(ctx, orgID)
	if err != nil {
		return models.OrganizationStats{}, false, err
	}
	s, ok := Reduce(orgID, reviews)
	return s, ok, nil
}

// Batched computes totals in the database.
type Batched struct {
	Agg TotalsAggregator
}

// NewBatched returns a Batched source over a.
func NewBatched(a TotalsAggregator) *Batched {
	return &Batched{Agg: a}
}

func (b *Batched) Stats(ctx context.Context, orgID string) (models.OrganizationStats, bool, error) {
	totals, err := b.Agg.AggregateTotals(ctx, orgID)
	if err != nil {
		return models.OrganizationStats{}, false, err
	}
	s, ok := totals[orgID].Finalize(orgID)
	return s, ok, nil
}

// All returns stats for every organization with at least one visible review.
func (b *Batched) All(ctx context.Context) (map[string]models.OrganizationStats, error) {
	totals, err := b.Agg.AggregateTotals(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.OrganizationStats, len(totals))
	for id, t := range totals {
		if s, ok := t.Finalize(id); ok {
			out[id] = s
		}
	}
	return out, nil
}
