// internal/app/features/organizations/handler.go
package organizations

import (
	"context"

	"github.com/dalemusser/clubreviews/internal/app/catalog"
	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.uber.org/zap"
)

// ReviewReader is the read side of the review store.
type ReviewReader interface {
	ListByOrganization(ctx context.Context, orgID string) ([]models.Review, error)
	Count(ctx context.Context, orgID string) (int64, error)
}

// StatsLister returns batched stats for every organization with reviews.
type StatsLister interface {
	All(ctx context.Context) (map[string]models.OrganizationStats, error)
}

// Handler serves the read-only organization API.
type Handler struct {
	Catalog *catalog.Catalog
	Reviews ReviewReader
	Stats   StatsLister
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs an organizations Handler.
func NewHandler(cat *catalog.Catalog, reviews ReviewReader, all StatsLister, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog: cat,
		Reviews: reviews,
		Stats:   all,
		ErrLog:  errLog,
		Log:     logger,
	}
}
