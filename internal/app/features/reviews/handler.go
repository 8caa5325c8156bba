// internal/app/features/reviews/handler.go
package reviews

import (
	"context"

	"github.com/dalemusser/clubreviews/internal/app/catalog"
	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/auditlog"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxBodyBytes bounds a review submission; the largest valid body is well under 4KB.
const maxBodyBytes = 16 << 10

// ReviewWriter is the part of the review store this feature needs.
type ReviewWriter interface {
	Insert(ctx context.Context, r models.Review) (models.Review, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// StatsInvalidator drops cached aggregate stats after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// Handler serves review inserts and existence checks.
type Handler struct {
	Catalog *catalog.Catalog
	Reviews ReviewWriter
	Stats   StatsInvalidator
	Audit   *auditlog.Logger
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs a reviews Handler. stats and audit may be nil.
func NewHandler(cat *catalog.Catalog, reviews ReviewWriter, stats StatsInvalidator, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog: cat,
		Reviews: reviews,
		Stats:   stats,
		Audit:   audit,
		ErrLog:  errLog,
		Log:     logger,
	}
}
