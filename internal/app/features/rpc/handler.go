// internal/app/features/rpc/handler.go
//
// Package rpc exposes the named remote operations of the review protocol:
// the rate-limit ledger check and record, moderation flagging, and batched
// stats. Every operation is a POST with a JSON body.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/auditlog"
	"github.com/dalemusser/clubreviews/internal/app/system/devicehash"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 10

// Ledger is the rate-limit ledger, keyed by hashed device id.
type Ledger interface {
	CheckCanSubmit(ctx context.Context, deviceHash, orgID string) (bool, error)
	RecordSubmission(ctx context.Context, deviceHash, orgID string) error
}

// Flagger is the moderation side of the review store.
type Flagger interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	MarkFlagged(ctx context.Context, id primitive.ObjectID) error
}

// StatsService serves batched stats and drops them after moderation.
type StatsService interface {
	All(ctx context.Context) (map[string]models.OrganizationStats, error)
	Invalidate(ctx context.Context)
}

// Handler serves /rpc/*.
type Handler struct {
	Hasher  *devicehash.Hasher
	Ledger  Ledger
	Reviews Flagger
	Stats   StatsService
	Audit   *auditlog.Logger
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs an rpc Handler. audit may be nil.
func NewHandler(hasher *devicehash.Hasher, ledger Ledger, reviews Flagger, stats StatsService, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Hasher:  hasher,
		Ledger:  ledger,
		Reviews: reviews,
		Stats:   stats,
		Audit:   audit,
		ErrLog:  errLog,
		Log:     logger,
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "Request body must be JSON.")
		return false
	}
	return true
}
