// internal/app/features/rpc/ledger.go
package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/devicehash"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type ledgerRequest struct {
	DeviceID       string `json:"device_id"`
	OrganizationID string `json:"organization_id"`
}

type checkResponse struct {
	Allowed bool `json:"allowed"`
}

type recordResponse struct {
	Recorded bool `json:"recorded"`
}

// ledgerKey validates the request and hashes the device id.
func (h *Handler) ledgerKey(w http.ResponseWriter, r *http.Request) (hash, orgID string, ok bool) {
	var req ledgerRequest
	if !decode(w, r, &req) {
		return "", "", false
	}
	orgID = strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "organization_id is required.")
		return "", "", false
	}
	hash, err := h.Hasher.Hash(req.DeviceID)
	switch {
	case errors.Is(err, devicehash.ErrEmptyDeviceID):
		uierrors.WriteError(w, http.StatusBadRequest, "device_id is required.")
		return "", "", false
	case errors.Is(err, devicehash.ErrDeviceIDTooLong):
		uierrors.WriteError(w, http.StatusBadRequest, "device_id is too long.")
		return "", "", false
	case err != nil:
		h.ErrLog.LogServerError(w, r, "hash device id failed", err, "Unable to check submission status.")
		return "", "", false
	}
	return hash, orgID, true
}

// HandleCheckCanSubmit handles POST /rpc/check_can_submit.
func (h *Handler) HandleCheckCanSubmit(w http.ResponseWriter, r *http.Request) {
	hash, orgID, ok := h.ledgerKey(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := h.Ledger.CheckCanSubmit(ctx, hash, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check_can_submit failed", err, "Unable to check submission status.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, checkResponse{Allowed: allowed})
}

// HandleRecordSubmission handles POST /rpc/record_submission. Recording
// the same pair twice succeeds both times.
func (h *Handler) HandleRecordSubmission(w http.ResponseWriter, r *http.Request) {
	hash, orgID, ok := h.ledgerKey(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Ledger.RecordSubmission(ctx, hash, orgID); err != nil {
		h.ErrLog.LogServerError(w, r, "record_submission failed", err, "Unable to record submission.")
		return
	}
	h.Log.Debug("submission recorded", zap.String("organization_id", orgID))
	h.Audit.SubmissionRecorded(ctx, r, orgID)
	uierrors.WriteJSON(w, http.StatusOK, recordResponse{Recorded: true})
}
