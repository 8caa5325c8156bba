// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubreviews/internal/app/store/audit"
	"github.com/dalemusser/clubreviews/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	SettingAll = "all" // MongoDB and zap
	SettingDB  = "db"  // MongoDB only
	SettingLog = "log" // zap only
	SettingOff = "off"
)

// Config picks a destination per event category.
type Config struct {
	Submission string
	Moderation string
}

// ValidSetting reports whether s is a known destination.
func ValidSetting(s string) bool {
	switch s {
	case SettingAll, SettingDB, SettingLog, SettingOff:
		return true
	}
	return false
}

// Sink persists events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records submission and moderation events.
// A nil *Logger is valid and does nothing.
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.OrganizationID != "" {
		fields = append(fields, zap.String("organization_id", event.OrganizationID))
	}
	if event.ReviewID != "" {
		fields = append(fields, zap.String("review_id", event.ReviewID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log routes event according to its category's setting. Unknown categories
// go everywhere. Store failures are logged and swallowed; auditing never
// fails the request that triggered it.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := SettingAll
	switch event.Category {
	case audit.CategorySubmission:
		setting = l.config.Submission
	case audit.CategoryModeration:
		setting = l.config.Moderation
	}
	if setting == "" {
		setting = SettingAll
	}
	if setting == SettingOff {
		return
	}

	if setting == SettingAll || setting == SettingLog {
		l.logToZap(event)
	}
	if (setting == SettingAll || setting == SettingDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, e audit.Event) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Submission events ---

// ReviewCreated logs a stored review.
func (l *Logger) ReviewCreated(ctx context.Context, r *http.Request, orgID, reviewID string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:       audit.CategorySubmission,
		EventType:      audit.EventReviewCreated,
		OrganizationID: orgID,
		ReviewID:       reviewID,
		Success:        true,
	}))
}

// ReviewRejected logs a review the server refused to store.
func (l *Logger) ReviewRejected(ctx context.Context, r *http.Request, orgID, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:       audit.CategorySubmission,
		EventType:      audit.EventReviewRejected,
		OrganizationID: orgID,
		Success:        false,
		FailureReason:  reason,
	}))
}

// SubmissionRecorded logs a new rate-limit ledger entry. The device hash is
// deliberately not included.
func (l *Logger) SubmissionRecorded(ctx context.Context, r *http.Request, orgID string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:       audit.CategorySubmission,
		EventType:      audit.EventSubmissionRecorded,
		OrganizationID: orgID,
		Success:        true,
	}))
}

// --- Moderation events ---

// ReviewFlagged logs a review hidden by moderation.
func (l *Logger) ReviewFlagged(ctx context.Context, r *http.Request, orgID, reviewID string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:       audit.CategoryModeration,
		EventType:      audit.EventReviewFlagged,
		OrganizationID: orgID,
		ReviewID:       reviewID,
		Success:        true,
	}))
}

// ReviewFlagFailed logs a flag request that did not take effect.
func (l *Logger) ReviewFlagFailed(ctx context.Context, r *http.Request, reviewID, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryModeration,
		EventType:     audit.EventReviewFlagFailed,
		ReviewID:      reviewID,
		Success:       false,
		FailureReason: reason,
	}))
}
