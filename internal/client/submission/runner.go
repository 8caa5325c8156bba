package submission

import (
	"context"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one pass through the protocol so a silent server
// resolves to Failed instead of hanging.
const DefaultTimeout = 30 * time.Second

// Identity yields the device id once it has resolved.
type Identity interface {
	Resolved() (string, bool)
}

// Ledger is the remote rate-limit ledger.
type Ledger interface {
	CheckCanSubmit(ctx context.Context, deviceID, orgID string) (bool, error)
	RecordSubmission(ctx context.Context, deviceID, orgID string) error
}

// Reviews is the remote review store.
type Reviews interface {
	InsertReview(ctx context.Context, draft models.ReviewDraft) (string, error)
	ReviewExists(ctx context.Context, reviewID string) (bool, error)
	MarkReviewFlagged(ctx context.Context, reviewID string) error
}

// Receipts is the local receipt store.
type Receipts interface {
	Get(ctx context.Context, orgID string) (string, bool, error)
	Set(ctx context.Context, orgID, reviewID string) error
	Delete(ctx context.Context, orgID string) error
}

// Runner executes protocol effects. Within one call every effect runs
// strictly after the previous one has completed.
type Runner struct {
	Identity Identity
	Ledger   Ledger
	Reviews  Reviews
	Receipts Receipts

	// Notify, when set, is called after a successful submission.
	Notify  func(orgID, reviewID string)
	Timeout time.Duration
	Log     *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) deviceID() string {
	if r.Identity == nil {
		return ""
	}
	id, ok := r.Identity.Resolved()
	if !ok {
		return ""
	}
	return id
}

// Check runs the eligibility check for orgID and returns the resulting
// machine. The error is the machine's Err, if any.
func (r *Runner) Check(ctx context.Context, orgID string) (Machine, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	m, effs := Transition(New(orgID), Start{DeviceID: r.deviceID()})
	m = r.run(ctx, m, effs)
	return m, errOf(m)
}

// Submit posts draft from m, which must be Eligible or Failed. Once the
// attempt starts it is not tied to ctx's cancellation: an abandoned caller
// must not leave a review inserted without its ledger entry. It is still
// bounded by the runner's timeout.
func (r *Runner) Submit(ctx context.Context, m Machine, draft models.ReviewDraft) (Machine, error) {
	m, effs := Transition(m, Submit{DeviceID: r.deviceID(), Draft: draft})
	if len(effs) == 0 {
		return m, errOf(m)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout())
	defer cancel()
	m = r.run(ctx, m, effs)
	return m, errOf(m)
}

// Flag reports a review for moderation. Flagging is one-way; a failure
// leaves the review unflagged and may be retried.
func (r *Runner) Flag(ctx context.Context, reviewID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	if err := r.Reviews.MarkReviewFlagged(ctx, reviewID); err != nil {
		r.logger().Warn("flag review failed", zap.String("review_id", reviewID), zap.Error(err))
		return fail(KindModerationFailure, "flag", err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, m Machine, effs []Effect) Machine {
	for len(effs) > 0 {
		eff := effs[0]
		effs = effs[1:]
		ev := r.perform(ctx, m, eff)
		if ev == nil {
			continue
		}
		var next []Effect
		m, next = Transition(m, ev)
		effs = append(effs, next...)
	}
	return m
}

func (r *Runner) perform(ctx context.Context, m Machine, eff Effect) Event {
	log := r.logger().With(zap.String("organization_id", m.OrganizationID))
	switch e := eff.(type) {
	case CheckRemote:
		ok, err := r.Ledger.CheckCanSubmit(ctx, m.DeviceID, m.OrganizationID)
		return RemoteChecked{Allowed: ok, Err: err}

	case LoadReceipt:
		id, found, err := r.Receipts.Get(ctx, m.OrganizationID)
		if err != nil {
			log.Warn("read local receipt", zap.Error(err))
		}
		return ReceiptLoaded{ReviewID: id, Found: found, Err: err}

	case VerifyReview:
		ok, err := r.Reviews.ReviewExists(ctx, e.ReviewID)
		return ReviewVerified{Exists: ok, Err: err}

	case DeleteReceipt:
		if err := r.Receipts.Delete(ctx, m.OrganizationID); err != nil {
			log.Warn("clear stale receipt", zap.Error(err))
		} else {
			log.Debug("cleared local receipt", zap.Stringer("kind", KindStaleReceipt))
		}
		return nil

	case RecheckRemote:
		ok, err := r.Ledger.CheckCanSubmit(ctx, m.DeviceID, m.OrganizationID)
		return Rechecked{Allowed: ok, Err: err}

	case InsertReview:
		id, err := r.Reviews.InsertReview(ctx, e.Draft)
		return Inserted{ReviewID: id, Err: err}

	case RecordSubmission:
		err := r.Ledger.RecordSubmission(ctx, m.DeviceID, m.OrganizationID)
		if err != nil {
			log.Warn("record submission", zap.String("review_id", m.ReviewID), zap.Error(err))
		}
		return Recorded{Err: err}

	case WriteReceipt:
		err := r.Receipts.Set(ctx, m.OrganizationID, e.ReviewID)
		if err != nil {
			log.Warn("write local receipt", zap.String("review_id", e.ReviewID), zap.Error(err))
		}
		return ReceiptWritten{Err: err}

	case Notify:
		if r.Notify != nil {
			r.Notify(m.OrganizationID, e.ReviewID)
		}
		return nil
	}
	return nil
}

func errOf(m Machine) error {
	if m.Err == nil {
		return nil
	}
	return m.Err
}

// IsRateLimited reports whether err means the device already reviewed.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }
