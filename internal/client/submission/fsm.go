// Package submission runs the one-review-per-device submission protocol.
//
// The protocol is a finite-state machine. Transition is a pure function from
// (Machine, Event) to (Machine, []Effect); it performs no I/O and can be
// tested without any fakes. Runner is the interpreter that executes effects
// against the device id, the remote ledger and review store, and the local
// receipt store, feeding each result back in as the next event.
//
//	Checking ──► Blocked (terminal)
//	    │
//	    └──────► Eligible ──► Submitting ──► Succeeded (terminal)
//	                ▲              │
//	                └── Failed ◄───┘
//
// The remote ledger is the only authority for "already submitted". The local
// receipt is a cache: when it points at a review the server no longer has,
// it is deleted and the device becomes eligible again.
package submission

import (
	"strings"

	"github.com/dalemusser/clubreviews/internal/app/system/inputval"
	"github.com/dalemusser/clubreviews/internal/domain/models"
)

// State is a protocol state.
type State int

const (
	Checking State = iota
	Blocked
	Eligible
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Blocked:
		return "blocked"
	case Eligible:
		return "eligible"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further submission is possible from s.
func (s State) Terminal() bool { return s == Blocked || s == Succeeded }

// Machine is the protocol state for one organization on one device.
type Machine struct {
	OrganizationID string
	DeviceID       string
	State          State

	// Draft is the review being submitted, set on entry to Submitting.
	Draft models.ReviewDraft
	// ReceiptID is the review id found in the local receipt, if any.
	ReceiptID string
	// ReviewID is the id the server assigned on a successful insert.
	ReviewID string
	// Healed is set when a stale receipt was cleared during the check.
	Healed bool

	// Err is the outcome of the last event that failed, nil otherwise.
	Err *Error
}

// New returns a machine for orgID in the Checking state.
func New(orgID string) Machine {
	return Machine{OrganizationID: orgID, State: Checking}
}

// Event is an input to Transition.
type Event interface{ event() }

// Start begins the eligibility check. DeviceID is empty when the device
// id has not resolved.
type Start struct{ DeviceID string }

// RemoteChecked carries the answer of the initial ledger check.
type RemoteChecked struct {
	Allowed bool
	Err     error
}

// ReceiptLoaded carries the local receipt lookup.
type ReceiptLoaded struct {
	ReviewID string
	Found    bool
	Err      error
}

// ReviewVerified reports whether the receipt's review still exists.
type ReviewVerified struct {
	Exists bool
	Err    error
}

// Submit is the user's request to post Draft.
type Submit struct {
	DeviceID string
	Draft    models.ReviewDraft
}

// Rechecked carries the ledger re-check made inside Submitting.
type Rechecked struct {
	Allowed bool
	Err     error
}

// Inserted carries the result of the review insert.
type Inserted struct {
	ReviewID string
	Err      error
}

// Recorded carries the result of the ledger write.
type Recorded struct{ Err error }

// ReceiptWritten carries the result of the local receipt write.
type ReceiptWritten struct{ Err error }

func (Start) event()          {}
func (RemoteChecked) event()  {}
func (ReceiptLoaded) event()  {}
func (ReviewVerified) event() {}
func (Submit) event()         {}
func (Rechecked) event()      {}
func (Inserted) event()       {}
func (Recorded) event()       {}
func (ReceiptWritten) event() {}

// Effect is work the interpreter must perform.
type Effect interface{ effect() }

type (
	// CheckRemote asks the ledger whether the device may submit.
	CheckRemote struct{}
	// LoadReceipt reads the local receipt for the organization.
	LoadReceipt struct{}
	// VerifyReview asks the server whether ReviewID still exists.
	VerifyReview struct{ ReviewID string }
	// DeleteReceipt removes a stale local receipt. It produces no event.
	DeleteReceipt struct{}
	// RecheckRemote repeats the ledger check right before inserting.
	RecheckRemote struct{}
	// InsertReview posts Draft to the review store.
	InsertReview struct{ Draft models.ReviewDraft }
	// RecordSubmission writes the ledger entry.
	RecordSubmission struct{}
	// WriteReceipt stores ReviewID as the local receipt.
	WriteReceipt struct{ ReviewID string }
	// Notify tells the caller a review was posted. It produces no event.
	Notify struct{ ReviewID string }
)

func (CheckRemote) effect()      {}
func (LoadReceipt) effect()      {}
func (VerifyReview) effect()     {}
func (DeleteReceipt) effect()    {}
func (RecheckRemote) effect()    {}
func (InsertReview) effect()     {}
func (RecordSubmission) effect() {}
func (WriteReceipt) effect()     {}
func (Notify) effect()           {}

// Transition applies ev to m. Events that do not apply to the current
// state leave m unchanged and produce no effects.
func Transition(m Machine, ev Event) (Machine, []Effect) {
	switch e := ev.(type) {
	case Start:
		if m.State != Checking {
			return m, nil
		}
		m.Err = nil
		if e.DeviceID == "" {
			m.Err = fail(KindNotReady, "check", nil)
			return m, nil
		}
		m.DeviceID = e.DeviceID
		return m, []Effect{CheckRemote{}}

	case RemoteChecked:
		if m.State != Checking {
			return m, nil
		}
		if e.Err != nil {
			// Stay in Checking; a later Start retries.
			m.Err = fail(KindRemoteFailure, "check", e.Err)
			return m, nil
		}
		if !e.Allowed {
			m.State = Blocked
			m.Err = fail(KindRateLimited, "check", nil)
			return m, nil
		}
		return m, []Effect{LoadReceipt{}}

	case ReceiptLoaded:
		if m.State != Checking {
			return m, nil
		}
		// The receipt is advisory; an unreadable one is treated as absent.
		if e.Err != nil || !e.Found || e.ReviewID == "" {
			m.State = Eligible
			return m, nil
		}
		m.ReceiptID = e.ReviewID
		return m, []Effect{VerifyReview{ReviewID: e.ReviewID}}

	case ReviewVerified:
		if m.State != Checking {
			return m, nil
		}
		switch {
		case e.Err != nil:
			// Could not tell. The ledger allowed it, so do not block, but
			// keep the receipt until it can be verified.
			m.State = Eligible
			return m, nil
		case e.Exists:
			m.State = Blocked
			m.ReviewID = m.ReceiptID
			m.Err = fail(KindRateLimited, "check", nil)
			return m, nil
		default:
			m.State = Eligible
			m.Healed = true
			m.ReceiptID = ""
			return m, []Effect{DeleteReceipt{}}
		}

	case Submit:
		switch m.State {
		case Eligible, Failed:
		case Blocked, Succeeded:
			m.Err = fail(KindRateLimited, "submit", nil)
			return m, nil
		default:
			return m, nil
		}
		if e.DeviceID == "" {
			m.Err = fail(KindNotReady, "submit", nil)
			return m, nil
		}
		draft := normalize(e.Draft, m.OrganizationID)
		if res := inputval.Validate(draft); res.HasErrors() {
			m.Err = &Error{Kind: KindValidation, Op: "submit", Fields: res.Fields()}
			return m, nil
		}
		m.DeviceID = e.DeviceID
		m.Draft = draft
		m.State = Submitting
		m.Err = nil
		return m, []Effect{RecheckRemote{}}

	case Rechecked:
		if m.State != Submitting || m.ReviewID != "" {
			return m, nil
		}
		if e.Err != nil {
			m.State = Failed
			m.Err = fail(KindRemoteFailure, "recheck", e.Err)
			return m, nil
		}
		if !e.Allowed {
			m.State = Blocked
			m.Err = fail(KindRateLimited, "recheck", nil)
			return m, nil
		}
		return m, []Effect{InsertReview{Draft: m.Draft}}

	case Inserted:
		if m.State != Submitting || m.ReviewID != "" {
			return m, nil
		}
		if e.Err != nil || e.ReviewID == "" {
			m.State = Failed
			m.Err = fail(KindRemoteFailure, "insert", e.Err)
			return m, nil
		}
		m.ReviewID = e.ReviewID
		return m, []Effect{RecordSubmission{}}

	case Recorded:
		if m.State != Submitting || m.ReviewID == "" {
			return m, nil
		}
		// Best effort: the review exists either way, so carry on.
		return m, []Effect{WriteReceipt{ReviewID: m.ReviewID}}

	case ReceiptWritten:
		if m.State != Submitting || m.ReviewID == "" {
			return m, nil
		}
		m.State = Succeeded
		return m, []Effect{Notify{ReviewID: m.ReviewID}}
	}
	return m, nil
}

func normalize(d models.ReviewDraft, orgID string) models.ReviewDraft {
	d.OrganizationID = orgID
	d.TextContent = strings.TrimSpace(d.TextContent)
	d.UserMajor = strings.TrimSpace(d.UserMajor)
	return d
}
