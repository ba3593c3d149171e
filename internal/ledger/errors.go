package ledger

import "errors"

// Kind is a stable, machine-readable failure category. Callers and the
// HTTP layer branch on Kind; Message is for humans only.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindDuplicateKey    Kind = "duplicate_key"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindInactiveListing Kind = "inactive_listing"
	KindSelfPurchase    Kind = "self_purchase"
	KindPaymentMismatch Kind = "payment_mismatch"

	// KindTransferFailed is the one post-commit failure: the ledger has
	// already transferred ownership and appended the settlement record,
	// but the downstream value transfer reported an error. The mutation
	// is NOT rolled back; reverting ownership after value may already
	// have moved would risk a double transfer, so this condition is
	// surfaced for manual reconciliation instead.
	KindTransferFailed Kind = "settlement_transfer_failed"
)

// Error is a domain failure with a stable kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the failure kind from an error chain. It returns an
// empty Kind for nil or non-ledger errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
