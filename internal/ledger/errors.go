package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	dErrors "petidentity/pkg/domain-errors"
)

// Kind is the closed set of failure classes a ledger call can produce.
type Kind string

const (
	// KindNotFound means the referenced ledger entity does not exist.
	KindNotFound Kind = "not_found"

	// KindDuplicateFingerprint means the fingerprint already has a record.
	// Expected under concurrent registration.
	KindDuplicateFingerprint Kind = "duplicate_fingerprint"

	// KindAccessDenied means the signing identity lacks the write role.
	KindAccessDenied Kind = "access_denied"

	// KindEventMissing means a receipt lacked the event the call must emit.
	KindEventMissing Kind = "event_missing"

	// KindUnclassified covers network failures, timeouts and unknown reverts.
	// The outcome of a write that failed this way is unknown.
	KindUnclassified Kind = "unclassified"
)

// Error is a classified ledger failure.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ledger %s [%s]: %s: %v", e.Op, e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ledger %s [%s]: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func newError(kind Kind, op, message string, underlying error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Underlying: underlying}
}

// KindOf returns the classification of err, or KindUnclassified when err is
// not a ledger error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnclassified
}

// IsKind reports whether err is a ledger error of the given kind.
func IsKind(err error, kind Kind) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == kind
}

// Known revert phrases, matched case-insensitively. The contract exposes no
// structured error codes, so this table is the whole protocol.
var phrases = []struct {
	substr string
	kind   Kind
}{
	{"pet does not exist", KindNotFound},
	{"pet not found", KindNotFound},
	{"medical record does not exist", KindNotFound},
	{"record not found", KindNotFound},
	{"datahash already used", KindDuplicateFingerprint},
	{"only clinic", KindAccessDenied},
	{"only contract owner", KindAccessDenied},
	{"only owner", KindAccessDenied},
	{"not authorized", KindAccessDenied},
}

// ClassifyMessage maps a remote error message to a Kind.
func ClassifyMessage(message string) Kind {
	lower := strings.ToLower(message)
	for _, p := range phrases {
		if strings.Contains(lower, p.substr) {
			return p.kind
		}
	}
	return KindUnclassified
}

// Classify normalises an error returned by a remote call into *Error.
// Errors that are already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(KindUnclassified, op, "ledger call timed out", err)
	}
	message := Message(err)
	return newError(ClassifyMessage(message), op, message, err)
}

// Message extracts the most specific human-readable reason from a remote
// error: a decoded revert reason when the node returned revert data, else
// the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason := revertReason(dataErr.ErrorData()); reason != "" {
			return reason
		}
	}
	return err.Error()
}

func revertReason(data any) string {
	var raw []byte
	switch v := data.(type) {
	case string:
		raw = common.FromHex(v)
	case []byte:
		raw = v
	default:
		return ""
	}
	if len(raw) == 0 {
		return ""
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return ""
	}
	return reason
}

// ToDomainError maps a ledger failure to the error returned to API callers.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, "ledger record not found")
	case KindDuplicateFingerprint:
		return dErrors.Wrap(err, dErrors.CodeConflict, "ledger record already exists for this data")
	case KindAccessDenied:
		return dErrors.Wrap(err, dErrors.CodeForbidden, "ledger write access denied")
	case KindEventMissing:
		return dErrors.Wrap(err, dErrors.CodeIntegrity, "ledger receipt is missing the expected event")
	default:
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger call failed")
	}
}
