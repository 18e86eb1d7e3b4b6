package draft

import (
	"errors"
	"fmt"

	"github.com/roach88/ripple/internal/value"
)

var (
	// ErrNotDraftable is returned when a draft is requested over a scalar.
	ErrNotDraftable = errors.New("draft: value is not a container")

	// ErrNotFound is returned when reading a key, index, or path that does
	// not exist.
	ErrNotFound = errors.New("draft: no value at path")

	// ErrIndexOutOfRange is returned for list writes past the end.
	ErrIndexOutOfRange = errors.New("draft: index out of range")

	// ErrRootPath is returned when SetIn or DeleteIn is given the empty path.
	ErrRootPath = errors.New("draft: cannot replace the root container")
)

// Error categories reported by Code, matching the manager's error codes.
const (
	CodeStaleDraft   = "STALE_DRAFT"
	CodeKindMismatch = "KIND_MISMATCH"
)

// StaleReason says why a draft operation was refused.
type StaleReason string

const (
	// ReasonRevoked means the draft tree was already finalized.
	ReasonRevoked StaleReason = "revoked"
	// ReasonDetached means the draft's slot in its parent was overwritten
	// or deleted.
	ReasonDetached StaleReason = "detached"
	// ReasonMissing means a delete named a key or member that is absent.
	ReasonMissing StaleReason = "missing"
)

// StaleDraftError is returned when a draft is used after its reducer call
// has finished, or when a delete targets something that does not exist.
type StaleDraftError struct {
	Op     string
	Path   value.Path
	Reason StaleReason
}

func (e *StaleDraftError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("stale draft: %s at %q: %s", e.Op, e.Path.String(), e.Reason)
	}
	return fmt.Sprintf("stale draft: %s: %s", e.Op, e.Reason)
}

func (e *StaleDraftError) Code() string { return CodeStaleDraft }

// IsStaleDraftError returns true if err wraps a StaleDraftError.
func IsStaleDraftError(err error) bool {
	var se *StaleDraftError
	return errors.As(err, &se)
}

// KindError is returned when an operation does not apply to the draft's
// container kind (e.g. Push on an object).
type KindError struct {
	Op   string
	Path value.Path
	Kind value.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("draft: %s not supported on %s at %q", e.Op, e.Kind, e.Path.String())
}

func (e *KindError) Code() string { return CodeKindMismatch }

// IsKindError returns true if err wraps a KindError.
func IsKindError(err error) bool {
	var ke *KindError
	return errors.As(err, &ke)
}
