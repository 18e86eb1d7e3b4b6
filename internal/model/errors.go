package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ripple/internal/draft"
)

// ErrorCode categorizes model errors for CLI and journal output.
type ErrorCode string

const (
	ErrCodeUnknownAction      ErrorCode = "UNKNOWN_ACTION"
	ErrCodeUnknownModel       ErrorCode = "UNKNOWN_MODEL"
	ErrCodeUnknownView        ErrorCode = "UNKNOWN_VIEW"
	ErrCodeDestroyed          ErrorCode = "MANAGER_DESTROYED"
	ErrCodeFlush              ErrorCode = "FLUSH_FAILED"
	ErrCodeDefinitionMismatch ErrorCode = "DEFINITION_MISMATCH"
	ErrCodeInvalidDefinition  ErrorCode = "INVALID_DEFINITION"
	ErrCodeDepthExceeded      ErrorCode = "DEPTH_EXCEEDED"
	ErrCodeViewCycle          ErrorCode = "VIEW_CYCLE"
	ErrCodeStaleDraft         ErrorCode = draft.CodeStaleDraft
	ErrCodeKindMismatch       ErrorCode = draft.CodeKindMismatch
)

// ErrSuspendInReducer is returned when an action dispatched from inside a
// reducer tries to suspend. Reducers are synchronous.
var ErrSuspendInReducer = errors.New("model: cannot suspend while a reducer is running")

// UnknownActionError is returned when Dispatch names neither a reducer nor
// an action of the model.
type UnknownActionError struct {
	Model  string
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("%s: model %q has no reducer or action %q", ErrCodeUnknownAction, e.Model, e.Action)
}

// Code returns the error category.
func (e *UnknownActionError) Code() ErrorCode { return ErrCodeUnknownAction }

// UnknownModelError is returned by GetModel when a name was never
// registered and no definition was given.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("%s: no definition for model %q", ErrCodeUnknownModel, e.Model)
}

func (e *UnknownModelError) Code() ErrorCode { return ErrCodeUnknownModel }

// UnknownViewError is returned when a view name is not defined.
type UnknownViewError struct {
	Model string
	View  string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("%s: model %q has no view %q", ErrCodeUnknownView, e.Model, e.View)
}

func (e *UnknownViewError) Code() ErrorCode { return ErrCodeUnknownView }

// ManagerDestroyedError is returned by every manager method, and by
// Dispatch on handles, after Destroy.
type ManagerDestroyedError struct {
	Op string
}

func (e *ManagerDestroyedError) Error() string {
	return fmt.Sprintf("%s: %s on destroyed manager", ErrCodeDestroyed, e.Op)
}

func (e *ManagerDestroyedError) Code() ErrorCode { return ErrCodeDestroyed }

// SchedulerFlushError wraps a listener panic recovered during a flush.
// Model is empty for manager-level subscribers.
type SchedulerFlushError struct {
	Model string
	Panic any
}

func (e *SchedulerFlushError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: manager listener panicked: %v", ErrCodeFlush, e.Panic)
	}
	return fmt.Sprintf("%s: listener of model %q panicked: %v", ErrCodeFlush, e.Model, e.Panic)
}

func (e *SchedulerFlushError) Code() ErrorCode { return ErrCodeFlush }

// Unwrap exposes a panic value that was itself an error.
func (e *SchedulerFlushError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// DefinitionMismatchError is returned in strict mode when GetModel is given
// a definition whose shape differs from the one the name was built with.
type DefinitionMismatchError struct {
	Model  string
	Cached string // fingerprint of the definition in use
	Given  string // fingerprint of the rejected definition
}

func (e *DefinitionMismatchError) Error() string {
	return fmt.Sprintf("%s: model %q already built from definition %s, got %s",
		ErrCodeDefinitionMismatch, e.Model, short(e.Cached), short(e.Given))
}

func (e *DefinitionMismatchError) Code() ErrorCode { return ErrCodeDefinitionMismatch }

// DefinitionError is returned by DefineModel for an invalid Spec.
type DefinitionError struct {
	Model   string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %s", ErrCodeInvalidDefinition, e.Message)
	}
	return fmt.Sprintf("%s: model %q: %s", ErrCodeInvalidDefinition, e.Model, e.Message)
}

func (e *DefinitionError) Code() ErrorCode { return ErrCodeInvalidDefinition }

// ViewCycleError is returned when a view reaches itself through sibling
// views. Cycle lists the views in evaluation order, ending with the repeat.
type ViewCycleError struct {
	Model string
	Cycle []string
}

func (e *ViewCycleError) Error() string {
	return fmt.Sprintf("%s: model %q: %s", ErrCodeViewCycle, e.Model, strings.Join(e.Cycle, " -> "))
}

func (e *ViewCycleError) Code() ErrorCode { return ErrCodeViewCycle }

// CodeOf returns the category of the first model error in err's chain, or
// "" if there is none. Draft errors are categorized too.
func CodeOf(err error) ErrorCode {
	var c interface{ Code() ErrorCode }
	if errors.As(err, &c) {
		return c.Code()
	}
	var dc interface{ Code() string }
	if errors.As(err, &dc) {
		return ErrorCode(dc.Code())
	}
	return ""
}

// IsUnknownActionError returns true if err wraps an UnknownActionError.
func IsUnknownActionError(err error) bool {
	var e *UnknownActionError
	return errors.As(err, &e)
}

// IsUnknownModelError returns true if err wraps an UnknownModelError.
func IsUnknownModelError(err error) bool {
	var e *UnknownModelError
	return errors.As(err, &e)
}

// IsUnknownViewError returns true if err wraps an UnknownViewError.
func IsUnknownViewError(err error) bool {
	var e *UnknownViewError
	return errors.As(err, &e)
}

// IsManagerDestroyedError returns true if err wraps a ManagerDestroyedError.
func IsManagerDestroyedError(err error) bool {
	var e *ManagerDestroyedError
	return errors.As(err, &e)
}

// IsSchedulerFlushError returns true if err wraps a SchedulerFlushError.
func IsSchedulerFlushError(err error) bool {
	var e *SchedulerFlushError
	return errors.As(err, &e)
}

// IsDefinitionMismatchError returns true if err wraps a
// DefinitionMismatchError.
func IsDefinitionMismatchError(err error) bool {
	var e *DefinitionMismatchError
	return errors.As(err, &e)
}

// IsViewCycleError returns true if err wraps a ViewCycleError.
func IsViewCycleError(err error) bool {
	var e *ViewCycleError
	return errors.As(err, &e)
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
