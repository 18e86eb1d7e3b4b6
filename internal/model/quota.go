package model

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds how deeply dispatches may nest inside one turn.
const DefaultMaxDepth = 100

// DepthQuota tracks dispatch nesting within a turn and enforces a limit.
//
// A reducer that dispatches itself, or two models that dispatch each other
// from reducers or observers, would otherwise recurse until the stack blows.
// Each turn owns one DepthQuota; Enter is called on every dispatch and Leave
// when it returns.
type DepthQuota struct {
	max     int
	current int
}

// NewDepthQuota creates a quota allowing max nested dispatches.
func NewDepthQuota(max int) *DepthQuota {
	return &DepthQuota{max: max}
}

// Enter records one more level of nesting. It returns DepthExceededError,
// without counting the level, once the limit would be passed.
func (q *DepthQuota) Enter(model, action string) error {
	if q.current >= q.max {
		return &DepthExceededError{
			Model:  model,
			Action: action,
			Depth:  q.current + 1,
			Limit:  q.max,
		}
	}
	q.current++
	return nil
}

// Leave pops one level of nesting.
func (q *DepthQuota) Leave() {
	if q.current > 0 {
		q.current--
	}
}

// Current returns the nesting depth.
func (q *DepthQuota) Current() int {
	return q.current
}

// Max returns the limit.
func (q *DepthQuota) Max() int {
	return q.max
}

// DepthExceededError is returned when a dispatch would nest deeper than
// the manager's limit. Nothing from the refused dispatch is applied.
type DepthExceededError struct {
	Model  string
	Action string
	Depth  int
	Limit  int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%s: dispatch %s/%s nested %d deep (limit %d)",
		ErrCodeDepthExceeded, e.Model, e.Action, e.Depth, e.Limit)
}

func (e *DepthExceededError) Code() ErrorCode { return ErrCodeDepthExceeded }

// IsDepthExceededError returns true if err wraps a DepthExceededError.
func IsDepthExceededError(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}
