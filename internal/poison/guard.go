// Package poison implements fail-fast containment for readers.
//
// A Guard starts out healthy. The first failure that escapes a guarded call
// poisons it for good; from then on every guarded call fails immediately with
// an *UnusableError that refers to the original cause. Cooperative
// cancellation is the one exception: a canceled call leaves the guard healthy
// so the caller can retry.
package poison

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'csvkit.poison'
func tracer() tracing.Trace {
	return tracing.Select("csvkit.poison")
}

// ErrUnusable is matched by every error reported for a poisoned guard.
var ErrUnusable = errors.New("instance is in an unusable state")

// UnusableError reports a call on a poisoned instance, or a failure that
// could not be attributed to a single cause.
type UnusableError struct {
	// Cause is the failure that poisoned the instance.
	Cause error
}

func (e *UnusableError) Error() string {
	if e.Cause == nil {
		return ErrUnusable.Error()
	}
	return fmt.Sprintf("%v: poisoned by: %v", ErrUnusable, e.Cause)
}

// Unwrap exposes both ErrUnusable and the original cause to errors.Is/As.
func (e *UnusableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnusable}
	}
	return []error{ErrUnusable, e.Cause}
}

// PanicError wraps a value recovered from a panic inside a guarded call.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Guard tracks the poison state of one instance. It is not safe for
// concurrent use, matching the instances it protects.
type Guard struct {
	cause error
}

// Poisoned reports whether the guard has been poisoned.
func (g *Guard) Poisoned() bool {
	return g.cause != nil
}

// Cause returns the error that poisoned the guard, or nil.
func (g *Guard) Cause() error {
	return g.cause
}

// Check fails with an *UnusableError if the guard is poisoned.
func (g *Guard) Check() error {
	if g.cause != nil {
		return &UnusableError{Cause: g.cause}
	}
	return nil
}

// Do runs fn unless the guard is poisoned. A failure from fn, including a
// panic, poisons the guard; see Fail for how the returned error is shaped.
func (g *Guard) Do(fn func() error) (err error) {
	if err := g.Check(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = g.Fail(&PanicError{Value: r})
		}
	}()
	if err := fn(); err != nil {
		return g.Fail(err)
	}
	return nil
}

// Poison poisons the guard with err whatever its kind, so a failure that
// merely wraps a cancellation still counts, and returns err.
func (g *Guard) Poison(err error) error {
	if err != nil && g.cause == nil {
		g.cause = err
		tracer().Infof("instance poisoned: %v", err)
	}
	return err
}

// Fail records err as the outcome of a guarded call and returns the error
// the caller should see:
//
//   - cancellation propagates unchanged and does not poison
//   - an aggregate of exactly one cause is unwrapped to that cause
//   - an aggregate mixing cancellation with other causes poisons and is
//     reported as an *UnusableError
//   - anything else poisons and is returned as is
func (g *Guard) Fail(err error) error {
	if err == nil {
		return nil
	}
	err = unwrapSingle(err)
	if isCancellation(err) {
		return err
	}
	if g.cause == nil {
		g.cause = err
		tracer().Infof("instance poisoned: %v", err)
	}
	if causes, ok := aggregate(err); ok && containsCancellation(causes) {
		return &UnusableError{Cause: err}
	}
	return err
}

func aggregate(err error) ([]error, bool) {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		return u.Unwrap(), true
	}
	return nil, false
}

// unwrapSingle strips aggregates that hold exactly one cause.
func unwrapSingle(err error) error {
	for {
		causes, ok := aggregate(err)
		if !ok || len(causes) != 1 {
			return err
		}
		err = causes[0]
	}
}

// isCancellation reports whether err is a plain cancellation signal. An
// aggregate never counts, even if one of its causes is a cancellation.
func isCancellation(err error) bool {
	if _, ok := aggregate(err); ok {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func containsCancellation(causes []error) bool {
	for _, c := range causes {
		if errors.Is(c, context.Canceled) || errors.Is(c, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}
