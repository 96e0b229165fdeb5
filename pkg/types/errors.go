// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind tags a pipeline failure with the stage contract it violated.
// Per prd001-plan-resolution R4, prd002-aggregation R2.5.
type ErrorKind string

const (
	// ErrIntentIncomplete means merging could not resolve a complete plan,
	// e.g. a style-only turn with no previous plan, or compare mode enabled
	// with no compare range available anywhere.
	ErrIntentIncomplete ErrorKind = "intent_incomplete"

	// ErrValidationFailed means a resolved plan violated a range, enum, or
	// cross-field constraint.
	ErrValidationFailed ErrorKind = "validation_failed"

	// ErrAggregationFailed means the dataset layer returned an error or
	// timed out.
	ErrAggregationFailed ErrorKind = "aggregation_failed"

	// ErrRenderFailed means a malformed plan reached the renderer. With the
	// validator in front this is an internal-consistency fault.
	ErrRenderFailed ErrorKind = "render_failed"
)

// PipelineError is a tagged failure from one pipeline stage. Field names the
// offending plan field when one can be singled out; Err carries the
// underlying cause for aggregation failures.
type PipelineError struct {
	Kind  ErrorKind
	Field string
	Msg   string
	Err   error
}

func (e *PipelineError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or "" when err carries no
// PipelineError. Callers use it to map failures to transport status codes.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// FieldOf returns the offending field named by err, or "".
func FieldOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Field
	}
	return ""
}
