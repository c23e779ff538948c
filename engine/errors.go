/*
errors.go - Error types for the report engine

ERROR CATEGORIES:
  1. ErrStoreUnavailable - the event store could not supply events.
     Propagated as-is; no partial report, no retry.
  2. ErrMalformedSession - an anomaly in the event log (orphan out, double
     in, clock skew). Never fails a report: anomalies are collected next to
     it and the offending session is left out of the totals.
  3. ErrConfiguration - invalid overhead, zone, week start or window.
     Checked before any computation.

USAGE:
  if errors.Is(err, engine.ErrStoreUnavailable) { ... }

  var cfgErr *engine.ConfigurationError
  if errors.As(err, &cfgErr) { log.Println(cfgErr.Field) }

SEE ALSO:
  - pairer.go, duration.go: produce Anomaly values
  - config.go: produces ConfigurationError values
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the event store fails to supply
	// events.
	ErrStoreUnavailable = errors.New("event store unavailable")

	// ErrMalformedSession is the class of every Anomaly.
	ErrMalformedSession = errors.New("malformed session")

	// ErrConfiguration is returned for invalid engine options.
	ErrConfiguration = errors.New("invalid configuration")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StoreError wraps a failure of the event store. It matches both
// ErrStoreUnavailable and the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// Unavailable wraps err as a StoreError for op. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// ConfigurationError describes one invalid option.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// AnomalyKind classifies a malformed session.
type AnomalyKind string

const (
	// AnomalyOrphanOut is an Out with no open session before it.
	AnomalyOrphanOut AnomalyKind = "orphan_out"

	// AnomalyDoubleIn is an In that arrived while a session was open. The
	// earlier session is left unterminated.
	AnomalyDoubleIn AnomalyKind = "double_in"

	// AnomalyClockSkew is a session whose end precedes its start.
	AnomalyClockSkew AnomalyKind = "clock_skew"
)

// Anomaly is a MalformedSession record. Event is the punch that exposed the
// problem; Session is set when a session was involved.
type Anomaly struct {
	Kind    AnomalyKind
	Event   PunchEvent
	Session *Session
	Detail  string
}

func (a *Anomaly) Error() string {
	if a.Detail == "" {
		return fmt.Sprintf("%s: %s at %s", ErrMalformedSession, a.Kind, a.Event)
	}
	return fmt.Sprintf("%s: %s at %s: %s", ErrMalformedSession, a.Kind, a.Event, a.Detail)
}

func (a *Anomaly) Unwrap() error {
	return ErrMalformedSession
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError returns true if err is caused by invalid options.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsStoreUnavailable returns true if the event store failed.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
