/*
errors.go - Centralized error taxonomy for the sabbatical engine

PURPOSE:
  All engine errors in one place. Callers match with errors.Is/As and get
  enough structured context to render a precise message: current status,
  requested status, the actor's resolved access level.

RETRY POLICY:
  Only ErrDirectoryUnavailable and ErrConcurrentModification are eligible
  for caller-driven retry. Everything else is terminal for that request.

SEE ALSO:
  - engine.go: where these are raised
  - api/handlers.go: taxonomy -> HTTP status mapping
*/
package sabbatical

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/directory"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIneligible is returned when years of service fall short of the
	// configured threshold.
	ErrIneligible = errors.New("not eligible for sabbatical")

	// ErrDuplicateActive is returned when the employee already has an
	// application in a non-terminal status.
	ErrDuplicateActive = errors.New("an active application already exists")

	// ErrInvalidTransition is returned for any status change that is not an
	// edge of the lifecycle graph, or that the caller may not drive directly.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when the permission resolver denies the
	// actor the capability an operation requires.
	ErrUnauthorized = errors.New("actor not authorized")

	// ErrNotFound is returned for unknown applications, approval records,
	// and date-change requests.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when an optimistic version check
	// fails; the caller read stale state and may retry.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrUnknownOption is returned for an option key absent from the catalog.
	ErrUnknownOption = errors.New("unknown sabbatical option")

	// ErrDirectoryUnavailable aliases the directory sentinel so callers can
	// match either package.
	ErrDirectoryUnavailable = directory.ErrDirectoryUnavailable
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IneligibleError reports how far short of the threshold the employee is.
type IneligibleError struct {
	EmployeeEmail  string
	YearsOfService decimal.Decimal
	YearsRequired  decimal.Decimal
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s has %s years of service, %s required",
		e.EmployeeEmail, e.YearsOfService.Round(1), e.YearsRequired)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// InvalidTransitionError names the current and requested status.
type InvalidTransitionError struct {
	ApplicationID string
	From          Status
	To            Status
	Reason        string // optional, e.g. "use SubmitPlan"
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot transition application %s from %q to %q", e.ApplicationID, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// UnauthorizedError reports the actor's resolved level and what was required.
type UnauthorizedError struct {
	ActorEmail string
	Resolved   access.Level
	Required   access.Level
	Operation  string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s resolved to %s, %s requires %s",
		e.ActorEmail, e.Resolved, e.Operation, e.Required)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// DuplicateActiveError names the blocking application.
type DuplicateActiveError struct {
	EmployeeEmail string
	ExistingID    string
	ExistingState Status
}

func (e *DuplicateActiveError) Error() string {
	return fmt.Sprintf("%s already has application %s in status %q",
		e.EmployeeEmail, e.ExistingID, e.ExistingState)
}

func (e *DuplicateActiveError) Unwrap() error { return ErrDuplicateActive }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the request might succeed if simply retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrDirectoryUnavailable)
}

// IsClientError reports whether the failure is the caller's doing.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIneligible) ||
		errors.Is(err, ErrDuplicateActive) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnknownOption) ||
		errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports a missing application or sub-record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || directory.IsNotFound(err)
}
