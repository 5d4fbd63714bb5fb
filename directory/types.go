/*
Package directory provides read-only access to the organizational directory.

PURPOSE:
  The engine never owns employee data. Names, hire dates, job titles,
  locations, and manager relationships come from an upstream staff system
  and are read per-request through the Directory interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee:  An immutable directory record
  - Directory: The lookup contract (pure read, no caching guarantees)
  - Years of service: derived from hire date, fractional

DESIGN PRINCIPLES:
  1. Fail-closed: an unknown email is ErrEmployeeNotFound, never a zero record
  2. Upstream failures propagate as ErrDirectoryUnavailable, never retried here
  3. decimal.Decimal for years of service, so a 10-year threshold is exact

SEE ALSO:
  - alias.go: Email canonicalization
  - chain.go: Supervisor chain construction
  - static.go: Map-backed implementation for tests and seeding
*/
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE - Immutable directory record
// =============================================================================

type Employee struct {
	Email        string // canonical, lowercase
	Name         string
	HireDate     time.Time
	JobTitle     string
	Location     string
	ManagerEmail string // empty at the top of the org
}

// daysPerYear matches the upstream staff system's service calculation.
var daysPerYear = decimal.NewFromFloat(365.25)

// YearsOfService returns fractional years between hire date and now.
func (e Employee) YearsOfService(now time.Time) decimal.Decimal {
	if e.HireDate.IsZero() || now.Before(e.HireDate) {
		return decimal.Zero
	}
	days := decimal.NewFromFloat(now.Sub(e.HireDate).Hours() / 24)
	return days.Div(daysPerYear)
}

// HasManager reports whether the employee reports to anyone.
func (e Employee) HasManager() bool { return e.ManagerEmail != "" }

// =============================================================================
// DIRECTORY - Lookup contract
// =============================================================================

// Directory is a read-only lookup of employee records. Implementations must
// resolve lookups by canonical email; callers are responsible for alias
// resolution before calling Lookup.
type Directory interface {
	// Lookup returns the employee record for a canonical email.
	// Returns ErrEmployeeNotFound for unknown emails and
	// ErrDirectoryUnavailable when the upstream source cannot be reached.
	Lookup(ctx context.Context, email string) (Employee, error)
}

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrEmployeeNotFound is returned for emails absent from the directory.
	ErrEmployeeNotFound = errors.New("employee not found in directory")

	// ErrDirectoryUnavailable is returned when the upstream directory source
	// fails. Eligible for caller-driven retry.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrAliasCycle indicates a misconfigured alias table (cycle or chain).
	ErrAliasCycle = errors.New("alias table contains a cycle")
)

// IsNotFound reports whether err is an employee lookup miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrEmployeeNotFound) }

// IsUnavailable reports whether err is an upstream directory failure,
// eligible for caller-driven retry.
func IsUnavailable(err error) bool { return errors.Is(err, ErrDirectoryUnavailable) }
