/*
status.go - Application status domain and legal transitions

PURPOSE:
  Owns the single source of truth for the sabbatical lifecycle: which
  statuses exist, which transitions are legal, and which transitions the
  calendar (rather than an actor) drives.

LIFECYCLE:

  Applied -> TentativelyApproved -> Approved -> Planning -> PlanSubmitted
                                                   ^              |
                                                   +--------------+
                                                  (changes requested)
  PlanSubmitted -> Confirmed -> OnSabbatical -> Returning -> Completed

  Denied is reachable only from Applied and TentativelyApproved, and is
  terminal. No other jumps are ever accepted.

LAZY TRANSITIONS:
  Confirmed -> OnSabbatical and OnSabbatical -> Returning are driven by date
  comparisons, not approvals. There is no background scheduler: DeriveLazyStatus
  is a pure function evaluated on the read path, and the guarded transition is
  applied there. Returning -> Completed always requires explicit action.

SEE ALSO:
  - engine.go: actor-gated transitions and guards
  - errors.go: InvalidTransitionError
*/
package sabbatical

import "time"

// Status is an application's position in the sabbatical lifecycle.
type Status string

const (
	StatusApplied             Status = "applied"
	StatusTentativelyApproved Status = "tentatively_approved"
	StatusApproved            Status = "approved"
	StatusDenied              Status = "denied"
	StatusPlanning            Status = "planning"
	StatusPlanSubmitted       Status = "plan_submitted"
	StatusConfirmed           Status = "confirmed"
	StatusOnSabbatical        Status = "on_sabbatical"
	StatusReturning           Status = "returning"
	StatusCompleted           Status = "completed"
)

// transitions is the legal edge set of the status graph.
var transitions = map[Status][]Status{
	StatusApplied:             {StatusTentativelyApproved, StatusDenied},
	StatusTentativelyApproved: {StatusApproved, StatusDenied},
	StatusApproved:            {StatusPlanning},
	StatusPlanning:            {StatusPlanSubmitted},
	StatusPlanSubmitted:       {StatusConfirmed, StatusPlanning},
	StatusConfirmed:           {StatusOnSabbatical},
	StatusOnSabbatical:        {StatusReturning},
	StatusReturning:           {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if _, ok := transitions[s]; ok {
		return true
	}
	return s == StatusDenied || s == StatusCompleted
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool { return s == StatusDenied || s == StatusCompleted }

// Active reports whether an application in this status blocks the employee
// from filing another one. Everything but Denied and Completed does.
func (s Status) Active() bool { return s.Valid() && !s.Terminal() }

// CanTransition reports whether from -> to is an edge of the status graph.
// It says nothing about who may drive the edge; see the engine's guards.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// DeriveLazyStatus returns the status an application should hold given the
// calendar, starting from current. Pure; safe to call on every read.
//
//	Confirmed    -> OnSabbatical  once the start date is reached
//	OnSabbatical -> Returning     once the end date has passed
//
// Returning -> Completed is deliberately never derived; closing out a
// sabbatical is an explicit administrative action. The second return value
// reports whether anything changed.
func DeriveLazyStatus(current Status, start, end, now time.Time) (Status, bool) {
	derived := current
	if derived == StatusConfirmed && !start.IsZero() && !now.Before(start) {
		derived = StatusOnSabbatical
	}
	if derived == StatusOnSabbatical && !end.IsZero() && now.After(end) {
		derived = StatusReturning
	}
	return derived, derived != current
}
