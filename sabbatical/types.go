/*
Package sabbatical is the approval engine for paid sabbatical leave.

PURPOSE:
  Employees with ten or more years of service apply for a sabbatical; a chain
  of human approvers moves the application through its lifecycle; once
  approved, the employee writes a coverage plan that the full supervisor
  chain must unanimously sign off on before the sabbatical is confirmed.
  Date changes after approval run through a separate network-admin-only
  sub-approval.

KEY CONCEPTS IN THIS FILE (types.go):
  - Application:        One employee's sabbatical request and its status
  - PlanApprovalRecord: One approver's decision on a submitted plan round
  - DateChangeRequest:  Post-approval start/end date amendment
  - Child records:      Checklist, coverage, links, messages, history

DESIGN PRINCIPLES:
  1. The engine is stateless; all durable state lives behind the Store
  2. Every mutation is an atomic read-validate-write with a version check
  3. Approval records are append-only per round, never deleted
  4. Notification is downstream of committed state, never a precondition

SEE ALSO:
  - status.go: lifecycle and transitions
  - engine.go: operation surface
  - plan.go:  plan approval aggregation
  - datechange.go: date-change subprocess
*/
package sabbatical

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// APPLICATION
// =============================================================================

type Application struct {
	ID               string
	EmployeeEmail    string // canonical
	EmployeeName     string
	EmployeeLocation string
	JobTitle         string

	Status    Status
	OptionKey string

	StartDate time.Time
	EndDate   time.Time

	// YearsOfService is snapshotted at creation; eligibility was judged
	// against this value, not against a later directory read.
	YearsOfService decimal.Decimal

	// PlanRound is the current plan submission round. Zero until the first
	// submission; each resubmission after a ChangesRequested increments it.
	PlanRound int

	AdminNotes string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version guards optimistic concurrency. Incremented by the store on
	// every successful update.
	Version int64
}

// =============================================================================
// PLAN APPROVAL
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending          ApprovalStatus = "pending"
	ApprovalApproved         ApprovalStatus = "approved"
	ApprovalChangesRequested ApprovalStatus = "changes_requested"
)

// PlanApprovalRecord is one approver's decision on one submission round.
// Records are created as a batch when a plan is submitted, one per
// supervisor-chain member computed at that instant, and are never deleted.
// A closed round stays in place for audit; only the latest round counts.
type PlanApprovalRecord struct {
	ID            string
	ApplicationID string
	Round         int
	ApproverEmail string // canonical
	ApproverName  string
	ApproverRole  string // job title at submission time
	Status        ApprovalStatus
	Notes         string
	ApprovedAt    *time.Time
}

// =============================================================================
// DATE CHANGE REQUEST
// =============================================================================

type DateChangeStatus string

const (
	DateChangePending  DateChangeStatus = "pending"
	DateChangeApproved DateChangeStatus = "approved"
	DateChangeDenied   DateChangeStatus = "denied"
)

// DateChangeRequest amends start/end dates on an approved-or-later
// application. Approval authority is network-admin only, regardless of the
// supervisor chain. Old dates are retained for audit.
type DateChangeRequest struct {
	ID            string
	ApplicationID string
	RequestedBy   string
	RequestedAt   time.Time

	OldStartDate time.Time
	OldEndDate   time.Time
	NewStartDate time.Time
	NewEndDate   time.Time
	Reason       string

	Status           DateChangeStatus
	TalentApproved   bool
	TalentApprovedBy string
	TalentApprovedAt *time.Time
}

// =============================================================================
// CHILD RECORDS - Free-form planning content, no approval semantics
// =============================================================================

// ChecklistItem is advisory planning guidance. Completion is not a gating
// precondition for plan submission.
type ChecklistItem struct {
	ID            string
	ApplicationID string
	Label         string
	Done          bool
	UpdatedAt     time.Time
}

type CoverageAssignment struct {
	ID             string
	ApplicationID  string
	Responsibility string
	CoveredBy      string
	Notes          string
}

type PlanLink struct {
	ID            string
	ApplicationID string
	Title         string
	URL           string
	AddedBy       string
	AddedAt       time.Time
}

type Message struct {
	ID            string
	ApplicationID string
	From          string
	Body          string
	SentAt        time.Time
}

// ActivityEntry is one line of the append-only application history.
type ActivityEntry struct {
	ID            string
	ApplicationID string
	At            time.Time
	ActorEmail    string
	ActorName     string
	Action        string
	Notes         string
}
