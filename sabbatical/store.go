/*
store.go - Persistence contract for the sabbatical engine

PURPOSE:
  Defines the interface between the engine and durable row storage. The
  engine is stateless between requests; every operation is a read-validate-
  write against this store, guarded by optimistic versioning.

CONCURRENCY CONTRACT:
  UpdateApplication compares the caller's expectedVersion against the stored
  row and fails with ErrConcurrentModification on mismatch. Two simultaneous
  transitions from the same stale read therefore produce exactly one success.

ATOMICITY CONTRACT:
  CreatePlanApprovalBatch is all-or-nothing: a submission never leaves a
  partial approver set observable. ApplyDateChange writes the request
  decision and the parent application's new dates in one unit.

IMPLEMENTATIONS:
  - sabbatical/store (memory): tests and dev
  - store/sqlite: production

SEE ALSO:
  - engine.go: the only consumer
*/
package sabbatical

import "context"

// ApplicationFilter narrows ListApplications.
type ApplicationFilter struct {
	EmployeeEmail string // canonical; empty = all employees
	Location      string // empty = all schools
	Status        Status // empty = all statuses
}

// Store is the durable record store for applications and their children.
type Store interface {
	// ---- Applications -------------------------------------------------------

	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]*Application, error)

	// UpdateApplication persists app if the stored version still equals
	// expectedVersion, then increments the version. Returns
	// ErrConcurrentModification on a stale read.
	UpdateApplication(ctx context.Context, app *Application, expectedVersion int64) error

	// DeleteApplication removes an application and all child records.
	// Administrative override only; the state machine never calls this.
	DeleteApplication(ctx context.Context, id string) error

	// ---- Plan approvals -----------------------------------------------------

	// CreatePlanApprovalBatch persists all records atomically.
	CreatePlanApprovalBatch(ctx context.Context, records []*PlanApprovalRecord) error

	// ListPlanApprovals returns the records for one submission round.
	ListPlanApprovals(ctx context.Context, applicationID string, round int) ([]*PlanApprovalRecord, error)

	UpdatePlanApproval(ctx context.Context, record *PlanApprovalRecord) error

	// ---- Date changes -------------------------------------------------------

	CreateDateChange(ctx context.Context, req *DateChangeRequest) error
	GetDateChange(ctx context.Context, id string) (*DateChangeRequest, error)
	ListDateChanges(ctx context.Context, applicationID string) ([]*DateChangeRequest, error)
	UpdateDateChange(ctx context.Context, req *DateChangeRequest) error

	// ApplyDateChange atomically persists the approved request and overwrites
	// the parent application's dates, guarded by the application version.
	ApplyDateChange(ctx context.Context, req *DateChangeRequest, app *Application, expectedVersion int64) error

	// ---- Child records ------------------------------------------------------

	CreateChecklistItem(ctx context.Context, item *ChecklistItem) error
	ListChecklistItems(ctx context.Context, applicationID string) ([]*ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item *ChecklistItem) error

	CreateCoverageAssignment(ctx context.Context, a *CoverageAssignment) error
	ListCoverageAssignments(ctx context.Context, applicationID string) ([]*CoverageAssignment, error)

	CreatePlanLink(ctx context.Context, link *PlanLink) error
	ListPlanLinks(ctx context.Context, applicationID string) ([]*PlanLink, error)

	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, applicationID string) ([]*Message, error)

	// AppendHistory records one audit line. Append-only.
	AppendHistory(ctx context.Context, entry *ActivityEntry) error
	ListHistory(ctx context.Context, applicationID string) ([]*ActivityEntry, error)
}
