/*
plan.go - Plan submission and multi-approver sign-off aggregation

PURPOSE:
  When the employee submits their sabbatical plan, the supervisor chain is
  computed AT THAT INSTANT and one Pending approval record is created per
  chain member, atomically. Approvers then act independently and in any
  order. The aggregate rule:

    any ChangesRequested  ->  application reverts to Planning
    all Approved          ->  application advances to Confirmed

  The last approval to complete the unanimous set triggers the transition
  (last-writer-triggers). After every individual write the full record set
  is re-read before deciding, so two concurrent approvals cannot race-drop
  either record.

ROUNDS:
  Records are never deleted. Each submission opens a new round; a round
  closed by a ChangesRequested stays in place for audit, and only the
  latest round is ever evaluated.

SEE ALSO:
  - directory/chain.go: who the approvers are
  - status.go: the PlanSubmitted edges
*/
package sabbatical

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/notify"
)

// SubmitPlan moves a Planning application to PlanSubmitted and creates the
// round's approval records. Owner only. The approver set is the supervisor
// chain computed now; later chain changes do not touch this round.
func (e *Engine) SubmitPlan(ctx context.Context, applicationID, actorEmail string) (*Application, []*PlanApprovalRecord, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != StatusPlanning {
		return nil, nil, &InvalidTransitionError{
			ApplicationID: app.ID, From: app.Status, To: StatusPlanSubmitted,
		}
	}
	if !e.isOwner(actorEmail, app) {
		return nil, nil, &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   access.LevelNone,
			Required:   access.LevelNone,
			Operation:  "submit plan (owner only)",
		}
	}

	emp, err := e.Directory.Lookup(ctx, app.EmployeeEmail)
	if err != nil {
		return nil, nil, fmt.Errorf("submit plan: %w", err)
	}
	chain, err := e.Chains.Build(ctx, emp)
	if err != nil {
		return nil, nil, fmt.Errorf("submit plan: %w", err)
	}
	if len(chain.Links) == 0 {
		return nil, nil, fmt.Errorf("%w: no approvers found for %s", ErrNotFound, app.EmployeeEmail)
	}

	round := app.PlanRound + 1
	records := make([]*PlanApprovalRecord, 0, len(chain.Links))
	for _, link := range chain.Links {
		records = append(records, &PlanApprovalRecord{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Round:         round,
			ApproverEmail: link.Email,
			ApproverName:  link.Name,
			ApproverRole:  link.JobTitle,
			Status:        ApprovalPending,
		})
	}

	// Batch first, then the status flip. If the flip loses a version race
	// the orphaned round is unreachable (PlanRound still points at the old
	// round) and the submission can be retried cleanly.
	if err := e.Store.CreatePlanApprovalBatch(ctx, records); err != nil {
		return nil, nil, err
	}

	expected := app.Version
	app.Status = StatusPlanSubmitted
	app.PlanRound = round
	app.UpdatedAt = e.now()
	if err := e.Store.UpdateApplication(ctx, app, expected); err != nil {
		return nil, nil, err
	}

	e.appendHistory(ctx, app, app.EmployeeEmail, app.EmployeeName, "plan_submitted",
		fmt.Sprintf("round %d, %d approvers", round, len(records)))
	e.notify(ctx, notify.Event{
		Type:          notify.EventPlanSubmitted,
		Recipients:    chain.Emails(),
		ApplicationID: app.ID,
		Context: map[string]string{
			"employee_name": app.EmployeeName,
			"start_date":    app.StartDate.Format("2006-01-02"),
			"end_date":      app.EndDate.Format("2006-01-02"),
		},
	})
	return app, records, nil
}

// Decision is an approver's verdict on a submitted plan.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionRequestChanges Decision = "request_changes"
)

// RecordPlanApproval records one approver's decision on the current round
// and re-evaluates the aggregate. Idempotent per approver: deciding again
// overwrites notes and the approval timestamp, never duplicates records.
func (e *Engine) RecordPlanApproval(ctx context.Context, applicationID, approverEmail string, decision Decision, notes string) (*Application, error) {
	if decision != DecisionApprove && decision != DecisionRequestChanges {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, decision)
	}

	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusPlanSubmitted {
		return nil, &InvalidTransitionError{
			ApplicationID: app.ID, From: app.Status, To: StatusConfirmed,
			Reason: "no plan awaiting approval",
		}
	}

	records, err := e.Store.ListPlanApprovals(ctx, app.ID, app.PlanRound)
	if err != nil {
		return nil, err
	}

	approver := e.Aliases.Resolve(approverEmail)
	var mine *PlanApprovalRecord
	for _, r := range records {
		if r.ApproverEmail == approver {
			mine = r
			break
		}
	}
	if mine == nil {
		return nil, &UnauthorizedError{
			ActorEmail: approver,
			Resolved:   access.LevelNone,
			Required:   access.LevelSupervisor,
			Operation:  "record plan approval (chain members only)",
		}
	}

	now := e.now()
	mine.Notes = notes
	if decision == DecisionApprove {
		mine.Status = ApprovalApproved
		mine.ApprovedAt = &now
	} else {
		mine.Status = ApprovalChangesRequested
		mine.ApprovedAt = nil
	}
	if err := e.Store.UpdatePlanApproval(ctx, mine); err != nil {
		return nil, err
	}

	e.appendHistory(ctx, app, approver, mine.ApproverName,
		fmt.Sprintf("plan_%s", mine.Status), notes)
	e.notifyStatus(ctx, app, notify.EventPlanApprovalRecorded, map[string]string{
		"approver": mine.ApproverName,
		"decision": string(mine.Status),
		"notes":    notes,
	})

	// Aggregate check: re-read the full record set AFTER this write so a
	// concurrent approval by another chain member is never decided on stale
	// state.
	return e.aggregatePlan(ctx, app, notes)
}

// aggregatePlan re-reads the current round and applies the aggregate rule.
func (e *Engine) aggregatePlan(ctx context.Context, app *Application, notes string) (*Application, error) {
	records, err := e.Store.ListPlanApprovals(ctx, app.ID, app.PlanRound)
	if err != nil {
		return nil, err
	}

	allApproved := len(records) > 0
	for _, r := range records {
		switch r.Status {
		case ApprovalChangesRequested:
			// Any single changes-request reverts the plan regardless of how
			// the rest voted. The round stays closed in place for audit.
			updated, err := e.applyStatus(ctx, app, StatusPlanning, "system", notes)
			if err != nil {
				return nil, err
			}
			e.notifyStatus(ctx, updated, notify.EventPlanChangesRequested, map[string]string{"notes": notes})
			return updated, nil
		case ApprovalApproved:
			// still unanimous so far
		default:
			allApproved = false
		}
	}
	if allApproved {
		return e.applyStatus(ctx, app, StatusConfirmed, "system", "all approvers signed off")
	}
	return app, nil
}
