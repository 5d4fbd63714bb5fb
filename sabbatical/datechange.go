/*
datechange.go - Post-approval date-change subprocess

PURPOSE:
  Once an application is Approved or later (but not Completed), moving the
  sabbatical dates is its own Pending -> Approved|Denied approval step,
  independent of plan sign-off. Authority is network-admin ONLY: supervisors
  and school leaders cannot decide these regardless of chain position.

SUPERSESSION:
  A new request auto-supersedes any prior pending one for the same
  application. The prior request is denied with a superseding note, so at
  most one request is ever actionable. Old dates stay on every request row
  for audit.

SEE ALSO:
  - store.go: ApplyDateChange atomicity contract
*/
package sabbatical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/notify"
)

// dateChangeEligible statuses may raise a date-change request.
func dateChangeEligible(s Status) bool {
	switch s {
	case StatusApproved, StatusPlanning, StatusPlanSubmitted,
		StatusConfirmed, StatusOnSabbatical, StatusReturning:
		return true
	}
	return false
}

// RequestDateChange raises a date change on behalf of the owning employee.
func (e *Engine) RequestDateChange(ctx context.Context, applicationID, actorEmail string, newStart, newEnd time.Time, reason string) (*DateChangeRequest, error) {
	if newEnd.Before(newStart) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidTransition)
	}

	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !e.isOwner(actorEmail, app) {
		return nil, &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   access.LevelNone,
			Required:   access.LevelNone,
			Operation:  "request date change (owner only)",
		}
	}
	if !dateChangeEligible(app.Status) {
		return nil, fmt.Errorf("%w: application %s is %q; date changes require an approved, not-yet-completed application",
			ErrInvalidTransition, app.ID, app.Status)
	}

	now := e.now()

	// Supersede any prior pending request before filing the new one.
	priors, err := e.Store.ListDateChanges(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	for _, prior := range priors {
		if prior.Status != DateChangePending {
			continue
		}
		prior.Status = DateChangeDenied
		prior.Reason = appendNote(prior.Reason, "superseded by a newer request")
		if err := e.Store.UpdateDateChange(ctx, prior); err != nil {
			return nil, err
		}
	}

	req := &DateChangeRequest{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		RequestedBy:   app.EmployeeEmail,
		RequestedAt:   now,
		OldStartDate:  app.StartDate,
		OldEndDate:    app.EndDate,
		NewStartDate:  newStart,
		NewEndDate:    newEnd,
		Reason:        reason,
		Status:        DateChangePending,
	}
	if err := e.Store.CreateDateChange(ctx, req); err != nil {
		return nil, err
	}

	e.appendHistory(ctx, app, app.EmployeeEmail, app.EmployeeName, "date_change_requested", reason)
	e.notify(ctx, notify.Event{
		Type:          notify.EventDateChangeRequested,
		Recipients:    e.Config.NetworkAdmins,
		ApplicationID: app.ID,
		Context: map[string]string{
			"employee_name": app.EmployeeName,
			"new_start":     newStart.Format("2006-01-02"),
			"new_end":       newEnd.Format("2006-01-02"),
			"reason":        reason,
		},
	})
	return req, nil
}

// DateChangeDecision is the network admin's verdict.
type DateChangeDecision string

const (
	DateChangeApprove DateChangeDecision = "approve"
	DateChangeDeny    DateChangeDecision = "deny"
)

// DecideDateChange approves or denies a pending request. Network-admin only.
// On approval the parent application's dates are overwritten atomically with
// the request's new values.
func (e *Engine) DecideDateChange(ctx context.Context, requestID string, decision DateChangeDecision, actorEmail string) (*DateChangeRequest, error) {
	if decision != DateChangeApprove && decision != DateChangeDeny {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, decision)
	}

	req, err := e.Store.GetDateChange(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != DateChangePending {
		return nil, fmt.Errorf("%w: date-change request already %s", ErrInvalidTransition, req.Status)
	}

	app, err := e.Store.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	acc, err := e.resolveFor(ctx, actorEmail, app)
	if err != nil {
		return nil, err
	}
	if acc.Level != access.LevelNetworkAdmin {
		return nil, &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   acc.Level,
			Required:   access.LevelNetworkAdmin,
			Operation:  "decide date change",
		}
	}

	now := e.now()
	actor := e.Aliases.Resolve(actorEmail)

	if decision == DateChangeDeny {
		req.Status = DateChangeDenied
		req.TalentApprovedBy = actor
		req.TalentApprovedAt = &now
		if err := e.Store.UpdateDateChange(ctx, req); err != nil {
			return nil, err
		}
	} else {
		req.Status = DateChangeApproved
		req.TalentApproved = true
		req.TalentApprovedBy = actor
		req.TalentApprovedAt = &now

		expected := app.Version
		app.StartDate = req.NewStartDate
		app.EndDate = req.NewEndDate
		app.UpdatedAt = now
		if err := e.Store.ApplyDateChange(ctx, req, app, expected); err != nil {
			return nil, err
		}
	}

	e.appendHistory(ctx, app, actor, "", fmt.Sprintf("date_change_%s", req.Status), req.Reason)
	e.notifyStatus(ctx, app, notify.EventDateChangeDecided, map[string]string{
		"decision": string(req.Status),
	})
	return req, nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " (" + note + ")"
}
