/*
engine.go - Operation surface of the sabbatical engine

PURPOSE:
  The Engine is what the web layer calls. Each operation authenticates
  nothing (the excluded identity layer did that), authorizes everything
  (through the access resolver), applies exactly one atomic state change,
  appends history, and emits a fire-and-forget notification.

OPERATIONS:
  ResolvePermission   actor x application -> access level
  CreateApplication   eligibility-gated creation
  TransitionStatus    actor-gated lifecycle moves
  EnsurePlanning      lazy Approved -> Planning on first planning touch
  Refresh             date-driven lazy transitions, evaluated on read
  SubmitPlan          plan.go
  RecordPlanApproval  plan.go
  RequestDateChange   datechange.go
  DecideDateChange    datechange.go
  DeleteApplication   network-admin administrative override

SEE ALSO:
  - status.go: the transition table the guards defer to
  - store.go: atomicity and versioning contract
*/
package sabbatical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/config"
	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/notify"
)

// Engine wires the permission resolver, directory, store, and notifier into
// the operation surface. Now is injectable for deterministic tests.
type Engine struct {
	Store     Store
	Directory directory.Directory
	Aliases   *directory.AliasTable
	Resolver  *access.Resolver
	Chains    *directory.ChainBuilder
	Config    config.Config
	Notifier  notify.Notifier
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

// =============================================================================
// PERMISSION RESOLUTION
// =============================================================================

// ResolvePermission returns the actor's access level for an application.
func (e *Engine) ResolvePermission(ctx context.Context, actorEmail, applicationID string) (access.Access, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return access.Access{}, err
	}
	return e.resolveFor(ctx, actorEmail, app)
}

func (e *Engine) resolveFor(ctx context.Context, actorEmail string, app *Application) (access.Access, error) {
	return e.Resolver.Resolve(ctx, actorEmail, access.Target{
		EmployeeEmail:    app.EmployeeEmail,
		EmployeeLocation: app.EmployeeLocation,
	})
}

func (e *Engine) isOwner(actorEmail string, app *Application) bool {
	return e.Aliases.Resolve(actorEmail) == app.EmployeeEmail
}

// =============================================================================
// CREATION
// =============================================================================

// CreateInput is everything an employee supplies when applying.
type CreateInput struct {
	EmployeeEmail string
	OptionKey     string
	StartDate     time.Time
	EndDate       time.Time
}

// CreateApplication runs the eligibility and duplicate checks, snapshots the
// employee's directory record, seeds the planning checklist, and files the
// application in StatusApplied.
func (e *Engine) CreateApplication(ctx context.Context, in CreateInput) (*Application, error) {
	opt, ok := e.Config.Options[in.OptionKey]
	if !ok {
		return nil, fmt.Errorf("option %q: %w", in.OptionKey, ErrUnknownOption)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidTransition)
	}

	email := e.Aliases.Resolve(in.EmployeeEmail)
	emp, err := e.Directory.Lookup(ctx, email)
	if err != nil {
		if directory.IsNotFound(err) {
			return nil, fmt.Errorf("employee %s: %w", email, ErrNotFound)
		}
		return nil, err
	}

	now := e.now()
	years := emp.YearsOfService(now)
	if years.LessThan(e.Config.EligibilityYears) {
		return nil, &IneligibleError{
			EmployeeEmail:  email,
			YearsOfService: years,
			YearsRequired:  e.Config.EligibilityYears,
		}
	}

	existing, err := e.Store.ListApplications(ctx, ApplicationFilter{EmployeeEmail: email})
	if err != nil {
		return nil, err
	}
	for _, prior := range existing {
		if prior.Status.Active() {
			return nil, &DuplicateActiveError{
				EmployeeEmail: email,
				ExistingID:    prior.ID,
				ExistingState: prior.Status,
			}
		}
	}

	app := &Application{
		ID:               uuid.NewString(),
		EmployeeEmail:    email,
		EmployeeName:     emp.Name,
		EmployeeLocation: emp.Location,
		JobTitle:         emp.JobTitle,
		Status:           StatusApplied,
		OptionKey:        in.OptionKey,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		YearsOfService:   years,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if err := e.Store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	for _, label := range e.Config.ChecklistTemplate {
		item := &ChecklistItem{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Label:         label,
			UpdatedAt:     now,
		}
		if err := e.Store.CreateChecklistItem(ctx, item); err != nil {
			return nil, err
		}
	}

	e.appendHistory(ctx, app, email, emp.Name, "application_submitted", "")
	e.notifyStatus(ctx, app, notify.EventApplicationSubmitted, map[string]string{
		"option_label": opt.Label,
	})
	return app, nil
}

// =============================================================================
// ACTOR-GATED TRANSITIONS
// =============================================================================

// statusEvents maps a newly entered status to its notification event.
var statusEvents = map[Status]notify.EventType{
	StatusTentativelyApproved: notify.EventTentativelyApproved,
	StatusApproved:            notify.EventApproved,
	StatusDenied:              notify.EventDenied,
	StatusConfirmed:           notify.EventPlanConfirmed,
	StatusOnSabbatical:        notify.EventSabbaticalStarted,
	StatusReturning:           notify.EventSabbaticalReturning,
	StatusCompleted:           notify.EventSabbaticalCompleted,
}

// TransitionStatus applies one actor-gated lifecycle move. Transitions owned
// by other operations (plan submission, unanimous confirmation, the
// changes-requested revert) are rejected here by name so the caller is told
// which operation to use instead.
func (e *Engine) TransitionStatus(ctx context.Context, applicationID string, newStatus Status, actorEmail string) (*Application, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransition(newStatus) {
		return nil, &InvalidTransitionError{ApplicationID: app.ID, From: app.Status, To: newStatus}
	}

	switch newStatus {
	case StatusPlanSubmitted:
		return nil, &InvalidTransitionError{
			ApplicationID: app.ID, From: app.Status, To: newStatus,
			Reason: "plan submission creates approval records; use SubmitPlan",
		}
	case StatusConfirmed:
		return nil, &InvalidTransitionError{
			ApplicationID: app.ID, From: app.Status, To: newStatus,
			Reason: "confirmation is driven by unanimous plan approval",
		}
	case StatusPlanning:
		if app.Status == StatusPlanSubmitted {
			return nil, &InvalidTransitionError{
				ApplicationID: app.ID, From: app.Status, To: newStatus,
				Reason: "reverting a submitted plan requires a changes-requested decision",
			}
		}
	}

	acc, err := e.resolveFor(ctx, actorEmail, app)
	if err != nil {
		return nil, err
	}
	if err := e.guardTransition(app, newStatus, actorEmail, acc); err != nil {
		return nil, err
	}

	return e.applyStatus(ctx, app, newStatus, e.Aliases.Resolve(actorEmail), "")
}

// guardTransition enforces who may drive each edge.
func (e *Engine) guardTransition(app *Application, to Status, actorEmail string, acc access.Access) error {
	deny := func(required access.Level) error {
		return &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   acc.Level,
			Required:   required,
			Operation:  fmt.Sprintf("transition to %q", to),
		}
	}

	switch to {
	case StatusTentativelyApproved, StatusDenied:
		if !acc.CanApprove() {
			return deny(access.LevelSupervisor)
		}
	case StatusApproved:
		if acc.Level != access.LevelNetworkAdmin {
			return deny(access.LevelNetworkAdmin)
		}
	case StatusPlanning:
		// Approved -> Planning belongs to the owning employee (the lazy
		// first-touch transition); admins may also drive it on their behalf.
		if !e.isOwner(actorEmail, app) && acc.Level != access.LevelNetworkAdmin {
			return deny(access.LevelNetworkAdmin)
		}
	case StatusOnSabbatical, StatusReturning, StatusCompleted:
		if acc.Level != access.LevelNetworkAdmin {
			return deny(access.LevelNetworkAdmin)
		}
	}
	return nil
}

// applyStatus writes the transition under the version guard and emits
// history and notification for the committed change.
func (e *Engine) applyStatus(ctx context.Context, app *Application, to Status, actorEmail, notes string) (*Application, error) {
	from := app.Status
	expected := app.Version
	app.Status = to
	app.UpdatedAt = e.now()
	if err := e.Store.UpdateApplication(ctx, app, expected); err != nil {
		return nil, err
	}

	e.appendHistory(ctx, app, actorEmail, "", fmt.Sprintf("status_%s", to), notes)
	if event, ok := statusEvents[to]; ok {
		e.notifyStatus(ctx, app, event, map[string]string{"notes": notes, "previous_status": string(from)})
	}
	return app, nil
}

// =============================================================================
// LAZY TRANSITIONS
// =============================================================================

// EnsurePlanning moves an Approved application to Planning the first time
// the owning employee touches planning features. Idempotent, and a no-op for
// any actor other than the owner: the lazy transition belongs to the
// employee, but reviewers touching planning content must not be refused.
func (e *Engine) EnsurePlanning(ctx context.Context, applicationID, actorEmail string) (*Application, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusApproved || !e.isOwner(actorEmail, app) {
		return app, nil
	}
	updated, err := e.applyStatus(ctx, app, StatusPlanning, e.Aliases.Resolve(actorEmail), "")
	if err != nil {
		return nil, err
	}
	e.notifyStatus(ctx, updated, notify.EventPlanningStarted, nil)
	return updated, nil
}

// Refresh applies any date-driven lazy transition and returns the current
// application. Evaluated on the read path; there is no background scheduler.
// A concurrent refresh losing the version race is fine: the winner already
// applied the same derivation, so conflicts are swallowed and re-read.
func (e *Engine) Refresh(ctx context.Context, applicationID string) (*Application, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	derived, changed := DeriveLazyStatus(app.Status, app.StartDate, app.EndDate, e.now())
	if !changed {
		return app, nil
	}
	updated, err := e.applyStatus(ctx, app, derived, "system", "date reached")
	if err != nil {
		if IsRetryable(err) {
			return e.Store.GetApplication(ctx, applicationID)
		}
		return nil, err
	}
	return updated, nil
}

// GetApplication returns one application for a viewer, applying lazy
// date-driven transitions first. The same visibility rule as the plan view:
// the owner or any resolved access.
func (e *Engine) GetApplication(ctx context.Context, applicationID, actorEmail string) (*Application, error) {
	app, err := e.Refresh(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := e.requireViewer(ctx, actorEmail, app); err != nil {
		return nil, err
	}
	return app, nil
}

// SiteConflicts returns other active applications at the same school whose
// sabbatical windows overlap this one. Advisory: a conflict informs the
// reviewer, it never blocks a transition.
func (e *Engine) SiteConflicts(ctx context.Context, applicationID, actorEmail string) ([]*Application, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := e.requireViewer(ctx, actorEmail, app); err != nil {
		return nil, err
	}
	peers, err := e.Store.ListApplications(ctx, ApplicationFilter{Location: app.EmployeeLocation})
	if err != nil {
		return nil, err
	}
	conflicts := make([]*Application, 0)
	for _, p := range peers {
		if p.ID == app.ID || !p.Status.Active() {
			continue
		}
		if p.StartDate.After(app.EndDate) || p.EndDate.Before(app.StartDate) {
			continue
		}
		conflicts = append(conflicts, p)
	}
	return conflicts, nil
}

// ListApplications returns the applications the actor may see. Network
// admins see everything the filter allows; everyone else sees only their
// own, regardless of the filter.
func (e *Engine) ListApplications(ctx context.Context, actorEmail string, filter ApplicationFilter) ([]*Application, error) {
	actor := e.Aliases.Resolve(actorEmail)
	if !e.Resolver.IsAdmin(actor) {
		filter.EmployeeEmail = actor
	}
	return e.Store.ListApplications(ctx, filter)
}

// =============================================================================
// ADMINISTRATIVE OVERRIDE
// =============================================================================

// DeleteApplication removes an application and all children. This is an
// administrative override outside the state machine, network-admin only.
func (e *Engine) DeleteApplication(ctx context.Context, applicationID, actorEmail string) error {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	acc, err := e.resolveFor(ctx, actorEmail, app)
	if err != nil {
		return err
	}
	if acc.Level != access.LevelNetworkAdmin {
		return &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   acc.Level,
			Required:   access.LevelNetworkAdmin,
			Operation:  "delete application",
		}
	}
	return e.Store.DeleteApplication(ctx, applicationID)
}

// =============================================================================
// HISTORY + NOTIFICATION PLUMBING
// =============================================================================

func (e *Engine) appendHistory(ctx context.Context, app *Application, actorEmail, actorName, action, notes string) {
	entry := &ActivityEntry{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		At:            e.now(),
		ActorEmail:    actorEmail,
		ActorName:     actorName,
		Action:        action,
		Notes:         notes,
	}
	if err := e.Store.AppendHistory(ctx, entry); err != nil {
		// History is audit sugar on top of committed state; a write failure
		// is logged, not surfaced.
		e.log().WithFields(logrus.Fields{
			"application_id": app.ID,
			"action":         action,
		}).WithError(err).Warn("failed to append history entry")
	}
}

// notifyStatus emits an event addressed to the owning employee with standard
// template fields merged with extra. Never fails the caller.
func (e *Engine) notifyStatus(ctx context.Context, app *Application, eventType notify.EventType, extra map[string]string) {
	if e.Notifier == nil {
		return
	}
	fields := map[string]string{
		"employee_name":    app.EmployeeName,
		"start_date":       app.StartDate.Format("2006-01-02"),
		"end_date":         app.EndDate.Format("2006-01-02"),
		"years_of_service": app.YearsOfService.Round(1).String(),
	}
	if opt, ok := e.Config.Options[app.OptionKey]; ok {
		fields["option_label"] = opt.Label
	}
	for k, v := range extra {
		if v != "" {
			fields[k] = v
		}
	}
	e.notify(ctx, notify.Event{
		Type:          eventType,
		Recipients:    []string{app.EmployeeEmail},
		ApplicationID: app.ID,
		Context:       fields,
	})
}

func (e *Engine) notify(ctx context.Context, event notify.Event) {
	if e.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log().WithField("event", string(event.Type)).Warnf("notifier panicked: %v", r)
		}
	}()
	e.Notifier.Notify(ctx, event)
}
