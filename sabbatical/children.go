/*
children.go - Checklist, coverage, links, and messages

PURPOSE:
  Free-form planning content attached to an application. None of it has
  approval semantics: checklist completion is advisory and never gates plan
  submission. Writes are owner-or-approver gated; reads require any
  visibility at all (school leaders included).

  Touching any planning feature lazily moves an Approved application to
  Planning (see engine.EnsurePlanning).
*/
package sabbatical

import (
	"context"

	"github.com/google/uuid"

	"github.com/firstline/sabbatical-engine/access"
)

// canContribute reports whether the actor may write planning content:
// the owning employee, a supervisor, or a network admin.
func (e *Engine) canContribute(ctx context.Context, actorEmail string, app *Application) (bool, error) {
	if e.isOwner(actorEmail, app) {
		return true, nil
	}
	acc, err := e.resolveFor(ctx, actorEmail, app)
	if err != nil {
		return false, err
	}
	return acc.CanApprove(), nil
}

func (e *Engine) requireContributor(ctx context.Context, actorEmail string, app *Application, op string) error {
	ok, err := e.canContribute(ctx, actorEmail, app)
	if err != nil {
		return err
	}
	if !ok {
		return &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   access.LevelNone,
			Required:   access.LevelSupervisor,
			Operation:  op,
		}
	}
	return nil
}

// =============================================================================
// CHECKLIST
// =============================================================================

// SetChecklistItemDone toggles a checklist item. Owner or approver.
func (e *Engine) SetChecklistItemDone(ctx context.Context, applicationID, itemID, actorEmail string, done bool) (*ChecklistItem, error) {
	app, err := e.EnsurePlanning(ctx, applicationID, actorEmail)
	if err != nil {
		return nil, err
	}
	if err := e.requireContributor(ctx, actorEmail, app, "update checklist"); err != nil {
		return nil, err
	}
	items, err := e.Store.ListChecklistItems(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == itemID {
			item.Done = done
			item.UpdatedAt = e.now()
			if err := e.Store.UpdateChecklistItem(ctx, item); err != nil {
				return nil, err
			}
			return item, nil
		}
	}
	return nil, ErrNotFound
}

// AddChecklistItem appends a custom item beyond the seeded template.
func (e *Engine) AddChecklistItem(ctx context.Context, applicationID, actorEmail, label string) (*ChecklistItem, error) {
	app, err := e.EnsurePlanning(ctx, applicationID, actorEmail)
	if err != nil {
		return nil, err
	}
	if err := e.requireContributor(ctx, actorEmail, app, "add checklist item"); err != nil {
		return nil, err
	}
	item := &ChecklistItem{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Label:         label,
		UpdatedAt:     e.now(),
	}
	if err := e.Store.CreateChecklistItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// =============================================================================
// COVERAGE / LINKS / MESSAGES
// =============================================================================

func (e *Engine) AddCoverageAssignment(ctx context.Context, applicationID, actorEmail, responsibility, coveredBy, notes string) (*CoverageAssignment, error) {
	app, err := e.EnsurePlanning(ctx, applicationID, actorEmail)
	if err != nil {
		return nil, err
	}
	if err := e.requireContributor(ctx, actorEmail, app, "add coverage assignment"); err != nil {
		return nil, err
	}
	a := &CoverageAssignment{
		ID:             uuid.NewString(),
		ApplicationID:  app.ID,
		Responsibility: responsibility,
		CoveredBy:      coveredBy,
		Notes:          notes,
	}
	if err := e.Store.CreateCoverageAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Engine) AddPlanLink(ctx context.Context, applicationID, actorEmail, title, url string) (*PlanLink, error) {
	app, err := e.EnsurePlanning(ctx, applicationID, actorEmail)
	if err != nil {
		return nil, err
	}
	if err := e.requireContributor(ctx, actorEmail, app, "add plan link"); err != nil {
		return nil, err
	}
	link := &PlanLink{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Title:         title,
		URL:           url,
		AddedBy:       e.Aliases.Resolve(actorEmail),
		AddedAt:       e.now(),
	}
	if err := e.Store.CreatePlanLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (e *Engine) PostMessage(ctx context.Context, applicationID, actorEmail, body string) (*Message, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContributor(ctx, actorEmail, app, "post message"); err != nil {
		return nil, err
	}
	msg := &Message{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		From:          e.Aliases.Resolve(actorEmail),
		Body:          body,
		SentAt:        e.now(),
	}
	if err := e.Store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// =============================================================================
// READS - Any visibility suffices (school leaders read, never write)
// =============================================================================

// PlanView bundles everything a reviewer sees about a plan.
type PlanView struct {
	Application *Application
	Checklist   []*ChecklistItem
	Coverage    []*CoverageAssignment
	Links       []*PlanLink
	Messages    []*Message
	Approvals   []*PlanApprovalRecord
	History     []*ActivityEntry
}

// requireViewer refuses actors who are neither the owner nor hold any
// resolved access to the application.
func (e *Engine) requireViewer(ctx context.Context, actorEmail string, app *Application) error {
	if e.isOwner(actorEmail, app) {
		return nil
	}
	acc, err := e.resolveFor(ctx, actorEmail, app)
	if err != nil {
		return err
	}
	if !acc.CanView() {
		return &UnauthorizedError{
			ActorEmail: e.Aliases.Resolve(actorEmail),
			Resolved:   acc.Level,
			Required:   access.LevelSchoolLeader,
			Operation:  "view application",
		}
	}
	return nil
}

// GetPlanView assembles the plan for a viewer, applying lazy date-driven
// transitions first. Actors with no resolved access are refused.
func (e *Engine) GetPlanView(ctx context.Context, applicationID, actorEmail string) (*PlanView, error) {
	app, err := e.Refresh(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := e.requireViewer(ctx, actorEmail, app); err != nil {
		return nil, err
	}

	view := &PlanView{Application: app}
	if view.Checklist, err = e.Store.ListChecklistItems(ctx, app.ID); err != nil {
		return nil, err
	}
	if view.Coverage, err = e.Store.ListCoverageAssignments(ctx, app.ID); err != nil {
		return nil, err
	}
	if view.Links, err = e.Store.ListPlanLinks(ctx, app.ID); err != nil {
		return nil, err
	}
	if view.Messages, err = e.Store.ListMessages(ctx, app.ID); err != nil {
		return nil, err
	}
	if view.History, err = e.Store.ListHistory(ctx, app.ID); err != nil {
		return nil, err
	}
	if app.PlanRound > 0 {
		if view.Approvals, err = e.Store.ListPlanApprovals(ctx, app.ID, app.PlanRound); err != nil {
			return nil, err
		}
	}
	return view, nil
}
