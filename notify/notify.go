/*
Package notify dispatches lifecycle notifications.

PURPOSE:
  Every committed state transition emits one Event. Dispatch is
  fire-and-forget: the engine never waits on, retries, or rolls back for a
  notification. A failed send is logged and dropped; notification is a side
  effect downstream of committed state, not a precondition.

IMPLEMENTATIONS:
  - LogSink: structured-log dispatch (default; real deployments put an email
    sender behind the same interface)
  - Discard: no-op for tests

SEE ALSO:
  - templates.go: subject/body rendering per event type
*/
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// EventType identifies which lifecycle moment an event describes.
type EventType string

const (
	EventApplicationSubmitted  EventType = "application_submitted"
	EventTentativelyApproved   EventType = "application_tentatively_approved"
	EventApproved              EventType = "application_approved"
	EventDenied                EventType = "application_denied"
	EventPlanningStarted       EventType = "planning_started"
	EventPlanSubmitted         EventType = "plan_submitted"
	EventPlanApprovalRecorded  EventType = "plan_approval_recorded"
	EventPlanChangesRequested  EventType = "plan_changes_requested"
	EventPlanConfirmed         EventType = "plan_confirmed"
	EventSabbaticalStarted     EventType = "sabbatical_started"
	EventSabbaticalReturning   EventType = "sabbatical_returning"
	EventSabbaticalCompleted   EventType = "sabbatical_completed"
	EventDateChangeRequested   EventType = "date_change_requested"
	EventDateChangeDecided     EventType = "date_change_decided"
)

// Event is one notification. Context carries template fields
// (employee name, dates, option label, decision, notes).
type Event struct {
	Type          EventType
	Recipients    []string
	ApplicationID string
	Context       map[string]string
}

// Notifier dispatches events. Implementations must not block the caller on
// delivery and must not return delivery failures to the engine.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// =============================================================================
// LOG SINK
// =============================================================================

// LogSink renders each event and writes it to the structured log.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s *LogSink) Notify(_ context.Context, event Event) {
	subject, body := Render(event)
	s.Log.WithFields(logrus.Fields{
		"event":          string(event.Type),
		"application_id": event.ApplicationID,
		"recipients":     event.Recipients,
		"subject":        subject,
	}).Info("notification dispatched")
	s.Log.WithField("application_id", event.ApplicationID).Debug(body)
}

// Discard drops every event. For tests.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
