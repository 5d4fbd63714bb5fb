package sabbatical_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/notify"
	"github.com/firstline/sabbatical-engine/sabbatical"
)

// =============================================================================
// PLAN SUBMISSION
// =============================================================================

func TestSubmitPlan_CreatesOneRecordPerChainMember(t *testing.T) {
	// GIVEN: worker's chain is mgr -> dir -> chief (3 approvers)
	// WHEN: the plan is submitted
	// THEN: exactly 3 Pending records exist for round 1
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusPlanning)

	updated, records, err := w.engine.SubmitPlan(ctx, app.ID, "worker@x.org")
	require.NoError(t, err)
	assert.Equal(t, sabbatical.StatusPlanSubmitted, updated.Status)
	assert.Equal(t, 1, updated.PlanRound)

	require.Len(t, records, 3)
	wantOrder := []string{"mgr@x.org", "dir@x.org", "chief@x.org"}
	for i, r := range records {
		assert.Equal(t, wantOrder[i], r.ApproverEmail, "approver order follows the chain")
		assert.Equal(t, sabbatical.ApprovalPending, r.Status)
		assert.Equal(t, 1, r.Round)
		assert.Nil(t, r.ApprovedAt)
	}
}

func TestSubmitPlan_ChainEndsAtTitleBasedAdmin(t *testing.T) {
	// GIVEN: the chief now reports to a board chair, and the chief is a
	// network admin by title only, not by allow-list
	// WHEN: the plan is submitted
	// THEN: the approver set still ends at the chief
	w := newWorld(t)
	ctx := context.Background()
	w.dir.Add(directory.Employee{Email: "chief@x.org", Name: "Casey Chief", JobTitle: "Chief of Schools",
		Location: "Network", ManagerEmail: "board@x.org",
		HireDate: time.Date(2009, time.August, 1, 0, 0, 0, 0, time.UTC)})
	w.dir.Add(directory.Employee{Email: "board@x.org", Name: "Bobbie Board", JobTitle: "Board Chair",
		Location: "Network", ManagerEmail: "",
		HireDate: time.Date(2005, time.August, 1, 0, 0, 0, 0, time.UTC)})

	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusPlanning)

	_, records, err := w.engine.SubmitPlan(ctx, app.ID, "worker@x.org")
	require.NoError(t, err)
	emails := make([]string, len(records))
	for i, r := range records {
		emails[i] = r.ApproverEmail
	}
	assert.Equal(t, []string{"mgr@x.org", "dir@x.org", "chief@x.org"}, emails,
		"nobody above the first network admin is enrolled")
}

func TestSubmitPlan_OwnerOnly(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusPlanning)

	_, _, err := w.engine.SubmitPlan(ctx, app.ID, "mgr@x.org")
	assert.ErrorIs(t, err, sabbatical.ErrUnauthorized)
}

func TestSubmitPlan_RequiresPlanningStatus(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")

	_, _, err := w.engine.SubmitPlan(ctx, app.ID, "worker@x.org")
	assert.ErrorIs(t, err, sabbatical.ErrInvalidTransition)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestRecordPlanApproval_UnanimousApprovalConfirms(t *testing.T) {
	// GIVEN: a 3-approver round
	// WHEN: approvals land one by one
	// THEN: the application stays PlanSubmitted until the LAST approval,
	//       which flips it to Confirmed (last-writer-triggers)
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	app = w.advance(t, app, sabbatical.StatusPlanSubmitted)

	for _, approver := range []string{"mgr@x.org", "dir@x.org"} {
		got, err := w.engine.RecordPlanApproval(ctx, app.ID, approver, sabbatical.DecisionApprove, "looks good")
		require.NoError(t, err)
		assert.Equal(t, sabbatical.StatusPlanSubmitted, got.Status, "partial approval must not confirm")
	}

	got, err := w.engine.RecordPlanApproval(ctx, app.ID, "chief@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, sabbatical.StatusConfirmed, got.Status)
}

func TestRecordPlanApproval_AnyChangesRequestedReverts(t *testing.T) {
	// GIVEN: two of three have approved
	// WHEN: the third requests changes
	// THEN: the application reverts to Planning regardless of the other two
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	app = w.advance(t, app, sabbatical.StatusPlanSubmitted)

	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)
	_, err = w.engine.RecordPlanApproval(ctx, app.ID, "chief@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)

	got, err := w.engine.RecordPlanApproval(ctx, app.ID, "dir@x.org", sabbatical.DecisionRequestChanges, "coverage is thin in week 3")
	require.NoError(t, err)
	assert.Equal(t, sabbatical.StatusPlanning, got.Status)

	// The closed round stays in place for audit.
	records, err := w.store.ListPlanApprovals(ctx, app.ID, 1)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecordPlanApproval_IdempotentPerApprover(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	app = w.advance(t, app, sabbatical.StatusPlanSubmitted)

	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "first pass")
	require.NoError(t, err)
	_, err = w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "second pass")
	require.NoError(t, err)

	records, err := w.store.ListPlanApprovals(ctx, app.ID, app.PlanRound)
	require.NoError(t, err)
	require.Len(t, records, 3, "re-approval must not duplicate records")
	for _, r := range records {
		if r.ApproverEmail == "mgr@x.org" {
			assert.Equal(t, "second pass", r.Notes, "re-approval overwrites notes")
		}
	}
}

// captureSink records dispatched events for assertions.
type captureSink struct {
	events []notify.Event
}

func (c *captureSink) Notify(_ context.Context, e notify.Event) { c.events = append(c.events, e) }

func TestRecordPlanApproval_NotifiesEmployee(t *testing.T) {
	// Every recorded decision tells the employee who decided and how.
	w := newWorld(t)
	sink := &captureSink{}
	w.engine.Notifier = sink
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	app = w.advance(t, app, sabbatical.StatusPlanSubmitted)

	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "looks good")
	require.NoError(t, err)

	var found bool
	for _, ev := range sink.events {
		if ev.Type != notify.EventPlanApprovalRecorded {
			continue
		}
		found = true
		assert.Equal(t, []string{"worker@x.org"}, ev.Recipients)
		assert.Equal(t, "approved", ev.Context["decision"])
		assert.Equal(t, "Mandy Manager", ev.Context["approver"])
	}
	assert.True(t, found, "a recorded decision must dispatch an event")
}

func TestRecordPlanApproval_NonChainMemberRejected(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusPlanSubmitted)

	// Even a network admin holds no record unless they are in the chain.
	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "talent@x.org", sabbatical.DecisionApprove, "")
	assert.ErrorIs(t, err, sabbatical.ErrUnauthorized)
}

func TestResubmission_OpensFreshRound(t *testing.T) {
	// GIVEN: round 1 closed by a changes request
	// WHEN: the plan is resubmitted
	// THEN: round 2 has fresh Pending records; round 1 votes don't count
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	app = w.advance(t, app, sabbatical.StatusPlanSubmitted)

	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)
	_, err = w.engine.RecordPlanApproval(ctx, app.ID, "dir@x.org", sabbatical.DecisionRequestChanges, "redo")
	require.NoError(t, err)

	updated, records, err := w.engine.SubmitPlan(ctx, app.ID, "worker@x.org")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.PlanRound)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, sabbatical.ApprovalPending, r.Status, "round 2 starts from scratch")
	}

	// mgr's round-1 approval must not leak into round 2.
	_, err = w.engine.RecordPlanApproval(ctx, app.ID, "dir@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)
	_, err = w.engine.RecordPlanApproval(ctx, app.ID, "chief@x.org", sabbatical.DecisionApprove, "")
	require.NoError(t, err)
	cur, err := w.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, sabbatical.StatusPlanSubmitted, cur.Status, "missing round-2 vote keeps it unconfirmed")
}

func TestRecordPlanApproval_RequiresSubmittedPlan(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")

	_, err := w.engine.RecordPlanApproval(ctx, app.ID, "mgr@x.org", sabbatical.DecisionApprove, "")
	if !errors.Is(err, sabbatical.ErrInvalidTransition) {
		t.Fatalf("expected InvalidTransition without a submitted plan, got %v", err)
	}
}
