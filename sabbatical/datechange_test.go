package sabbatical_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstline/sabbatical-engine/sabbatical"
)

func requestChange(t *testing.T, w *world, app *sabbatical.Application) *sabbatical.DateChangeRequest {
	t.Helper()
	req, err := w.engine.RequestDateChange(context.Background(), app.ID, "worker@x.org",
		time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC),
		"school calendar shifted")
	require.NoError(t, err)
	return req
}

func TestRequestDateChange_RequiresApprovedOrLater(t *testing.T) {
	w := newWorld(t)
	app := w.apply(t, "worker@x.org")

	_, err := w.engine.RequestDateChange(context.Background(), app.ID, "worker@x.org",
		time.Now(), time.Now().AddDate(0, 2, 0), "too early")
	assert.ErrorIs(t, err, sabbatical.ErrInvalidTransition)
}

func TestRequestDateChange_OwnerOnly(t *testing.T) {
	w := newWorld(t)
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)

	_, err := w.engine.RequestDateChange(context.Background(), app.ID, "mgr@x.org",
		time.Now(), time.Now().AddDate(0, 2, 0), "not mine to move")
	assert.ErrorIs(t, err, sabbatical.ErrUnauthorized)
}

func TestDecideDateChange_NetworkAdminOnly(t *testing.T) {
	// Supervisors and school leaders cannot decide date changes regardless of
	// chain position; that authority is network-admin only.
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)
	req := requestChange(t, w, app)

	for _, actor := range []string{"mgr@x.org", "dir@x.org", "principal@x.org", "worker@x.org"} {
		_, err := w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeApprove, actor)
		assert.ErrorIs(t, err, sabbatical.ErrUnauthorized, "actor %s", actor)
	}

	decided, err := w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeApprove, "talent@x.org")
	require.NoError(t, err)
	assert.Equal(t, sabbatical.DateChangeApproved, decided.Status)
	assert.True(t, decided.TalentApproved)
	assert.Equal(t, "talent@x.org", decided.TalentApprovedBy)
	require.NotNil(t, decided.TalentApprovedAt)
}

func TestDecideDateChange_ApprovalOverwritesDatesAtomically(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)
	req := requestChange(t, w, app)

	_, err := w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeApprove, "talent@x.org")
	require.NoError(t, err)

	stored, err := w.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, req.NewStartDate, stored.StartDate)
	assert.Equal(t, req.NewEndDate, stored.EndDate)

	// The request retains the old values for audit.
	kept, err := w.store.GetDateChange(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, app.StartDate, kept.OldStartDate)
	assert.Equal(t, app.EndDate, kept.OldEndDate)
}

func TestDecideDateChange_DenialLeavesDatesAlone(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)
	req := requestChange(t, w, app)

	decided, err := w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeDeny, "talent@x.org")
	require.NoError(t, err)
	assert.Equal(t, sabbatical.DateChangeDenied, decided.Status)
	assert.False(t, decided.TalentApproved)

	stored, err := w.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.StartDate, stored.StartDate)
	assert.Equal(t, app.EndDate, stored.EndDate)
}

func TestRequestDateChange_NewRequestSupersedesPending(t *testing.T) {
	// GIVEN: a pending request
	// WHEN: the employee files another one
	// THEN: the prior is auto-denied; only the new one is actionable
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)

	first := requestChange(t, w, app)
	second := requestChange(t, w, app)

	all, err := w.store.ListDateChanges(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	superseded, err := w.store.GetDateChange(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, sabbatical.DateChangeDenied, superseded.Status)
	assert.Contains(t, superseded.Reason, "superseded")

	_, err = w.engine.DecideDateChange(ctx, first.ID, sabbatical.DateChangeApprove, "talent@x.org")
	assert.ErrorIs(t, err, sabbatical.ErrInvalidTransition, "superseded request is no longer actionable")

	_, err = w.engine.DecideDateChange(ctx, second.ID, sabbatical.DateChangeApprove, "talent@x.org")
	assert.NoError(t, err)
}

func TestDecideDateChange_AlreadyDecided(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	app := w.apply(t, "worker@x.org")
	w.advance(t, app, sabbatical.StatusApproved)
	req := requestChange(t, w, app)

	_, err := w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeDeny, "talent@x.org")
	require.NoError(t, err)
	_, err = w.engine.DecideDateChange(ctx, req.ID, sabbatical.DateChangeApprove, "talent@x.org")
	assert.ErrorIs(t, err, sabbatical.ErrInvalidTransition)
}
