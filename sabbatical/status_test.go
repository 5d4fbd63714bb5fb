package sabbatical_test

import (
	"testing"
	"time"

	"github.com/firstline/sabbatical-engine/sabbatical"
)

func TestStatusGraph_EdgesOnly(t *testing.T) {
	legal := map[[2]sabbatical.Status]bool{
		{sabbatical.StatusApplied, sabbatical.StatusTentativelyApproved}:   true,
		{sabbatical.StatusApplied, sabbatical.StatusDenied}:                true,
		{sabbatical.StatusTentativelyApproved, sabbatical.StatusApproved}:  true,
		{sabbatical.StatusTentativelyApproved, sabbatical.StatusDenied}:    true,
		{sabbatical.StatusApproved, sabbatical.StatusPlanning}:             true,
		{sabbatical.StatusPlanning, sabbatical.StatusPlanSubmitted}:        true,
		{sabbatical.StatusPlanSubmitted, sabbatical.StatusConfirmed}:       true,
		{sabbatical.StatusPlanSubmitted, sabbatical.StatusPlanning}:        true,
		{sabbatical.StatusConfirmed, sabbatical.StatusOnSabbatical}:        true,
		{sabbatical.StatusOnSabbatical, sabbatical.StatusReturning}:        true,
		{sabbatical.StatusReturning, sabbatical.StatusCompleted}:           true,
	}

	all := []sabbatical.Status{
		sabbatical.StatusApplied, sabbatical.StatusTentativelyApproved, sabbatical.StatusApproved,
		sabbatical.StatusDenied, sabbatical.StatusPlanning, sabbatical.StatusPlanSubmitted,
		sabbatical.StatusConfirmed, sabbatical.StatusOnSabbatical, sabbatical.StatusReturning,
		sabbatical.StatusCompleted,
	}
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]sabbatical.Status{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_ActiveAndTerminal(t *testing.T) {
	if !sabbatical.StatusDenied.Terminal() || !sabbatical.StatusCompleted.Terminal() {
		t.Error("denied and completed are terminal")
	}
	if sabbatical.StatusDenied.Active() || sabbatical.StatusCompleted.Active() {
		t.Error("terminal statuses are not active")
	}
	if !sabbatical.StatusApplied.Active() || !sabbatical.StatusOnSabbatical.Active() {
		t.Error("in-flight statuses are active")
	}
}

func TestDeriveLazyStatus(t *testing.T) {
	start := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.November, 26, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		current sabbatical.Status
		now     time.Time
		want    sabbatical.Status
		changed bool
	}{
		{"confirmed before start", sabbatical.StatusConfirmed, start.AddDate(0, 0, -1), sabbatical.StatusConfirmed, false},
		{"confirmed on start day", sabbatical.StatusConfirmed, start, sabbatical.StatusOnSabbatical, true},
		{"confirmed long past end", sabbatical.StatusConfirmed, end.AddDate(0, 1, 0), sabbatical.StatusReturning, true},
		{"on sabbatical mid-leave", sabbatical.StatusOnSabbatical, start.AddDate(0, 0, 10), sabbatical.StatusOnSabbatical, false},
		{"on sabbatical past end", sabbatical.StatusOnSabbatical, end.AddDate(0, 0, 1), sabbatical.StatusReturning, true},
		{"returning never completes", sabbatical.StatusReturning, end.AddDate(1, 0, 0), sabbatical.StatusReturning, false},
		{"applied untouched by dates", sabbatical.StatusApplied, end.AddDate(1, 0, 0), sabbatical.StatusApplied, false},
		{"denied untouched by dates", sabbatical.StatusDenied, end.AddDate(1, 0, 0), sabbatical.StatusDenied, false},
	}
	for _, c := range cases {
		got, changed := sabbatical.DeriveLazyStatus(c.current, start, end, c.now)
		if got != c.want || changed != c.changed {
			t.Errorf("%s: DeriveLazyStatus = (%s, %v), want (%s, %v)", c.name, got, changed, c.want, c.changed)
		}
	}
}

func TestDeriveLazyStatus_ZeroDatesAreInert(t *testing.T) {
	got, changed := sabbatical.DeriveLazyStatus(sabbatical.StatusConfirmed, time.Time{}, time.Time{}, time.Now())
	if got != sabbatical.StatusConfirmed || changed {
		t.Errorf("zero dates must not drive transitions, got (%s, %v)", got, changed)
	}
}
