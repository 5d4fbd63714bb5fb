// Package store provides an in-memory sabbatical.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/firstline/sabbatical-engine/sabbatical"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	applications map[string]*sabbatical.Application
	approvals    map[string][]*sabbatical.PlanApprovalRecord // by application ID
	dateChanges  map[string]*sabbatical.DateChangeRequest    // by request ID
	checklist    map[string][]*sabbatical.ChecklistItem
	coverage     map[string][]*sabbatical.CoverageAssignment
	links        map[string][]*sabbatical.PlanLink
	messages     map[string][]*sabbatical.Message
	history      map[string][]*sabbatical.ActivityEntry
}

func NewMemory() *Memory {
	return &Memory{
		applications: map[string]*sabbatical.Application{},
		approvals:    map[string][]*sabbatical.PlanApprovalRecord{},
		dateChanges:  map[string]*sabbatical.DateChangeRequest{},
		checklist:    map[string][]*sabbatical.ChecklistItem{},
		coverage:     map[string][]*sabbatical.CoverageAssignment{},
		links:        map[string][]*sabbatical.PlanLink{},
		messages:     map[string][]*sabbatical.Message{},
		history:      map[string][]*sabbatical.ActivityEntry{},
	}
}

// ---- Applications -----------------------------------------------------------

func (m *Memory) CreateApplication(_ context.Context, app *sabbatical.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *app
	m.applications[app.ID] = &cp
	return nil
}

func (m *Memory) GetApplication(_ context.Context, id string) (*sabbatical.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.applications[id]
	if !ok {
		return nil, sabbatical.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *Memory) ListApplications(_ context.Context, filter sabbatical.ApplicationFilter) ([]*sabbatical.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*sabbatical.Application
	for _, app := range m.applications {
		if filter.EmployeeEmail != "" && app.EmployeeEmail != filter.EmployeeEmail {
			continue
		}
		if filter.Location != "" && app.EmployeeLocation != filter.Location {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		cp := *app
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateApplication(_ context.Context, app *sabbatical.Application, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateApplicationLocked(app, expectedVersion)
}

func (m *Memory) updateApplicationLocked(app *sabbatical.Application, expectedVersion int64) error {
	stored, ok := m.applications[app.ID]
	if !ok {
		return sabbatical.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return sabbatical.ErrConcurrentModification
	}
	cp := *app
	cp.Version = expectedVersion + 1
	m.applications[app.ID] = &cp
	app.Version = cp.Version
	return nil
}

func (m *Memory) DeleteApplication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[id]; !ok {
		return sabbatical.ErrNotFound
	}
	delete(m.applications, id)
	delete(m.approvals, id)
	delete(m.checklist, id)
	delete(m.coverage, id)
	delete(m.links, id)
	delete(m.messages, id)
	delete(m.history, id)
	for rid, req := range m.dateChanges {
		if req.ApplicationID == id {
			delete(m.dateChanges, rid)
		}
	}
	return nil
}

// ---- Plan approvals ---------------------------------------------------------

func (m *Memory) CreatePlanApprovalBatch(_ context.Context, records []*sabbatical.PlanApprovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Single map write under one lock hold: all-or-nothing by construction.
	for _, r := range records {
		cp := *r
		m.approvals[r.ApplicationID] = append(m.approvals[r.ApplicationID], &cp)
	}
	return nil
}

func (m *Memory) ListPlanApprovals(_ context.Context, applicationID string, round int) ([]*sabbatical.PlanApprovalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*sabbatical.PlanApprovalRecord
	for _, r := range m.approvals[applicationID] {
		if r.Round == round {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) UpdatePlanApproval(_ context.Context, record *sabbatical.PlanApprovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.approvals[record.ApplicationID] {
		if r.ID == record.ID {
			cp := *record
			m.approvals[record.ApplicationID][i] = &cp
			return nil
		}
	}
	return sabbatical.ErrNotFound
}

// ---- Date changes -----------------------------------------------------------

func (m *Memory) CreateDateChange(_ context.Context, req *sabbatical.DateChangeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.dateChanges[req.ID] = &cp
	return nil
}

func (m *Memory) GetDateChange(_ context.Context, id string) (*sabbatical.DateChangeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.dateChanges[id]
	if !ok {
		return nil, sabbatical.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *Memory) ListDateChanges(_ context.Context, applicationID string) ([]*sabbatical.DateChangeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*sabbatical.DateChangeRequest
	for _, req := range m.dateChanges {
		if req.ApplicationID == applicationID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (m *Memory) UpdateDateChange(_ context.Context, req *sabbatical.DateChangeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dateChanges[req.ID]; !ok {
		return sabbatical.ErrNotFound
	}
	cp := *req
	m.dateChanges[req.ID] = &cp
	return nil
}

func (m *Memory) ApplyDateChange(_ context.Context, req *sabbatical.DateChangeRequest, app *sabbatical.Application, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dateChanges[req.ID]; !ok {
		return sabbatical.ErrNotFound
	}
	// Version check first so a stale read changes nothing at all.
	if err := m.updateApplicationLocked(app, expectedVersion); err != nil {
		return err
	}
	cp := *req
	m.dateChanges[req.ID] = &cp
	return nil
}

// ---- Child records ----------------------------------------------------------

func (m *Memory) CreateChecklistItem(_ context.Context, item *sabbatical.ChecklistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.checklist[item.ApplicationID] = append(m.checklist[item.ApplicationID], &cp)
	return nil
}

func (m *Memory) ListChecklistItems(_ context.Context, applicationID string) ([]*sabbatical.ChecklistItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.checklist[applicationID]), nil
}

func (m *Memory) UpdateChecklistItem(_ context.Context, item *sabbatical.ChecklistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.checklist[item.ApplicationID] {
		if it.ID == item.ID {
			cp := *item
			m.checklist[item.ApplicationID][i] = &cp
			return nil
		}
	}
	return sabbatical.ErrNotFound
}

func (m *Memory) CreateCoverageAssignment(_ context.Context, a *sabbatical.CoverageAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.coverage[a.ApplicationID] = append(m.coverage[a.ApplicationID], &cp)
	return nil
}

func (m *Memory) ListCoverageAssignments(_ context.Context, applicationID string) ([]*sabbatical.CoverageAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.coverage[applicationID]), nil
}

func (m *Memory) CreatePlanLink(_ context.Context, link *sabbatical.PlanLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *link
	m.links[link.ApplicationID] = append(m.links[link.ApplicationID], &cp)
	return nil
}

func (m *Memory) ListPlanLinks(_ context.Context, applicationID string) ([]*sabbatical.PlanLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.links[applicationID]), nil
}

func (m *Memory) CreateMessage(_ context.Context, msg *sabbatical.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.messages[msg.ApplicationID] = append(m.messages[msg.ApplicationID], &cp)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, applicationID string) ([]*sabbatical.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.messages[applicationID]), nil
}

func (m *Memory) AppendHistory(_ context.Context, entry *sabbatical.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.history[entry.ApplicationID] = append(m.history[entry.ApplicationID], &cp)
	return nil
}

func (m *Memory) ListHistory(_ context.Context, applicationID string) ([]*sabbatical.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlice(m.history[applicationID]), nil
}

func copySlice[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		cp := *v
		out = append(out, &cp)
	}
	return out
}

var _ sabbatical.Store = (*Memory)(nil)
