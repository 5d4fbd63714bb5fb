/*
Package sqlite provides the SQLite-backed record store for the engine.

PURPOSE:
  Implements sabbatical.Store and directory.Directory using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

CONCURRENCY:
  Applications carry a version column. Every UPDATE is predicated on
  "WHERE id = ? AND version = ?"; zero rows affected means the caller read
  stale state and gets ErrConcurrentModification. Two simultaneous
  transitions from the same read therefore produce exactly one success.

ATOMIC BATCHES:
  CreatePlanApprovalBatch and ApplyDateChange run inside a database
  transaction: all rows land or none do. A submission never leaves a
  partial approver set observable.

KEY TABLES:
  employees       directory records (loaded at seed time; read-only here)
  applications    one row per sabbatical application, versioned
  plan_approvals  one row per approver per submission round, never deleted
  date_changes    post-approval date amendment requests
  checklist_items / coverage_assignments / plan_links / messages
  history         append-only activity log

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  st, err := sqlite.New("./sabbatical.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - sabbatical/store.go: interface and contracts
  - sabbatical/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/sabbatical"
)

// Store implements sabbatical.Store and directory.Directory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		email TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		job_title TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		manager_email TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		employee_email TEXT NOT NULL,
		employee_name TEXT NOT NULL DEFAULT '',
		employee_location TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		option_key TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		years_of_service TEXT NOT NULL DEFAULT '0',
		plan_round INTEGER NOT NULL DEFAULT 0,
		admin_notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_applications_employee
		ON applications(employee_email);
	CREATE INDEX IF NOT EXISTS idx_applications_location_status
		ON applications(employee_location, status);

	-- One row per approver per round. Closed rounds stay in place for audit.
	CREATE TABLE IF NOT EXISTS plan_approvals (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		approver_email TEXT NOT NULL,
		approver_name TEXT NOT NULL DEFAULT '',
		approver_role TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		approved_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_plan_approvals_app_round
		ON plan_approvals(application_id, round);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_plan_approvals_unique_approver
		ON plan_approvals(application_id, round, approver_email);

	CREATE TABLE IF NOT EXISTS date_changes (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		old_start_date TEXT NOT NULL,
		old_end_date TEXT NOT NULL,
		new_start_date TEXT NOT NULL,
		new_end_date TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		talent_approved BOOLEAN NOT NULL DEFAULT FALSE,
		talent_approved_by TEXT NOT NULL DEFAULT '',
		talent_approved_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_date_changes_app
		ON date_changes(application_id);

	CREATE TABLE IF NOT EXISTS checklist_items (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		label TEXT NOT NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checklist_app ON checklist_items(application_id);

	CREATE TABLE IF NOT EXISTS coverage_assignments (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		responsibility TEXT NOT NULL,
		covered_by TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_coverage_app ON coverage_assignments(application_id);

	CREATE TABLE IF NOT EXISTS plan_links (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		added_by TEXT NOT NULL DEFAULT '',
		added_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plan_links_app ON plan_links(application_id);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_app ON messages(application_id);

	-- Append-only activity log. No UPDATE or DELETE statements exist for
	-- this table.
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		at TEXT NOT NULL,
		actor_email TEXT NOT NULL DEFAULT '',
		actor_name TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_history_app ON history(application_id, at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIME HELPERS - RFC3339 text columns
// =============================================================================

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// =============================================================================
// DIRECTORY - employees table
// =============================================================================

// SaveEmployee inserts or replaces a directory record. Used by seeding and
// directory sync; the engine itself never writes employees.
func (s *Store) SaveEmployee(ctx context.Context, e directory.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees (email, name, hire_date, job_title, location, manager_email)
		VALUES (?, ?, ?, ?, ?, ?)`,
		directory.NormalizeEmail(e.Email), e.Name, fmtTime(e.HireDate), e.JobTitle, e.Location,
		directory.NormalizeEmail(e.ManagerEmail))
	return err
}

// Lookup implements directory.Directory over the employees table.
func (s *Store) Lookup(ctx context.Context, email string) (directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT email, name, hire_date, job_title, location, manager_email
		FROM employees WHERE email = ?`, directory.NormalizeEmail(email))

	var e directory.Employee
	var hireDate string
	err := row.Scan(&e.Email, &e.Name, &hireDate, &e.JobTitle, &e.Location, &e.ManagerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Employee{}, directory.ErrEmployeeNotFound
	}
	if err != nil {
		return directory.Employee{}, fmt.Errorf("%w: %v", directory.ErrDirectoryUnavailable, err)
	}
	e.HireDate = parseTime(hireDate)
	return e, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

const applicationColumns = `id, employee_email, employee_name, employee_location, job_title,
	status, option_key, start_date, end_date, years_of_service, plan_round,
	admin_notes, created_at, updated_at, version`

func (s *Store) CreateApplication(ctx context.Context, app *sabbatical.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.EmployeeEmail, app.EmployeeName, app.EmployeeLocation, app.JobTitle,
		string(app.Status), app.OptionKey, fmtTime(app.StartDate), fmtTime(app.EndDate),
		app.YearsOfService.String(), app.PlanRound, app.AdminNotes,
		fmtTime(app.CreatedAt), fmtTime(app.UpdatedAt), app.Version)
	return err
}

func (s *Store) GetApplication(ctx context.Context, id string) (*sabbatical.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (s *Store) ListApplications(ctx context.Context, filter sabbatical.ApplicationFilter) ([]*sabbatical.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	var args []any
	if filter.EmployeeEmail != "" {
		query += " AND employee_email = ?"
		args = append(args, filter.EmployeeEmail)
	}
	if filter.Location != "" {
		query += " AND employee_location = ?"
		args = append(args, filter.Location)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Store) UpdateApplication(ctx context.Context, app *sabbatical.Application, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateApplicationExec(ctx, s.db, app, expectedVersion)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// updateApplicationExec runs the version-guarded UPDATE against either the
// raw connection or an open transaction.
func (s *Store) updateApplicationExec(ctx context.Context, db execer, app *sabbatical.Application, expectedVersion int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE applications SET
			status = ?, option_key = ?, start_date = ?, end_date = ?,
			plan_round = ?, admin_notes = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(app.Status), app.OptionKey, fmtTime(app.StartDate), fmtTime(app.EndDate),
		app.PlanRound, app.AdminNotes, fmtTime(app.UpdatedAt),
		app.ID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or someone got there first.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE id = ?`, app.ID).Scan(&exists); err == nil && exists == 0 {
			return sabbatical.ErrNotFound
		}
		return sabbatical.ErrConcurrentModification
	}
	app.Version = expectedVersion + 1
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sabbatical.ErrNotFound
	}
	for _, table := range []string{
		"plan_approvals", "date_changes", "checklist_items",
		"coverage_assignments", "plan_links", "messages", "history",
	} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE application_id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanApplication(row interface{ Scan(dest ...any) error }) (*sabbatical.Application, error) {
	var app sabbatical.Application
	var status, startDate, endDate, years, createdAt, updatedAt string
	err := row.Scan(&app.ID, &app.EmployeeEmail, &app.EmployeeName, &app.EmployeeLocation,
		&app.JobTitle, &status, &app.OptionKey, &startDate, &endDate, &years,
		&app.PlanRound, &app.AdminNotes, &createdAt, &updatedAt, &app.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sabbatical.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	app.Status = sabbatical.Status(status)
	app.StartDate = parseTime(startDate)
	app.EndDate = parseTime(endDate)
	app.CreatedAt = parseTime(createdAt)
	app.UpdatedAt = parseTime(updatedAt)
	if app.YearsOfService, err = decimal.NewFromString(years); err != nil {
		app.YearsOfService = decimal.Zero
	}
	return &app, nil
}

// =============================================================================
// PLAN APPROVALS
// =============================================================================

func (s *Store) CreatePlanApprovalBatch(ctx context.Context, records []*sabbatical.PlanApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_approvals (id, application_id, round, approver_email,
				approver_name, approver_role, status, notes, approved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ApplicationID, r.Round, r.ApproverEmail, r.ApproverName,
			r.ApproverRole, string(r.Status), r.Notes, fmtTimePtr(r.ApprovedAt)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListPlanApprovals(ctx context.Context, applicationID string, round int) ([]*sabbatical.PlanApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, round, approver_email, approver_name,
			approver_role, status, notes, approved_at
		FROM plan_approvals WHERE application_id = ? AND round = ?
		ORDER BY rowid`, applicationID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.PlanApprovalRecord
	for rows.Next() {
		var r sabbatical.PlanApprovalRecord
		var status string
		var approvedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.ApplicationID, &r.Round, &r.ApproverEmail,
			&r.ApproverName, &r.ApproverRole, &status, &r.Notes, &approvedAt); err != nil {
			return nil, err
		}
		r.Status = sabbatical.ApprovalStatus(status)
		r.ApprovedAt = parseTimePtr(approvedAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePlanApproval(ctx context.Context, record *sabbatical.PlanApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE plan_approvals SET status = ?, notes = ?, approved_at = ?
		WHERE id = ?`,
		string(record.Status), record.Notes, fmtTimePtr(record.ApprovedAt), record.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sabbatical.ErrNotFound
	}
	return nil
}

// =============================================================================
// DATE CHANGES
// =============================================================================

const dateChangeColumns = `id, application_id, requested_by, requested_at,
	old_start_date, old_end_date, new_start_date, new_end_date, reason,
	status, talent_approved, talent_approved_by, talent_approved_at`

func (s *Store) CreateDateChange(ctx context.Context, req *sabbatical.DateChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO date_changes (`+dateChangeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.ApplicationID, req.RequestedBy, fmtTime(req.RequestedAt),
		fmtTime(req.OldStartDate), fmtTime(req.OldEndDate),
		fmtTime(req.NewStartDate), fmtTime(req.NewEndDate), req.Reason,
		string(req.Status), req.TalentApproved, req.TalentApprovedBy,
		fmtTimePtr(req.TalentApprovedAt))
	return err
}

func (s *Store) GetDateChange(ctx context.Context, id string) (*sabbatical.DateChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT `+dateChangeColumns+` FROM date_changes WHERE id = ?`, id)
	return scanDateChange(row)
}

func (s *Store) ListDateChanges(ctx context.Context, applicationID string) ([]*sabbatical.DateChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dateChangeColumns+` FROM date_changes WHERE application_id = ? ORDER BY requested_at, rowid`,
		applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.DateChangeRequest
	for rows.Next() {
		req, err := scanDateChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDateChange(ctx context.Context, req *sabbatical.DateChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDateChangeExec(ctx, s.db, req)
}

func updateDateChangeExec(ctx context.Context, db execer, req *sabbatical.DateChangeRequest) error {
	res, err := db.ExecContext(ctx, `
		UPDATE date_changes SET reason = ?, status = ?, talent_approved = ?,
			talent_approved_by = ?, talent_approved_at = ?
		WHERE id = ?`,
		req.Reason, string(req.Status), req.TalentApproved,
		req.TalentApprovedBy, fmtTimePtr(req.TalentApprovedAt), req.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sabbatical.ErrNotFound
	}
	return nil
}

// ApplyDateChange writes the decided request and the parent's new dates in
// one transaction, guarded by the application version.
func (s *Store) ApplyDateChange(ctx context.Context, req *sabbatical.DateChangeRequest, app *sabbatical.Application, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.updateApplicationExec(ctx, tx, app, expectedVersion); err != nil {
		return err
	}
	if err := updateDateChangeExec(ctx, tx, req); err != nil {
		return err
	}
	return tx.Commit()
}

func scanDateChange(row interface{ Scan(dest ...any) error }) (*sabbatical.DateChangeRequest, error) {
	var req sabbatical.DateChangeRequest
	var requestedAt, oldStart, oldEnd, newStart, newEnd, status string
	var approvedAt sql.NullString
	err := row.Scan(&req.ID, &req.ApplicationID, &req.RequestedBy, &requestedAt,
		&oldStart, &oldEnd, &newStart, &newEnd, &req.Reason,
		&status, &req.TalentApproved, &req.TalentApprovedBy, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sabbatical.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	req.RequestedAt = parseTime(requestedAt)
	req.OldStartDate = parseTime(oldStart)
	req.OldEndDate = parseTime(oldEnd)
	req.NewStartDate = parseTime(newStart)
	req.NewEndDate = parseTime(newEnd)
	req.Status = sabbatical.DateChangeStatus(status)
	req.TalentApprovedAt = parseTimePtr(approvedAt)
	return &req, nil
}

// =============================================================================
// CHILD RECORDS
// =============================================================================

func (s *Store) CreateChecklistItem(ctx context.Context, item *sabbatical.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist_items (id, application_id, label, done, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.ApplicationID, item.Label, item.Done, fmtTime(item.UpdatedAt))
	return err
}

func (s *Store) ListChecklistItems(ctx context.Context, applicationID string) ([]*sabbatical.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, label, done, updated_at
		FROM checklist_items WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.ChecklistItem
	for rows.Next() {
		var item sabbatical.ChecklistItem
		var updatedAt string
		if err := rows.Scan(&item.ID, &item.ApplicationID, &item.Label, &item.Done, &updatedAt); err != nil {
			return nil, err
		}
		item.UpdatedAt = parseTime(updatedAt)
		out = append(out, &item)
	}
	return out, rows.Err()
}

func (s *Store) UpdateChecklistItem(ctx context.Context, item *sabbatical.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE checklist_items SET label = ?, done = ?, updated_at = ? WHERE id = ?`,
		item.Label, item.Done, fmtTime(item.UpdatedAt), item.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sabbatical.ErrNotFound
	}
	return nil
}

func (s *Store) CreateCoverageAssignment(ctx context.Context, a *sabbatical.CoverageAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coverage_assignments (id, application_id, responsibility, covered_by, notes)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.ApplicationID, a.Responsibility, a.CoveredBy, a.Notes)
	return err
}

func (s *Store) ListCoverageAssignments(ctx context.Context, applicationID string) ([]*sabbatical.CoverageAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, responsibility, covered_by, notes
		FROM coverage_assignments WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.CoverageAssignment
	for rows.Next() {
		var a sabbatical.CoverageAssignment
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.Responsibility, &a.CoveredBy, &a.Notes); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) CreatePlanLink(ctx context.Context, link *sabbatical.PlanLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_links (id, application_id, title, url, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		link.ID, link.ApplicationID, link.Title, link.URL, link.AddedBy, fmtTime(link.AddedAt))
	return err
}

func (s *Store) ListPlanLinks(ctx context.Context, applicationID string) ([]*sabbatical.PlanLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, title, url, added_by, added_at
		FROM plan_links WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.PlanLink
	for rows.Next() {
		var link sabbatical.PlanLink
		var addedAt string
		if err := rows.Scan(&link.ID, &link.ApplicationID, &link.Title, &link.URL, &link.AddedBy, &addedAt); err != nil {
			return nil, err
		}
		link.AddedAt = parseTime(addedAt)
		out = append(out, &link)
	}
	return out, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, msg *sabbatical.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, application_id, sender, body, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ApplicationID, msg.From, msg.Body, fmtTime(msg.SentAt))
	return err
}

func (s *Store) ListMessages(ctx context.Context, applicationID string) ([]*sabbatical.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, sender, body, sent_at
		FROM messages WHERE application_id = ? ORDER BY sent_at, rowid`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.Message
	for rows.Next() {
		var msg sabbatical.Message
		var sentAt string
		if err := rows.Scan(&msg.ID, &msg.ApplicationID, &msg.From, &msg.Body, &sentAt); err != nil {
			return nil, err
		}
		msg.SentAt = parseTime(sentAt)
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Store) AppendHistory(ctx context.Context, entry *sabbatical.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, application_id, at, actor_email, actor_name, action, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ApplicationID, fmtTime(entry.At), entry.ActorEmail,
		entry.ActorName, entry.Action, entry.Notes)
	return err
}

func (s *Store) ListHistory(ctx context.Context, applicationID string) ([]*sabbatical.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, at, actor_email, actor_name, action, notes
		FROM history WHERE application_id = ? ORDER BY at, rowid`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sabbatical.ActivityEntry
	for rows.Next() {
		var e sabbatical.ActivityEntry
		var at string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &at, &e.ActorEmail, &e.ActorName, &e.Action, &e.Notes); err != nil {
			return nil, err
		}
		e.At = parseTime(at)
		out = append(out, &e)
	}
	return out, rows.Err()
}

var (
	_ sabbatical.Store    = (*Store)(nil)
	_ directory.Directory = (*Store)(nil)
)
