package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/api"
	"github.com/firstline/sabbatical-engine/config"
	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/notify"
	"github.com/firstline/sabbatical-engine/sabbatical"
	"github.com/firstline/sabbatical-engine/sabbatical/store"
)

// =============================================================================
// TEST SERVER
// =============================================================================
//
// Same org as the engine tests: worker reports to mgr to dir to chief;
// talent is the allow-listed network admin; worker was hired in 2008 and is
// eligible.

type testServer struct {
	srv *httptest.Server
	dir *directory.StaticDirectory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := directory.NewStaticDirectory(
		directory.Employee{Email: "worker@x.org", Name: "Wendy Worker", JobTitle: "Teacher",
			Location: "Ashe", ManagerEmail: "mgr@x.org",
			HireDate: time.Date(2008, time.August, 1, 0, 0, 0, 0, time.UTC)},
		directory.Employee{Email: "mgr@x.org", Name: "Mandy Manager", JobTitle: "Assistant Principal",
			Location: "Ashe", ManagerEmail: "chief@x.org",
			HireDate: time.Date(2012, time.August, 1, 0, 0, 0, 0, time.UTC)},
		directory.Employee{Email: "chief@x.org", Name: "Casey Chief", JobTitle: "Chief of Schools",
			Location: "Network", ManagerEmail: "",
			HireDate: time.Date(2009, time.August, 1, 0, 0, 0, 0, time.UTC)},
	)

	cfg := config.Default()
	cfg.NetworkAdmins = []string{"talent@x.org"}

	aliases := directory.EmptyAliasTable()
	chains := &directory.ChainBuilder{Directory: dir, Aliases: aliases, MaxHops: cfg.MaxChainHops}
	resolver := access.NewResolver(dir, aliases, chains, cfg.NetworkAdmins, cfg.SchoolLeaderTitles)
	chains.IsAdmin = resolver.IsNetworkAdmin

	log := logrus.New()
	log.SetOutput(io.Discard)

	engine := &sabbatical.Engine{
		Store:     store.NewMemory(),
		Directory: dir,
		Aliases:   aliases,
		Resolver:  resolver,
		Chains:    chains,
		Config:    cfg,
		Notifier:  notify.Discard{},
		Log:       log,
		Now:       func() time.Time { return time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC) },
	}

	router := api.NewRouter(api.NewHandler(engine, log), nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, dir: dir}
}

func (ts *testServer) do(t *testing.T, method, path, actor string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, buf)
	require.NoError(t, err)
	if actor != "" {
		req.Header.Set("X-Actor-Email", actor)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func (ts *testServer) createApplication(t *testing.T) map[string]any {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/applications", "worker@x.org", map[string]string{
		"option_key": "8w-100",
		"start_date": "2026-10-01",
		"end_date":   "2026-11-26",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create failed: %s", body)
	var app map[string]any
	require.NoError(t, json.Unmarshal(body, &app))
	return app
}

func transition(t *testing.T, ts *testServer, appID, status, actor string) *http.Response {
	t.Helper()
	resp, _ := ts.do(t, http.MethodPost, "/api/applications/"+appID+"/status", actor,
		map[string]string{"status": status})
	return resp
}

// =============================================================================
// APPLICATION LIFECYCLE OVER HTTP
// =============================================================================

func TestCreateApplication_HTTP(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)

	assert.Equal(t, "applied", app["status"])
	assert.Equal(t, "worker@x.org", app["employee_email"])
	assert.Equal(t, "Ashe", app["employee_location"])
	assert.Equal(t, "2026-10-01", app["start_date"])
	assert.NotEmpty(t, app["id"])
}

func TestCreateApplication_MissingActorHeader(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/api/applications", "", map[string]string{
		"option_key": "8w-100", "start_date": "2026-10-01", "end_date": "2026-11-26",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateApplication_BadDate(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/api/applications", "worker@x.org", map[string]string{
		"option_key": "8w-100", "start_date": "10/01/2026", "end_date": "2026-11-26",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateApplication_UnknownOption(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodPost, "/api/applications", "worker@x.org", map[string]string{
		"option_key": "16w-200", "start_date": "2026-10-01", "end_date": "2026-11-26",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e map[string]any
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "unknown_option", e["code"])
}

func TestCreateApplication_DuplicateConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.createApplication(t)
	resp, body := ts.do(t, http.MethodPost, "/api/applications", "worker@x.org", map[string]string{
		"option_key": "8w-100", "start_date": "2026-10-01", "end_date": "2026-11-26",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e map[string]any
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "duplicate_active", e["code"])
}

func TestFullLifecycle_HTTP(t *testing.T) {
	// Walk one application from filing to confirmation entirely over HTTP.
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp := transition(t, ts, id, "tentatively_approved", "mgr@x.org")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = transition(t, ts, id, "approved", "talent@x.org")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Owner touching planning content lazily enters Planning.
	resp, _ = ts.do(t, http.MethodPost, "/api/applications/"+id+"/coverage", "worker@x.org",
		map[string]string{"responsibility": "Grade-level meetings", "covered_by": "peer@x.org"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/applications/"+id+"/plan/submit", "worker@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "submit failed: %s", body)
	var submitted struct {
		Application struct {
			Status    string `json:"status"`
			PlanRound int    `json:"plan_round"`
		} `json:"application"`
		Approvals []struct {
			ApproverEmail string `json:"approver_email"`
			Status        string `json:"status"`
		} `json:"approvals"`
	}
	require.NoError(t, json.Unmarshal(body, &submitted))
	assert.Equal(t, "plan_submitted", submitted.Application.Status)
	assert.Equal(t, 1, submitted.Application.PlanRound)
	require.Len(t, submitted.Approvals, 2, "mgr and chief form the chain")

	for _, approver := range []string{"mgr@x.org", "chief@x.org"} {
		resp, body = ts.do(t, http.MethodPost, "/api/applications/"+id+"/plan/decision", approver,
			map[string]string{"decision": "approve"})
		require.Equal(t, http.StatusOK, resp.StatusCode, "decision by %s failed: %s", approver, body)
	}

	var final map[string]any
	resp, body = ts.do(t, http.MethodGet, "/api/applications/"+id, "worker@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &final))
	assert.Equal(t, "confirmed", final["status"])
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestTransition_ForbiddenForOwner(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp := transition(t, ts, id, "tentatively_approved", "worker@x.org")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTransition_InvalidJumpConflicts(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp := transition(t, ts, id, "approved", "talent@x.org")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "applied cannot jump to approved")
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp := transition(t, ts, id, "vacationing", "talent@x.org")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetApplication_NotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodGet, "/api/applications/nope", "worker@x.org", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDirectoryOutage_ServiceUnavailable(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	ts.dir.SetUnavailable(true)
	resp, _ := ts.do(t, http.MethodGet, "/api/applications/"+id+"/access", "mgr@x.org", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDeleteApplication_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp, _ := ts.do(t, http.MethodDelete, "/api/applications/"+id, "worker@x.org", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/applications/"+id, "talent@x.org", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/applications/"+id, "talent@x.org", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// ACCESS + VISIBILITY
// =============================================================================

func TestGetAccess_ReportsResolvedLevel(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	cases := []struct {
		actor      string
		level      string
		canApprove bool
	}{
		{"mgr@x.org", "supervisor", true},
		{"talent@x.org", "network-admin", true},
		{"worker@x.org", "none", false},
	}
	for _, c := range cases {
		resp, body := ts.do(t, http.MethodGet, "/api/applications/"+id+"/access", c.actor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var acc map[string]any
		require.NoError(t, json.Unmarshal(body, &acc))
		assert.Equal(t, c.level, acc["level"], "actor %s", c.actor)
		assert.Equal(t, c.canApprove, acc["can_approve"], "actor %s", c.actor)
	}
}

func TestListApplications_NonAdminSeesOnlyOwn(t *testing.T) {
	ts := newTestServer(t)
	ts.createApplication(t)

	resp, body := ts.do(t, http.MethodGet, "/api/applications", "mgr@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var forMgr []map[string]any
	require.NoError(t, json.Unmarshal(body, &forMgr))
	assert.Empty(t, forMgr, "mgr has no application of their own")

	resp, body = ts.do(t, http.MethodGet, "/api/applications", "talent@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var forAdmin []map[string]any
	require.NoError(t, json.Unmarshal(body, &forAdmin))
	assert.Len(t, forAdmin, 1, "admin sees everything")
}

func TestGetApplication_StrangerForbidden(t *testing.T) {
	// The bare application read follows the same visibility rule as the
	// plan view: owner or any resolved access.
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp, _ := ts.do(t, http.MethodGet, "/api/applications/"+id, "stranger@x.org", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/applications/"+id, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "a missing actor header holds no access")

	resp, _ = ts.do(t, http.MethodGet, "/api/applications/"+id, "mgr@x.org", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "supervisors retain visibility")
}

func TestGetPlanView_StrangerForbidden(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	resp, _ := ts.do(t, http.MethodGet, "/api/applications/"+id+"/plan", "stranger@x.org", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/api/applications/"+id+"/plan", "worker@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Checklist []map[string]any `json:"checklist"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	assert.NotEmpty(t, view.Checklist, "template checklist is seeded at creation")
}

func TestListSiteConflicts_HTTP(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	// mgr is at Ashe too and overlaps worker's window.
	resp, body := ts.do(t, http.MethodPost, "/api/applications", "mgr@x.org", map[string]string{
		"option_key": "8w-100", "start_date": "2026-11-01", "end_date": "2026-12-20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "mgr create failed: %s", body)

	resp, body = ts.do(t, http.MethodGet, "/api/applications/"+id+"/conflicts", "worker@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conflicts []map[string]any
	require.NoError(t, json.Unmarshal(body, &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, "mgr@x.org", conflicts[0]["employee_email"])

	resp, _ = ts.do(t, http.MethodGet, "/api/applications/"+id+"/conflicts", "stranger@x.org", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// =============================================================================
// DATE CHANGES
// =============================================================================

func TestDateChange_HTTPFlow(t *testing.T) {
	ts := newTestServer(t)
	app := ts.createApplication(t)
	id := app["id"].(string)

	require.Equal(t, http.StatusOK, transition(t, ts, id, "tentatively_approved", "mgr@x.org").StatusCode)
	require.Equal(t, http.StatusOK, transition(t, ts, id, "approved", "talent@x.org").StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/applications/"+id+"/date-changes", "worker@x.org",
		map[string]string{"new_start_date": "2026-11-02", "new_end_date": "2026-12-28", "reason": "calendar shift"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "request failed: %s", body)
	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	reqID := req["id"].(string)
	assert.Equal(t, "pending", req["status"])
	assert.Equal(t, "2026-10-01", req["old_start_date"])

	// Supervisors cannot decide; network admin can.
	resp, _ = ts.do(t, http.MethodPost, "/api/date-changes/"+reqID+"/decision", "mgr@x.org",
		map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/api/date-changes/"+reqID+"/decision", "talent@x.org",
		map[string]string{"decision": "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "decision failed: %s", body)

	resp, body = ts.do(t, http.MethodGet, "/api/applications/"+id, "worker@x.org", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "2026-11-02", updated["start_date"])
	assert.Equal(t, "2026-12-28", updated["end_date"])
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestGetEmployee(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/api/employees/worker@x.org", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var emp map[string]any
	require.NoError(t, json.Unmarshal(body, &emp))
	assert.Equal(t, "Wendy Worker", emp["name"])
	assert.Equal(t, "2008-08-01", emp["hire_date"])
	assert.Equal(t, "mgr@x.org", emp["manager_email"])

	resp, _ = ts.do(t, http.MethodGet, "/api/employees/nobody@x.org", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetEligibility(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/employees/worker@x.org/eligibility", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var elig map[string]any
	require.NoError(t, json.Unmarshal(body, &elig))
	assert.Equal(t, true, elig["eligible"], "hired 2008, over 10 years in 2026")
	assert.Equal(t, "10", elig["required_years"])

	// mgr was hired in 2012: 13+ years by the fixed test clock, eligible too,
	// so check an ineligible case with a fresh record.
	ts.dir.Add(directory.Employee{
		Email: "rookie@x.org", Name: "Ria Rookie", JobTitle: "Teacher",
		Location: "Ashe", HireDate: time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC),
	})
	resp, body = ts.do(t, http.MethodGet, "/api/employees/rookie@x.org/eligibility", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &elig))
	assert.Equal(t, false, elig["eligible"])
}

// =============================================================================
// CATALOG + SEEDING
// =============================================================================

func TestListOptions(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/api/options", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var opts []map[string]any
	require.NoError(t, json.Unmarshal(body, &opts))
	require.Len(t, opts, 2)
	assert.Equal(t, "12w-67", opts[0]["key"], "sorted by key")
	assert.Equal(t, "8 Weeks - 100% Salary", opts[1]["label"])
}

type recordingSaver struct {
	saved []directory.Employee
}

func (r *recordingSaver) SaveEmployee(_ context.Context, e directory.Employee) error {
	r.saved = append(r.saved, e)
	return nil
}

func TestSeedEndpoint(t *testing.T) {
	saver := &recordingSaver{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	seeder := &api.Seeder{Saver: saver, Log: log}
	mux := api.NewRouter(api.NewHandler(&sabbatical.Engine{}, log), seeder)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/seed", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, saver.saved)
	for _, e := range saver.saved {
		assert.NotEmpty(t, e.Email, "seeded employee %v", e)
	}
}

func TestSeedNotMountedWithoutSeeder(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/api/seed", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
