/*
handlers.go - HTTP handlers for the sabbatical engine

PURPOSE:
  Translates HTTP requests into engine operations and engine errors into
  status codes. Handlers hold no business logic; every rule lives in the
  sabbatical package.

ACTOR IDENTITY:
  The caller identifies as the X-Actor-Email header. There is no
  authentication layer here; in production this header is set by the SSO
  proxy in front of the service. A request without the header is rejected
  with 400.

ERROR MAPPING:
  ErrNotFound                 -> 404
  ErrUnauthorized             -> 403
  ErrIneligible               -> 409
  ErrDuplicateActive          -> 409
  ErrInvalidTransition        -> 409
  ErrConcurrentModification   -> 409 (client should re-read and retry)
  ErrUnknownOption            -> 400
  ErrDirectoryUnavailable     -> 503 (retryable)
  anything else               -> 500

SEE ALSO:
  - server.go: routes
  - dto.go: wire types
  - sabbatical/errors.go: error taxonomy
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/sabbatical"
)

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	Engine *sabbatical.Engine
	Log    logrus.FieldLogger
}

// NewHandler creates a handler backed by the given engine.
func NewHandler(engine *sabbatical.Engine, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Engine: engine, Log: log}
}

const actorHeader = "X-Actor-Email"

func actor(r *http.Request) string {
	return r.Header.Get(actorHeader)
}

func (h *Handler) now() time.Time {
	if h.Engine.Now != nil {
		return h.Engine.Now()
	}
	return time.Now().UTC()
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// CreateApplication files a new application for the acting employee.
// POST /api/applications
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	who := actor(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "missing "+actorHeader+" header", nil)
		return
	}
	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD", err)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date, want YYYY-MM-DD", err)
		return
	}

	app, err := h.Engine.CreateApplication(r.Context(), sabbatical.CreateInput{
		EmployeeEmail: who,
		OptionKey:     req.OptionKey,
		StartDate:     start,
		EndDate:       end,
	})
	if err != nil {
		h.writeEngineError(w, "create application", err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationDTO(app))
}

// ListApplications lists applications the actor may see, with optional
// location and status filters.
// GET /api/applications?location=&status=
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	who := actor(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "missing "+actorHeader+" header", nil)
		return
	}
	filter := sabbatical.ApplicationFilter{
		Location: r.URL.Query().Get("location"),
		Status:   sabbatical.Status(r.URL.Query().Get("status")),
	}
	apps, err := h.Engine.ListApplications(r.Context(), who, filter)
	if err != nil {
		h.writeEngineError(w, "list applications", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTOs(apps))
}

// GetApplication returns one application after applying any date-driven
// transition. Visibility follows the plan-view rule: owner or any resolved
// access.
// GET /api/applications/{id}
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, err := h.Engine.GetApplication(r.Context(), id, actor(r))
	if err != nil {
		h.writeEngineError(w, "get application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(app))
}

// GetAccess reports the actor's resolved access for an application.
// GET /api/applications/{id}/access
func (h *Handler) GetAccess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acc, err := h.Engine.ResolvePermission(r.Context(), actor(r), id)
	if err != nil {
		h.writeEngineError(w, "resolve access", err)
		return
	}
	writeJSON(w, http.StatusOK, AccessDTO{
		Level:      acc.Level.String(),
		Location:   acc.Location,
		ReadOnly:   acc.ReadOnly,
		CanApprove: acc.CanApprove(),
	})
}

// ListSiteConflicts reports overlapping active applications at the same
// school. Advisory for reviewers; never blocks anything.
// GET /api/applications/{id}/conflicts
func (h *Handler) ListSiteConflicts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	apps, err := h.Engine.SiteConflicts(r.Context(), id, actor(r))
	if err != nil {
		h.writeEngineError(w, "list site conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTOs(apps))
}

// TransitionStatus moves an application to a new status.
// POST /api/applications/{id}/status
func (h *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	newStatus := sabbatical.Status(req.Status)
	if !newStatus.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status: "+req.Status, nil)
		return
	}
	app, err := h.Engine.TransitionStatus(r.Context(), id, newStatus, actor(r))
	if err != nil {
		h.writeEngineError(w, "transition status", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(app))
}

// DeleteApplication removes an application and all children. Admin only.
// DELETE /api/applications/{id}
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Engine.DeleteApplication(r.Context(), id, actor(r)); err != nil {
		h.writeEngineError(w, "delete application", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLAN
// =============================================================================

// GetPlanView returns the full plan bundle for reviewers and the owner.
// GET /api/applications/{id}/plan
func (h *Handler) GetPlanView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.Engine.GetPlanView(r.Context(), id, actor(r))
	if err != nil {
		h.writeEngineError(w, "get plan view", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanViewDTO(view))
}

// SubmitPlan submits the coverage plan to the supervisor chain.
// POST /api/applications/{id}/plan/submit
func (h *Handler) SubmitPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, records, err := h.Engine.SubmitPlan(r.Context(), id, actor(r))
	if err != nil {
		h.writeEngineError(w, "submit plan", err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitPlanResponse{
		Application: toApplicationDTO(app),
		Approvals:   toPlanApprovalDTOs(records),
	})
}

// RecordPlanDecision records the acting approver's verdict on the current
// round.
// POST /api/applications/{id}/plan/decision
func (h *Handler) RecordPlanDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PlanDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	app, err := h.Engine.RecordPlanApproval(r.Context(), id, actor(r), sabbatical.Decision(req.Decision), req.Notes)
	if err != nil {
		h.writeEngineError(w, "record plan decision", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(app))
}

// =============================================================================
// PLANNING CONTENT
// =============================================================================

// AddChecklistItem appends a custom checklist line.
// POST /api/applications/{id}/checklist
func (h *Handler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required", err)
		return
	}
	item, err := h.Engine.AddChecklistItem(r.Context(), id, actor(r), req.Label)
	if err != nil {
		h.writeEngineError(w, "add checklist item", err)
		return
	}
	writeJSON(w, http.StatusCreated, ChecklistItemDTO{ID: item.ID, Label: item.Label, Done: item.Done})
}

// SetChecklistItem toggles a checklist line.
// PUT /api/applications/{id}/checklist/{itemID}
func (h *Handler) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	var req ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	item, err := h.Engine.SetChecklistItemDone(r.Context(), id, itemID, actor(r), req.Done)
	if err != nil {
		h.writeEngineError(w, "set checklist item", err)
		return
	}
	writeJSON(w, http.StatusOK, ChecklistItemDTO{ID: item.ID, Label: item.Label, Done: item.Done})
}

// AddCoverage records who covers a responsibility during the leave.
// POST /api/applications/{id}/coverage
func (h *Handler) AddCoverage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Responsibility == "" {
		writeError(w, http.StatusBadRequest, "responsibility is required", err)
		return
	}
	a, err := h.Engine.AddCoverageAssignment(r.Context(), id, actor(r), req.Responsibility, req.CoveredBy, req.Notes)
	if err != nil {
		h.writeEngineError(w, "add coverage", err)
		return
	}
	writeJSON(w, http.StatusCreated, CoverageDTO{ID: a.ID, Responsibility: a.Responsibility, CoveredBy: a.CoveredBy, Notes: a.Notes})
}

// AddPlanLink attaches a document link.
// POST /api/applications/{id}/links
func (h *Handler) AddPlanLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req PlanLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", err)
		return
	}
	link, err := h.Engine.AddPlanLink(r.Context(), id, actor(r), req.Title, req.URL)
	if err != nil {
		h.writeEngineError(w, "add plan link", err)
		return
	}
	writeJSON(w, http.StatusCreated, PlanLinkDTO{
		ID: link.ID, Title: link.Title, URL: link.URL,
		AddedBy: link.AddedBy, AddedAt: link.AddedAt.Format(time.RFC3339),
	})
}

// PostMessage posts to the application thread.
// POST /api/applications/{id}/messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required", err)
		return
	}
	msg, err := h.Engine.PostMessage(r.Context(), id, actor(r), req.Body)
	if err != nil {
		h.writeEngineError(w, "post message", err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageDTO{
		ID: msg.ID, From: msg.From, Body: msg.Body, SentAt: msg.SentAt.Format(time.RFC3339),
	})
}

// =============================================================================
// DATE CHANGES
// =============================================================================

// RequestDateChange files a post-approval date amendment.
// POST /api/applications/{id}/date-changes
func (h *Handler) RequestDateChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req DateChangeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	start, err := time.Parse(dateLayout, req.NewStartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid new_start_date, want YYYY-MM-DD", err)
		return
	}
	end, err := time.Parse(dateLayout, req.NewEndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid new_end_date, want YYYY-MM-DD", err)
		return
	}
	dcr, err := h.Engine.RequestDateChange(r.Context(), id, actor(r), start, end, req.Reason)
	if err != nil {
		h.writeEngineError(w, "request date change", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDateChangeDTO(dcr))
}

// ListDateChanges lists date-change requests for an application.
// GET /api/applications/{id}/date-changes
func (h *Handler) ListDateChanges(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Visibility piggybacks on the plan view rule: owner or any resolved
	// access.
	if _, err := h.Engine.GetPlanView(r.Context(), id, actor(r)); err != nil {
		h.writeEngineError(w, "list date changes", err)
		return
	}
	reqs, err := h.Engine.Store.ListDateChanges(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "list date changes", err)
		return
	}
	dtos := make([]DateChangeDTO, len(reqs))
	for i, dcr := range reqs {
		dtos[i] = toDateChangeDTO(dcr)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DecideDateChange approves or denies a pending date change. Admin only.
// POST /api/date-changes/{id}/decision
func (h *Handler) DecideDateChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req DateChangeDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dcr, err := h.Engine.DecideDateChange(r.Context(), id, sabbatical.DateChangeDecision(req.Decision), actor(r))
	if err != nil {
		h.writeEngineError(w, "decide date change", err)
		return
	}
	writeJSON(w, http.StatusOK, toDateChangeDTO(dcr))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// GetEmployee returns a directory record with computed years of service.
// GET /api/employees/{email}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	emp, err := h.Engine.Directory.Lookup(r.Context(), h.Engine.Aliases.Resolve(email))
	if err != nil {
		if directory.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "employee not found", err)
			return
		}
		h.writeEngineError(w, "get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDTO{
		Email:          emp.Email,
		Name:           emp.Name,
		HireDate:       emp.HireDate.Format(dateLayout),
		JobTitle:       emp.JobTitle,
		Location:       emp.Location,
		ManagerEmail:   emp.ManagerEmail,
		YearsOfService: emp.YearsOfService(h.now()).Round(2).String(),
	})
}

// GetEligibility reports whether an employee may apply today.
// GET /api/employees/{email}/eligibility
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	emp, err := h.Engine.Directory.Lookup(r.Context(), h.Engine.Aliases.Resolve(email))
	if err != nil {
		if directory.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "employee not found", err)
			return
		}
		h.writeEngineError(w, "get eligibility", err)
		return
	}
	years := emp.YearsOfService(h.now())
	writeJSON(w, http.StatusOK, EligibilityDTO{
		Email:          emp.Email,
		Eligible:       !years.LessThan(h.Engine.Config.EligibilityYears),
		YearsOfService: years.Round(2).String(),
		RequiredYears:  h.Engine.Config.EligibilityYears.String(),
	})
}

// =============================================================================
// CATALOG
// =============================================================================

// ListOptions returns the sabbatical option catalog.
// GET /api/options
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	opts := make([]OptionDTO, 0, len(h.Engine.Config.Options))
	for key, opt := range h.Engine.Config.Options {
		opts = append(opts, OptionDTO{
			Key:              key,
			Weeks:            opt.Weeks,
			SalaryPercentage: opt.SalaryPercentage.String(),
			Label:            opt.Label,
		})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Key < opts[j].Key })
	writeJSON(w, http.StatusOK, opts)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps the engine's error taxonomy onto HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	code := ""
	switch {
	case sabbatical.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sabbatical.ErrUnauthorized):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, sabbatical.ErrUnknownOption):
		status, code = http.StatusBadRequest, "unknown_option"
	case errors.Is(err, sabbatical.ErrIneligible):
		status, code = http.StatusConflict, "ineligible"
	case errors.Is(err, sabbatical.ErrDuplicateActive):
		status, code = http.StatusConflict, "duplicate_active"
	case errors.Is(err, sabbatical.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, sabbatical.ErrConcurrentModification):
		status, code = http.StatusConflict, "concurrent_modification"
	case errors.Is(err, directory.ErrDirectoryUnavailable):
		status, code = http.StatusServiceUnavailable, "directory_unavailable"
	default:
		h.Log.WithError(err).WithField("op", op).Error("internal error")
	}
	resp := ErrorResponse{Error: err.Error(), Code: code}
	writeJSON(w, status, resp)
}
