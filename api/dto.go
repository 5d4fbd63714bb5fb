/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Start/end dates travel as "2006-01-02" strings; timestamps as RFC3339.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - sabbatical/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/firstline/sabbatical-engine/sabbatical"
)

const dateLayout = "2006-01-02"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateApplicationRequest is the body for filing a new application.
// The applicant is the actor header; there is no applying on behalf of
// someone else.
type CreateApplicationRequest struct {
	OptionKey string `json:"option_key"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// TransitionRequest moves an application to a new status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// PlanDecisionRequest records one approver's verdict on a submitted plan.
type PlanDecisionRequest struct {
	Decision string `json:"decision"` // "approve" or "request_changes"
	Notes    string `json:"notes,omitempty"`
}

// DateChangeRequestBody files a post-approval date amendment.
type DateChangeRequestBody struct {
	NewStartDate string `json:"new_start_date"`
	NewEndDate   string `json:"new_end_date"`
	Reason       string `json:"reason,omitempty"`
}

// DateChangeDecisionRequest decides a pending date change.
type DateChangeDecisionRequest struct {
	Decision string `json:"decision"` // "approve" or "deny"
}

// ChecklistItemRequest adds or updates a checklist item.
type ChecklistItemRequest struct {
	Label string `json:"label,omitempty"`
	Done  bool   `json:"done"`
}

// CoverageRequest adds a coverage assignment.
type CoverageRequest struct {
	Responsibility string `json:"responsibility"`
	CoveredBy      string `json:"covered_by,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// PlanLinkRequest attaches a document link to the plan.
type PlanLinkRequest struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// MessageRequest posts a message on the application thread.
type MessageRequest struct {
	Body string `json:"body"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ApplicationDTO represents an application in API responses.
type ApplicationDTO struct {
	ID               string `json:"id"`
	EmployeeEmail    string `json:"employee_email"`
	EmployeeName     string `json:"employee_name"`
	EmployeeLocation string `json:"employee_location"`
	JobTitle         string `json:"job_title"`
	Status           string `json:"status"`
	OptionKey        string `json:"option_key"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	YearsOfService   string `json:"years_of_service"`
	PlanRound        int    `json:"plan_round"`
	AdminNotes       string `json:"admin_notes,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// AccessDTO reports the actor's resolved access for an application.
type AccessDTO struct {
	Level      string `json:"level"`
	Location   string `json:"location,omitempty"`
	ReadOnly   bool   `json:"read_only"`
	CanApprove bool   `json:"can_approve"`
}

// PlanApprovalDTO represents one approver's record for a round.
type PlanApprovalDTO struct {
	ID            string `json:"id"`
	Round         int    `json:"round"`
	ApproverEmail string `json:"approver_email"`
	ApproverName  string `json:"approver_name,omitempty"`
	ApproverRole  string `json:"approver_role,omitempty"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	ApprovedAt    string `json:"approved_at,omitempty"`
}

// DateChangeDTO represents a date-change request.
type DateChangeDTO struct {
	ID               string `json:"id"`
	ApplicationID    string `json:"application_id"`
	RequestedBy      string `json:"requested_by"`
	RequestedAt      string `json:"requested_at"`
	OldStartDate     string `json:"old_start_date"`
	OldEndDate       string `json:"old_end_date"`
	NewStartDate     string `json:"new_start_date"`
	NewEndDate       string `json:"new_end_date"`
	Reason           string `json:"reason,omitempty"`
	Status           string `json:"status"`
	TalentApprovedBy string `json:"talent_approved_by,omitempty"`
	TalentApprovedAt string `json:"talent_approved_at,omitempty"`
}

// ChecklistItemDTO is one planning checklist line.
type ChecklistItemDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// CoverageDTO is one coverage assignment.
type CoverageDTO struct {
	ID             string `json:"id"`
	Responsibility string `json:"responsibility"`
	CoveredBy      string `json:"covered_by,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// PlanLinkDTO is one attached document link.
type PlanLinkDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	AddedBy string `json:"added_by"`
	AddedAt string `json:"added_at"`
}

// MessageDTO is one message on the application thread.
type MessageDTO struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	Body   string `json:"body"`
	SentAt string `json:"sent_at"`
}

// HistoryDTO is one audit line.
type HistoryDTO struct {
	At         string `json:"at"`
	ActorEmail string `json:"actor_email,omitempty"`
	ActorName  string `json:"actor_name,omitempty"`
	Action     string `json:"action"`
	Notes      string `json:"notes,omitempty"`
}

// PlanViewDTO bundles everything a reviewer sees about an application.
type PlanViewDTO struct {
	Application ApplicationDTO     `json:"application"`
	Checklist   []ChecklistItemDTO `json:"checklist"`
	Coverage    []CoverageDTO      `json:"coverage"`
	Links       []PlanLinkDTO      `json:"links"`
	Messages    []MessageDTO       `json:"messages"`
	Approvals   []PlanApprovalDTO  `json:"approvals"`
	History     []HistoryDTO       `json:"history"`
}

// SubmitPlanResponse returns the updated application and the fresh round.
type SubmitPlanResponse struct {
	Application ApplicationDTO    `json:"application"`
	Approvals   []PlanApprovalDTO `json:"approvals"`
}

// EmployeeDTO represents a directory record in API responses.
type EmployeeDTO struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	HireDate       string `json:"hire_date"`
	JobTitle       string `json:"job_title,omitempty"`
	Location       string `json:"location,omitempty"`
	ManagerEmail   string `json:"manager_email,omitempty"`
	YearsOfService string `json:"years_of_service"`
}

// EligibilityDTO reports whether an employee may apply today.
type EligibilityDTO struct {
	Email          string `json:"email"`
	Eligible       bool   `json:"eligible"`
	YearsOfService string `json:"years_of_service"`
	RequiredYears  string `json:"required_years"`
}

// OptionDTO describes one sabbatical option from the catalog.
type OptionDTO struct {
	Key              string `json:"key"`
	Weeks            int    `json:"weeks"`
	SalaryPercentage string `json:"salary_percentage"`
	Label            string `json:"label"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toApplicationDTO(app *sabbatical.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:               app.ID,
		EmployeeEmail:    app.EmployeeEmail,
		EmployeeName:     app.EmployeeName,
		EmployeeLocation: app.EmployeeLocation,
		JobTitle:         app.JobTitle,
		Status:           string(app.Status),
		OptionKey:        app.OptionKey,
		StartDate:        app.StartDate.Format(dateLayout),
		EndDate:          app.EndDate.Format(dateLayout),
		YearsOfService:   app.YearsOfService.Round(2).String(),
		PlanRound:        app.PlanRound,
		AdminNotes:       app.AdminNotes,
		CreatedAt:        app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        app.UpdatedAt.Format(time.RFC3339),
	}
}

func toApplicationDTOs(apps []*sabbatical.Application) []ApplicationDTO {
	dtos := make([]ApplicationDTO, len(apps))
	for i, app := range apps {
		dtos[i] = toApplicationDTO(app)
	}
	return dtos
}

func toPlanApprovalDTO(r *sabbatical.PlanApprovalRecord) PlanApprovalDTO {
	dto := PlanApprovalDTO{
		ID:            r.ID,
		Round:         r.Round,
		ApproverEmail: r.ApproverEmail,
		ApproverName:  r.ApproverName,
		ApproverRole:  r.ApproverRole,
		Status:        string(r.Status),
		Notes:         r.Notes,
	}
	if r.ApprovedAt != nil {
		dto.ApprovedAt = r.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

func toPlanApprovalDTOs(records []*sabbatical.PlanApprovalRecord) []PlanApprovalDTO {
	dtos := make([]PlanApprovalDTO, len(records))
	for i, r := range records {
		dtos[i] = toPlanApprovalDTO(r)
	}
	return dtos
}

func toDateChangeDTO(req *sabbatical.DateChangeRequest) DateChangeDTO {
	dto := DateChangeDTO{
		ID:               req.ID,
		ApplicationID:    req.ApplicationID,
		RequestedBy:      req.RequestedBy,
		RequestedAt:      req.RequestedAt.Format(time.RFC3339),
		OldStartDate:     req.OldStartDate.Format(dateLayout),
		OldEndDate:       req.OldEndDate.Format(dateLayout),
		NewStartDate:     req.NewStartDate.Format(dateLayout),
		NewEndDate:       req.NewEndDate.Format(dateLayout),
		Reason:           req.Reason,
		Status:           string(req.Status),
		TalentApprovedBy: req.TalentApprovedBy,
	}
	if req.TalentApprovedAt != nil {
		dto.TalentApprovedAt = req.TalentApprovedAt.Format(time.RFC3339)
	}
	return dto
}

func toPlanViewDTO(view *sabbatical.PlanView) PlanViewDTO {
	dto := PlanViewDTO{
		Application: toApplicationDTO(view.Application),
		Checklist:   []ChecklistItemDTO{},
		Coverage:    []CoverageDTO{},
		Links:       []PlanLinkDTO{},
		Messages:    []MessageDTO{},
		Approvals:   []PlanApprovalDTO{},
		History:     []HistoryDTO{},
	}
	for _, item := range view.Checklist {
		dto.Checklist = append(dto.Checklist, ChecklistItemDTO{ID: item.ID, Label: item.Label, Done: item.Done})
	}
	for _, c := range view.Coverage {
		dto.Coverage = append(dto.Coverage, CoverageDTO{ID: c.ID, Responsibility: c.Responsibility, CoveredBy: c.CoveredBy, Notes: c.Notes})
	}
	for _, l := range view.Links {
		dto.Links = append(dto.Links, PlanLinkDTO{
			ID: l.ID, Title: l.Title, URL: l.URL, AddedBy: l.AddedBy,
			AddedAt: l.AddedAt.Format(time.RFC3339),
		})
	}
	for _, m := range view.Messages {
		dto.Messages = append(dto.Messages, MessageDTO{
			ID: m.ID, From: m.From, Body: m.Body, SentAt: m.SentAt.Format(time.RFC3339),
		})
	}
	for _, r := range view.Approvals {
		dto.Approvals = append(dto.Approvals, toPlanApprovalDTO(r))
	}
	for _, h := range view.History {
		dto.History = append(dto.History, HistoryDTO{
			At: h.At.Format(time.RFC3339), ActorEmail: h.ActorEmail,
			ActorName: h.ActorName, Action: h.Action, Notes: h.Notes,
		})
	}
	return dto
}
