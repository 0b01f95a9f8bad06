package approvalapimodels

import (
	"time"

	"github.com/pkg/errors"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type SubmitRequest struct {
	RequestType models.RequestType     `json:"request_type"` // loan_application, kyc_document, profile_update, payment, document_upload
	RequestData map[string]any         `json:"request_data"` // type specific payload
	Priority    models.RequestPriority `json:"priority"`     // low, normal, high, urgent; normal when empty
}

func (r SubmitRequest) Validate() error {
	if !r.RequestType.IsValid() {
		return errors.Errorf("unknown request type %q", r.RequestType)
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return errors.Errorf("unknown priority %q", r.Priority)
	}
	return nil
}

type ListFilter struct {
	Status     models.RequestStatus   `json:"status"`
	Type       models.RequestType     `json:"request_type"`
	Priority   models.RequestPriority `json:"priority"`
	AssignedTo string                 `json:"assigned_to"`
	UserID     string                 `json:"user_id"`
}

type UpdateStatusRequest struct {
	Status     models.RequestStatus `json:"status"`
	Notes      string               `json:"notes"`
	AssignedTo *string              `json:"assigned_to"` // optional reassignment
}

func (r UpdateStatusRequest) Validate() error {
	if !r.Status.IsValid() {
		return errors.Errorf("unknown status %q", r.Status)
	}
	return nil
}

type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

func (r AssignRequest) Validate() error {
	if r.AssigneeID == "" {
		return errors.New("assignee_id is required")
	}
	return nil
}

type SubmitResponse struct {
	ID string `json:"id"`
}

type RequestView struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	SubmitterName       string                 `json:"submitter_name"`
	SubmitterEmail      string                 `json:"submitter_email"`
	RequestType         models.RequestType     `json:"request_type"`
	RequestTypeName     string                 `json:"request_type_name"`
	RequestData         map[string]any         `json:"request_data"`
	Status              models.RequestStatus   `json:"status"`
	StatusName          string                 `json:"status_name"`
	Priority            models.RequestPriority `json:"priority"`
	AssignedTo          *string                `json:"assigned_to"`
	RiskScore           *float64               `json:"risk_score"`
	AutoApproveEligible bool                   `json:"auto_approve_eligible"`
	ComplianceFlags     []string               `json:"compliance_flags"`
	Notes               string                 `json:"notes"`
	ReferenceID         *string                `json:"reference_id"`
	ReferenceTable      *string                `json:"reference_table"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
	ReviewedAt          *time.Time             `json:"reviewed_at"`
	ReviewerID          *string                `json:"reviewer_id"`
}

func RequestConvert(rec dbmodels.ApprovalRequest) RequestView {
	flags := []string(rec.ComplianceFlags)
	if flags == nil {
		flags = []string{}
	}
	return RequestView{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		SubmitterName:       helpers.PlaceholderName(rec.UserID),
		RequestType:         rec.RequestType,
		RequestTypeName:     rec.RequestType.ToHuman(),
		RequestData:         rec.RequestData,
		Status:              rec.Status,
		StatusName:          rec.Status.ToHuman(),
		Priority:            rec.Priority,
		AssignedTo:          rec.AssignedTo,
		RiskScore:           rec.RiskScore,
		AutoApproveEligible: rec.AutoApproveEligible,
		ComplianceFlags:     flags,
		Notes:               rec.Notes,
		ReferenceID:         rec.ReferenceID,
		ReferenceTable:      rec.ReferenceTable,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
		ReviewedAt:          rec.ReviewedAt,
		ReviewerID:          rec.ReviewerID,
	}
}

func RequestExtConvert(rec dbmodels.ApprovalRequestExt) RequestView {
	view := RequestConvert(rec.ApprovalRequest)
	if rec.SubmitterName != "" {
		view.SubmitterName = rec.SubmitterName
	}
	view.SubmitterEmail = rec.SubmitterEmail
	return view
}

type HistoryView struct {
	ID             string                `json:"id"`
	PreviousStatus *models.RequestStatus `json:"previous_status"`
	NewStatus      models.RequestStatus  `json:"new_status"`
	ChangedBy      string                `json:"changed_by"`
	ChangeReason   string                `json:"change_reason"`
	ChangedAt      time.Time             `json:"changed_at"`
}

func HistoryConvert(rec dbmodels.ApprovalWorkflowHistory) HistoryView {
	return HistoryView{
		ID:             rec.ID,
		PreviousStatus: rec.PreviousStatus,
		NewStatus:      rec.NewStatus,
		ChangedBy:      rec.ChangedBy,
		ChangeReason:   rec.ChangeReason,
		ChangedAt:      rec.ChangedAt,
	}
}

type Statistics struct {
	Total                  int                            `json:"total"`
	Pending                int                            `json:"pending"`
	UnderReview            int                            `json:"under_review"`
	RequiresInfo           int                            `json:"requires_info"`
	Approved               int                            `json:"approved"`
	Rejected               int                            `json:"rejected"`
	ByType                 map[models.RequestType]int     `json:"by_type"`
	ByPriority             map[models.RequestPriority]int `json:"by_priority"`
	AvgProcessingTimeHours float64                        `json:"avg_processing_time_hours"`
}

type ProcessResponse struct {
	LoanID           string `json:"loan_id"`
	AlreadyProcessed bool   `json:"already_processed"`
}
