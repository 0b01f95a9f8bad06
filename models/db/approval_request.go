package dbmodels

import (
	"time"

	"github.com/lib/pq"
	"microloan-backend/models"
)

type ApprovalRequest struct {
	BaseModel
	UserID              string                 `gorm:"type:varchar(36);index;not null"`
	RequestType         models.RequestType     `gorm:"type:varchar(32);index;not null"`
	RequestData         JSONMap                `gorm:"type:jsonb"`
	Status              models.RequestStatus   `gorm:"type:varchar(32);index;not null"`
	Priority            models.RequestPriority `gorm:"type:varchar(16);default:normal"`
	AssignedTo          *string                `gorm:"type:varchar(36);index"`
	RiskScore           *float64
	AutoApproveEligible bool
	ComplianceFlags     pq.StringArray `gorm:"type:text[]"`
	Notes               string
	ReferenceID         *string `gorm:"type:varchar(36)"`
	ReferenceTable      *string `gorm:"type:varchar(64)"`
	ReviewedAt          *time.Time
	ReviewerID          *string `gorm:"type:varchar(36)"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

type ApprovalRequestExt struct {
	ApprovalRequest
	SubmitterName  string
	SubmitterEmail string
}

type ApprovalWorkflowHistory struct {
	ID                string                `gorm:"primaryKey;default:uuid_generate_v4()"`
	ApprovalRequestID string                `gorm:"type:varchar(36);index;not null"`
	PreviousStatus    *models.RequestStatus `gorm:"type:varchar(32)"`
	NewStatus         models.RequestStatus  `gorm:"type:varchar(32);not null"`
	ChangedBy         string                `gorm:"type:varchar(36)"`
	ChangeReason      string
	ChangedAt         time.Time `gorm:"index"`
}

func (ApprovalWorkflowHistory) TableName() string {
	return "approval_workflow_history"
}

type ApprovalNotification struct {
	ID                string                  `gorm:"primaryKey;default:uuid_generate_v4()"`
	ApprovalRequestID string                  `gorm:"type:varchar(36);index"`
	RecipientID       string                  `gorm:"type:varchar(36);index;not null"`
	NotificationType  models.NotificationType `gorm:"type:varchar(32);not null"`
	Title             string
	Message           string
	IsRead            bool `gorm:"default:false;index"`
	SentAt            time.Time
	ReadAt            *time.Time
	Metadata          JSONMap `gorm:"type:jsonb"`
}

func (ApprovalNotification) TableName() string {
	return "approval_notifications"
}
