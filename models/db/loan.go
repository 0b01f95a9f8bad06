package dbmodels

import (
	"time"

	"microloan-backend/models"
)

type Loan struct {
	ID                string  `gorm:"primaryKey;type:varchar(36)"`
	UserID            string  `gorm:"type:varchar(36);index;not null"`
	Amount            float64 `gorm:"not null"`
	TermMonths        int     `gorm:"not null"`
	InterestRate      float64
	MonthlyPayment    float64
	TotalRepayment    float64
	Purpose           string
	Status            models.LoanStatus `gorm:"type:varchar(32)"`
	ApprovalRequestID *string           `gorm:"type:varchar(36);uniqueIndex"`
	CreatedAt         time.Time         `gorm:"index"`
}

func (Loan) TableName() string {
	return "loans"
}

type Profile struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	FullName    string
	Email       string
	KycVerified bool `gorm:"default:false"`
}

func (Profile) TableName() string {
	return "profiles"
}

type KycDocument struct {
	BaseModel
	UserID       string                   `gorm:"type:varchar(36);index;not null"`
	DocumentType string                   `gorm:"type:varchar(64)"`
	Status       models.KycDocumentStatus `gorm:"type:varchar(32)"`
	StorageKey   string
}

func (KycDocument) TableName() string {
	return "kyc_documents"
}

type UserRole struct {
	ID        string          `gorm:"primaryKey;default:uuid_generate_v4()"`
	UserID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_role"`
	Role      models.UserRole `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_role"`
	CreatedAt time.Time
}

func (UserRole) TableName() string {
	return "user_roles"
}

// UnifiedApplication is a row of the unified_loan_applications view
type UnifiedApplication struct {
	Source     models.ApplicationSource
	ID         string
	RequestID  *string
	LoanID     *string
	UserID     string
	Amount     float64
	TermMonths int
	Purpose    string
	Status     string
	Priority   *string
	CreatedAt  time.Time
}

func (UnifiedApplication) TableName() string {
	return "unified_loan_applications"
}
