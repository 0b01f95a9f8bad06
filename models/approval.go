package models

type RequestType string

const (
	RequestTypeLoanApplication RequestType = "loan_application"
	RequestTypeKycDocument     RequestType = "kyc_document"
	RequestTypeProfileUpdate   RequestType = "profile_update"
	RequestTypePayment         RequestType = "payment"
	RequestTypeDocumentUpload  RequestType = "document_upload"
)

var requestTypeHumanName = map[RequestType]string{
	RequestTypeLoanApplication: "Loan application",
	RequestTypeKycDocument:     "KYC document",
	RequestTypeProfileUpdate:   "Profile update",
	RequestTypePayment:         "Payment",
	RequestTypeDocumentUpload:  "Document upload",
}

var RequestTypes = []RequestType{
	RequestTypeLoanApplication,
	RequestTypeKycDocument,
	RequestTypeProfileUpdate,
	RequestTypePayment,
	RequestTypeDocumentUpload,
}

func (t RequestType) ToHuman() string {
	if human, exist := requestTypeHumanName[t]; exist {
		return human
	}
	return string(t)
}

func (t RequestType) IsValid() bool {
	_, ok := requestTypeHumanName[t]
	return ok
}

type RequestStatus string

const (
	RequestStatusPending      RequestStatus = "pending"
	RequestStatusUnderReview  RequestStatus = "under_review"
	RequestStatusApproved     RequestStatus = "approved"
	RequestStatusRejected     RequestStatus = "rejected"
	RequestStatusRequiresInfo RequestStatus = "requires_info"
)

var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusUnderReview,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusRequiresInfo,
}

var requestStatusHumanName = map[RequestStatus]string{
	RequestStatusPending:      "Pending",
	RequestStatusUnderReview:  "Under review",
	RequestStatusApproved:     "Approved",
	RequestStatusRejected:     "Rejected",
	RequestStatusRequiresInfo: "Requires information",
}

// allowed status transitions, terminal statuses have no entry
var requestStatusTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {
		RequestStatusUnderReview,
		RequestStatusApproved,
		RequestStatusRejected,
		RequestStatusRequiresInfo,
	},
	RequestStatusUnderReview: {
		RequestStatusApproved,
		RequestStatusRejected,
		RequestStatusRequiresInfo,
	},
	RequestStatusRequiresInfo: {
		RequestStatusPending,
		RequestStatusUnderReview,
	},
}

func (s RequestStatus) ToHuman() string {
	if human, exist := requestStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s RequestStatus) IsValid() bool {
	_, ok := requestStatusHumanName[s]
	return ok
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) IsAllowChange(newStatus RequestStatus) bool {
	for _, allowed := range requestStatusTransitions[s] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

var RequestPriorities = []RequestPriority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p RequestPriority) IsValid() bool {
	for _, known := range RequestPriorities {
		if p == known {
			return true
		}
	}
	return false
}

type NotificationType string

const (
	NotificationNewRequest   NotificationType = "new_request"
	NotificationStatusUpdate NotificationType = "status_update"
	NotificationAssignment   NotificationType = "assignment"
	NotificationReminder     NotificationType = "reminder"
)

type ApplicationSource string

const (
	SourceApproval ApplicationSource = "approval"
	SourceLoan     ApplicationSource = "loan"
)

type LoanStatus string

const (
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusActive   LoanStatus = "active"
	LoanStatusRepaid   LoanStatus = "repaid"
)

type KycDocumentStatus string

const (
	KycDocumentPending  KycDocumentStatus = "pending"
	KycDocumentApproved KycDocumentStatus = "approved"
	KycDocumentRejected KycDocumentStatus = "rejected"
)

const LoansTable = "loans"
