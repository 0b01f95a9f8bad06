package events

import (
	"fmt"
	"time"

	"microloan-backend/models"
)

// RequestChangedEvent is published on every approval request creation and status change
type RequestChangedEvent struct {
	RequestID      string               `json:"request_id"`
	RequestType    models.RequestType   `json:"request_type"`
	UserID         string               `json:"user_id"`
	PreviousStatus models.RequestStatus `json:"previous_status,omitempty"`
	Status         models.RequestStatus `json:"status"`
	ChangedBy      string               `json:"changed_by"`
	Timestamp      time.Time            `json:"timestamp"`
}

func (e RequestChangedEvent) RoutingKey() string {
	return RoutingKey(e.RequestType, e.Status)
}

func RoutingKey(requestType models.RequestType, status models.RequestStatus) string {
	return fmt.Sprintf("approval_request.%s.%s", requestType, status)
}
