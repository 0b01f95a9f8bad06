package approvalapimodels

import (
	"time"

	"microloan-backend/models"
	dbmodels "microloan-backend/models/db"
)

type NotificationView struct {
	ID                string                  `json:"id"`
	ApprovalRequestID string                  `json:"approval_request_id"`
	NotificationType  models.NotificationType `json:"notification_type"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	IsRead            bool                    `json:"is_read"`
	SentAt            time.Time               `json:"sent_at"`
	ReadAt            *time.Time              `json:"read_at"`
	Metadata          map[string]any          `json:"metadata"`
}

func NotificationConvert(rec dbmodels.ApprovalNotification) NotificationView {
	return NotificationView{
		ID:                rec.ID,
		ApprovalRequestID: rec.ApprovalRequestID,
		NotificationType:  rec.NotificationType,
		Title:             rec.Title,
		Message:           rec.Message,
		IsRead:            rec.IsRead,
		SentAt:            rec.SentAt,
		ReadAt:            rec.ReadAt,
		Metadata:          rec.Metadata,
	}
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

type MarkAllReadResult struct {
	Updated int64 `json:"updated"`
}
