package approvalnotification

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	approvalnotificationstore "microloan-backend/lib/approval-notification/store"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/metrics"
	"microloan-backend/lib/utils/helpers"
	connectionhub "microloan-backend/lib/ws/hub/connection-hub"
	"microloan-backend/models"
	approvalapimodels "microloan-backend/models/api/approval"
	dbmodels "microloan-backend/models/db"
	wsmodels "microloan-backend/models/ws"
)

const listLimit = 200

type Provider interface {
	Notify(ctx context.Context, requestID string, notificationType models.NotificationType, recipients []string, title, message string, metadata map[string]any) error
	List(ctx context.Context, actor models.Actor, unreadOnly bool) ([]approvalapimodels.NotificationView, error)
	UnreadCount(ctx context.Context, actor models.Actor) (int64, error)
	MarkRead(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.NotificationView, error)
	MarkAllRead(ctx context.Context, actor models.Actor) (int64, error)
	SentSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error)
	PendingMessages(ctx context.Context, userID string) ([]wsmodels.ServerMessage, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(approvalnotificationstore.NewInstance(db.DB), config.Conf.Workflow.StoreTimeout)
}

func NewInstance(store approvalnotificationstore.Provider, storeTimeout time.Duration) Provider {
	return &impl{
		store:        store,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

type impl struct {
	store        approvalnotificationstore.Provider
	storeTimeout time.Duration
	now          func() time.Time
}

func (i impl) GetLogger(requestID string) *log.Entry {
	return log.WithField("approval_request_id", requestID)
}

func (i impl) Notify(ctx context.Context, requestID string, notificationType models.NotificationType, recipients []string, title, message string, metadata map[string]any) error {
	recipients = helpers.UniqueStrings(recipients...)
	if len(recipients) == 0 {
		return nil
	}
	sentAt := i.now()
	recs := make([]dbmodels.ApprovalNotification, 0, len(recipients))
	for _, recipientID := range recipients {
		recs = append(recs, dbmodels.ApprovalNotification{
			ApprovalRequestID: requestID,
			RecipientID:       recipientID,
			NotificationType:  notificationType,
			Title:             title,
			Message:           message,
			SentAt:            sentAt,
			Metadata:          metadata,
		})
	}
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	err := i.store.CreateBatch(storeCtx, recs)
	if err != nil {
		i.GetLogger(requestID).
			WithField("notification_type", notificationType).
			WithError(err).
			Error("failed to create notifications")
		return apperrors.FromStore(err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(notificationType)).Add(float64(len(recs)))
	for _, rec := range recs {
		push(rec)
	}
	return nil
}

func push(rec dbmodels.ApprovalNotification) {
	if connectionhub.Instance == nil {
		return
	}
	connectionhub.Instance.SendMessage(toServerMessage(rec))
}

func toServerMessage(rec dbmodels.ApprovalNotification) wsmodels.ServerMessage {
	return wsmodels.ServerMessage{
		ToUserID: rec.RecipientID,
		Time:     rec.SentAt.Format(time.RFC3339),
		Code:     wsmodels.CodeNotification,
		Msg:      rec.Title,
		Data:     approvalapimodels.NotificationConvert(rec),
	}
}

func (i impl) List(ctx context.Context, actor models.Actor, unreadOnly bool) ([]approvalapimodels.NotificationView, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	list, err := i.store.List(storeCtx, actor.UserID, unreadOnly, listLimit)
	if err != nil {
		log.WithField("user_id", actor.UserID).WithError(err).Error("failed to list notifications")
		return nil, apperrors.FromStore(err)
	}
	result := make([]approvalapimodels.NotificationView, 0, len(list))
	for _, rec := range list {
		result = append(result, approvalapimodels.NotificationConvert(rec))
	}
	return result, nil
}

func (i impl) UnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	count, err := i.store.UnreadCount(storeCtx, actor.UserID)
	if err != nil {
		return 0, apperrors.FromStore(err)
	}
	return count, nil
}

func (i impl) MarkRead(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.NotificationView, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	logger := log.WithField("user_id", actor.UserID).WithField("notification_id", id)
	rec, err := i.store.GetByID(storeCtx, id)
	if err != nil {
		logger.WithError(err).Error("failed to get notification")
		return nil, apperrors.FromStore(err)
	}
	if rec == nil || rec.RecipientID != actor.UserID {
		return nil, apperrors.ErrNotFound
	}
	if rec.IsRead {
		view := approvalapimodels.NotificationConvert(*rec)
		return &view, nil
	}
	updated, err := i.store.MarkRead(storeCtx, id, actor.UserID, i.now())
	if err != nil {
		logger.WithError(err).Error("failed to mark notification read")
		return nil, apperrors.FromStore(err)
	}
	if !updated {
		logger.Debug("notification was read concurrently")
	}
	rec, err = i.store.GetByID(storeCtx, id)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if rec == nil {
		return nil, apperrors.ErrNotFound
	}
	view := approvalapimodels.NotificationConvert(*rec)
	return &view, nil
}

func (i impl) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	updated, err := i.store.MarkAllRead(storeCtx, actor.UserID, i.now())
	if err != nil {
		log.WithField("user_id", actor.UserID).WithError(err).Error("failed to mark notifications read")
		return 0, apperrors.FromStore(err)
	}
	return updated, nil
}

func (i impl) SentSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	exists, err := i.store.ExistsSince(storeCtx, requestID, notificationType, since)
	return exists, apperrors.FromStore(err)
}

// PendingMessages replays unread notifications to a freshly connected websocket client
func (i impl) PendingMessages(ctx context.Context, userID string) ([]wsmodels.ServerMessage, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	list, err := i.store.List(storeCtx, userID, true, 20)
	if err != nil {
		return nil, err
	}
	result := make([]wsmodels.ServerMessage, 0, len(list))
	for k := len(list) - 1; k >= 0; k-- {
		result = append(result, toServerMessage(list[k]))
	}
	return result, nil
}
