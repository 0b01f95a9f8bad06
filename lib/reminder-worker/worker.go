package reminderworker

import (
	"context"
	"fmt"
	"time"

	"microloan-backend/config"
	"microloan-backend/db"
	approvalnotification "microloan-backend/lib/approval-notification"
	approvalrequeststore "microloan-backend/lib/approval-request/store"
	userrole "microloan-backend/lib/user-role"
	baseworker "microloan-backend/lib/utils/base-worker"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
)

// a request gets at most one reminder per period
const reminderPeriod = 24 * time.Hour

type Notifier interface {
	Notify(ctx context.Context, requestID string, notificationType models.NotificationType, recipients []string, title, message string, metadata map[string]any) error
	SentSince(ctx context.Context, requestID string, notificationType models.NotificationType, since time.Time) (bool, error)
}

type ReviewerPool interface {
	ReviewerPool(ctx context.Context) ([]string, error)
}

func StartWorker(ctx context.Context) {
	i := newWorker(approvalrequeststore.NewInstance(db.DB), approvalnotification.Instance, userrole.Instance,
		config.Conf.Workflow.ReminderAfter, config.Conf.Workflow.ReminderInterval, config.Conf.Workflow.StoreTimeout)
	go i.Run(ctx, i.handle)
}

func newWorker(store approvalrequeststore.Provider, notifier Notifier, reviewers ReviewerPool, remindAfter, interval, storeTimeout time.Duration) *impl {
	return &impl{
		BaseImpl:     *baseworker.NewInstance("ReminderWorker", time.Minute, interval),
		store:        store,
		notifier:     notifier,
		reviewers:    reviewers,
		remindAfter:  remindAfter,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

type impl struct {
	baseworker.BaseImpl
	store        approvalrequeststore.Provider
	notifier     Notifier
	reviewers    ReviewerPool
	remindAfter  time.Duration
	storeTimeout time.Duration
	now          func() time.Time
}

func (i impl) handle(ctx context.Context) {
	logger := i.GetLogger()
	now := i.now()
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	list, err := i.store.ListStale(storeCtx,
		[]models.RequestStatus{models.RequestStatusPending, models.RequestStatusUnderReview},
		now.Add(-i.remindAfter))
	cancel()
	if err != nil {
		logger.WithError(err).Error("failed to list stale approval requests")
		return
	}
	var pool []string
	poolLoaded := false
	for _, rec := range list {
		if helpers.IsContextDone(ctx) {
			break
		}
		recLogger := logger.WithField("approval_request_id", rec.ID)
		sent, err := i.notifier.SentSince(ctx, rec.ID, models.NotificationReminder, now.Add(-reminderPeriod))
		if err != nil {
			recLogger.WithError(err).Error("failed to check previous reminders")
			continue
		}
		if sent {
			continue
		}
		recipients := []string{helpers.DerefString(rec.AssignedTo)}
		if rec.AssignedTo == nil || *rec.AssignedTo == "" {
			if !poolLoaded {
				pool, err = i.reviewers.ReviewerPool(ctx)
				if err != nil {
					recLogger.WithError(err).Error("failed to load reviewer pool")
					return
				}
				poolLoaded = true
			}
			recipients = pool
		}
		waiting := now.Sub(rec.CreatedAt).Round(time.Hour)
		err = i.notifier.Notify(ctx, rec.ID, models.NotificationReminder, recipients,
			fmt.Sprintf("%s awaits review", rec.RequestType.ToHuman()),
			fmt.Sprintf("Request %s is %s for %s", rec.ID, rec.Status.ToHuman(), waiting),
			map[string]any{"status": rec.Status})
		if err != nil {
			recLogger.WithError(err).Error("failed to create reminder")
		}
	}
}
