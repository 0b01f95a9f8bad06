package fundingworker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"microloan-backend/config"
	"microloan-backend/db"
	approvalrequeststore "microloan-backend/lib/approval-request/store"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/events"
	loanfunding "microloan-backend/lib/loan-funding"
	baseworker "microloan-backend/lib/utils/base-worker"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
	approvalapimodels "microloan-backend/models/api/approval"
)

const sweepBatch = 50

type Funder interface {
	Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error)
}

// StartWorker runs the sweeper that funds approved loan applications left without a loan
func StartWorker(ctx context.Context) {
	i := newWorker(approvalrequeststore.NewInstance(db.DB), loanfunding.Instance,
		config.Conf.Workflow.FundingSweepInterval, config.Conf.Workflow.StoreTimeout)
	go i.Run(ctx, i.handle)
}

// StartConsumer funds loan applications as soon as their approval event arrives
func StartConsumer(ctx context.Context, consumer *events.Consumer, queueName string) error {
	i := newWorker(nil, loanfunding.Instance, 0, config.Conf.Workflow.StoreTimeout)
	return consumer.ConsumeWithBindings(ctx, queueName, map[string]events.HandlerFunc{
		events.RoutingKey(models.RequestTypeLoanApplication, models.RequestStatusApproved): i.handleEvent,
	})
}

func newWorker(store approvalrequeststore.Provider, funder Funder, interval, storeTimeout time.Duration) *impl {
	return &impl{
		BaseImpl:     *baseworker.NewInstance("FundingWorker", 30*time.Second, interval),
		store:        store,
		funder:       funder,
		storeTimeout: storeTimeout,
		skipped:      map[string]struct{}{},
	}
}

type impl struct {
	baseworker.BaseImpl
	store        approvalrequeststore.Provider
	funder       Funder
	storeTimeout time.Duration
	// requests the sweeper cannot fund without a change of the request itself
	skipped map[string]struct{}
}

// isPermanent reports failures a retry of the same request cannot fix
func isPermanent(err error) bool {
	return errors.Is(err, apperrors.ErrNotApproved) || errors.Is(err, apperrors.ErrWrongType) ||
		errors.Is(err, apperrors.ErrNotFound) || apperrors.IsValidation(err)
}

func (i impl) handle(ctx context.Context) {
	logger := i.GetLogger()
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	list, err := i.store.ListUnfunded(storeCtx, sweepBatch+len(i.skipped))
	cancel()
	if err != nil {
		logger.WithError(err).Error("failed to list unfunded loan applications")
		return
	}
	for _, rec := range list {
		if helpers.IsContextDone(ctx) {
			break
		}
		if _, skip := i.skipped[rec.ID]; skip {
			continue
		}
		resp, err := i.funder.Process(ctx, rec.ID)
		if err != nil && isPermanent(err) {
			i.skipped[rec.ID] = struct{}{}
			logger.
				WithError(err).
				WithField("approval_request_id", rec.ID).
				Warn("sweeper skips loan application that cannot be funded")
			continue
		}
		if err != nil {
			logger.
				WithError(err).
				WithField("approval_request_id", rec.ID).
				Error("sweeper failed to fund loan application")
			continue
		}
		logger.
			WithField("approval_request_id", rec.ID).
			WithField("loan_id", resp.LoanID).
			Info("sweeper funded loan application")
	}
}

// handleEvent returns false only for failures worth a redelivery
func (i impl) handleEvent(ctx context.Context, body []byte) bool {
	logger := i.GetLogger()
	event := events.RequestChangedEvent{}
	if err := json.Unmarshal(body, &event); err != nil {
		logger.WithError(err).Warn("malformed request changed event dropped")
		return true
	}
	logger = logger.WithField("approval_request_id", event.RequestID)
	resp, err := i.funder.Process(ctx, event.RequestID)
	if err != nil {
		if apperrors.IsTransient(err) {
			logger.WithError(err).Warn("funding failed temporarily")
			return false
		}
		if isPermanent(err) {
			logger.WithError(err).Warn("funding event skipped")
			return true
		}
		logger.WithError(err).Error("funding from event failed")
		return true
	}
	logger.WithField("loan_id", resp.LoanID).
		WithField("already_processed", resp.AlreadyProcessed).
		Info("funding event handled")
	return true
}
