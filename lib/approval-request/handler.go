package approvalrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	approvalnotification "microloan-backend/lib/approval-notification"
	historystore "microloan-backend/lib/approval-request/history-store"
	approvalrequeststore "microloan-backend/lib/approval-request/store"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/events"
	"microloan-backend/lib/kyc"
	loanfunding "microloan-backend/lib/loan-funding"
	"microloan-backend/lib/metrics"
	payloadschema "microloan-backend/lib/payload-schema"
	userrole "microloan-backend/lib/user-role"
	"microloan-backend/lib/utils/helpers"
	connectionhub "microloan-backend/lib/ws/hub/connection-hub"
	"microloan-backend/models"
	approvalapimodels "microloan-backend/models/api/approval"
	dbmodels "microloan-backend/models/db"
	wsmodels "microloan-backend/models/ws"
)

type Provider interface {
	Submit(ctx context.Context, actor models.Actor, request approvalapimodels.SubmitRequest) (id string, err error)
	List(ctx context.Context, actor models.Actor, filter approvalapimodels.ListFilter) ([]approvalapimodels.RequestView, error)
	Get(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.RequestView, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, request approvalapimodels.UpdateStatusRequest) (*approvalapimodels.RequestView, error)
	Assign(ctx context.Context, actor models.Actor, id string, assigneeID string) (*approvalapimodels.RequestView, error)
	History(ctx context.Context, actor models.Actor, id string) ([]approvalapimodels.HistoryView, error)
	Statistics(ctx context.Context, actor models.Actor) (*approvalapimodels.Statistics, error)
	Process(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.ProcessResponse, error)
}

type Notifier interface {
	Notify(ctx context.Context, requestID string, notificationType models.NotificationType, recipients []string, title, message string, metadata map[string]any) error
}

type ReviewerPool interface {
	ReviewerPool(ctx context.Context) ([]string, error)
}

type Funder interface {
	Process(ctx context.Context, requestID string) (*approvalapimodels.ProcessResponse, error)
}

type KycApprover interface {
	ApproveDocument(ctx context.Context, requestID, userID, documentID string) error
}

type Pusher interface {
	SendMessage(msg wsmodels.ServerMessage)
}

// Deps are the collaborators of the approval request service. Publisher and Pusher are optional.
type Deps struct {
	Store        approvalrequeststore.Provider
	HistoryStore historystore.Provider
	Validator    payloadschema.Validator
	Notifier     Notifier
	Reviewers    ReviewerPool
	Funder       Funder
	Kyc          KycApprover
	Publisher    events.Publisher
	Pusher       Pusher
	StoreTimeout time.Duration
}

var Instance Provider

func NewHandler(validator payloadschema.Validator) {
	deps := Deps{
		Store:        approvalrequeststore.NewInstance(db.DB),
		HistoryStore: historystore.NewInstance(db.DB),
		Validator:    validator,
		Notifier:     approvalnotification.Instance,
		Reviewers:    userrole.Instance,
		Funder:       loanfunding.Instance,
		Kyc:          kyc.Instance,
		Publisher:    events.Instance,
		StoreTimeout: config.Conf.Workflow.StoreTimeout,
	}
	if connectionhub.Instance != nil {
		deps.Pusher = connectionhub.Instance
	}
	Instance = NewInstance(deps)
}

func NewInstance(deps Deps) Provider {
	return &impl{
		Deps: deps,
		now:  time.Now,
	}
}

type impl struct {
	Deps
	now func() time.Time
}

func (i impl) GetLogger(actor models.Actor, requestID string) *log.Entry {
	logger := log.WithField("user_id", actor.UserID)
	if requestID != "" {
		logger = logger.WithField("approval_request_id", requestID)
	}
	return logger
}

func (i impl) Submit(ctx context.Context, actor models.Actor, request approvalapimodels.SubmitRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", &apperrors.ValidationError{Msg: err.Error()}
	}
	if err := i.Validator.Validate(request.RequestType, request.RequestData); err != nil {
		return "", err
	}
	priority := request.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	now := i.now()
	rec := dbmodels.ApprovalRequest{
		UserID:      actor.UserID,
		RequestType: request.RequestType,
		RequestData: request.RequestData,
		Status:      models.RequestStatusPending,
		Priority:    priority,
	}
	history := dbmodels.ApprovalWorkflowHistory{
		NewStatus:    models.RequestStatusPending,
		ChangedBy:    actor.UserID,
		ChangeReason: "submitted",
		ChangedAt:    now,
	}
	logger := i.GetLogger(actor, "").WithField("request_type", request.RequestType)

	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	id, err := i.Store.Create(storeCtx, rec, history)
	if err != nil {
		logger.WithError(err).Error("failed to create approval request")
		return "", apperrors.FromStore(err)
	}
	rec.ID = id
	logger = logger.WithField("approval_request_id", id)
	logger.Info("approval request submitted")
	metrics.RequestsSubmitted.WithLabelValues(string(request.RequestType)).Inc()

	reviewers, err := i.Reviewers.ReviewerPool(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed to load reviewer pool")
	} else {
		title := fmt.Sprintf("New %s", request.RequestType.ToHuman())
		message := fmt.Sprintf("%s submitted a new %s", helpers.PlaceholderName(actor.UserID), request.RequestType.ToHuman())
		err = i.Notifier.Notify(ctx, id, models.NotificationNewRequest, reviewers, title, message, map[string]any{
			"request_type": request.RequestType,
			"priority":     priority,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to notify reviewers")
		}
	}
	i.publish(ctx, rec, "", actor.UserID)
	return id, nil
}

func (i impl) List(ctx context.Context, actor models.Actor, filter approvalapimodels.ListFilter) ([]approvalapimodels.RequestView, error) {
	storeFilter := approvalrequeststore.Filter{
		Status:     filter.Status,
		Type:       filter.Type,
		Priority:   filter.Priority,
		AssignedTo: filter.AssignedTo,
		UserID:     filter.UserID,
	}
	if !actor.IsReviewer() {
		storeFilter.UserID = actor.UserID
	}
	logger := i.GetLogger(actor, "")
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()

	extList, err := i.Store.ListExt(storeCtx, storeFilter)
	if err == nil {
		result := make([]approvalapimodels.RequestView, 0, len(extList))
		for _, rec := range extList {
			result = append(result, approvalapimodels.RequestExtConvert(rec))
		}
		return result, nil
	}
	logger.WithError(err).Warn("submitter enrichment failed, listing bare requests")

	list, err := i.Store.List(storeCtx, storeFilter)
	if err != nil {
		logger.WithError(err).Error("failed to list approval requests")
		return nil, apperrors.FromStore(err)
	}
	result := make([]approvalapimodels.RequestView, 0, len(list))
	for _, rec := range list {
		result = append(result, approvalapimodels.RequestConvert(rec))
	}
	return result, nil
}

func (i impl) Get(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.RequestView, error) {
	rec, err := i.getAccessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := approvalapimodels.RequestConvert(*rec)
	return &view, nil
}

// getAccessible hides requests of other users from non reviewers
func (i impl) getAccessible(ctx context.Context, actor models.Actor, id string) (*dbmodels.ApprovalRequest, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	rec, err := i.Store.GetByID(storeCtx, id)
	if err != nil {
		i.GetLogger(actor, id).WithError(err).Error("failed to get approval request")
		return nil, apperrors.FromStore(err)
	}
	if rec == nil {
		return nil, apperrors.ErrNotFound
	}
	if !actor.IsReviewer() && rec.UserID != actor.UserID {
		return nil, apperrors.ErrNotFound
	}
	return rec, nil
}

func (i impl) UpdateStatus(ctx context.Context, actor models.Actor, id string, request approvalapimodels.UpdateStatusRequest) (*approvalapimodels.RequestView, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrForbidden
	}
	if err := request.Validate(); err != nil {
		return nil, &apperrors.ValidationError{Msg: err.Error()}
	}
	logger := i.GetLogger(actor, id).WithField("new_status", request.Status)

	var previous models.RequestStatus
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	rec, err := i.Store.MutateLocked(storeCtx, id, func(current dbmodels.ApprovalRequest) (map[string]interface{}, *dbmodels.ApprovalWorkflowHistory, error) {
		if !current.Status.IsAllowChange(request.Status) {
			return nil, nil, &apperrors.InvalidTransitionError{From: current.Status, To: request.Status}
		}
		previous = current.Status
		now := i.now()
		updMap := map[string]interface{}{
			"status": request.Status,
		}
		if request.Notes != "" {
			updMap["notes"] = request.Notes
		}
		if request.AssignedTo != nil {
			if *request.AssignedTo == "" {
				updMap["assigned_to"] = nil
			} else {
				updMap["assigned_to"] = *request.AssignedTo
			}
		}
		if request.Status.IsTerminal() {
			updMap["reviewed_at"] = now
			updMap["reviewer_id"] = actor.UserID
		}
		prevStatus := current.Status
		history := &dbmodels.ApprovalWorkflowHistory{
			PreviousStatus: &prevStatus,
			NewStatus:      request.Status,
			ChangedBy:      actor.UserID,
			ChangeReason:   request.Notes,
			ChangedAt:      now,
		}
		return updMap, history, nil
	})
	if err != nil {
		var transition *apperrors.InvalidTransitionError
		if errors.As(err, &transition) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		logger.WithError(err).Error("failed to update approval request status")
		return nil, apperrors.FromStore(err)
	}
	logger.WithField("previous_status", previous).Info("approval request status changed")
	metrics.StatusTransitions.WithLabelValues(string(previous), string(request.Status)).Inc()

	recipients := []string{rec.UserID, helpers.DerefString(rec.AssignedTo)}
	title := fmt.Sprintf("%s: %s", rec.RequestType.ToHuman(), request.Status.ToHuman())
	message := fmt.Sprintf("Status changed from %s to %s", previous.ToHuman(), request.Status.ToHuman())
	if request.Notes != "" {
		message += ": " + request.Notes
	}
	err = i.Notifier.Notify(ctx, rec.ID, models.NotificationStatusUpdate, recipients, title, message, map[string]any{
		"previous_status": previous,
		"status":          request.Status,
	})
	if err != nil {
		logger.WithError(err).Warn("failed to notify about status change")
	}
	i.publish(ctx, *rec, previous, actor.UserID)
	i.pushChange(*rec, recipients...)

	if request.Status == models.RequestStatusApproved {
		i.afterApproval(ctx, rec)
	}
	view := approvalapimodels.RequestConvert(*rec)
	return &view, nil
}

// afterApproval runs the downstream effect of an approved request. Failures are logged only,
// the approval stands and the funding sweeper retries unfunded loan applications.
func (i impl) afterApproval(ctx context.Context, rec *dbmodels.ApprovalRequest) {
	logger := log.
		WithField("approval_request_id", rec.ID).
		WithField("request_type", rec.RequestType)
	switch rec.RequestType {
	case models.RequestTypeLoanApplication:
		if i.Funder == nil {
			return
		}
		resp, err := i.Funder.Process(ctx, rec.ID)
		if err != nil {
			logger.WithError(err).Error("loan funding after approval failed")
			return
		}
		rec.ReferenceID = helpers.StringPtr(resp.LoanID)
		rec.ReferenceTable = helpers.StringPtr(models.LoansTable)
	case models.RequestTypeKycDocument:
		if i.Kyc == nil {
			return
		}
		documentID := rec.RequestData.GetString("document_id")
		if documentID == "" {
			logger.Warn("approved kyc request has no document_id")
			return
		}
		if err := i.Kyc.ApproveDocument(ctx, rec.ID, rec.UserID, documentID); err != nil {
			logger.WithError(err).Error("kyc approval after request approval failed")
		}
	}
}

func (i impl) Assign(ctx context.Context, actor models.Actor, id string, assigneeID string) (*approvalapimodels.RequestView, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrForbidden
	}
	if err := (approvalapimodels.AssignRequest{AssigneeID: assigneeID}).Validate(); err != nil {
		return nil, &apperrors.ValidationError{Msg: err.Error()}
	}
	logger := i.GetLogger(actor, id).WithField("assignee_id", assigneeID)
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	rec, err := i.Store.MutateLocked(storeCtx, id, func(current dbmodels.ApprovalRequest) (map[string]interface{}, *dbmodels.ApprovalWorkflowHistory, error) {
		if current.Status.IsTerminal() {
			return nil, nil, apperrors.NewValidation("request in status %s can not be assigned", current.Status)
		}
		return map[string]interface{}{"assigned_to": assigneeID}, nil, nil
	})
	if err != nil {
		if apperrors.IsValidation(err) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		logger.WithError(err).Error("failed to assign approval request")
		return nil, apperrors.FromStore(err)
	}
	logger.Info("approval request assigned")

	title := fmt.Sprintf("%s assigned to you", rec.RequestType.ToHuman())
	message := fmt.Sprintf("You are assigned to review request %s", rec.ID)
	err = i.Notifier.Notify(ctx, rec.ID, models.NotificationAssignment, []string{assigneeID}, title, message, map[string]any{
		"assigned_by": actor.UserID,
	})
	if err != nil {
		logger.WithError(err).Warn("failed to notify assignee")
	}
	i.pushChange(*rec, rec.UserID, assigneeID)
	view := approvalapimodels.RequestConvert(*rec)
	return &view, nil
}

func (i impl) History(ctx context.Context, actor models.Actor, id string) ([]approvalapimodels.HistoryView, error) {
	if _, err := i.getAccessible(ctx, actor, id); err != nil {
		return nil, err
	}
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	list, err := i.HistoryStore.List(storeCtx, id)
	if err != nil {
		i.GetLogger(actor, id).WithError(err).Error("failed to list workflow history")
		return nil, apperrors.FromStore(err)
	}
	result := make([]approvalapimodels.HistoryView, 0, len(list))
	for _, rec := range list {
		result = append(result, approvalapimodels.HistoryConvert(rec))
	}
	return result, nil
}

func (i impl) Statistics(ctx context.Context, actor models.Actor) (*approvalapimodels.Statistics, error) {
	filter := approvalrequeststore.Filter{}
	if !actor.IsReviewer() {
		filter.UserID = actor.UserID
	}
	storeCtx, cancel := helpers.WithTimeout(ctx, i.StoreTimeout)
	defer cancel()
	rows, err := i.Store.StatRows(storeCtx, filter)
	if err != nil {
		i.GetLogger(actor, "").WithError(err).Error("failed to load statistics")
		return nil, apperrors.FromStore(err)
	}
	stat := calcStatistics(rows)
	return &stat, nil
}

func calcStatistics(rows []approvalrequeststore.StatRow) approvalapimodels.Statistics {
	stat := approvalapimodels.Statistics{
		ByType:     map[models.RequestType]int{},
		ByPriority: map[models.RequestPriority]int{},
	}
	var totalHours float64
	var reviewed int
	for _, row := range rows {
		stat.Total++
		switch row.Status {
		case models.RequestStatusPending:
			stat.Pending++
		case models.RequestStatusUnderReview:
			stat.UnderReview++
		case models.RequestStatusRequiresInfo:
			stat.RequiresInfo++
		case models.RequestStatusApproved:
			stat.Approved++
		case models.RequestStatusRejected:
			stat.Rejected++
		}
		stat.ByType[row.RequestType]++
		if row.Priority != "" {
			stat.ByPriority[row.Priority]++
		}
		if row.ReviewedAt != nil {
			totalHours += row.ReviewedAt.Sub(row.CreatedAt).Hours()
			reviewed++
		}
	}
	if reviewed > 0 {
		stat.AvgProcessingTimeHours = totalHours / float64(reviewed)
	}
	return stat
}

func (i impl) Process(ctx context.Context, actor models.Actor, id string) (*approvalapimodels.ProcessResponse, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrForbidden
	}
	if i.Funder == nil {
		return nil, errors.New("loan funding is not configured")
	}
	return i.Funder.Process(ctx, id)
}

func (i impl) publish(ctx context.Context, rec dbmodels.ApprovalRequest, previous models.RequestStatus, changedBy string) {
	if i.Publisher == nil {
		return
	}
	event := events.RequestChangedEvent{
		RequestID:      rec.ID,
		RequestType:    rec.RequestType,
		UserID:         rec.UserID,
		PreviousStatus: previous,
		Status:         rec.Status,
		ChangedBy:      changedBy,
		Timestamp:      i.now(),
	}
	if err := i.Publisher.PublishRequestChanged(ctx, event); err != nil {
		log.WithField("approval_request_id", rec.ID).
			WithError(err).
			Warn("failed to publish request changed event")
	}
}

func (i impl) pushChange(rec dbmodels.ApprovalRequest, userIDs ...string) {
	if i.Pusher == nil {
		return
	}
	for _, userID := range helpers.UniqueStrings(userIDs...) {
		i.Pusher.SendMessage(wsmodels.ServerMessage{
			ToUserID: userID,
			Time:     i.now().Format(time.RFC3339),
			Code:     wsmodels.CodeRequestChanged,
			Msg:      rec.Status.ToHuman(),
			Data: map[string]any{
				"id":     rec.ID,
				"status": rec.Status,
			},
		})
	}
}
