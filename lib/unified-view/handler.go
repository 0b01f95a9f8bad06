package unifiedview

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	"microloan-backend/lib/apperrors"
	xlsexport "microloan-backend/lib/export/xls"
	unifiedviewstore "microloan-backend/lib/unified-view/store"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/models"
	applicationapimodels "microloan-backend/models/api/application"
	dbmodels "microloan-backend/models/db"
)

type Provider interface {
	List(ctx context.Context, actor models.Actor, filter applicationapimodels.Filter) (list []applicationapimodels.ApplicationView, rowCount int64, err error)
	Export(ctx context.Context, actor models.Actor, filter applicationapimodels.Filter) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(unifiedviewstore.NewInstance(db.DB), xlsexport.Instance,
		*config.Conf.Workflow.UnifiedViewEnabled, config.Conf.Workflow.StoreTimeout)
}

func NewInstance(store unifiedviewstore.Provider, exporter xlsexport.Provider, viewEnabled bool, storeTimeout time.Duration) Provider {
	return &impl{
		store:        store,
		exporter:     exporter,
		viewEnabled:  viewEnabled,
		storeTimeout: storeTimeout,
	}
}

type impl struct {
	store        unifiedviewstore.Provider
	exporter     xlsexport.Provider
	viewEnabled  bool
	storeTimeout time.Duration
}

func (i impl) GetLogger(actor models.Actor) *log.Entry {
	return log.WithField("user_id", actor.UserID)
}

func (i impl) List(ctx context.Context, actor models.Actor, filter applicationapimodels.Filter) ([]applicationapimodels.ApplicationView, int64, error) {
	all, err := i.load(ctx, actor, filter)
	if err != nil {
		return nil, 0, err
	}
	from, to := filter.Slice(len(all))
	return all[from:to], int64(len(all)), nil
}

func (i impl) Export(ctx context.Context, actor models.Actor, filter applicationapimodels.Filter) (*bytes.Buffer, error) {
	all, err := i.load(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	buf, err := i.exporter.ExportApplications(all)
	if err != nil {
		i.GetLogger(actor).WithError(err).Error("failed to export applications")
		return nil, err
	}
	return buf, nil
}

func (i impl) load(ctx context.Context, actor models.Actor, filter applicationapimodels.Filter) ([]applicationapimodels.ApplicationView, error) {
	if !actor.IsReviewer() {
		return nil, apperrors.ErrForbidden
	}
	if err := filter.Validate(); err != nil {
		return nil, &apperrors.ValidationError{Msg: err.Error()}
	}
	logger := i.GetLogger(actor)
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()

	rows, err := i.loadRows(storeCtx, logger)
	if err != nil {
		logger.WithError(err).Error("failed to load loan applications")
		return nil, apperrors.FromStore(err)
	}
	views := i.enrich(storeCtx, logger, rows)
	result := make([]applicationapimodels.ApplicationView, 0, len(views))
	for _, view := range views {
		if match(view, filter) {
			result = append(result, view)
		}
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].CreatedAt.After(result[b].CreatedAt)
	})
	return result, nil
}

// loadRows prefers the reconciled view and falls back to client side reconciliation
// when the view is disabled, missing or fails to read.
func (i impl) loadRows(ctx context.Context, logger *log.Entry) ([]dbmodels.UnifiedApplication, error) {
	fallback := fallbackSource{store: i.store}
	source := i.chooseSource(ctx, logger)
	rows, err := source.Load(ctx)
	if err == nil || source.Name() == fallback.Name() {
		return rows, err
	}
	logger.WithError(err).Warn("unified view read failed, using fallback")
	return fallback.Load(ctx)
}

func (i impl) chooseSource(ctx context.Context, logger *log.Entry) Source {
	if !i.viewEnabled {
		return fallbackSource{store: i.store}
	}
	available, err := i.store.ViewAvailable(ctx)
	if err != nil {
		logger.WithError(err).Warn("unified view capability check failed")
		return fallbackSource{store: i.store}
	}
	if !available {
		return fallbackSource{store: i.store}
	}
	return viewSource{store: i.store}
}

func (i impl) enrich(ctx context.Context, logger *log.Entry, rows []dbmodels.UnifiedApplication) []applicationapimodels.ApplicationView {
	userIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}
	profiles, err := i.store.Profiles(ctx, helpers.UniqueStrings(userIDs...))
	if err != nil {
		logger.WithError(err).Warn("applicant lookup failed, using placeholder names")
		profiles = nil
	}
	result := make([]applicationapimodels.ApplicationView, 0, len(rows))
	for _, row := range rows {
		view := applicationapimodels.ApplicationView{
			Source:        row.Source,
			ID:            row.ID,
			RequestID:     row.RequestID,
			LoanID:        row.LoanID,
			UserID:        row.UserID,
			ApplicantName: helpers.PlaceholderName(row.UserID),
			Amount:        row.Amount,
			TermMonths:    row.TermMonths,
			Purpose:       row.Purpose,
			Status:        row.Status,
			Priority:      row.Priority,
			CreatedAt:     row.CreatedAt,
		}
		if profile, ok := profiles[row.UserID]; ok {
			if profile.FullName != "" {
				view.ApplicantName = profile.FullName
			}
			view.ApplicantEmail = profile.Email
		}
		result = append(result, view)
	}
	return result
}

func match(view applicationapimodels.ApplicationView, filter applicationapimodels.Filter) bool {
	if filter.Status != "" && view.Status != filter.Status {
		return false
	}
	if filter.Source != "" && view.Source != filter.Source {
		return false
	}
	if filter.Priority != "" && (view.Priority == nil || *view.Priority != string(filter.Priority)) {
		return false
	}
	if filter.DateFrom != nil && view.CreatedAt.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && view.CreatedAt.After(*filter.DateTo) {
		return false
	}
	if filter.AmountMin != nil && view.Amount < *filter.AmountMin {
		return false
	}
	if filter.AmountMax != nil && view.Amount > *filter.AmountMax {
		return false
	}
	if filter.Search != "" {
		return matchSearch(view, strings.ToLower(strings.TrimSpace(filter.Search)))
	}
	return true
}

func matchSearch(view applicationapimodels.ApplicationView, search string) bool {
	fields := []string{
		view.ApplicantName,
		view.ApplicantEmail,
		view.Purpose,
		view.ID,
		strconv.FormatFloat(view.Amount, 'f', -1, 64),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
