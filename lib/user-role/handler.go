package userrole

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
	"microloan-backend/lib/apperrors"
	"microloan-backend/lib/metrics"
	"microloan-backend/lib/rolepolicy"
	userrolestore "microloan-backend/lib/user-role/store"
	"microloan-backend/lib/utils/helpers"
	"microloan-backend/lib/utils/lock"
	"microloan-backend/models"
	roleapimodels "microloan-backend/models/api/role"
)

type Provider interface {
	// user scoped channel
	MyRoles(ctx context.Context, actor models.Actor) ([]models.UserRole, error)
	RolesOf(ctx context.Context, userID string) ([]models.UserRole, error)
	// privileged channel
	CurrentRoles(ctx context.Context, actor models.Actor, userID string) ([]models.UserRole, error)
	Allowed(ctx context.Context, actor models.Actor, userID string) (*roleapimodels.UserRolesView, error)
	Assign(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*roleapimodels.ChangeResult, error)
	Remove(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*roleapimodels.ChangeResult, error)
	ReviewerPool(ctx context.Context) ([]string, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(userrolestore.NewInstance(db.DB), config.Conf.IsSuperAdmin, config.Conf.Workflow.StoreTimeout)
}

func NewInstance(store userrolestore.Provider, isSuperAdmin func(userID string) bool, storeTimeout time.Duration) Provider {
	return &impl{
		store:        store,
		isSuperAdmin: isSuperAdmin,
		storeTimeout: storeTimeout,
	}
}

type impl struct {
	store        userrolestore.Provider
	isSuperAdmin func(userID string) bool
	storeTimeout time.Duration
}

func (i impl) GetLogger(actor models.Actor, userID string) *log.Entry {
	return log.
		WithField("actor_id", actor.UserID).
		WithField("user_id", userID)
}

func (i impl) MyRoles(ctx context.Context, actor models.Actor) ([]models.UserRole, error) {
	return i.RolesOf(ctx, actor.UserID)
}

func (i impl) RolesOf(ctx context.Context, userID string) ([]models.UserRole, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	roles, err := i.store.List(storeCtx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return roles, nil
}

func (i impl) CurrentRoles(ctx context.Context, actor models.Actor, userID string) ([]models.UserRole, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return i.RolesOf(ctx, userID)
}

func (i impl) Allowed(ctx context.Context, actor models.Actor, userID string) (*roleapimodels.UserRolesView, error) {
	roles, err := i.CurrentRoles(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	return &roleapimodels.UserRolesView{
		UserID:  userID,
		Roles:   roleapimodels.RolesConvert(roles),
		Allowed: rolepolicy.AllowedRoles(roles, i.superAdmin(userID)),
	}, nil
}

func (i impl) Assign(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*roleapimodels.ChangeResult, error) {
	return i.change(ctx, actor, userID, rolepolicy.OperationAdd, role)
}

func (i impl) Remove(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*roleapimodels.ChangeResult, error) {
	return i.change(ctx, actor, userID, rolepolicy.OperationRemove, role)
}

func (i impl) superAdmin(userID string) bool {
	return i.isSuperAdmin != nil && i.isSuperAdmin(userID)
}

func (i impl) change(ctx context.Context, actor models.Actor, userID string, op rolepolicy.Operation, role models.UserRole) (*roleapimodels.ChangeResult, error) {
	if !actor.IsAdmin() {
		metrics.RoleChanges.WithLabelValues(string(op), "forbidden").Inc()
		return nil, apperrors.ErrForbidden
	}
	if userID == "" {
		return nil, apperrors.NewValidation("user id is required")
	}
	logger := i.GetLogger(actor, userID).
		WithField("operation", op).
		WithField("role", role)

	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()

	var decision rolepolicy.Decision
	var roles []models.UserRole
	err := lock.WithKey(storeCtx, "user-role:"+userID, func() error {
		var err error
		roles, err = i.store.ApplyChange(storeCtx, userID, func(current []models.UserRole) (userrolestore.Change, error) {
			decision = rolepolicy.Evaluate(current, op, role, i.superAdmin(userID))
			if !decision.Allowed {
				return userrolestore.Change{}, &apperrors.RoleOperationDeniedError{Reason: decision.Reason}
			}
			if op == rolepolicy.OperationRemove {
				return userrolestore.Change{Remove: role}, nil
			}
			for _, held := range current {
				if held == role {
					return userrolestore.Change{}, nil
				}
			}
			return userrolestore.Change{Add: role}, nil
		})
		return err
	})
	if err != nil {
		var denied *apperrors.RoleOperationDeniedError
		if errors.As(err, &denied) {
			metrics.RoleChanges.WithLabelValues(string(op), "denied").Inc()
			logger.WithField("reason", denied.Reason).Info("role change denied")
			return nil, denied
		}
		metrics.RoleChanges.WithLabelValues(string(op), "error").Inc()
		logger.WithError(err).Error("failed to change user role")
		return nil, apperrors.FromStore(err)
	}
	metrics.RoleChanges.WithLabelValues(string(op), "applied").Inc()
	logger.Info("user role changed")
	return &roleapimodels.ChangeResult{
		UserID: userID,
		Roles:  roleapimodels.RolesConvert(roles),
		Reason: decision.Reason,
		Op:     op,
	}, nil
}

func (i impl) ReviewerPool(ctx context.Context) ([]string, error) {
	storeCtx, cancel := helpers.WithTimeout(ctx, i.storeTimeout)
	defer cancel()
	ids, err := i.store.UsersWithRoles(storeCtx, models.ReviewerRoles)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return ids, nil
}
