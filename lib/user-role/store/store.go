package userrolestore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"microloan-backend/models"
)

// Change describes a single role write, empty fields mean no write
type Change struct {
	Add    models.UserRole
	Remove models.UserRole
}

// DecideFunc is called with the role set read under the per-user lock
type DecideFunc func(current []models.UserRole) (Change, error)

type Provider interface {
	List(ctx context.Context, userID string) ([]models.UserRole, error)
	ApplyChange(ctx context.Context, userID string, decide DecideFunc) ([]models.UserRole, error)
	UsersWithRoles(ctx context.Context, roles []models.UserRole) ([]string, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) List(ctx context.Context, userID string) ([]models.UserRole, error) {
	return listRoles(i.db.WithContext(ctx), userID)
}

func listRoles(tx *gorm.DB, userID string) ([]models.UserRole, error) {
	names := []string{}
	err := tx.Raw("SELECT role FROM user_roles WHERE user_id = ? ORDER BY role", userID).
		Scan(&names).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "list user roles")
	}
	roles := make([]models.UserRole, 0, len(names))
	for _, name := range names {
		roles = append(roles, models.UserRole(name))
	}
	return roles, nil
}

// ApplyChange reads the role set and writes the decided change in one transaction
// holding a transaction scoped advisory lock on the user id.
func (i impl) ApplyChange(ctx context.Context, userID string, decide DecideFunc) (roles []models.UserRole, err error) {
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Error; err != nil {
			return errors.Wrap(err, "acquire role lock")
		}
		current, err := listRoles(tx, userID)
		if err != nil {
			return err
		}
		change, err := decide(current)
		if err != nil {
			return err
		}
		if change.Add != "" {
			err = tx.Exec("INSERT INTO user_roles (user_id, role, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id, role) DO NOTHING",
				userID, string(change.Add), time.Now()).Error
			if err != nil {
				return errors.Wrap(err, "insert user role")
			}
		}
		if change.Remove != "" {
			err = tx.Exec("DELETE FROM user_roles WHERE user_id = ? AND role = ?", userID, string(change.Remove)).Error
			if err != nil {
				return errors.Wrap(err, "delete user role")
			}
		}
		roles, err = listRoles(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (i impl) UsersWithRoles(ctx context.Context, roles []models.UserRole) ([]string, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	ids := []string{}
	err := i.db.WithContext(ctx).
		Raw("SELECT DISTINCT user_id FROM user_roles WHERE role IN ? ORDER BY user_id", names).
		Scan(&ids).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "list users by role")
	}
	return ids, nil
}
