package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	dbmodels "microloan-backend/models/db"
)

// unifiedViewDDL projects every loan application once: the request until a loan references it,
// the loan afterwards. Non numeric amount or term payload values read as zero.
const unifiedViewDDL = `
CREATE OR REPLACE VIEW unified_loan_applications AS
SELECT
	'approval'::text AS source,
	ar.id::text AS id,
	ar.id::text AS request_id,
	NULL::text AS loan_id,
	ar.user_id::text AS user_id,
	CASE WHEN jsonb_typeof(ar.request_data->'amount') = 'number'
		THEN (ar.request_data->>'amount')::double precision ELSE 0 END AS amount,
	CASE WHEN jsonb_typeof(ar.request_data->'term') = 'number'
		THEN floor((ar.request_data->>'term')::numeric)::bigint ELSE 0 END AS term_months,
	COALESCE(ar.request_data->>'purpose', '') AS purpose,
	ar.status::text AS status,
	ar.priority::text AS priority,
	ar.created_at AS created_at
FROM approval_requests ar
WHERE ar.request_type = 'loan_application'
	AND NOT EXISTS (
		SELECT 1 FROM loans l
		WHERE l.approval_request_id = ar.id OR l.id = ar.reference_id
	)
UNION ALL
SELECT
	'loan'::text,
	l.id::text,
	l.approval_request_id::text,
	l.id::text,
	l.user_id::text,
	l.amount::double precision,
	l.term_months::bigint,
	COALESCE(l.purpose, ''),
	l.status::text,
	NULL::text,
	l.created_at
FROM loans l`

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	entities := []struct {
		name  string
		model interface{}
	}{
		{"ApprovalRequest", &dbmodels.ApprovalRequest{}},
		{"ApprovalWorkflowHistory", &dbmodels.ApprovalWorkflowHistory{}},
		{"ApprovalNotification", &dbmodels.ApprovalNotification{}},
		{"UserRole", &dbmodels.UserRole{}},
		{"Loan", &dbmodels.Loan{}},
		{"Profile", &dbmodels.Profile{}},
		{"KycDocument", &dbmodels.KycDocument{}},
	}
	for _, entity := range entities {
		if err := DB.AutoMigrate(entity.model); err != nil {
			return errors.Wrapf(err, "failed to migrate %s", entity.name)
		}
	}
	if err := DB.Exec(unifiedViewDDL).Error; err != nil {
		return errors.Wrap(err, "failed to create unified_loan_applications view")
	}
	log.Info("migrations done")
	return nil
}
