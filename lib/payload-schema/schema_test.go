package payloadschema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
)

func TestValidate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	t.Run(`loan application`, func(t *testing.T) {
		require.NoError(t, v.Validate(models.RequestTypeLoanApplication, map[string]any{"amount": 5000.0, "term": 12}))
		require.NoError(t, v.Validate(models.RequestTypeLoanApplication, map[string]any{"amount": 5000, "term": 12.0, "purpose": "car"}))

		err := v.Validate(models.RequestTypeLoanApplication, map[string]any{"amount": 0, "term": 12})
		require.True(t, apperrors.IsValidation(err))
		err = v.Validate(models.RequestTypeLoanApplication, map[string]any{"amount": 100})
		require.True(t, apperrors.IsValidation(err))
		err = v.Validate(models.RequestTypeLoanApplication, map[string]any{"amount": "100", "term": 3})
		require.True(t, apperrors.IsValidation(err))
	})
	t.Run(`kyc document`, func(t *testing.T) {
		require.NoError(t, v.Validate(models.RequestTypeKycDocument, map[string]any{"document_id": "d1", "document_type": "passport"}))
		require.Error(t, v.Validate(models.RequestTypeKycDocument, map[string]any{"document_id": "d1"}))
	})
	t.Run(`profile update needs changes`, func(t *testing.T) {
		require.Error(t, v.Validate(models.RequestTypeProfileUpdate, nil))
		require.NoError(t, v.Validate(models.RequestTypeProfileUpdate, map[string]any{"changes": map[string]any{"full_name": "A"}}))
	})
	t.Run(`unknown type`, func(t *testing.T) {
		err := v.Validate(models.RequestType("mortgage"), map[string]any{})
		require.True(t, apperrors.IsValidation(err))
	})
}

func TestNewValidatorCoversEveryType(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	schemas := v.(*impl).schemas
	require.Len(t, schemas, len(models.RequestTypes))
	for _, requestType := range models.RequestTypes {
		require.Contains(t, schemas, requestType)
	}
}
