package payloadschema

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
)

var requestDataSchemas = map[models.RequestType]string{
	models.RequestTypeLoanApplication: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["amount", "term"],
		"properties": {
			"amount": {"type": "number", "exclusiveMinimum": 0},
			"term": {"type": "integer", "minimum": 1, "maximum": 360},
			"purpose": {"type": "string", "maxLength": 1000},
			"income": {"type": "number", "minimum": 0},
			"interest_rate": {"type": "number", "minimum": 0, "maximum": 100}
		}
	}`,
	models.RequestTypeKycDocument: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["document_id", "document_type"],
		"properties": {
			"document_id": {"type": "string", "minLength": 1},
			"document_type": {"type": "string", "minLength": 1}
		}
	}`,
	models.RequestTypeProfileUpdate: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["changes"],
		"properties": {
			"changes": {"type": "object", "minProperties": 1}
		}
	}`,
	models.RequestTypePayment: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["amount", "loan_id"],
		"properties": {
			"amount": {"type": "number", "exclusiveMinimum": 0},
			"loan_id": {"type": "string", "minLength": 1}
		}
	}`,
	models.RequestTypeDocumentUpload: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["document_id"],
		"properties": {
			"document_id": {"type": "string", "minLength": 1},
			"description": {"type": "string"}
		}
	}`,
}

type Validator interface {
	Validate(requestType models.RequestType, data map[string]any) error
}

type impl struct {
	schemas map[models.RequestType]*gojsonschema.Schema
}

// NewValidator compiles the request_data schema of every request type
func NewValidator() (Validator, error) {
	i := &impl{schemas: map[models.RequestType]*gojsonschema.Schema{}}
	for _, requestType := range models.RequestTypes {
		raw, ok := requestDataSchemas[requestType]
		if !ok {
			return nil, errors.Errorf("no request_data schema for %s", requestType)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "compile %s schema", requestType)
		}
		i.schemas[requestType] = schema
	}
	return i, nil
}

func (i impl) Validate(requestType models.RequestType, data map[string]any) error {
	schema, ok := i.schemas[requestType]
	if !ok {
		return apperrors.NewValidation("unknown request type %q", requestType)
	}
	if data == nil {
		data = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return apperrors.NewValidation("request data is not valid json: %s", err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for k, desc := range result.Errors() {
			errs[k] = desc.String()
		}
		return apperrors.NewValidation("invalid %s data: %s", requestType, strings.Join(errs, "; "))
	}
	return nil
}
