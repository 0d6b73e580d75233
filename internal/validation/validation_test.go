package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/pharmintel/internal/errs"
)

type createRequest struct {
	Name  string `validate:"required,max=10"`
	Limit int    `validate:"omitempty,min=1"`
}

func (r *createRequest) Validate() error {
	return Validator.Struct(r)
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid payload passes", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&createRequest{Name: "aspirin"})
		assert.Empty(t, msg)
		assert.Nil(t, fieldErrors)
	})

	t.Run("missing required field", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&createRequest{})
		assert.Equal(t, "Validation failed", msg)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, errs.FieldError{Field: "name", Error: "is required"}, fieldErrors[0])
	})

	t.Run("max length exceeded", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&createRequest{Name: "acetylsalicylic acid"})
		assert.Equal(t, "Validation failed", msg)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "name", fieldErrors[0].Field)
		assert.Equal(t, "must not exceed 10 characters", fieldErrors[0].Error)
	})

	t.Run("numeric minimum", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&createRequest{Name: "aspirin", Limit: -3})
		assert.Equal(t, "Validation failed", msg)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "limit", fieldErrors[0].Field)
		assert.Equal(t, "must be at least 1", fieldErrors[0].Error)
	})
}

type customRequest struct {
	ID string
}

func (r *customRequest) Validate() error {
	if !IsValidUUID(r.ID) {
		return CustomValidationErrors{{Field: "id", Message: "must be a valid UUID"}}
	}
	return nil
}

func TestCustomValidationErrors(t *testing.T) {
	msg, fieldErrors := validateStruct(&customRequest{ID: "not-a-uuid"})
	assert.Equal(t, "Validation failed", msg)
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, errs.FieldError{Field: "id", Error: "must be a valid UUID"}, fieldErrors[0])
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("8f1d7f6e-4f5a-4f6b-9c1d-2e3f4a5b6c7d"))
	assert.True(t, IsValidUUID("8F1D7F6E-4F5A-4F6B-9C1D-2E3F4A5B6C7D"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("8f1d7f6e4f5a4f6b9c1d2e3f4a5b6c7d"))
	assert.False(t, IsValidUUID("8f1d7f6e-4f5a-4f6b-9c1d-2e3f4a5b6c7g"))
}
