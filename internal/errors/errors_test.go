package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing field", &MissingFieldError{Label: "Name"}, http.StatusBadRequest, "MISSING_FIELD"},
		{"wrapped missing field", fmt.Errorf("submit: %w", &MissingFieldError{Label: "Email"}), http.StatusBadRequest, "MISSING_FIELD"},
		{"validation", &ValidationError{Field: "days", Reason: "must be positive"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not a member", ErrNotProjectMember, http.StatusForbidden, "FORBIDDEN"},
		{"form not found", ErrFormNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"inactive form", ErrFormInactive, http.StatusBadRequest, "FORM_CLOSED"},
		{"deadline passed", ErrFormDeadlinePassed, http.StatusBadRequest, "FORM_CLOSED"},
		{"already member", ErrAlreadyMember, http.StatusConflict, "ALREADY_MEMBER"},
		{"duplicate request", ErrDuplicateRequest, http.StatusConflict, "DUPLICATE_REQUEST"},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict, "CONFLICT"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestMissingFieldError_Message(t *testing.T) {
	err := &MissingFieldError{Label: "Name"}
	assert.Equal(t, "field 'Name' is compulsory", err.Error())
	assert.Equal(t, ErrorResponse{Error: "field 'Name' is compulsory", Code: "MISSING_FIELD"}, MapErrorToHTTP(err).ToErrorResponse())
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "form not found", MapErrorToHTTP(ErrFormNotFound).Message)
	assert.Equal(t, "not found", MapErrorToHTTP(gorm.ErrRecordNotFound).Message)
}
