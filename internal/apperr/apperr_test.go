package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("edit student: %w", Conflict("RFID tag is already registered."))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(nil, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind), kind.String())
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	assert.Equal(t, "Server error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "Student not found.", PublicMessage(NotFound("Student not found.")))
	assert.Equal(t, "Server error", PublicMessage(errors.New("raw")))
}
