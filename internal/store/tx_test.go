package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("update student: %w", &pgconn.PgError{Code: "23505", ConstraintName: "students_rfid_tag_key"})
	name, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "students_rfid_tag_key", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23514"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}
