package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "run", want: "%run%"},
		{in: "50%", want: `%50\%%`},
		{in: "a_b", want: `%a\_b%`},
		{in: `c:\tmp`, want: `%c:\\tmp%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPattern(tt.in))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, maxListLimit, clampLimit(0))
	assert.Equal(t, maxListLimit, clampLimit(5000))
	assert.Equal(t, 25, clampLimit(25))
}
