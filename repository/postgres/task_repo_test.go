package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

func TestListQueryPaging(t *testing.T) {
	base := repository.TaskFilter{
		UserID: "u1",
		From:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
		Search: "run",
	}

	tests := []struct {
		name     string
		limit    int
		offset   int
		wantTail string
		wantArgs []interface{}
	}{
		{name: "whole window", wantTail: "created_at ASC", wantArgs: nil},
		{name: "offset only", offset: 10, wantTail: "OFFSET $5", wantArgs: []interface{}{10}},
		{name: "page", limit: 20, offset: 40, wantTail: "LIMIT $5 OFFSET $6", wantArgs: []interface{}{20, 40}},
		{name: "oversized page", limit: 5000, wantTail: "LIMIT $5 OFFSET $6", wantArgs: []interface{}{maxListLimit, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := base
			filter.Limit = tt.limit
			filter.Offset = tt.offset

			query, args := listQuery(filter)
			assert.True(t, strings.HasSuffix(query, tt.wantTail), query)
			if tt.limit == 0 {
				assert.NotContains(t, query, "LIMIT")
			}
			require.Len(t, args, 4+len(tt.wantArgs))
			assert.Equal(t, []interface{}{"u1", base.From, base.To, "%run%"}, args[:4])
			if len(tt.wantArgs) > 0 {
				assert.Equal(t, tt.wantArgs, args[4:])
			}
		})
	}
}

type fakeRow struct {
	values []interface{}
	err    error
}

func (f fakeRow) Scan(dest ...interface{}) error {
	if f.err != nil {
		return f.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.values[i].(string)
		case *time.Time:
			*p = f.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanReturnsDueDateInAppLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	due := time.Date(2024, time.June, 16, 0, 0, 0, 0, jakarta)
	created := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	row := fakeRow{values: []interface{}{
		"t1", "u1", "Run", "", "NOT_STARTED", "LOW",
		due.UTC(), created, created,
	}}

	repo := &taskRepository{loc: jakarta}
	task, err := repo.scan(row)
	require.NoError(t, err)

	assert.Equal(t, jakarta, task.Date.Location())
	assert.Equal(t, "2024-06-16T00:00:00+07:00", task.Date.Format(time.RFC3339))
	assert.Equal(t, domain.StatusNotStarted, task.Status)
	assert.Equal(t, domain.PriorityLow, task.Priority)
}

func TestScanMapsNoRowsToNotFound(t *testing.T) {
	repo := &taskRepository{loc: time.UTC}
	_, err := repo.scan(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	boom := errors.New("boom")
	_, err = repo.scan(fakeRow{err: boom})
	assert.ErrorIs(t, err, boom)
}
