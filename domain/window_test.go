package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func TestComputeWindow(t *testing.T) {
	ref := time.Date(2024, time.June, 15, 17, 42, 3, 0, time.UTC) // Saturday

	tests := []struct {
		name  string
		view  View
		start time.Time
		end   time.Time
	}{
		{"day", ViewDay, date(2024, time.June, 15), endOf(2024, time.June, 15)},
		{"today alias", ViewToday, date(2024, time.June, 15), endOf(2024, time.June, 15)},
		{"week starts monday", ViewWeek, date(2024, time.June, 10), endOf(2024, time.June, 16)},
		{"month", ViewMonth, date(2024, time.June, 1), endOf(2024, time.June, 30)},
		{"year", ViewYear, date(2024, time.January, 1), endOf(2024, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ComputeWindow(tt.view, ref)
			require.NoError(t, err)
			assert.True(t, tt.start.Equal(w.Start), "start %s", w.Start)
			assert.True(t, tt.end.Equal(w.End), "end %s", w.End)
		})
	}
}

func TestComputeWindow_WeekBoundaries(t *testing.T) {
	w, err := ComputeWindow(ViewWeek, date(2024, time.June, 15))
	require.NoError(t, err)

	assert.True(t, w.Contains(date(2024, time.June, 16)))
	assert.True(t, w.Contains(date(2024, time.June, 10)))
	assert.False(t, w.Contains(date(2024, time.June, 17)))
	assert.False(t, w.Contains(date(2024, time.June, 9)))
}

func TestComputeWindow_MondayAndSundayReferences(t *testing.T) {
	monday, err := ComputeWindow(ViewWeek, date(2024, time.June, 10))
	require.NoError(t, err)
	sunday, err := ComputeWindow(ViewWeek, date(2024, time.June, 16))
	require.NoError(t, err)

	assert.Equal(t, monday, sunday)
}

func TestComputeWindow_LeapFebruary(t *testing.T) {
	w, err := ComputeWindow(ViewMonth, date(2024, time.February, 10))
	require.NoError(t, err)
	assert.True(t, endOf(2024, time.February, 29).Equal(w.End))
}

func TestComputeWindow_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	ref := time.Date(2024, time.June, 15, 1, 0, 0, 0, loc)

	w, err := ComputeWindow(ViewDay, ref)
	require.NoError(t, err)
	assert.Equal(t, loc, w.Start.Location())
	assert.Equal(t, 15, w.Start.Day())
}

func TestComputeWindow_UnknownView(t *testing.T) {
	_, err := ComputeWindow(View("decade"), date(2024, time.June, 15))
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" Week ")
	require.NoError(t, err)
	assert.Equal(t, ViewWeek, v)

	_, err = ParseView("fortnight")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	_, err = ParseView("")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}
