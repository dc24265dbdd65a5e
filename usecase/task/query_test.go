package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
)

func seed(t *testing.T, f *fixture, userID string, titles map[string]*time.Time) {
	t.Helper()
	for title, due := range titles {
		_, err := f.uc.CreateTask(context.Background(), userID, input(title, "MEDIUM", due))
		require.NoError(t, err)
	}
}

func texts(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Text)
	}
	return out
}

func TestListTasks_Windows(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{
		"jun 9":  day(2024, time.June, 9),
		"jun 10": day(2024, time.June, 10),
		"jun 15": day(2024, time.June, 15),
		"jun 16": day(2024, time.June, 16),
		"jun 17": day(2024, time.June, 17),
		"jul 1":  day(2024, time.July, 1),
		"dec 31": day(2024, time.December, 31),
		"jan 1":  day(2025, time.January, 1),
	})

	ref := *day(2024, time.June, 15)

	tests := []struct {
		view domain.View
		want []string
	}{
		{domain.ViewDay, []string{"jun 15"}},
		{domain.ViewWeek, []string{"jun 10", "jun 15", "jun 16"}},
		{domain.ViewMonth, []string{"jun 9", "jun 10", "jun 15", "jun 16", "jun 17"}},
		{domain.ViewYear, []string{"jun 9", "jun 10", "jun 15", "jun 16", "jun 17", "jul 1", "dec 31"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{Date: ref, View: tt.view})
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(res.Tasks))
			for _, task := range res.Tasks {
				assert.True(t, res.Window.Contains(task.Date))
			}
		})
	}
}

func TestListTasks_WeekExample(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{
		"sunday": day(2024, time.June, 16),
		"monday": day(2024, time.June, 17),
	})

	res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{Date: *day(2024, time.June, 15), View: domain.ViewWeek})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-10T00:00:00.000", res.Window.Start.Format("2006-01-02T15:04:05.000"))
	assert.Equal(t, "2024-06-16T23:59:59.999", res.Window.End.Format("2006-01-02T15:04:05.000"))
	assert.Equal(t, []string{"sunday"}, texts(res.Tasks))
}

func TestListTasks_ScopedToUser(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{"mine": day(2024, time.June, 15)})
	seed(t, f, "2", map[string]*time.Time{"theirs": day(2024, time.June, 15)})

	res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{Date: *day(2024, time.June, 15)})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, texts(res.Tasks))
}

func TestListTasks_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{"mine": day(2024, time.June, 15)})

	res, err := f.uc.ListTasks(context.Background(), "", ListQuery{Date: *day(2024, time.June, 15), View: domain.ViewYear})
	require.NoError(t, err)
	assert.Empty(t, res.Tasks)
}

func TestListTasks_Search(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{
		"Morning run":   day(2024, time.June, 15),
		"Evening RUN":   day(2024, time.June, 15),
		"Buy groceries": day(2024, time.June, 15),
	})

	res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{Date: *day(2024, time.June, 15), Search: "run"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Morning run", "Evening RUN"}, texts(res.Tasks))
}

func TestListTasks_Defaults(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "1", map[string]*time.Time{"today": day(2024, time.June, 15)})

	res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.ViewDay, res.View)
	assert.Equal(t, []string{"today"}, texts(res.Tasks))

	res, err = f.uc.ListTasks(context.Background(), "1", ListQuery{Date: *day(2020, time.January, 1), View: domain.ViewToday})
	require.NoError(t, err)
	assert.Equal(t, []string{"today"}, texts(res.Tasks), "today ignores the reference date")
}

func TestListTasks_UnknownView(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ListTasks(context.Background(), "1", ListQuery{View: domain.View("decade")})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestListTasks_Location(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	f := newFixture(t)
	f.uc.location = loc

	due := time.Date(2024, time.June, 15, 0, 0, 0, 0, loc)
	_, err := f.uc.CreateTask(context.Background(), "1", input("Run", "LOW", &due))
	require.NoError(t, err)

	res, err := f.uc.ListTasks(context.Background(), "1", ListQuery{Date: due})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, loc, res.Window.Start.Location())
}
