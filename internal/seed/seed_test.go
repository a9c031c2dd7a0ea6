package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolportal/internal/account"
	"schoolportal/internal/attendance"
	"schoolportal/internal/marks"
	"schoolportal/internal/store/storetest"
)

// 2024-03-11 is a Monday.
var seedNow = time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

func TestRunSeedsEmptyDatabase(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	clock := func() time.Time { return seedNow }

	rep, err := New(db.Client, time.UTC, clock, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Students: 5, Teachers: 2, Subjects: 2, Marks: 4, Attendance: 150}, rep)

	accounts := account.NewRegistry(db.Client, clock)
	john, err := accounts.AuthenticateStudent(ctx, "john_doe", "password123")
	require.NoError(t, err)
	require.NotNil(t, john)

	svc := attendance.NewService(attendance.NewRepository(db.Client), time.UTC, clock)
	stats, err := svc.Percentage(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stats.TotalDays)
	assert.Equal(t, 23, stats.PresentDays)
	assert.Equal(t, 76.67, stats.Percentage)
	require.NotNil(t, stats.StartDate)
	assert.Equal(t, "2024-02-11", stats.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-11", stats.EndDate.Format("2006-01-02"))

	history, err := svc.History(ctx, john.ID)
	require.NoError(t, err)
	require.Len(t, history, 30)
	assert.False(t, history[0].LoggedIn)
	assert.Nil(t, history[0].LoginTime)
	require.True(t, history[1].LoggedIn)
	require.NotNil(t, history[1].LoginTime)
	assert.True(t, time.Date(2024, 3, 10, 8, 18, 0, 0, time.UTC).Equal(*history[1].LoginTime))

	registry := marks.NewRegistry(db.Client, clock)
	johnMarks, err := registry.StudentMarks(ctx, john.ID)
	require.NoError(t, err)
	require.Len(t, johnMarks, 2)
	assert.Equal(t, "Data Structures", johnMarks[0].SubjectName)
	assert.Equal(t, float64(85), johnMarks[0].MarksObtained)

	alan, err := accounts.AuthenticateTeacher(ctx, "alan@univ.edu", "turing123")
	require.NoError(t, err)
	require.NotNil(t, alan)
	owned, err := registry.SubjectsByTeacher(ctx, alan.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "CS101", owned[0].Code)
}

func TestRunSkipsPopulatedTables(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	clock := func() time.Time { return seedNow }

	_, err := New(db.Client, time.UTC, clock, nil).Run(ctx)
	require.NoError(t, err)
	rep, err := New(db.Client, time.UTC, clock, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
}

func TestAbsentPattern(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	absent := 0
	for daysAgo := 0; daysAgo < AttendanceDays; daysAgo++ {
		if Absent(monday.AddDate(0, 0, -daysAgo), daysAgo) {
			absent++
		}
	}
	assert.Equal(t, 7, absent)

	saturday := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.True(t, Absent(saturday, 9))
	assert.False(t, Absent(saturday.AddDate(0, 0, 1), 8))
}

func TestLoginMinute(t *testing.T) {
	assert.Equal(t, 11, LoginMinute(0, 1))
	assert.Equal(t, 18, LoginMinute(1, 1))
	assert.Equal(t, (29*7+5*11)%60, LoginMinute(29, 5))
}
