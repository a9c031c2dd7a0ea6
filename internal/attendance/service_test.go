package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schoolportal/internal/account"
	"schoolportal/internal/attendance"
	"schoolportal/internal/queue"
	"schoolportal/internal/store/storetest"
)

type fixture struct {
	repo      *attendance.Repository
	svc       *attendance.Service
	now       time.Time
	studentID int64
}

func newFixture(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	db := storetest.Open(t)
	ctx := context.Background()

	reg := account.NewRegistry(db.Client, nil)
	ok, err := reg.CreateStudent(ctx, "john_doe", "password123", "John Doe", "john@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	students, err := reg.ListStudents(ctx)
	require.NoError(t, err)

	f := &fixture{
		repo:      attendance.NewRepository(db.Client),
		now:       time.Date(2024, 1, 3, 8, 15, 0, 0, time.UTC),
		studentID: students[0].ID,
	}
	f.svc = attendance.NewService(f.repo, loc, func() time.Time { return f.now })
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, attendance.Percent(0, 0))
	assert.Equal(t, 66.67, attendance.Percent(2, 3))
	assert.Equal(t, 100.0, attendance.Percent(5, 5))
	assert.Equal(t, 33.33, attendance.Percent(1, 3))
	assert.Equal(t, 0.0, attendance.Percent(0, 7))
}

func TestPercentRoundsHalvesToEven(t *testing.T) {
	assert.Equal(t, 3.12, attendance.Percent(1, 32))
	assert.Equal(t, 15.62, attendance.Percent(5, 32))
	assert.Equal(t, 0.62, attendance.Percent(1, 160))
	assert.Equal(t, 9.38, attendance.Percent(3, 32))
}

func TestPercentageWithoutRows(t *testing.T) {
	f := newFixture(t, nil)

	stats, err := f.svc.Percentage(context.Background(), f.studentID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Percentage)
	assert.Zero(t, stats.PresentDays)
	assert.Zero(t, stats.TotalDays)
	assert.Nil(t, stats.StartDate)
	assert.Nil(t, stats.EndDate)

	history, err := f.svc.History(context.Background(), f.studentID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPercentageAndHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	login := time.Date(2024, 1, 1, 8, 5, 0, 0, time.UTC)
	login3 := time.Date(2024, 1, 3, 8, 10, 0, 0, time.UTC)

	require.NoError(t, f.repo.Upsert(ctx, f.studentID, day(2024, 1, 1), true, &login))
	require.NoError(t, f.repo.Upsert(ctx, f.studentID, day(2024, 1, 2), false, nil))
	require.NoError(t, f.repo.Upsert(ctx, f.studentID, day(2024, 1, 3), true, &login3))

	stats, err := f.svc.Percentage(ctx, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, 66.67, stats.Percentage)
	assert.Equal(t, 2, stats.PresentDays)
	assert.Equal(t, 3, stats.TotalDays)
	require.NotNil(t, stats.StartDate)
	require.NotNil(t, stats.EndDate)
	assert.True(t, day(2024, 1, 1).Equal(*stats.StartDate))
	assert.True(t, day(2024, 1, 3).Equal(*stats.EndDate))

	history, err := f.svc.History(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, day(2024, 1, 3).Equal(history[0].Date))
	assert.True(t, day(2024, 1, 2).Equal(history[1].Date))
	assert.True(t, day(2024, 1, 1).Equal(history[2].Date))
	assert.True(t, history[0].LoggedIn)
	assert.False(t, history[1].LoggedIn)
	assert.Nil(t, history[1].LoginTime)
	require.NotNil(t, history[2].LoginTime)
	assert.True(t, login.Equal(*history[2].LoginTime))
}

func TestMarkTwiceKeepsOneRowWithLatestTime(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.Mark(ctx, f.studentID))
	first := f.now
	f.now = first.Add(3 * time.Hour)
	require.NoError(t, f.svc.Mark(ctx, f.studentID))

	history, err := f.svc.History(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, day(2024, 1, 3).Equal(history[0].Date))
	assert.True(t, history[0].LoggedIn)
	require.NotNil(t, history[0].LoginTime)
	assert.True(t, f.now.Equal(*history[0].LoginTime))
}

func TestMarkOverwritesAbsentRow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.repo.Upsert(ctx, f.studentID, day(2024, 1, 3), false, nil))

	require.NoError(t, f.svc.Mark(ctx, f.studentID))

	stats, err := f.svc.Percentage(ctx, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Equal(t, 1, stats.PresentDays)
	assert.Equal(t, 100.0, stats.Percentage)
}

func TestMarkUsesConfiguredCalendar(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	f := newFixture(t, tokyo)
	f.now = time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.Mark(context.Background(), f.studentID))

	history, err := f.svc.History(context.Background(), f.studentID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, day(2024, 1, 4).Equal(history[0].Date))
}

func TestMarkRejectsMissingStudent(t *testing.T) {
	f := newFixture(t, nil)
	assert.Error(t, f.svc.Mark(context.Background(), 0))
	assert.Error(t, f.svc.Mark(context.Background(), 9999))
}

func TestConsumeMarksFromQueue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 7, 55, 0, 0, time.UTC)

	msgs := make(chan queue.Message, 3)
	msgs <- queue.Message{Kind: "something.else", StudentID: f.studentID, At: at}
	msgs <- queue.Message{Kind: queue.KindMarkAttendance, StudentID: f.studentID, At: at}
	msgs <- queue.Message{Kind: queue.KindMarkAttendance, StudentID: 9999, At: at}
	close(msgs)

	f.svc.Consume(ctx, msgs, zaptest.NewLogger(t))

	history, err := f.svc.History(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, day(2024, 1, 2).Equal(history[0].Date))
	require.NotNil(t, history[0].LoginTime)
	assert.True(t, at.Equal(*history[0].LoginTime))
}
