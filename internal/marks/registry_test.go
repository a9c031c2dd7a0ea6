package marks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolportal/internal/account"
	"schoolportal/internal/marks"
	"schoolportal/internal/store"
	"schoolportal/internal/store/storetest"
)

type fixture struct {
	reg       *marks.Registry
	studentID int64
	teacherID int64
	cs        marks.Subject
	ma        marks.Subject
}

var fixedNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storetest.Open(t)
	ctx := context.Background()

	accounts := account.NewRegistry(db.Client, nil)
	ok, err := accounts.CreateStudent(ctx, "jane_smith", "password123", "Jane Smith", "jane@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	students, err := accounts.ListStudents(ctx)
	require.NoError(t, err)
	teacher, err := accounts.CreateTeacher(ctx, "Prof. Alan Turing", "alan@univ.edu", "turing123", "Computer Science")
	require.NoError(t, err)

	f := &fixture{
		reg:       marks.NewRegistry(db.Client, func() time.Time { return fixedNow }),
		studentID: students[0].ID,
		teacherID: teacher.ID,
	}
	f.cs, err = f.reg.CreateSubject(ctx, "Data Structures", "CS101", &f.teacherID)
	require.NoError(t, err)
	f.ma, err = f.reg.CreateSubject(ctx, "Discrete Math", "MA102", nil)
	require.NoError(t, err)
	return f
}

func TestAssignAndReadBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.reg.Assign(ctx, f.studentID, f.ma.ID, 78)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, marks.DefaultMaxMarks, m.MaxMarks)
	_, err = f.reg.Assign(ctx, f.studentID, f.cs.ID, 88.5)
	require.NoError(t, err)

	got, err := f.reg.StudentMarks(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Discrete Math", got[0].SubjectName)
	assert.Equal(t, 78.0, got[0].MarksObtained)
	assert.Equal(t, "Data Structures", got[1].SubjectName)
	assert.Equal(t, 88.5, got[1].MarksObtained)
	assert.Equal(t, 100.0, got[1].MaxMarks)
}

func TestAssignKeepsHistoryWithoutBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, v := range []float64{40, 55, 120} {
		_, err := f.reg.Assign(ctx, f.studentID, f.cs.ID, v)
		require.NoError(t, err)
	}

	got, err := f.reg.StudentMarks(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 120.0, got[2].MarksObtained)
}

func TestAssignWritesAuditLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reg.Assign(ctx, f.studentID, f.cs.ID, 85)
	require.NoError(t, err)

	entries, err := f.reg.AuditLog(ctx, f.studentID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.cs.ID, entries[0].SubjectID)
	assert.Equal(t, 85.0, entries[0].MarksObtained)
	assert.True(t, fixedNow.Equal(entries[0].InsertedAt))
}

func TestAssignUnknownSubjectLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reg.Assign(ctx, f.studentID, 9999, 50)
	require.Error(t, err)
	assert.True(t, store.IsForeignKeyViolation(err))

	got, err := f.reg.StudentMarks(ctx, f.studentID)
	require.NoError(t, err)
	assert.Empty(t, got)
	entries, err := f.reg.AuditLog(ctx, f.studentID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owned, err := f.reg.SubjectsByTeacher(ctx, f.teacherID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "CS101", owned[0].Code)
	require.NotNil(t, owned[0].TeacherID)
	assert.Equal(t, f.teacherID, *owned[0].TeacherID)

	_, err = f.reg.CreateSubject(ctx, "Copy", "CS101", nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
