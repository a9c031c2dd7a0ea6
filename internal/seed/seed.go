// Package seed loads the sample school used for demos and local development.
// Each table is only filled when it is empty, so running it twice is safe.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"schoolportal/internal/account"
	"schoolportal/internal/attendance"
	"schoolportal/internal/marks"
)

// AttendanceDays is how many past days of attendance each student gets.
const AttendanceDays = 30

type sampleStudent struct {
	username, password, name, email string
}

type sampleTeacher struct {
	name, email, password, department string
}

type sampleSubject struct {
	name, code, teacherEmail string
}

type sampleMark struct {
	username, subjectCode string
	score                 float64
}

var (
	students = []sampleStudent{
		{"john_doe", "password123", "John Doe", "john.doe@example.com"},
		{"jane_smith", "password123", "Jane Smith", "jane.smith@example.com"},
		{"bob_johnson", "password123", "Bob Johnson", "bob.johnson@example.com"},
		{"alice_williams", "password123", "Alice Williams", "alice.williams@example.com"},
		{"charlie_brown", "password123", "Charlie Brown", "charlie.brown@example.com"},
	}
	teachers = []sampleTeacher{
		{"Prof. Alan Turing", "alan@univ.edu", "turing123", "Computer Science"},
		{"Prof. Ada Lovelace", "ada@univ.edu", "ada123", "Mathematics"},
	}
	subjects = []sampleSubject{
		{"Data Structures", "CS101", "alan@univ.edu"},
		{"Discrete Math", "MA102", "ada@univ.edu"},
	}
	sampleMarks = []sampleMark{
		{"john_doe", "CS101", 85},
		{"john_doe", "MA102", 78},
		{"jane_smith", "CS101", 88},
		{"jane_smith", "MA102", 92},
	}
)

// Report counts the rows written by Run.
type Report struct {
	Students   int
	Teachers   int
	Subjects   int
	Marks      int
	Attendance int
}

// Seeder writes the sample data through the domain registries.
type Seeder struct {
	db       *sql.DB
	accounts *account.Registry
	marks    *marks.Registry
	att      *attendance.Repository
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

// New creates a seeder. Attendance days are calendar days in loc.
func New(db *sql.DB, loc *time.Location, now func() time.Time, log *zap.Logger) *Seeder {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		db:       db,
		accounts: account.NewRegistry(db, now),
		marks:    marks.NewRegistry(db, now),
		att:      attendance.NewRepository(db),
		loc:      loc,
		now:      now,
		log:      log,
	}
}

// Run seeds every empty table.
func (s *Seeder) Run(ctx context.Context) (Report, error) {
	var rep Report
	steps := []struct {
		table string
		fn    func(context.Context) (int, error)
		count *int
	}{
		{"students", s.seedStudents, &rep.Students},
		{"teachers", s.seedTeachers, &rep.Teachers},
		{"subjects", s.seedSubjects, &rep.Subjects},
		{"marks", s.seedMarks, &rep.Marks},
		{"attendance", s.seedAttendance, &rep.Attendance},
	}
	for _, step := range steps {
		empty, err := s.empty(ctx, step.table)
		if err != nil {
			return rep, err
		}
		if !empty {
			s.log.Info("table already populated, skipping", zap.String("table", step.table))
			continue
		}
		n, err := step.fn(ctx)
		if err != nil {
			return rep, fmt.Errorf("seed %s: %w", step.table, err)
		}
		*step.count = n
		s.log.Info("table seeded", zap.String("table", step.table), zap.Int("rows", n))
	}
	return rep, nil
}

// empty reports whether table has no rows. table is always one of the fixed
// names in Run.
func (s *Seeder) empty(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n == 0, nil
}

func (s *Seeder) lookupID(ctx context.Context, query, key string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *Seeder) seedStudents(ctx context.Context) (int, error) {
	n := 0
	for _, st := range students {
		ok, err := s.accounts.CreateStudent(ctx, st.username, st.password, st.name, st.email)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *Seeder) seedTeachers(ctx context.Context) (int, error) {
	for i, t := range teachers {
		if _, err := s.accounts.CreateTeacher(ctx, t.name, t.email, t.password, t.department); err != nil {
			return i, err
		}
	}
	return len(teachers), nil
}

func (s *Seeder) seedSubjects(ctx context.Context) (int, error) {
	for i, sub := range subjects {
		var owner *int64
		id, ok, err := s.lookupID(ctx, `SELECT id FROM teachers WHERE email = $1`, sub.teacherEmail)
		if err != nil {
			return i, err
		}
		if ok {
			owner = &id
		}
		if _, err := s.marks.CreateSubject(ctx, sub.name, sub.code, owner); err != nil {
			return i, err
		}
	}
	return len(subjects), nil
}

func (s *Seeder) seedMarks(ctx context.Context) (int, error) {
	n := 0
	for _, m := range sampleMarks {
		studentID, ok, err := s.lookupID(ctx, `SELECT id FROM students WHERE username = $1`, m.username)
		if err != nil {
			return n, err
		}
		subjectID, subjectOK, err := s.lookupID(ctx, `SELECT id FROM subjects WHERE code = $1`, m.subjectCode)
		if err != nil {
			return n, err
		}
		if !ok || !subjectOK {
			s.log.Warn("sample mark skipped", zap.String("username", m.username), zap.String("subject", m.subjectCode))
			continue
		}
		if _, err := s.marks.Assign(ctx, studentID, subjectID, m.score); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Absent reports whether the sample pattern marks a day absent: weekend days
// a multiple of three days back, and every seventh day back.
func Absent(day time.Time, daysAgo int) bool {
	weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
	return (weekend && daysAgo%3 == 0) || daysAgo%7 == 0
}

// LoginMinute is the sample login minute past 08:00 for a present day.
func LoginMinute(daysAgo int, studentOrdinal int) int {
	return (daysAgo*7 + studentOrdinal*11) % 60
}

func (s *Seeder) seedAttendance(ctx context.Context) (int, error) {
	y, m, d := s.now().In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	n := 0
	for i, st := range students {
		studentID, ok, err := s.lookupID(ctx, `SELECT id FROM students WHERE username = $1`, st.username)
		if err != nil {
			return n, err
		}
		if !ok {
			continue
		}
		ordinal := i + 1
		for daysAgo := 0; daysAgo < AttendanceDays; daysAgo++ {
			day := today.AddDate(0, 0, -daysAgo)
			date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
			var loginTime *time.Time
			present := !Absent(day, daysAgo)
			if present {
				lt := time.Date(day.Year(), day.Month(), day.Day(), 8, LoginMinute(daysAgo, ordinal), 0, 0, s.loc).UTC()
				loginTime = &lt
			}
			if err := s.att.Upsert(ctx, studentID, date, present, loginTime); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
