package marks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schoolportal/internal/store"
)

// DefaultMaxMarks is stored as max_marks for every assigned mark.
const DefaultMaxMarks = 100.0

// Subject is a taught subject, optionally owned by a teacher.
type Subject struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	TeacherID *int64 `json:"teacher_id,omitempty"`
}

// Mark is one recorded score, joined with its subject name on reads.
type Mark struct {
	ID            int64   `json:"id"`
	StudentID     int64   `json:"student_id"`
	SubjectID     int64   `json:"subject_id"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
	SubjectName   string  `json:"subject_name,omitempty"`
}

// LogEntry is an audit row written alongside every mark.
type LogEntry struct {
	ID            int64     `json:"id"`
	StudentID     int64     `json:"student_id"`
	SubjectID     int64     `json:"subject_id"`
	MarksObtained float64   `json:"marks_obtained"`
	InsertedAt    time.Time `json:"inserted_at"`
}

// Registry stores subjects and marks. Marks are append-only.
type Registry struct {
	db  *sql.DB
	now func() time.Time
}

// NewRegistry creates a registry. A nil now defaults to time.Now.
func NewRegistry(db *sql.DB, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{db: db, now: now}
}

// Assign appends a mark and its audit entry in one transaction. Repeated
// marks for the same subject are kept as history.
func (r *Registry) Assign(ctx context.Context, studentID, subjectID int64, marksObtained float64) (Mark, error) {
	m := Mark{StudentID: studentID, SubjectID: subjectID, MarksObtained: marksObtained, MaxMarks: DefaultMaxMarks}
	err := store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO marks (student_id, subject_id, marks_obtained, max_marks)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, m.StudentID, m.SubjectID, m.MarksObtained, m.MaxMarks)
		if err := row.Scan(&m.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO marks_log (student_id, subject_id, marks_obtained, inserted_at)
			VALUES ($1, $2, $3, $4)
		`, m.StudentID, m.SubjectID, m.MarksObtained, r.now().UTC())
		return err
	})
	if err != nil {
		return Mark{}, fmt.Errorf("assign marks: %w", err)
	}
	return m, nil
}

// StudentMarks returns a student's marks with subject names in insertion order.
func (r *Registry) StudentMarks(ctx context.Context, studentID int64) ([]Mark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.student_id, m.subject_id, m.marks_obtained, m.max_marks, s.name
		FROM marks m
		JOIN subjects s ON s.id = m.subject_id
		WHERE m.student_id = $1
		ORDER BY m.id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("student marks: %w", err)
	}
	defer rows.Close()

	var out []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.ID, &m.StudentID, &m.SubjectID, &m.MarksObtained, &m.MaxMarks, &m.SubjectName); err != nil {
			return nil, fmt.Errorf("student marks: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AuditLog returns the audit entries for a student, oldest first.
func (r *Registry) AuditLog(ctx context.Context, studentID int64) ([]LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, subject_id, marks_obtained, inserted_at
		FROM marks_log
		WHERE student_id = $1
		ORDER BY id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("marks log: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.SubjectID, &e.MarksObtained, &e.InsertedAt); err != nil {
			return nil, fmt.Errorf("marks log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSubject inserts a subject. A taken code yields store.ErrDuplicate.
func (r *Registry) CreateSubject(ctx context.Context, name, code string, teacherID *int64) (Subject, error) {
	s := Subject{Name: name, Code: code, TeacherID: teacherID}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO subjects (name, code, teacher_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.Name, s.Code, s.TeacherID)
	if err := row.Scan(&s.ID); err != nil {
		if store.IsUniqueViolation(err) {
			return Subject{}, fmt.Errorf("create subject %s: %w", code, store.ErrDuplicate)
		}
		return Subject{}, fmt.Errorf("create subject %s: %w", code, err)
	}
	return s, nil
}

// SubjectsByTeacher lists the subjects a teacher owns.
func (r *Registry) SubjectsByTeacher(ctx context.Context, teacherID int64) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, teacher_id FROM subjects
		WHERE teacher_id = $1
		ORDER BY id
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("subjects by teacher: %w", err)
	}
	defer rows.Close()

	var out []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.TeacherID); err != nil {
			return nil, fmt.Errorf("subjects by teacher: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
