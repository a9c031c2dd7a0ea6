package attendance

import (
	"context"
	"errors"
	"math"
	"time"
)

// Day is one stored attendance row.
type Day struct {
	Date      time.Time
	LoggedIn  bool
	LoginTime *time.Time
}

// Stats summarises a student's attendance.
type Stats struct {
	Percentage  float64
	PresentDays int
	TotalDays   int
	StartDate   *time.Time
	EndDate     *time.Time
}

// Service computes attendance figures and records logins.
type Service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService creates a service backed by a repository. Calendar days are
// taken in loc (UTC when nil).
func NewService(repo *Repository, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, loc: loc, now: now}
}

// Percent returns present/total as a percentage rounded to two decimals, or 0
// when total is 0. Exact halves round to even, so 1 of 32 days is 3.12.
func Percent(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.RoundToEven(float64(present)/float64(total)*100*100) / 100
}

// Percentage returns counts, percentage and date range for a student. A
// student without rows gets zero values and nil dates.
func (s *Service) Percentage(ctx context.Context, studentID int64) (Stats, error) {
	total, present, err := s.repo.Counts(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	first, last, err := s.repo.Bounds(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Percentage:  Percent(present, total),
		PresentDays: present,
		TotalDays:   total,
		StartDate:   first,
		EndDate:     last,
	}, nil
}

// History returns the student's rows, most recent first.
func (s *Service) History(ctx context.Context, studentID int64) ([]Day, error) {
	return s.repo.History(ctx, studentID)
}

// Mark records the student as present today with the current time.
func (s *Service) Mark(ctx context.Context, studentID int64) error {
	return s.MarkAt(ctx, studentID, s.now())
}

// MarkAt records the student as present on the calendar day of at. An
// existing row for that day is overwritten.
func (s *Service) MarkAt(ctx context.Context, studentID int64, at time.Time) error {
	if studentID <= 0 {
		return errors.New("student id required")
	}
	at = at.UTC()
	return s.repo.Upsert(ctx, studentID, s.DayOf(at), true, &at)
}

// DayOf maps an instant to its calendar date in the service's location,
// expressed as midnight UTC.
func (s *Service) DayOf(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
