package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolportal/internal/attendance"
	"schoolportal/internal/auth"
	"schoolportal/internal/metrics"
)

const dateLayout = "2006-01-02"

type statsView struct {
	Percentage  float64 `json:"percentage"`
	PresentDays int     `json:"present_days"`
	TotalDays   int     `json:"total_days"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type dayView struct {
	Date      string     `json:"date"`
	LoggedIn  bool       `json:"logged_in"`
	LoginTime *time.Time `json:"login_time"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toStatsView(s attendance.Stats) statsView {
	return statsView{
		Percentage:  s.Percentage,
		PresentDays: s.PresentDays,
		TotalDays:   s.TotalDays,
		StartDate:   formatDate(s.StartDate),
		EndDate:     formatDate(s.EndDate),
	}
}

func toDayViews(days []attendance.Day) []dayView {
	out := make([]dayView, 0, len(days))
	for _, d := range days {
		out = append(out, dayView{Date: d.Date.Format(dateLayout), LoggedIn: d.LoggedIn, LoginTime: d.LoginTime})
	}
	return out
}

// StudentDashboard returns the caller's profile, attendance and marks.
func (h *Handler) StudentDashboard(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	ctx := c.Request.Context()

	student, err := h.Accounts.GetStudent(ctx, id.StudentID)
	if err != nil {
		h.fail(c, "load student failed", err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": msgStudentNotFound})
		return
	}
	stats, err := h.Attendance.Percentage(ctx, student.ID)
	if err != nil {
		h.fail(c, "attendance stats failed", err)
		return
	}
	history, err := h.Attendance.History(ctx, student.ID)
	if err != nil {
		h.fail(c, "attendance history failed", err)
		return
	}
	studentMarks, err := h.Marks.StudentMarks(ctx, student.ID)
	if err != nil {
		h.fail(c, "load marks failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student":            student,
		"attendance_stats":   toStatsView(stats),
		"attendance_history": toDayViews(history),
		"marks":              studentMarks,
	})
}

// MarkAttendance records the caller as present today.
func (h *Handler) MarkAttendance(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	if err := h.Attendance.Mark(c.Request.Context(), id.StudentID); err != nil {
		h.fail(c, "mark attendance failed", err)
		return
	}
	metrics.AttendanceMarkedTotal.WithLabelValues("request").Inc()
	c.JSON(http.StatusOK, gin.H{"message": msgAttendanceMarked})
}
