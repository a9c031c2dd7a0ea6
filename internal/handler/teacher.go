package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolportal/internal/auth"
	"schoolportal/internal/marks"
	"schoolportal/internal/metrics"
	"schoolportal/internal/store"
)

// TeacherDashboard returns the caller's profile and subjects.
func (h *Handler) TeacherDashboard(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	ctx := c.Request.Context()

	teacher, err := h.Accounts.GetTeacher(ctx, id.TeacherID)
	if err != nil {
		h.fail(c, "load teacher failed", err)
		return
	}
	if teacher == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": msgTeacherNotFound})
		return
	}
	subjects, err := h.Marks.SubjectsByTeacher(ctx, teacher.ID)
	if err != nil {
		h.fail(c, "load subjects failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teacher": teacher, "subjects": subjects})
}

// ListStudents returns every student account.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.Accounts.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, "list students failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ListSubjects returns the subjects taught by the caller.
func (h *Handler) ListSubjects(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	subjects, err := h.Marks.SubjectsByTeacher(c.Request.Context(), id.TeacherID)
	if err != nil {
		h.fail(c, "list subjects failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

type createStudentRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
}

// CreateStudent registers a student account.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		metrics.StudentsCreatedTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": msgStudentInvalid})
		return
	}
	created, err := h.Accounts.CreateStudent(c.Request.Context(), req.Username, req.Password, req.Name, req.Email)
	if err != nil {
		metrics.StudentsCreatedTotal.WithLabelValues("error").Inc()
		h.fail(c, "create student failed", err)
		return
	}
	if !created {
		metrics.StudentsCreatedTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": msgStudentExists})
		return
	}
	metrics.StudentsCreatedTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, gin.H{"message": msgStudentCreated})
}

type assignMarksRequest struct {
	StudentID int64       `json:"student_id" form:"student_id" binding:"required"`
	SubjectID int64       `json:"subject_id" form:"subject_id" binding:"required"`
	Marks     json.Number `json:"marks" form:"marks" binding:"required"`
}

// parseMarks reads a finite decimal score.
func parseMarks(n json.Number) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AssignMarks records a score for a student in a subject.
func (h *Handler) AssignMarks(c *gin.Context) {
	var req assignMarksRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMarksFailed})
		return
	}
	score, ok := parseMarks(req.Marks)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMarksFailed})
		return
	}
	mark, err := h.Marks.Assign(c.Request.Context(), req.StudentID, req.SubjectID, score)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			h.log(c).Info("marks reference unknown student or subject",
				zap.Int64("student_id", req.StudentID), zap.Int64("subject_id", req.SubjectID))
			c.JSON(http.StatusBadRequest, gin.H{"error": msgMarksFailed})
			return
		}
		h.fail(c, "assign marks failed", err)
		return
	}
	metrics.MarksAssignedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"message": msgMarksAssigned, "mark": mark})
}

// MarksLog returns the audit trail of marks recorded for a student.
func (h *Handler) MarksLog(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgStudentNotFound})
		return
	}
	ctx := c.Request.Context()
	student, err := h.Accounts.GetStudent(ctx, id)
	if err != nil {
		h.fail(c, "load student failed", err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": msgStudentNotFound})
		return
	}
	entries, err := h.Marks.AuditLog(ctx, student.ID)
	if err != nil {
		h.fail(c, "load marks log failed", err)
		return
	}
	if entries == nil {
		entries = []marks.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"student_id": student.ID, "entries": entries})
}
