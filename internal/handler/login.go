package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolportal/internal/auth"
	"schoolportal/internal/metrics"
	"schoolportal/internal/queue"
)

type loginRequest struct {
	Role     string `json:"role" form:"role" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password"`
}

// Login authenticates a student by username or a teacher by email.
// Students receive a session token and have attendance queued for today.
// Queuing attendance at login is new in this service; the earlier portal
// only recorded attendance through the explicit mark endpoint.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}
	role, ok := auth.ParseRole(req.Role)
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("unknown", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}
	if role == auth.RoleStudent {
		h.loginStudent(c, req)
		return
	}
	h.loginTeacher(c, req)
}

func (h *Handler) loginStudent(c *gin.Context, req loginRequest) {
	ctx := c.Request.Context()
	student, err := h.Accounts.AuthenticateStudent(ctx, req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("student", "error").Inc()
		h.fail(c, "student login failed", err)
		return
	}
	if student == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("student", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}
	tok, err := h.Sessions.Create(ctx, student.ID)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("student", "error").Inc()
		h.fail(c, "create session failed", err)
		return
	}
	msg := queue.Message{Kind: queue.KindMarkAttendance, StudentID: student.ID, At: h.Now()}
	if err := h.Queue.Publish(ctx, msg); err != nil {
		h.log(c).Warn("queue publish failed", zap.Int64("student_id", student.ID), zap.Error(err))
	}
	metrics.LoginAttemptsTotal.WithLabelValues("student", "success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"role":       auth.RoleStudent,
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt,
		"student":    student,
	})
}

func (h *Handler) loginTeacher(c *gin.Context, req loginRequest) {
	teacher, err := h.Accounts.AuthenticateTeacher(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("teacher", "error").Inc()
		h.fail(c, "teacher login failed", err)
		return
	}
	if teacher == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("teacher", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}
	tok, err := auth.IssueTeacher(teacher.ID, h.JWTIssuer, h.JWTSigningKey, h.TeacherTokenTTL, h.Now())
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("teacher", "error").Inc()
		h.fail(c, "issue teacher token failed", err)
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("teacher", "success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"role":       auth.RoleTeacher,
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt,
		"teacher":    teacher,
	})
}

// Logout acknowledges a logout. Tokens are discarded client side and stored
// sessions are left to expire.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}
