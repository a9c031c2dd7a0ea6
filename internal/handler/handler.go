package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolportal/internal/account"
	"schoolportal/internal/attendance"
	"schoolportal/internal/httpmiddleware"
	"schoolportal/internal/marks"
	"schoolportal/internal/queue"
	"schoolportal/internal/session"
)

// User-facing messages. Internal errors never reach the client.
const (
	msgInvalidCredentials = "Invalid credentials. Please try again."
	msgLoggedOut          = "Logged out successfully."
	msgStudentNotFound    = "Student not found."
	msgTeacherNotFound    = "Teacher not found."
	msgStudentCreated     = "Student created successfully!"
	msgStudentExists      = "Failed to create student. Username or email might already exist."
	msgStudentInvalid     = "Failed to create student. Please check the details."
	msgMarksAssigned      = "Marks assigned successfully."
	msgMarksFailed        = "Failed to assign marks. Please check the details."
	msgAttendanceMarked   = "Attendance marked."
	msgGenericError       = "An error occurred. Try again."
)

// Deps are the collaborators the request layer needs.
type Deps struct {
	Accounts   *account.Registry
	Sessions   *session.Store
	Attendance *attendance.Service
	Marks      *marks.Registry
	Queue      queue.Queue

	JWTIssuer       string
	JWTSigningKey   string
	TeacherTokenTTL time.Duration

	// Health maps a dependency name to its probe for /healthz.
	Health map[string]func(context.Context) bool

	Log *zap.Logger
	Now func() time.Time
}

// Handler serves the JSON API.
type Handler struct {
	Deps
}

// New creates a handler, filling in defaults for Log, Now and TeacherTokenTTL.
func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TeacherTokenTTL <= 0 {
		d.TeacherTokenTTL = 12 * time.Hour
	}
	return &Handler{Deps: d}
}

func (h *Handler) log(c *gin.Context) *zap.Logger {
	return httpmiddleware.Logger(c, h.Log)
}

// fail logs an unexpected error and answers with a generic message.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.log(c).Error(msg, zap.Error(err), zap.Stack("stack"))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgGenericError})
}

// Healthz reports the state of each registered dependency.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, probe := range h.Health {
		ok := probe(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
