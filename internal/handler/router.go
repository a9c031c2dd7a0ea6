package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolportal/internal/auth"
	"schoolportal/internal/httpmiddleware"
)

// NewRouter builds the gin engine with middleware and all routes. A nil
// limiter disables rate limiting.
func NewRouter(h *Handler, limiter httpmiddleware.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(httpmiddleware.Recovery(h.Log))
	r.Use(httpmiddleware.RequestLogger(h.Log, "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics())
	if limiter != nil {
		r.Use(httpmiddleware.RateLimit(limiter, h.Log))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/login", h.Login)
	v1.POST("/logout", h.Logout)

	student := v1.Group("/student", auth.StudentAuth(h.Sessions, h.Log))
	student.GET("/dashboard", h.StudentDashboard)
	student.POST("/attendance", h.MarkAttendance)

	teacher := v1.Group("/teacher", auth.TeacherAuth(h.JWTSigningKey, h.JWTIssuer, h.Now, h.Sessions))
	teacher.GET("/dashboard", h.TeacherDashboard)
	teacher.GET("/students", h.ListStudents)
	teacher.POST("/students", h.CreateStudent)
	teacher.GET("/subjects", h.ListSubjects)
	teacher.POST("/marks", h.AssignMarks)
	teacher.GET("/students/:id/marks-log", h.MarksLog)

	return r
}
