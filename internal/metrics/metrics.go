// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "school_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LoginAttemptsTotal counts logins by role and outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_login_attempts_total",
		Help: "Login attempts by role and outcome.",
	}, []string{"role", "outcome"})

	// StudentsCreatedTotal counts student creation attempts by outcome.
	StudentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_students_created_total",
		Help: "Student account creation attempts by outcome.",
	}, []string{"outcome"})

	// AttendanceMarkedTotal counts attendance marks by source (request or queue).
	AttendanceMarkedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_attendance_marked_total",
		Help: "Attendance marks written.",
	}, []string{"source"})

	// MarksAssignedTotal counts assigned marks.
	MarksAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_marks_assigned_total",
		Help: "Marks rows inserted.",
	})

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)
