package attendance

import (
	"context"

	"go.uber.org/zap"

	"schoolportal/internal/metrics"
	"schoolportal/internal/queue"
)

// Consume marks attendance for every mark message until msgs is closed.
// Failures are logged and the message is dropped.
func (s *Service) Consume(ctx context.Context, msgs <-chan queue.Message, log *zap.Logger) {
	for msg := range msgs {
		if msg.Kind != queue.KindMarkAttendance {
			log.Debug("skipping message", zap.String("kind", msg.Kind))
			continue
		}
		at := msg.At
		if at.IsZero() {
			at = s.now()
		}
		if err := s.MarkAt(ctx, msg.StudentID, at); err != nil {
			log.Error("mark attendance failed", zap.Int64("student_id", msg.StudentID), zap.Error(err))
			continue
		}
		metrics.AttendanceMarkedTotal.WithLabelValues("queue").Inc()
		log.Debug("attendance marked", zap.Int64("student_id", msg.StudentID), zap.Time("at", at))
	}
}
