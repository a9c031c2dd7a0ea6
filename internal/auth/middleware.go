package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Messages returned to clients that fail authentication.
const (
	MsgSessionExpired = "Session expired. Please log in again."
	MsgUnauthorized   = "Unauthorized access."
)

// SessionValidator resolves a student session token.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (studentID int64, ok bool, err error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}

// StudentAuth admits requests carrying a valid student session token.
// Unknown and expired tokens get the same response.
func StudentAuth(sessions SessionValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgSessionExpired})
			return
		}
		studentID, ok, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			log.Error("session validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An error occurred. Try again."})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgSessionExpired})
			return
		}
		SetIdentity(c, Identity{Role: RoleStudent, StudentID: studentID})
		c.Next()
	}
}

// TeacherAuth admits requests carrying a teacher access token signed with
// HS256 by this server, checking expiry against now. A bearer that is a live
// student session gets 403 rather than 401; sessions may be nil.
func TeacherAuth(signingKey, issuer string, now func() time.Time, sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgUnauthorized})
			return
		}
		claims, err := Parse(token, signingKey, issuer, now)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgSessionExpired})
				return
			}
			status := http.StatusUnauthorized
			if isStudentSession(c, sessions, token) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": MsgUnauthorized})
			return
		}
		teacherID, err := claims.TeacherID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgUnauthorized})
			return
		}
		SetIdentity(c, Identity{Role: RoleTeacher, TeacherID: teacherID})
		c.Next()
	}
}

func isStudentSession(c *gin.Context, sessions SessionValidator, token string) bool {
	if sessions == nil {
		return false
	}
	_, ok, err := sessions.Validate(c.Request.Context(), token)
	return err == nil && ok
}
