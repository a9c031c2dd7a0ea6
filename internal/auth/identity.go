package auth

import "github.com/gin-gonic/gin"

// Role is one of the two account kinds.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole maps a submitted role string to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher:
		return Role(s), true
	}
	return "", false
}

// Identity is the caller resolved for the current request. Exactly one of
// StudentID and TeacherID is set, matching Role.
type Identity struct {
	Role      Role
	StudentID int64
	TeacherID int64
}

const identityKey = "identity"

// SetIdentity stores the caller on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller stored by the auth middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
