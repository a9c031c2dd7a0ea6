package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the teacher access token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TeacherToken is a signed teacher access token.
type TeacherToken struct {
	Value     string
	ExpiresAt time.Time
}

// IssueTeacher signs an HS256 access token for a teacher.
func IssueTeacher(teacherID int64, issuer, key string, ttl time.Duration, now time.Time) (TeacherToken, error) {
	exp := now.Add(ttl)
	claims := Claims{
		Role: string(RoleTeacher),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(teacherID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return TeacherToken{}, err
	}
	return TeacherToken{Value: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims. Expiry is checked against now,
// or the wall clock when now is nil.
func Parse(tokenStr, key, issuer string, now func() time.Time) (Claims, error) {
	if now == nil {
		now = time.Now
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	}, jwt.WithTimeFunc(now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}

// TeacherID extracts the teacher id carried in the subject claim.
func (c Claims) TeacherID() (int64, error) {
	if Role(c.Role) != RoleTeacher {
		return 0, errors.New("not a teacher token")
	}
	return strconv.ParseInt(c.Subject, 10, 64)
}
