package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"persona-quest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionKey is the gin context key holding the caller's session id.
const SessionKey = "session_id"

const renewWindow = 24 * time.Hour

// SessionTokens signs and verifies HS256 session tokens carrying a "sid" claim.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), ttl: ttl}
}

func (s *SessionTokens) Issue(sid string) (string, time.Time, error) {
	exp := time.Now().Add(s.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, exp, nil
}

// Parse returns the session id and expiry of a valid token.
func (s *SessionTokens) Parse(raw string) (string, time.Time, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", time.Time{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("invalid claims")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", time.Time{}, errors.New("missing sid")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", time.Time{}, errors.New("missing exp")
	}
	return sid, exp.Time, nil
}

// Session resolves the session for each request. Requests without an Authorization
// header run in the default session; a bad token is rejected with 401.
func (s *SessionTokens) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Set(SessionKey, model.DefaultSession)
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		sid, exp, err := s.Parse(auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(SessionKey, sid)

		// renew when less than a day is left
		if time.Until(exp) < renewWindow {
			if newToken, _, err := s.Issue(sid); err == nil {
				c.Header("X-New-Token", newToken)
			}
		}

		c.Next()
	}
}

// SessionID returns the session resolved by Session, or the default session.
func SessionID(c *gin.Context) string {
	if sid := c.GetString(SessionKey); sid != "" {
		return sid
	}
	return model.DefaultSession
}
