package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/calebchiang/repcoach_server/logger"
)

const (
	UserIDKey     = "user_id"
	AnonymousUser = "anonymous"
)

// RequireAuth checks the bearer token and stores its user_id claim on the
// context. Without a secret every request runs as AnonymousUser.
func RequireAuth(secret string, log *logger.Logger) gin.HandlerFunc {
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, API is unauthenticated")
		return func(c *gin.Context) {
			c.Set(UserIDKey, AnonymousUser)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userID := claimString(claims[UserIDKey])
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has no user"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// claimString accepts string ids and the numeric ids older tokens carry.
func claimString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}

// UserID returns the authenticated user, or "" outside RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// IssueToken signs an HS256 token for userID, valid for ttl.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		UserIDKey: userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})

	return token.SignedString([]byte(secret))
}
