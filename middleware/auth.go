package middleware

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"lifeloop/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const TokenIssuer = "lifeloop"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// AuthMiddleware validates the caller's access token and stores its user_id
// claim in the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.TrackError("auth", "missing_token")
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			utils.TrackError("auth", "invalid_token")
			utils.Unauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["user_id"] == nil || claims["exp"] == nil {
			utils.Unauthorized(c, "Invalid token claims")
			return
		}

		// Refresh tokens cannot call the API
		if tokenType, exists := claims["type"]; exists && tokenType == "refresh" {
			utils.Unauthorized(c, "Invalid token type")
			return
		}

		if iss, ok := claims["iss"].(string); ok && iss != TokenIssuer {
			utils.Unauthorized(c, "Invalid token issuer")
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			utils.Unauthorized(c, "Invalid user ID in token")
			return
		}

		c.Set("user_id", userID)
		if iat, ok := claims["iat"].(float64); ok {
			c.Set("token_issued_at", time.Unix(int64(iat), 0))
		}

		c.Next()
	}
}

// TriggerAuth guards the scheduler trigger endpoints with a shared secret.
// An empty secret rejects every request.
func TriggerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok || secret == "" ||
			subtle.ConstantTimeCompare([]byte(tokenString), []byte(secret)) != 1 {
			utils.TrackError("auth", "invalid_trigger_secret")
			utils.Unauthorized(c, "Invalid trigger credentials")
			return
		}
		c.Next()
	}
}

// NewAccessToken signs a short-lived access token for userID. Used by the
// tooling that calls the API on a user's behalf and by tests.
func NewAccessToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "access",
		"iss":     TokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
