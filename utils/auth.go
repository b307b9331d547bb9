// utils/auth.go
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenCookie is the session cookie set on login.
	TokenCookie = "token"
	// UserIDKey is the gin context key holding the authenticated user id.
	UserIDKey = "userId"
)

// PasswordCost is the bcrypt cost used by HashPassword.
var PasswordCost = 12

var ErrInvalidToken = errors.New("invalid token")

// GenerateJWTSecret returns n random bytes, base64 encoded, for JWT_SECRET.
func GenerateJWTSecret(n int) (string, error) {
	if n < 16 {
		return "", errors.New("secret must be at least 16 bytes")
	}
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken signs a session token for userID valid for ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not set")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry and returns the subject.
func ParseToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// tokenFromRequest reads a bearer token, falling back to the session cookie.
func tokenFromRequest(c *gin.Context) string {
	tokenString := c.GetHeader("Authorization")
	if len(tokenString) > 7 && strings.ToUpper(tokenString[0:6]) == "BEARER" {
		return strings.TrimSpace(tokenString[7:])
	}
	if tokenString != "" {
		return tokenString
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// Auth middleware
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		userID, err := ParseToken(tokenString, secret)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
