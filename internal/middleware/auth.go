package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hong-ai/hong/internal/logger"
)

type Claims struct {
	Source    string `json:"source"` // "electron", "browser" or "cli"
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// AuthMiddleware validates signed tokens when HONG_AUTH_SECRET is set. The
// Electron shell passes the secret to the sidecar at spawn time and trades it
// for a token, so renderer windows never see the secret itself.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates a new auth middleware instance. Returns nil when
// no secret is configured, which disables authentication entirely.
func NewAuthMiddleware() *AuthMiddleware {
	secret := os.Getenv("HONG_AUTH_SECRET")
	if secret == "" {
		return nil
	}
	return &AuthMiddleware{
		secret: []byte(secret),
	}
}

// RequireAuth is a middleware that checks for valid authentication
func (am *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	// If no auth middleware (no secret), pass through
	if am == nil {
		return c.Next()
	}

	// Health and token exchange stay reachable without a token
	path := c.Path()
	if path == "/health" || path == "/v1/auth/token" {
		return c.Next()
	}

	token := am.extractToken(c)
	if token == "" {
		return c.Status(401).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	claims, err := am.ValidateToken(token)
	if err != nil {
		logger.Debugf("Auth failed: %v", err)
		return c.Status(401).JSON(fiber.Map{
			"error": "invalid or expired token",
		})
	}

	c.Locals("claims", claims)
	return c.Next()
}

// extractToken tries the Authorization header, then the cookie, then a query
// parameter. The query form exists for the initial browser handoff and for
// EventSource connections, which cannot set headers.
func (am *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie := c.Cookies("hong_token"); cookie != "" {
		return cookie
	}

	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

// ValidateToken checks the signature and expiry of a token (exported for use
// in handlers)
func (am *AuthMiddleware) ValidateToken(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format")
	}

	// Verify the signature before trusting anything in the payload
	signatureInput := parts[0] + "." + parts[1]
	h := hmac.New(sha256.New, am.secret)
	h.Write([]byte(signatureInput))
	expected := h.Sum(nil)

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	if !hmac.Equal(signature, expected) {
		return nil, fmt.Errorf("invalid signature")
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return nil, fmt.Errorf("token expired")
	}

	return &claims, nil
}

// GenerateToken generates a new signed token
func GenerateToken(source string, duration time.Duration) (string, error) {
	secret := os.Getenv("HONG_AUTH_SECRET")
	if secret == "" {
		return "", fmt.Errorf("HONG_AUTH_SECRET not set")
	}

	now := time.Now()
	claims := Claims{
		Source:    source,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(duration).Unix(),
	}

	header := map[string]string{
		"alg": "HS256",
		"typ": "JWT",
	}

	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)

	headerEncoded := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsEncoded := base64.RawURLEncoding.EncodeToString(claimsJSON)

	signatureInput := headerEncoded + "." + claimsEncoded
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signatureInput))
	signature := base64.RawURLEncoding.EncodeToString(h.Sum(nil))

	return signatureInput + "." + signature, nil
}
