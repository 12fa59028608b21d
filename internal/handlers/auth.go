package handlers

import (
	"crypto/hmac"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hong-ai/hong/internal/middleware"
)

// AuthHandler exchanges the spawn-time secret for a signed token. The
// middleware leaves /v1/auth/token unauthenticated so the exchange can happen
// before any token exists.
type AuthHandler struct {
	auth *middleware.AuthMiddleware
}

// NewAuthHandler creates a new auth handler. A nil middleware means
// authentication is disabled and the token endpoint reports that.
func NewAuthHandler(auth *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Post("/auth/token", h.IssueToken)
	v1.Get("/auth/status", h.GetAuthStatus)
}

type tokenRequest struct {
	Secret string `json:"secret"`
	Source string `json:"source"`
}

// IssueToken exchanges the shared secret for a signed token
// @Summary Issue auth token
// @Description Exchanges the HONG_AUTH_SECRET value for a signed token with a 24h expiry
// @Tags auth
// @Accept json
// @Produce json
// @Param request body tokenRequest true "Token request"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Invalid secret"
// @Router /v1/auth/token [post]
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	if h.auth == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "authentication is not enabled",
		})
	}

	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	secret := os.Getenv("HONG_AUTH_SECRET")
	if req.Secret == "" || !hmac.Equal([]byte(req.Secret), []byte(secret)) {
		return c.Status(401).JSON(fiber.Map{
			"error": "invalid secret",
		})
	}

	source := req.Source
	if source == "" {
		source = "electron"
	}

	token, err := middleware.GenerateToken(source, 24*time.Hour)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": time.Now().Add(24 * time.Hour).Unix(),
	})
}

// GetAuthStatus reports whether authentication is enabled and, when it is,
// the claims of the presented token
// @Summary Auth status
// @Description Returns whether authentication is enabled and the current token claims
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/auth/status [get]
func (h *AuthHandler) GetAuthStatus(c *fiber.Ctx) error {
	if h.auth == nil {
		return c.JSON(fiber.Map{"enabled": false})
	}

	// The middleware already validated the token for this route
	claims, _ := c.Locals("claims").(*middleware.Claims)
	if claims == nil {
		return c.JSON(fiber.Map{"enabled": true})
	}

	return c.JSON(fiber.Map{
		"enabled":    true,
		"source":     claims.Source,
		"expires_at": claims.ExpiresAt,
	})
}
