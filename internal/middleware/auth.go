package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/newshub/internal/logger"
)

// AuthConfig defines the config for the auth middleware
type AuthConfig struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	// Validator reports whether the presented key is accepted. Required.
	Validator func(key string) (bool, error)

	// ErrorHandler runs for a missing or rejected key.
	// Default: 401 with a JSON error body.
	ErrorHandler fiber.ErrorHandler

	// Header is the header the key is read from. Default: "X-API-Key"
	Header string
}

// ConfigDefault is the default config
var ConfigDefault = AuthConfig{
	ErrorHandler: func(c *fiber.Ctx, err error) error {
		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Err(err).
			Msg("Authentication failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing API Key",
		})
	},
	Header: "X-API-Key",
}

// NewAuth creates an API key middleware
func NewAuth(config AuthConfig) fiber.Handler {
	cfg := config
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = ConfigDefault.ErrorHandler
	}
	if cfg.Header == "" {
		cfg.Header = ConfigDefault.Header
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		key := strings.TrimSpace(strings.TrimPrefix(c.Get(cfg.Header), "Bearer "))
		if key == "" {
			return cfg.ErrorHandler(c, errors.New("missing API key"))
		}

		valid, err := cfg.Validator(key)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}
		if !valid {
			return cfg.ErrorHandler(c, errors.New("invalid API key"))
		}

		return c.Next()
	}
}

// AccessGate requires X-API-Key to equal token. An empty token disables the gate.
func AccessGate(token string) fiber.Handler {
	return NewAuth(AuthConfig{
		Next: func(*fiber.Ctx) bool { return token == "" },
		Validator: func(key string) (bool, error) {
			return keysEqual(key, token), nil
		},
	})
}

// AdminOnly is a middleware that checks if the request is from an admin.
// Admin routes are closed when no admin key is configured.
func AdminOnly(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.Get()

		if adminKey == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access is disabled",
			})
		}

		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			log.Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Admin access attempt without API key")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is required",
			})
		}

		if !keysEqual(apiKey, adminKey) {
			log.Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Unauthorized admin access attempt")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		return c.Next()
	}
}

func keysEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
