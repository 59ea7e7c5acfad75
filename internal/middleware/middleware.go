package middleware

import (
	"fmt"
	"strings"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/models"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const claimsKey = "claims"

// Authenticate validates the bearer token and stores its claims on the
// request context.
func Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(config.ServiceConfig.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. It must run after Authenticate.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Insufficient permissions",
		})
	}
}

func ClaimsFrom(c fiber.Ctx) (*models.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*models.Claims)
	return claims, ok
}

// SetClaims is exposed for handler tests that need a caller identity without
// a full token round trip.
func SetClaims(c fiber.Ctx, claims *models.Claims) {
	c.Locals(claimsKey, claims)
}
