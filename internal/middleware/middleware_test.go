package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/models"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, role models.Role, lifetime time.Duration) string {
	t.Helper()

	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.ServiceConfig.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
		UserID: "64f000000000000000000001",
		Name:   "Test User",
		Email:  "test@example.com",
		Role:   role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.ServiceConfig.JWT.Secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

func testApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", func(c fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"success": true, "role": claims.Role})
	}, Authenticate())
	app.Get("/admin", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	}, Authenticate(), RequireRole(models.RoleAdmin))
	return app
}

func TestAuthenticate_MissingToken(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for a missing token, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Success {
		t.Error("Expected success=false in the error envelope")
	}
	if envelope.Message == "" {
		t.Error("Expected a message in the error envelope")
	}
}

func TestAuthenticate_MalformedToken(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for a malformed token, got %d", resp.StatusCode)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleStudent, -time.Hour))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for an expired token, got %d", resp.StatusCode)
	}
}

func TestAuthenticate_ValidTokenReachesHandler(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleStudent, time.Hour))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 for a valid token, got %d", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       models.Role
		wantStatus int
	}{
		{"admin allowed", models.RoleAdmin, fiber.StatusOK},
		{"student forbidden", models.RoleStudent, fiber.StatusForbidden},
		{"teacher forbidden", models.RoleTeacher, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp()

			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.role, time.Hour))
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Role %s: expected %d, got %d", tt.role, tt.wantStatus, resp.StatusCode)
			}
		})
	}
}
