package handlers

import (
	"context"
	"log"
	"time"

	"leaderboard-service/internal/models"
	"leaderboard-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status", "role"},
	)
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/auth")

	api.Post("/register", h.Register)
	api.Post("/login", h.Login)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req models.RegisterRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.authService.Register(ctx, &req)
	if err != nil {
		registrations.WithLabelValues("failure", string(req.Role)).Inc()
		log.Printf("Failed to register user %s: %v", req.Email, err)
		return failFromError(c, err, "Failed to register user")
	}

	registrations.WithLabelValues("success", string(req.Role)).Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": user,
		},
	})
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req models.LoginRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		log.Printf("Failed login for %s: %v", req.Email, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	loginAttempts.WithLabelValues("success").Inc()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}
