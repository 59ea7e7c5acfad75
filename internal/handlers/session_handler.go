package handlers

import (
	"context"
	"log"
	"time"

	"leaderboard-service/internal/middleware"
	"leaderboard-service/internal/models"
	"leaderboard-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/sessions", middleware.Authenticate())

	api.Post("/", h.CreateSession)
	api.Get("/:id", h.GetSession)
	api.Post("/:id/complete", h.CompleteSession, middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
}

func (h *SessionHandler) CreateSession(c fiber.Ctx) error {
	var req models.CreateSessionRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := h.sessionService.CreateSession(ctx, &req)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		return failFromError(c, err, "Failed to create session")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session": session,
		},
	})
}

func (h *SessionHandler) GetSession(c fiber.Ctx) error {
	sessionID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := h.sessionService.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("Failed to get session %s: %v", sessionID, err)
		return failFromError(c, err, "Failed to retrieve session")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session": session,
		},
	})
}

func (h *SessionHandler) CompleteSession(c fiber.Ctx) error {
	sessionID := c.Params("id")

	var req models.CompleteSessionRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := h.sessionService.CompleteSession(ctx, sessionID, &req)
	if err != nil {
		log.Printf("Failed to complete session %s: %v", sessionID, err)
		return failFromError(c, err, "Failed to complete session")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session": session,
		},
	})
}
