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

type RegionHandler struct {
	regionService *services.RegionService
}

func NewRegionHandler(regionService *services.RegionService) *RegionHandler {
	return &RegionHandler{regionService: regionService}
}

func (h *RegionHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/regions", middleware.Authenticate())

	api.Get("/", h.ListRegions)
	api.Get("/:id", h.GetRegion)
	api.Post("/", h.CreateRegion, middleware.RequireRole(models.RoleAdmin))
	api.Patch("/:id/deactivate", h.DeactivateRegion, middleware.RequireRole(models.RoleAdmin))
}

func (h *RegionHandler) CreateRegion(c fiber.Ctx) error {
	var req models.CreateRegionRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	region, err := h.regionService.CreateRegion(ctx, &req)
	if err != nil {
		log.Printf("Failed to create region %s: %v", req.Code, err)
		return failFromError(c, err, "Failed to create region")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"region": region,
		},
	})
}

func (h *RegionHandler) GetRegion(c fiber.Ctx) error {
	regionID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	region, err := h.regionService.GetRegion(ctx, regionID)
	if err != nil {
		log.Printf("Failed to get region %s: %v", regionID, err)
		return failFromError(c, err, "Failed to retrieve region")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"region": region,
		},
	})
}

func (h *RegionHandler) ListRegions(c fiber.Ctx) error {
	activeOnly := c.Query("active", "true") == "true"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	regions, err := h.regionService.ListRegions(ctx, activeOnly)
	if err != nil {
		log.Printf("Failed to list regions: %v", err)
		return failFromError(c, err, "Failed to retrieve regions")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"regions": regions,
			"count":   len(regions),
		},
	})
}

func (h *RegionHandler) DeactivateRegion(c fiber.Ctx) error {
	regionID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.regionService.DeactivateRegion(ctx, regionID); err != nil {
		log.Printf("Failed to deactivate region %s: %v", regionID, err)
		return failFromError(c, err, "Failed to deactivate region")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Region deactivated successfully",
	})
}
