package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/middleware"
	"leaderboard-service/internal/models"
	"leaderboard-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// Counter for ranking passes
	computeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_compute_attempts_total",
			Help: "Total number of leaderboard computation attempts",
		},
		[]string{"status", "type"}, // status: success/failure, type: leaderboard type
	)

	// Histogram for ranking pass duration
	computeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaderboard_compute_duration_seconds",
			Help:    "Time spent computing leaderboard snapshots",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Counter for live rank lookups
	rankLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_rank_lookups_total",
			Help: "Total number of my-rank lookups",
		},
		[]string{"status"},
	)
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	activityService    *services.ActivityService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, activityService *services.ActivityService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		activityService:    activityService,
	}
}

func (h *LeaderboardHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/leaderboard", middleware.Authenticate())

	api.Get("/region/:regionId/top3", h.GetRegionTop3)
	api.Get("/region/:regionId", h.GetRegionLeaderboard)
	api.Get("/all-regions/top3", h.GetAllRegionsTop3, middleware.RequireRole(models.RoleAdmin))
	api.Get("/my-rank", h.GetMyRank)
	api.Get("/statistics", h.GetStatistics, middleware.RequireRole(models.RoleAdmin))
	api.Post("/update-activity/:userId", h.UpdateActivity, middleware.RequireRole(models.RoleAdmin))
	api.Post("/compute", h.Compute, middleware.RequireRole(models.RoleAdmin))
	api.Post("/:id/publish", h.Publish, middleware.RequireRole(models.RoleAdmin))
	api.Post("/:id/unpublish", h.Unpublish, middleware.RequireRole(models.RoleAdmin))
}

func (h *LeaderboardHandler) Compute(c fiber.Ctx) error {
	var req models.ComputeLeaderboardRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ServiceConfig.Leaderboard.ComputeTimeout)
	defer cancel()

	timer := prometheus.NewTimer(computeDuration)
	leaderboard, err := h.leaderboardService.Compute(ctx, &req)
	timer.ObserveDuration()

	if err != nil {
		computeAttempts.WithLabelValues("failure", string(req.LeaderboardType)).Inc()
		log.Printf("Failed to compute leaderboard for region %s: %v", req.RegionID, err)
		return failFromError(c, err, "Failed to compute leaderboard")
	}

	computeAttempts.WithLabelValues("success", string(req.LeaderboardType)).Inc()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"leaderboard": leaderboard,
		},
	})
}

func (h *LeaderboardHandler) Publish(c fiber.Ctx) error {
	leaderboardID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	leaderboard, err := h.leaderboardService.Publish(ctx, leaderboardID)
	if err != nil {
		log.Printf("Failed to publish leaderboard %s: %v", leaderboardID, err)
		return failFromError(c, err, "Failed to publish leaderboard")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"leaderboard": leaderboard,
		},
	})
}

func (h *LeaderboardHandler) Unpublish(c fiber.Ctx) error {
	leaderboardID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	leaderboard, err := h.leaderboardService.Unpublish(ctx, leaderboardID)
	if err != nil {
		log.Printf("Failed to unpublish leaderboard %s: %v", leaderboardID, err)
		return failFromError(c, err, "Failed to unpublish leaderboard")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"leaderboard": leaderboard,
		},
	})
}

func (h *LeaderboardHandler) GetRegionTop3(c fiber.Ctx) error {
	regionID := c.Params("regionId")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	top3, err := h.leaderboardService.GetRegionTop3(ctx, regionID)
	if err != nil {
		log.Printf("Failed to get top3 for region %s: %v", regionID, err)
		return failFromError(c, err, "Failed to retrieve leaderboard")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"leaderboard":   top3,
			"totalStudents": top3.TotalStudents,
		},
	})
}

func (h *LeaderboardHandler) GetRegionLeaderboard(c fiber.Ctx) error {
	regionID := c.Params("regionId")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	students, total, err := h.leaderboardService.GetRegionLeaderboard(ctx, regionID, page, limit)
	if err != nil {
		log.Printf("Failed to get leaderboard for region %s: %v", regionID, err)
		return failFromError(c, err, "Failed to retrieve leaderboard")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"students": students,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}

func (h *LeaderboardHandler) GetAllRegionsTop3(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	regions, err := h.leaderboardService.GetAllRegionsTop3(ctx)
	if err != nil {
		log.Printf("Failed to get all-regions top3: %v", err)
		return failFromError(c, err, "Failed to retrieve leaderboards")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"regions": regions,
			"count":   len(regions),
		},
	})
}

func (h *LeaderboardHandler) GetMyRank(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}

	// Admins and teachers have no rank; this is a client error, not a
	// permission one.
	if claims.Role != models.RoleStudent {
		rankLookups.WithLabelValues("rejected").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Only students have a rank",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rank, err := h.leaderboardService.GetMyRank(ctx, claims.UserID)
	if err != nil {
		rankLookups.WithLabelValues("failure").Inc()
		log.Printf("Failed to get rank for user %s: %v", claims.UserID, err)
		return failFromError(c, err, "Failed to retrieve rank")
	}

	rankLookups.WithLabelValues("success").Inc()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    rank,
	})
}

func (h *LeaderboardHandler) GetStatistics(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := h.leaderboardService.GetStatistics(ctx)
	if err != nil {
		log.Printf("Failed to get leaderboard statistics: %v", err)
		return failFromError(c, err, "Failed to retrieve statistics")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"statistics": stats,
		},
	})
}

func (h *LeaderboardHandler) UpdateActivity(c fiber.Ctx) error {
	userID := c.Params("userId")

	var req models.UpdateActivityRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.activityService.UpdateActivity(ctx, userID, &req); err != nil {
		log.Printf("Failed to update activity for user %s: %v", userID, err)
		return failFromError(c, err, "Failed to update activity")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Activity updated successfully",
	})
}

// failFromError maps service errors onto the response envelope.
func failFromError(c fiber.Ctx, err error, fallback string) error {
	msg := err.Error()

	switch {
	case err == mongo.ErrNoDocuments || strings.Contains(msg, "not found"):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	case strings.Contains(msg, "validation failed") || strings.Contains(msg, "invalid"):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	case strings.Contains(msg, "already"):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": fallback,
		})
	}
}
