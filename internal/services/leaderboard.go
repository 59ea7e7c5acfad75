package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/event"
	"leaderboard-service/internal/models"
	"leaderboard-service/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type LeaderboardService struct {
	leaderboardRepo *repository.LeaderboardRepository
	regionRepo      *repository.RegionRepository
	userRepo        *repository.UserRepository
	sessionRepo     *repository.SessionRepository
	cacheRepo       *repository.CacheRepository
	publisher       event.Publisher
	cfg             config.LeaderboardConfig
}

func NewLeaderboardService(
	leaderboardRepo *repository.LeaderboardRepository,
	regionRepo *repository.RegionRepository,
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	cacheRepo *repository.CacheRepository,
	publisher event.Publisher,
) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		regionRepo:      regionRepo,
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		cacheRepo:       cacheRepo,
		publisher:       publisher,
		cfg:             config.ServiceConfig.Leaderboard,
	}
}

// Compute runs a full ranking pass for a region and upserts the snapshot.
// Weekly and monthly scopes derive their calendar-aligned period; overall and
// game_specific take the period from the request.
func (s *LeaderboardService) Compute(ctx context.Context, req *models.ComputeLeaderboardRequest) (*models.Leaderboard, error) {
	scope := models.Scope{Type: req.LeaderboardType, GameType: req.GameType}
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	regionID, err := bson.ObjectIDFromHex(req.RegionID)
	if err != nil {
		return nil, fmt.Errorf("invalid region ID format: %w", err)
	}

	region, err := s.regionRepo.FindByID(ctx, regionID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("region not found")
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	if !region.IsActive {
		return nil, fmt.Errorf("region not found")
	}

	var period models.Period
	switch scope.Type {
	case models.LeaderboardTypeWeekly:
		period = WeeklyPeriod(time.Now())
	case models.LeaderboardTypeMonthly:
		period = MonthlyPeriod(time.Now())
	default:
		period = models.Period{StartDate: req.StartDate, EndDate: req.EndDate}
	}
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	snapshot, err := s.computeSnapshot(ctx, regionID, scope, period)
	if err != nil {
		return nil, err
	}

	replaced, err := s.leaderboardRepo.Replace(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.InvalidateTop3(ctx, req.RegionID); err != nil {
		log.Printf("Warning: failed to invalidate top3 cache for region %s: %v", req.RegionID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLeaderboardEvent(&event.LeaderboardEvent{
			EventType:         event.EventTypeLeaderboardComputed,
			LeaderboardID:     replaced.ID.Hex(),
			RegionID:          req.RegionID,
			LeaderboardType:   scope.Type,
			GameType:          scope.GameType,
			TotalParticipants: replaced.TotalParticipants,
			Timestamp:         time.Now().Unix(),
		}); err != nil {
			log.Printf("Warning: failed to publish leaderboard event: %v", err)
		}
	}

	return replaced, nil
}

// computeSnapshot gathers the candidate set and their period stats, then
// materializes the ranking. An empty region yields an empty snapshot.
func (s *LeaderboardService) computeSnapshot(ctx context.Context, regionID bson.ObjectID, scope models.Scope, period models.Period) (*models.Leaderboard, error) {
	students, err := s.userRepo.FindStudentsByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]bson.ObjectID, len(students))
	for i, student := range students {
		studentIDs[i] = student.ID
	}

	activityByStudent, err := s.sessionRepo.ActivityStatsByStudent(ctx, studentIDs, period)
	if err != nil {
		return nil, err
	}

	candidates := make([]studentScore, 0, len(students))
	for _, student := range students {
		candidates = append(candidates, newStudentScore(student, activityByStudent[student.ID], scope, s.cfg.MaxScorePerGame))
	}

	snapshot := buildSnapshot(regionID, scope, period, candidates, s.cfg.TopSize)
	snapshot.LastUpdated = time.Now().Unix()
	return snapshot, nil
}

func (s *LeaderboardService) setPublished(ctx context.Context, leaderboardID string, published bool, eventType string) (*models.Leaderboard, error) {
	id, err := bson.ObjectIDFromHex(leaderboardID)
	if err != nil {
		return nil, fmt.Errorf("invalid leaderboard ID format: %w", err)
	}

	leaderboard, err := s.leaderboardRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("leaderboard not found")
		}
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	if err := s.leaderboardRepo.SetPublished(ctx, id, published); err != nil {
		return nil, err
	}
	leaderboard.IsPublished = published

	if err := s.cacheRepo.InvalidateTop3(ctx, leaderboard.RegionID.Hex()); err != nil {
		log.Printf("Warning: failed to invalidate top3 cache for region %s: %v", leaderboard.RegionID.Hex(), err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLeaderboardEvent(&event.LeaderboardEvent{
			EventType:         eventType,
			LeaderboardID:     leaderboardID,
			RegionID:          leaderboard.RegionID.Hex(),
			LeaderboardType:   leaderboard.LeaderboardType,
			GameType:          leaderboard.GameType,
			TotalParticipants: leaderboard.TotalParticipants,
			Timestamp:         time.Now().Unix(),
		}); err != nil {
			log.Printf("Warning: failed to publish leaderboard event: %v", err)
		}
	}

	return leaderboard, nil
}

func (s *LeaderboardService) Publish(ctx context.Context, leaderboardID string) (*models.Leaderboard, error) {
	return s.setPublished(ctx, leaderboardID, true, event.EventTypeLeaderboardPublished)
}

func (s *LeaderboardService) Unpublish(ctx context.Context, leaderboardID string) (*models.Leaderboard, error) {
	return s.setPublished(ctx, leaderboardID, false, event.EventTypeLeaderboardUnpublished)
}

// GetRegionTop3 returns the published current-period snapshot of a region,
// cached in redis until the next recompute or publication change.
func (s *LeaderboardService) GetRegionTop3(ctx context.Context, regionID string) (*models.RegionTop3, error) {
	var cached models.RegionTop3
	if err := s.cacheRepo.GetTop3(ctx, regionID, &cached); err == nil {
		return &cached, nil
	}

	regionObjectID, err := bson.ObjectIDFromHex(regionID)
	if err != nil {
		return nil, fmt.Errorf("invalid region ID format: %w", err)
	}

	region, err := s.regionRepo.FindByID(ctx, regionObjectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("region not found")
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}

	leaderboard, err := s.leaderboardRepo.FindCurrentPublished(ctx, regionObjectID, models.LeaderboardTypeOverall, time.Now().Unix())
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("published leaderboard not found for region")
		}
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	totalStudents, err := s.userRepo.CountStudentsByRegion(ctx, regionObjectID)
	if err != nil {
		return nil, err
	}

	top3 := &models.RegionTop3{
		RegionID:      regionObjectID,
		RegionName:    region.Name,
		TopStudents:   leaderboard.TopStudents,
		TotalStudents: int(totalStudents),
		LastUpdated:   leaderboard.LastUpdated,
	}

	if err := s.cacheRepo.SaveTop3(ctx, regionID, top3, s.cfg.CacheTTL); err != nil {
		log.Printf("Warning: failed to cache top3 for region %s: %v", regionID, err)
	}

	return top3, nil
}

// GetRegionLeaderboard returns the full ranked list of a region, paginated.
// The read is gated on a published current snapshot; the list itself is a
// live composite ranking since the snapshot only materializes the top.
func (s *LeaderboardService) GetRegionLeaderboard(ctx context.Context, regionID string, page, limit int) ([]models.RankedStudent, int, error) {
	regionObjectID, err := bson.ObjectIDFromHex(regionID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid region ID format: %w", err)
	}

	if _, err := s.regionRepo.FindByID(ctx, regionObjectID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, 0, fmt.Errorf("region not found")
		}
		return nil, 0, fmt.Errorf("failed to get region: %w", err)
	}

	if _, err := s.leaderboardRepo.FindCurrentPublished(ctx, regionObjectID, models.LeaderboardTypeOverall, time.Now().Unix()); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, 0, fmt.Errorf("published leaderboard not found for region")
		}
		return nil, 0, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	students, err := s.userRepo.FindStudentsByRegion(ctx, regionObjectID)
	if err != nil {
		return nil, 0, err
	}

	ranked := compositeRank(students)
	total := len(ranked)

	start := (page - 1) * limit
	if start >= total {
		return []models.RankedStudent{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ranked[start:end], total, nil
}

// latestSnapshotByRegion keeps one visible snapshot per region. When
// published periods overlap, the latest period start wins, independent of
// cursor order, so this read agrees with the single-region lookup.
func latestSnapshotByRegion(snapshots []*models.Leaderboard, now int64) map[bson.ObjectID]*models.Leaderboard {
	byRegion := make(map[bson.ObjectID]*models.Leaderboard, len(snapshots))
	for _, snapshot := range snapshots {
		if !snapshot.IsCurrent(now) {
			continue
		}
		current, ok := byRegion[snapshot.RegionID]
		if !ok || snapshot.Period.StartDate > current.Period.StartDate {
			byRegion[snapshot.RegionID] = snapshot
		}
	}
	return byRegion
}

// GetAllRegionsTop3 returns the current published snapshot of every active
// region; regions without one appear with an empty top list.
func (s *LeaderboardService) GetAllRegionsTop3(ctx context.Context) ([]*models.RegionTop3, error) {
	regions, err := s.regionRepo.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	published, err := s.leaderboardRepo.FindAllCurrentPublished(ctx, models.LeaderboardTypeOverall, now)
	if err != nil {
		return nil, err
	}
	byRegion := latestSnapshotByRegion(published, now)

	result := make([]*models.RegionTop3, 0, len(regions))
	for _, region := range regions {
		entry := &models.RegionTop3{
			RegionID:    region.ID,
			RegionName:  region.Name,
			TopStudents: []models.TopStudent{},
		}

		totalStudents, err := s.userRepo.CountStudentsByRegion(ctx, region.ID)
		if err != nil {
			return nil, err
		}
		entry.TotalStudents = int(totalStudents)

		if leaderboard, ok := byRegion[region.ID]; ok {
			entry.TopStudents = leaderboard.TopStudents
			entry.LastUpdated = leaderboard.LastUpdated
		}

		result = append(result, entry)
	}

	return result, nil
}

// GetMyRank computes a student's live rank within their region from the
// cumulative counters, without requiring a published snapshot.
func (s *LeaderboardService) GetMyRank(ctx context.Context, userID string) (*models.RankResponse, error) {
	userObjectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userObjectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role != models.RoleStudent {
		return nil, fmt.Errorf("validation failed: only students have a rank")
	}

	students, err := s.userRepo.FindStudentsByRegion(ctx, user.RegionID)
	if err != nil {
		return nil, err
	}

	for _, entry := range compositeRank(students) {
		if entry.StudentID == userObjectID {
			return &models.RankResponse{
				Rank:       entry.Rank,
				TotalScore: entry.TotalScore,
				Statistics: models.StudentStatistics{
					LecturesWatched:       entry.LecturesWatched,
					GameSessions:          entry.GameSessions,
					CommunicationSessions: entry.CommunicationSessions,
					CompositeScore:        entry.CompositeScore,
				},
			}, nil
		}
	}

	return nil, fmt.Errorf("user not found")
}

// GetStatistics aggregates cross-region counts and averages for admins.
func (s *LeaderboardService) GetStatistics(ctx context.Context) (*models.LeaderboardStatistics, error) {
	totalRegions, err := s.regionRepo.CountRegions(ctx)
	if err != nil {
		return nil, err
	}

	totalStudents, err := s.userRepo.CountStudents(ctx)
	if err != nil {
		return nil, err
	}

	totalLeaderboards, err := s.leaderboardRepo.CountLeaderboards(ctx)
	if err != nil {
		return nil, err
	}

	publishedCount, err := s.leaderboardRepo.CountPublished(ctx)
	if err != nil {
		return nil, err
	}

	completedSessions, err := s.sessionRepo.CountCompleted(ctx)
	if err != nil {
		return nil, err
	}

	regionStats, err := s.userRepo.RegionActivityStatistics(ctx)
	if err != nil {
		return nil, err
	}

	return &models.LeaderboardStatistics{
		TotalRegions:      totalRegions,
		TotalStudents:     totalStudents,
		TotalLeaderboards: totalLeaderboards,
		PublishedCount:    publishedCount,
		CompletedSessions: completedSessions,
		Regions:           regionStats,
	}, nil
}
