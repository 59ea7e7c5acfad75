package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"leaderboard-service/internal/event"
	"leaderboard-service/internal/models"
	"leaderboard-service/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ActivityService owns all mutation of the student activity counters. The
// ranking engine only ever reads them.
type ActivityService struct {
	userRepo  *repository.UserRepository
	publisher event.Publisher
}

func NewActivityService(userRepo *repository.UserRepository, publisher event.Publisher) *ActivityService {
	return &ActivityService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func isValidActivityType(activityType models.ActivityType) bool {
	return activityType == models.ActivityTypeLectures ||
		activityType == models.ActivityTypeGames ||
		activityType == models.ActivityTypeCommunication
}

// UpdateActivity increments one named counter for a student.
func (s *ActivityService) UpdateActivity(ctx context.Context, userID string, req *models.UpdateActivityRequest) error {
	if !isValidActivityType(req.ActivityType) {
		return fmt.Errorf("validation failed: invalid activity type: %s", req.ActivityType)
	}
	if req.Increment <= 0 {
		return fmt.Errorf("validation failed: increment must be positive")
	}

	userObjectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userObjectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("user not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleStudent {
		return fmt.Errorf("validation failed: activity counters only exist for students")
	}

	if err := s.userRepo.IncrementActivity(ctx, userObjectID, req.ActivityType, req.Increment); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishActivityEvent(&event.ActivityEvent{
			EventType:    event.EventTypeActivityUpdated,
			UserID:       userID,
			ActivityType: req.ActivityType,
			Increment:    req.Increment,
			Timestamp:    time.Now().Unix(),
		}); err != nil {
			log.Printf("Warning: failed to publish activity event: %v", err)
		}
	}

	return nil
}

func activityTypeForSession(sessionType models.SessionType) (models.ActivityType, bool) {
	switch sessionType {
	case models.SessionTypeLecture:
		return models.ActivityTypeLectures, true
	case models.SessionTypeGame:
		return models.ActivityTypeGames, true
	case models.SessionTypeVoiceCall, models.SessionTypeVideoCall, models.SessionTypeChat:
		return models.ActivityTypeCommunication, true
	default:
		return "", false
	}
}

// RecordSessionActivity folds one completed session into a student's
// counters, appending to the score ledger for scored game sessions. It
// implements event.ActivityRecorder.
func (s *ActivityService) RecordSessionActivity(ctx context.Context, studentID bson.ObjectID, sessionType models.SessionType, gameType string, score int) error {
	activityType, ok := activityTypeForSession(sessionType)
	if !ok {
		return fmt.Errorf("validation failed: invalid session type: %s", sessionType)
	}

	if err := s.userRepo.IncrementActivity(ctx, studentID, activityType, 1); err != nil {
		return err
	}

	if sessionType == models.SessionTypeGame && gameType != "" {
		err := s.userRepo.AppendGameScore(ctx, studentID, models.GameScore{
			GameType: gameType,
			Score:    score,
			PlayedAt: time.Now().Unix(),
		})
		if err != nil {
			return err
		}
	}

	return nil
}
