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

type SessionService struct {
	sessionRepo     *repository.SessionRepository
	regionRepo      *repository.RegionRepository
	activityService *ActivityService
	publisher       event.Publisher
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	regionRepo *repository.RegionRepository,
	activityService *ActivityService,
	publisher event.Publisher,
) *SessionService {
	return &SessionService{
		sessionRepo:     sessionRepo,
		regionRepo:      regionRepo,
		activityService: activityService,
		publisher:       publisher,
	}
}

func isValidSessionType(sessionType models.SessionType) bool {
	switch sessionType {
	case models.SessionTypeGame, models.SessionTypeVoiceCall, models.SessionTypeVideoCall,
		models.SessionTypeChat, models.SessionTypeLecture:
		return true
	default:
		return false
	}
}

func (s *SessionService) CreateSession(ctx context.Context, req *models.CreateSessionRequest) (*models.Session, error) {
	if !isValidSessionType(req.SessionType) {
		return nil, fmt.Errorf("validation failed: invalid session type: %s", req.SessionType)
	}
	if req.SessionType == models.SessionTypeGame && req.GameType == "" {
		return nil, fmt.Errorf("validation failed: gameType is required for game sessions")
	}
	if len(req.Participants) == 0 {
		return nil, fmt.Errorf("validation failed: at least one participant is required")
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

	participants := make([]bson.ObjectID, 0, len(req.Participants))
	for _, participant := range req.Participants {
		participantID, err := bson.ObjectIDFromHex(participant)
		if err != nil {
			return nil, fmt.Errorf("invalid participant ID format: %w", err)
		}
		participants = append(participants, participantID)
	}

	session := &models.Session{
		RegionID:     regionID,
		Participants: participants,
		SessionType:  req.SessionType,
		GameType:     req.GameType,
		Status:       models.SessionStatusActive,
		StartTime:    time.Now().Unix(),
	}

	return s.sessionRepo.New(ctx, session)
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	id, err := bson.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID format: %w", err)
	}

	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// CompleteSession closes an active session, freezes its duration in minutes
// and folds the activity into each participant's counters.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID string, req *models.CompleteSessionRequest) (*models.Session, error) {
	id, err := bson.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID format: %w", err)
	}

	existing, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if existing.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("validation failed: session is not active")
	}

	endTime := time.Now().Unix()
	duration := float64(endTime-existing.StartTime) / 60.0

	session, err := s.sessionRepo.Complete(ctx, id, endTime, duration)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session not found")
		}
		return nil, err
	}

	scoreByParticipant := make(map[string]int, len(req.Scores))
	for _, participantScore := range req.Scores {
		scoreByParticipant[participantScore.UserID] = participantScore.Score
	}

	for _, participant := range session.Participants {
		score := scoreByParticipant[participant.Hex()]
		err := s.activityService.RecordSessionActivity(ctx, participant, session.SessionType, session.GameType, score)
		if err != nil {
			log.Printf("Warning: failed to record activity for participant %s: %v", participant.Hex(), err)
		}
	}

	if s.publisher != nil {
		participants := make([]string, 0, len(session.Participants))
		for _, participant := range session.Participants {
			participants = append(participants, participant.Hex())
		}
		if err := s.publisher.PublishSessionEvent(&event.SessionEvent{
			EventType:    event.EventTypeSessionRecorded,
			SessionID:    session.ID.Hex(),
			RegionID:     session.RegionID.Hex(),
			SessionType:  session.SessionType,
			GameType:     session.GameType,
			Participants: participants,
			Duration:     session.Duration,
			Timestamp:    time.Now().Unix(),
		}); err != nil {
			log.Printf("Warning: failed to publish session event: %v", err)
		}
	}

	return session, nil
}
