package event

import "leaderboard-service/internal/models"

const (
	EventTypeLeaderboardComputed    = "leaderboard.computed"
	EventTypeLeaderboardPublished   = "leaderboard.published"
	EventTypeLeaderboardUnpublished = "leaderboard.unpublished"

	EventTypeActivityUpdated = "activity.updated"

	// EventTypeSessionCompleted is consumed from the game and communication
	// services; EventTypeSessionRecorded is the outbound notification for
	// sessions this service completed itself. The keys differ so the
	// consumer never re-ingests its own publications.
	EventTypeSessionCompleted = "session.completed"
	EventTypeSessionRecorded  = "session.recorded"
)

type LeaderboardEvent struct {
	EventType         string                 `json:"eventType"`
	LeaderboardID     string                 `json:"leaderboardId"`
	RegionID          string                 `json:"regionId"`
	LeaderboardType   models.LeaderboardType `json:"leaderboardType"`
	GameType          string                 `json:"gameType,omitempty"`
	TotalParticipants int                    `json:"totalParticipants"`
	Timestamp         int64                  `json:"timestamp"`
}

type ActivityEvent struct {
	EventType    string              `json:"eventType"`
	UserID       string              `json:"userId"`
	ActivityType models.ActivityType `json:"activityType"`
	Increment    int                 `json:"increment"`
	Timestamp    int64               `json:"timestamp"`
}

type SessionEvent struct {
	EventType    string             `json:"eventType"`
	SessionID    string             `json:"sessionId"`
	RegionID     string             `json:"regionId"`
	SessionType  models.SessionType `json:"sessionType"`
	GameType     string             `json:"gameType,omitempty"`
	Participants []string           `json:"participants"`
	Duration     float64            `json:"duration"`
	Timestamp    int64              `json:"timestamp"`
}
