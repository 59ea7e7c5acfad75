package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Enums and Constants
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type SessionType string

const (
	SessionTypeGame      SessionType = "game"
	SessionTypeVoiceCall SessionType = "voice_call"
	SessionTypeVideoCall SessionType = "video_call"
	SessionTypeChat      SessionType = "chat"
	SessionTypeLecture   SessionType = "lecture"
)

// CommunicationSessionTypes are the session types counted as communication
// activity in the ranking pass.
var CommunicationSessionTypes = []SessionType{
	SessionTypeVoiceCall,
	SessionTypeVideoCall,
	SessionTypeChat,
}

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

type ActivityType string

const (
	ActivityTypeLectures      ActivityType = "lectures"
	ActivityTypeGames         ActivityType = "games"
	ActivityTypeCommunication ActivityType = "communication"
)

// Core Models
type Region struct {
	ID       bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string        `json:"name" bson:"name"`
	Code     string        `json:"code" bson:"code"`
	IsActive bool          `json:"isActive" bson:"isActive"`
	Metadata Metadata      `json:"metadata" bson:"metadata"`
}

type User struct {
	ID           bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Email        string        `json:"email" bson:"email"`
	PasswordHash string        `json:"-" bson:"passwordHash"`
	Role         Role          `json:"role" bson:"role"`
	RegionID     bson.ObjectID `json:"regionId,omitempty" bson:"regionId,omitempty"`
	IsActive     bool          `json:"isActive" bson:"isActive"`
	StudentInfo  StudentInfo   `json:"studentInfo" bson:"studentInfo"`
	GameScores   []GameScore   `json:"gameScores,omitempty" bson:"gameScores,omitempty"`
	LastActive   int64         `json:"lastActive,omitempty" bson:"lastActive,omitempty"`
	Metadata     Metadata      `json:"metadata" bson:"metadata"`
}

// StudentInfo carries the cumulative activity counters. They are mutated only
// by the activity endpoints and the event consumer, never by the ranking pass.
type StudentInfo struct {
	TotalLecturesWatched       int `json:"totalLecturesWatched" bson:"totalLecturesWatched"`
	TotalGameSessions          int `json:"totalGameSessions" bson:"totalGameSessions"`
	TotalCommunicationSessions int `json:"totalCommunicationSessions" bson:"totalCommunicationSessions"`
}

type GameScore struct {
	GameType string `json:"gameType" bson:"gameType"`
	Score    int    `json:"score" bson:"score"`
	PlayedAt int64  `json:"playedAt" bson:"playedAt"`
}

type Session struct {
	ID           bson.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	RegionID     bson.ObjectID   `json:"regionId" bson:"regionId"`
	Participants []bson.ObjectID `json:"participants" bson:"participants"`
	SessionType  SessionType     `json:"sessionType" bson:"sessionType"`
	GameType     string          `json:"gameType,omitempty" bson:"gameType,omitempty"`
	Status       SessionStatus   `json:"status" bson:"status"`
	StartTime    int64           `json:"startTime" bson:"startTime"`
	EndTime      int64           `json:"endTime,omitempty" bson:"endTime,omitempty"`
	// Duration is in minutes, set when the session completes.
	Duration float64  `json:"duration,omitempty" bson:"duration,omitempty"`
	Metadata Metadata `json:"metadata" bson:"metadata"`
}

type Metadata struct {
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// DTOs and Requests
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	RegionID string `json:"regionId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CreateRegionRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CreateSessionRequest struct {
	RegionID     string      `json:"regionId"`
	Participants []string    `json:"participants"`
	SessionType  SessionType `json:"sessionType"`
	GameType     string      `json:"gameType"`
}

type ParticipantScore struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

type CompleteSessionRequest struct {
	Scores []ParticipantScore `json:"scores"`
}

type UpdateActivityRequest struct {
	ActivityType ActivityType `json:"activityType"`
	Increment    int          `json:"increment"`
}

// ActivityStats are the period-scoped activity counts for one student,
// derived from the session store during a ranking pass.
type ActivityStats struct {
	LectureSessions        int     `json:"lectureSessions" bson:"lectureSessions"`
	GameSessions           int     `json:"gameSessions" bson:"gameSessions"`
	CommunicationSessions  int     `json:"communicationSessions" bson:"communicationSessions"`
	TotalSessions          int     `json:"totalSessions" bson:"totalSessions"`
	AverageSessionDuration float64 `json:"averageSessionDuration" bson:"averageSessionDuration"`
}

type StudentStatistics struct {
	LecturesWatched       int `json:"lecturesWatched"`
	GameSessions          int `json:"gameSessions"`
	CommunicationSessions int `json:"communicationSessions"`
	CompositeScore        int `json:"compositeScore"`
}

type RankResponse struct {
	Rank       int               `json:"rank"`
	TotalScore int               `json:"totalScore"`
	Statistics StudentStatistics `json:"statistics"`
}
