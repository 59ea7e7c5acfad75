package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type LeaderboardType string

const (
	LeaderboardTypeOverall      LeaderboardType = "overall"
	LeaderboardTypeWeekly       LeaderboardType = "weekly"
	LeaderboardTypeMonthly      LeaderboardType = "monthly"
	LeaderboardTypeGameSpecific LeaderboardType = "game_specific"
)

// Scope is the window a leaderboard ranks over. GameType is set only for
// game_specific scopes; the constructors keep the pairing consistent.
type Scope struct {
	Type     LeaderboardType
	GameType string
}

func OverallScope() Scope {
	return Scope{Type: LeaderboardTypeOverall}
}

func WeeklyScope() Scope {
	return Scope{Type: LeaderboardTypeWeekly}
}

func MonthlyScope() Scope {
	return Scope{Type: LeaderboardTypeMonthly}
}

func GameScope(gameType string) Scope {
	return Scope{Type: LeaderboardTypeGameSpecific, GameType: gameType}
}

func (s Scope) Validate() error {
	switch s.Type {
	case LeaderboardTypeOverall, LeaderboardTypeWeekly, LeaderboardTypeMonthly:
		if s.GameType != "" {
			return fmt.Errorf("gameType is only valid for %s leaderboards", LeaderboardTypeGameSpecific)
		}
		return nil
	case LeaderboardTypeGameSpecific:
		if s.GameType == "" {
			return fmt.Errorf("gameType is required for %s leaderboards", LeaderboardTypeGameSpecific)
		}
		return nil
	default:
		return fmt.Errorf("invalid leaderboard type: %s", s.Type)
	}
}

// CountsGame reports whether a score entry for the given game type
// contributes to this scope.
func (s Scope) CountsGame(gameType string) bool {
	if s.Type != LeaderboardTypeGameSpecific {
		return true
	}
	return s.GameType == gameType
}

// Period is a closed time window, unix seconds.
type Period struct {
	StartDate int64 `json:"startDate" bson:"startDate"`
	EndDate   int64 `json:"endDate" bson:"endDate"`
}

func (p Period) Validate() error {
	if p.StartDate == 0 || p.EndDate == 0 {
		return fmt.Errorf("period start and end dates are required")
	}
	if p.StartDate > p.EndDate {
		return fmt.Errorf("period start date must not be after end date")
	}
	return nil
}

func (p Period) Contains(ts int64) bool {
	return p.StartDate <= ts && ts <= p.EndDate
}

// TopStudent is one materialized entry of a snapshot. Scoring fields are
// frozen at computation time and go stale until the next recompute.
type TopStudent struct {
	Rank                   int           `json:"rank" bson:"rank"`
	StudentID              bson.ObjectID `json:"studentId" bson:"studentId"`
	StudentName            string        `json:"studentName" bson:"studentName"`
	Score                  int           `json:"score" bson:"score"`
	MaxScore               int           `json:"maxScore" bson:"maxScore"`
	Percentage             int           `json:"percentage" bson:"percentage"`
	TotalSessions          int           `json:"totalSessions" bson:"totalSessions"`
	TotalGames             int           `json:"totalGames" bson:"totalGames"`
	TotalLectures          int           `json:"totalLectures" bson:"totalLectures"`
	AverageSessionDuration float64       `json:"averageSessionDuration" bson:"averageSessionDuration"`
	LastActive             int64         `json:"lastActive,omitempty" bson:"lastActive,omitempty"`
}

// Leaderboard is a materialized ranking snapshot. One document exists per
// (region, type, gameType, period start); recomputation replaces it whole.
// gameType is stored even when empty so the compound upsert key always
// matches the stored document shape.
type Leaderboard struct {
	ID                bson.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	RegionID          bson.ObjectID   `json:"regionId" bson:"regionId"`
	LeaderboardType   LeaderboardType `json:"leaderboardType" bson:"leaderboardType"`
	GameType          string          `json:"gameType,omitempty" bson:"gameType"`
	Period            Period          `json:"period" bson:"period"`
	TopStudents       []TopStudent    `json:"topStudents" bson:"topStudents"`
	TotalParticipants int             `json:"totalParticipants" bson:"totalParticipants"`
	AverageScore      int             `json:"averageScore" bson:"averageScore"`
	TotalSessions     int             `json:"totalSessions" bson:"totalSessions"`
	TotalGames        int             `json:"totalGames" bson:"totalGames"`
	IsPublished       bool            `json:"isPublished" bson:"isPublished"`
	LastUpdated       int64           `json:"lastUpdated" bson:"lastUpdated"`
	Metadata          Metadata        `json:"metadata" bson:"metadata"`
}

func (l *Leaderboard) Scope() Scope {
	return Scope{Type: l.LeaderboardType, GameType: l.GameType}
}

// IsCurrent reports whether the snapshot is visible to students: published
// and in period.
func (l *Leaderboard) IsCurrent(now int64) bool {
	return l.IsPublished && l.Period.Contains(now)
}

// Requests / responses
type ComputeLeaderboardRequest struct {
	RegionID        string          `json:"regionId"`
	LeaderboardType LeaderboardType `json:"leaderboardType"`
	GameType        string          `json:"gameType"`
	StartDate       int64           `json:"startDate"`
	EndDate         int64           `json:"endDate"`
}

type RegionTop3 struct {
	RegionID      bson.ObjectID `json:"regionId"`
	RegionName    string        `json:"regionName"`
	TopStudents   []TopStudent  `json:"topStudents"`
	TotalStudents int           `json:"totalStudents"`
	LastUpdated   int64         `json:"lastUpdated"`
}

type RankedStudent struct {
	Rank                  int           `json:"rank"`
	StudentID             bson.ObjectID `json:"studentId"`
	StudentName           string        `json:"studentName"`
	CompositeScore        int           `json:"compositeScore"`
	TotalScore            int           `json:"totalScore"`
	LecturesWatched       int           `json:"lecturesWatched"`
	GameSessions          int           `json:"gameSessions"`
	CommunicationSessions int           `json:"communicationSessions"`
}

type RegionStatistics struct {
	RegionID      bson.ObjectID `json:"regionId" bson:"_id"`
	RegionName    string        `json:"regionName" bson:"regionName"`
	TotalStudents int64         `json:"totalStudents" bson:"totalStudents"`
	AverageScore  float64       `json:"averageScore" bson:"averageScore"`
	TotalGames    int64         `json:"totalGames" bson:"totalGames"`
	TotalLectures int64         `json:"totalLectures" bson:"totalLectures"`
}

type LeaderboardStatistics struct {
	TotalRegions      int64              `json:"totalRegions"`
	TotalStudents     int64              `json:"totalStudents"`
	TotalLeaderboards int64              `json:"totalLeaderboards"`
	PublishedCount    int64              `json:"publishedCount"`
	CompletedSessions int64              `json:"completedSessions"`
	Regions           []RegionStatistics `json:"regions"`
}
