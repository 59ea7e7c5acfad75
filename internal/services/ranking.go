package services

import (
	"math"
	"sort"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// studentScore is one candidate of a ranking pass: the student, their
// period-scoped activity counts and the frozen scoring fields.
type studentScore struct {
	User       *models.User
	Activity   models.ActivityStats
	Score      int
	MaxScore   int
	Percentage int
}

// scoreFromLedger sums the per-game score ledger under the scope filter.
// maxScore is the fixed per-game maximum times the number of counted entries.
func scoreFromLedger(scores []models.GameScore, scope models.Scope, maxScorePerGame int) (int, int) {
	var score, entries int
	for _, entry := range scores {
		if !scope.CountsGame(entry.GameType) {
			continue
		}
		score += entry.Score
		entries++
	}
	return score, entries * maxScorePerGame
}

func scorePercentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(maxScore) * 100))
}

func newStudentScore(user *models.User, activity models.ActivityStats, scope models.Scope, maxScorePerGame int) studentScore {
	score, maxScore := scoreFromLedger(user.GameScores, scope, maxScorePerGame)
	return studentScore{
		User:       user,
		Activity:   activity,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: scorePercentage(score, maxScore),
	}
}

// rankStudents orders candidates by percentage descending, ties broken by
// session count descending. The sort is stable so equal candidates keep
// input order and repeated passes yield identical rankings.
func rankStudents(candidates []studentScore) []studentScore {
	ranked := make([]studentScore, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Percentage != ranked[j].Percentage {
			return ranked[i].Percentage > ranked[j].Percentage
		}
		return ranked[i].Activity.TotalSessions > ranked[j].Activity.TotalSessions
	})

	return ranked
}

// buildSnapshot materializes a full ranking pass into a snapshot document.
// Aggregate statistics cover every candidate, not just the top entries.
func buildSnapshot(regionID bson.ObjectID, scope models.Scope, period models.Period, candidates []studentScore, topSize int) *models.Leaderboard {
	ranked := rankStudents(candidates)

	top := make([]models.TopStudent, 0, topSize)
	for i, candidate := range ranked {
		if i >= topSize {
			break
		}
		top = append(top, models.TopStudent{
			Rank:                   i + 1,
			StudentID:              candidate.User.ID,
			StudentName:            candidate.User.Name,
			Score:                  candidate.Score,
			MaxScore:               candidate.MaxScore,
			Percentage:             candidate.Percentage,
			TotalSessions:          candidate.Activity.TotalSessions,
			TotalGames:             candidate.Activity.GameSessions,
			TotalLectures:          candidate.Activity.LectureSessions,
			AverageSessionDuration: candidate.Activity.AverageSessionDuration,
			LastActive:             candidate.User.LastActive,
		})
	}

	var percentageSum, totalSessions, totalGames int
	for _, candidate := range ranked {
		percentageSum += candidate.Percentage
		totalSessions += candidate.Activity.TotalSessions
		totalGames += candidate.Activity.GameSessions
	}

	averageScore := 0
	if len(ranked) > 0 {
		averageScore = int(math.Round(float64(percentageSum) / float64(len(ranked))))
	}

	return &models.Leaderboard{
		RegionID:          regionID,
		LeaderboardType:   scope.Type,
		GameType:          scope.GameType,
		Period:            period,
		TopStudents:       top,
		TotalParticipants: len(ranked),
		AverageScore:      averageScore,
		TotalSessions:     totalSessions,
		TotalGames:        totalGames,
		IsPublished:       false,
	}
}

// compositeRank is the live ranking used by my-rank and the full-list read:
// an equal-weight combination of the cumulative activity counters, computed
// directly from the user documents without a snapshot.
func compositeRank(users []*models.User) []models.RankedStudent {
	type liveScore struct {
		user      *models.User
		composite int
		sessions  int
	}

	scored := make([]liveScore, 0, len(users))
	for _, user := range users {
		info := user.StudentInfo
		scored = append(scored, liveScore{
			user:      user,
			composite: info.TotalLecturesWatched + info.TotalGameSessions + info.TotalCommunicationSessions,
			sessions:  info.TotalGameSessions + info.TotalCommunicationSessions,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].composite != scored[j].composite {
			return scored[i].composite > scored[j].composite
		}
		return scored[i].sessions > scored[j].sessions
	})

	ranked := make([]models.RankedStudent, 0, len(scored))
	for i, entry := range scored {
		var totalScore int
		for _, gameScore := range entry.user.GameScores {
			totalScore += gameScore.Score
		}
		ranked = append(ranked, models.RankedStudent{
			Rank:                  i + 1,
			StudentID:             entry.user.ID,
			StudentName:           entry.user.Name,
			CompositeScore:        entry.composite,
			TotalScore:            totalScore,
			LecturesWatched:       entry.user.StudentInfo.TotalLecturesWatched,
			GameSessions:          entry.user.StudentInfo.TotalGameSessions,
			CommunicationSessions: entry.user.StudentInfo.TotalCommunicationSessions,
		})
	}

	return ranked
}
