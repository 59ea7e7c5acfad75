package services

import (
	"time"

	"leaderboard-service/internal/models"
)

// WeeklyPeriod returns the Sunday-to-Sunday window containing now,
// calendar-aligned so repeated weekly computations hit the same snapshot key.
func WeeklyPeriod(now time.Time) models.Period {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return models.Period{StartDate: start.Unix(), EndDate: end.Unix()}
}

// MonthlyPeriod returns the first-to-last-day window of the month
// containing now.
func MonthlyPeriod(now time.Time) models.Period {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return models.Period{StartDate: start.Unix(), EndDate: end.Unix()}
}
