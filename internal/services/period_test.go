package services

import (
	"testing"
	"time"
)

func TestWeeklyPeriod_SundayToSunday(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2024, 7, 10, 12, 30, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 13, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "sunday maps to its own week",
			now:       time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 13, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "saturday evening still in the closing week",
			now:       time.Date(2024, 7, 13, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 13, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := WeeklyPeriod(tt.now)
			if period.StartDate != tt.wantStart.Unix() {
				t.Errorf("Start: got %d, want %d", period.StartDate, tt.wantStart.Unix())
			}
			if period.EndDate != tt.wantEnd.Unix() {
				t.Errorf("End: got %d, want %d", period.EndDate, tt.wantEnd.Unix())
			}
			if !period.Contains(tt.now.Unix()) {
				t.Error("The computed period must contain now")
			}
		})
	}
}

func TestWeeklyPeriod_AdjacentWeeksDoNotOverlap(t *testing.T) {
	thisWeek := WeeklyPeriod(time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC))
	nextWeek := WeeklyPeriod(time.Date(2024, 7, 17, 8, 0, 0, 0, time.UTC))

	if thisWeek.EndDate >= nextWeek.StartDate {
		t.Errorf("Weeks overlap: %d >= %d", thisWeek.EndDate, nextWeek.StartDate)
	}
	if nextWeek.StartDate-thisWeek.EndDate != 1 {
		t.Errorf("Expected a 1 second gap between weeks, got %d", nextWeek.StartDate-thisWeek.EndDate)
	}
}

func TestMonthlyPeriod_CalendarBounds(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "leap february",
			now:       time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "year end",
			now:       time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := MonthlyPeriod(tt.now)
			if period.StartDate != tt.wantStart.Unix() {
				t.Errorf("Start: got %d, want %d", period.StartDate, tt.wantStart.Unix())
			}
			if period.EndDate != tt.wantEnd.Unix() {
				t.Errorf("End: got %d, want %d", period.EndDate, tt.wantEnd.Unix())
			}
			if !period.Contains(tt.now.Unix()) {
				t.Error("The computed period must contain now")
			}
		})
	}
}

func TestPeriodsShareStartForSameWindow(t *testing.T) {
	// Two computations inside the same week must target the same snapshot key.
	monday := WeeklyPeriod(time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC))
	friday := WeeklyPeriod(time.Date(2024, 7, 12, 17, 0, 0, 0, time.UTC))

	if monday.StartDate != friday.StartDate {
		t.Errorf("Same week computed different starts: %d vs %d", monday.StartDate, friday.StartDate)
	}
}
