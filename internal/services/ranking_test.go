package services

import (
	"testing"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func studentWithGameScores(t *testing.T, name string, scores ...int) *models.User {
	t.Helper()
	ledger := make([]models.GameScore, 0, len(scores))
	for _, score := range scores {
		ledger = append(ledger, models.GameScore{GameType: "vocab_match", Score: score})
	}
	return &models.User{
		ID:         bson.NewObjectID(),
		Name:       name,
		Role:       models.RoleStudent,
		GameScores: ledger,
	}
}

// Test Business Logic: tie-break on session count
func TestBuildSnapshot_RegionScenario(t *testing.T) {
	// Four students: two tied at 90%, the tie broken by session count.
	s1 := newStudentScore(studentWithGameScores(t, "S1", 90), models.ActivityStats{TotalSessions: 10}, models.OverallScope(), 100)
	s2 := newStudentScore(studentWithGameScores(t, "S2", 90), models.ActivityStats{TotalSessions: 15}, models.OverallScope(), 100)
	s3 := newStudentScore(studentWithGameScores(t, "S3", 70), models.ActivityStats{TotalSessions: 5}, models.OverallScope(), 100)
	s4 := newStudentScore(studentWithGameScores(t, "S4", 40), models.ActivityStats{TotalSessions: 2}, models.OverallScope(), 100)

	regionID := bson.NewObjectID()
	period := models.Period{StartDate: 1000, EndDate: 2000}
	snapshot := buildSnapshot(regionID, models.OverallScope(), period, []studentScore{s1, s2, s3, s4}, 3)

	if len(snapshot.TopStudents) != 3 {
		t.Fatalf("Expected 3 top students, got %d", len(snapshot.TopStudents))
	}

	wantOrder := []string{"S2", "S1", "S3"}
	for i, want := range wantOrder {
		entry := snapshot.TopStudents[i]
		if entry.StudentName != want {
			t.Errorf("Rank %d: expected %s, got %s", i+1, want, entry.StudentName)
		}
		if entry.Rank != i+1 {
			t.Errorf("Rank %d: expected rank field %d, got %d", i+1, i+1, entry.Rank)
		}
	}

	if snapshot.TotalParticipants != 4 {
		t.Errorf("Expected 4 participants, got %d", snapshot.TotalParticipants)
	}
	// round((90+90+70+40)/4) = 73
	if snapshot.AverageScore != 73 {
		t.Errorf("Expected average score 73, got %d", snapshot.AverageScore)
	}
	if snapshot.TotalSessions != 32 {
		t.Errorf("Expected 32 total sessions, got %d", snapshot.TotalSessions)
	}
	if snapshot.IsPublished {
		t.Error("A fresh snapshot must not be published")
	}
	if snapshot.Period != period {
		t.Errorf("Expected period %+v, got %+v", period, snapshot.Period)
	}
}

func TestBuildSnapshot_FewerCandidatesThanTopSize(t *testing.T) {
	s1 := newStudentScore(studentWithGameScores(t, "S1", 80), models.ActivityStats{TotalSessions: 4}, models.OverallScope(), 100)
	s2 := newStudentScore(studentWithGameScores(t, "S2", 60), models.ActivityStats{TotalSessions: 2}, models.OverallScope(), 100)

	snapshot := buildSnapshot(bson.NewObjectID(), models.OverallScope(), models.Period{StartDate: 1, EndDate: 2}, []studentScore{s1, s2}, 3)

	if len(snapshot.TopStudents) != 2 {
		t.Fatalf("Expected 2 top students, got %d", len(snapshot.TopStudents))
	}
	if snapshot.TopStudents[1].Rank != 2 {
		t.Errorf("Expected last rank 2, got %d", snapshot.TopStudents[1].Rank)
	}
}

func TestBuildSnapshot_EmptyRegion(t *testing.T) {
	snapshot := buildSnapshot(bson.NewObjectID(), models.WeeklyScope(), models.Period{StartDate: 1, EndDate: 2}, nil, 3)

	if len(snapshot.TopStudents) != 0 {
		t.Errorf("Expected no top students, got %d", len(snapshot.TopStudents))
	}
	if snapshot.TotalParticipants != 0 {
		t.Errorf("Expected 0 participants, got %d", snapshot.TotalParticipants)
	}
	if snapshot.AverageScore != 0 {
		t.Errorf("Expected average score 0, got %d", snapshot.AverageScore)
	}
}

func TestRankStudents_DeterministicAndNonMutating(t *testing.T) {
	candidates := []studentScore{
		newStudentScore(studentWithGameScores(t, "A", 50), models.ActivityStats{TotalSessions: 1}, models.OverallScope(), 100),
		newStudentScore(studentWithGameScores(t, "B", 90), models.ActivityStats{TotalSessions: 3}, models.OverallScope(), 100),
		newStudentScore(studentWithGameScores(t, "C", 70), models.ActivityStats{TotalSessions: 2}, models.OverallScope(), 100),
	}

	first := rankStudents(candidates)
	second := rankStudents(candidates)

	for i := range first {
		if first[i].User.Name != second[i].User.Name {
			t.Fatalf("Repeated passes disagree at position %d: %s vs %s", i, first[i].User.Name, second[i].User.Name)
		}
	}

	if candidates[0].User.Name != "A" || candidates[1].User.Name != "B" {
		t.Error("rankStudents must not reorder its input slice")
	}
}

func TestRankStudents_StableOnFullTie(t *testing.T) {
	// Same percentage and same session count: input order must hold.
	first := newStudentScore(studentWithGameScores(t, "First", 80), models.ActivityStats{TotalSessions: 5}, models.OverallScope(), 100)
	second := newStudentScore(studentWithGameScores(t, "Second", 80), models.ActivityStats{TotalSessions: 5}, models.OverallScope(), 100)

	ranked := rankStudents([]studentScore{first, second})

	if ranked[0].User.Name != "First" || ranked[1].User.Name != "Second" {
		t.Errorf("Full tie must keep input order, got %s then %s", ranked[0].User.Name, ranked[1].User.Name)
	}
}

func TestScoreFromLedger_GameScopeFiltersOtherGames(t *testing.T) {
	user := &models.User{
		GameScores: []models.GameScore{
			{GameType: "vocab_match", Score: 80},
			{GameType: "grammar_quiz", Score: 60},
			{GameType: "vocab_match", Score: 40},
		},
	}

	score, maxScore := scoreFromLedger(user.GameScores, models.GameScope("vocab_match"), 100)
	if score != 120 || maxScore != 200 {
		t.Errorf("vocab_match scope: expected 120/200, got %d/%d", score, maxScore)
	}

	score, maxScore = scoreFromLedger(user.GameScores, models.OverallScope(), 100)
	if score != 180 || maxScore != 300 {
		t.Errorf("overall scope: expected 180/300, got %d/%d", score, maxScore)
	}

	score, maxScore = scoreFromLedger(user.GameScores, models.GameScope("unplayed_game"), 100)
	if score != 0 || maxScore != 0 {
		t.Errorf("unplayed game scope: expected 0/0, got %d/%d", score, maxScore)
	}
}

func TestScorePercentage(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		maxScore int
		want     int
	}{
		{"exact", 90, 100, 90},
		{"half", 45, 90, 50},
		{"no games played", 0, 0, 0},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"rounds half up", 175, 200, 88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorePercentage(tt.score, tt.maxScore); got != tt.want {
				t.Errorf("scorePercentage(%d, %d) = %d, want %d", tt.score, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestCompositeRank_OrderingAndTieBreak(t *testing.T) {
	heavy := &models.User{
		ID:   bson.NewObjectID(),
		Name: "Heavy",
		StudentInfo: models.StudentInfo{
			TotalLecturesWatched:       10,
			TotalGameSessions:          6,
			TotalCommunicationSessions: 4,
		},
		GameScores: []models.GameScore{{GameType: "vocab_match", Score: 75}, {GameType: "grammar_quiz", Score: 25}},
	}
	// Same composite as reader, more sessions: wins the tie-break.
	player := &models.User{
		ID:   bson.NewObjectID(),
		Name: "Player",
		StudentInfo: models.StudentInfo{
			TotalLecturesWatched:       3,
			TotalGameSessions:          8,
			TotalCommunicationSessions: 1,
		},
	}
	reader := &models.User{
		ID:   bson.NewObjectID(),
		Name: "Reader",
		StudentInfo: models.StudentInfo{
			TotalLecturesWatched:       10,
			TotalGameSessions:          1,
			TotalCommunicationSessions: 1,
		},
	}

	ranked := compositeRank([]*models.User{reader, player, heavy})

	wantOrder := []string{"Heavy", "Player", "Reader"}
	for i, want := range wantOrder {
		if ranked[i].StudentName != want {
			t.Errorf("Position %d: expected %s, got %s", i+1, want, ranked[i].StudentName)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("Position %d: expected rank %d, got %d", i+1, i+1, ranked[i].Rank)
		}
	}

	if ranked[0].CompositeScore != 20 {
		t.Errorf("Expected composite score 20 for Heavy, got %d", ranked[0].CompositeScore)
	}
	if ranked[0].TotalScore != 100 {
		t.Errorf("Expected total score 100 for Heavy, got %d", ranked[0].TotalScore)
	}
}

// Counter increments must show up in the live ranking without a recompute.
func TestCompositeRank_ReflectsCounterIncrements(t *testing.T) {
	student := &models.User{
		ID:          bson.NewObjectID(),
		Name:        "Student",
		StudentInfo: models.StudentInfo{TotalGameSessions: 3},
	}
	rival := &models.User{
		ID:          bson.NewObjectID(),
		Name:        "Rival",
		StudentInfo: models.StudentInfo{TotalGameSessions: 6},
	}

	before := compositeRank([]*models.User{student, rival})
	if before[0].StudentName != "Rival" {
		t.Fatalf("Expected Rival ahead before the increment, got %s", before[0].StudentName)
	}

	student.StudentInfo.TotalGameSessions += 5

	after := compositeRank([]*models.User{student, rival})
	if after[0].StudentName != "Student" {
		t.Errorf("Expected Student ahead after the increment, got %s", after[0].StudentName)
	}
	if after[0].GameSessions != 8 {
		t.Errorf("Expected 8 game sessions after the increment, got %d", after[0].GameSessions)
	}
}
