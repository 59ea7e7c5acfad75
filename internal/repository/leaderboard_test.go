package repository

import (
	"strings"
	"testing"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// lookupDotted resolves a mongo dotted path ("period.startDate") inside a
// decoded document. Nested documents decode as bson.D when the target map
// value is interface{}, so both forms are handled.
func lookupDotted(doc bson.M, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		switch nested := doc[part].(type) {
		case bson.M:
			doc = nested
		case bson.D:
			flat := make(bson.M, len(nested))
			for _, elem := range nested {
				flat[elem.Key] = elem.Value
			}
			doc = flat
		default:
			return nil, false
		}
	}
	value, ok := doc[parts[len(parts)-1]]
	return value, ok
}

func marshalSnapshot(t *testing.T, leaderboard *models.Leaderboard) bson.M {
	t.Helper()
	raw, err := bson.Marshal(leaderboard)
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}
	return doc
}

// Every equality clause of the upsert key must be present in the stored
// document with the same value, otherwise a recompute misses the existing
// snapshot and collides with the unique index instead of replacing it.
func TestSnapshotKeyMatchesStoredDocument(t *testing.T) {
	regionID := bson.NewObjectID()
	period := models.Period{StartDate: 1000, EndDate: 2000}

	scopes := []struct {
		name  string
		scope models.Scope
	}{
		{"overall", models.OverallScope()},
		{"weekly", models.WeeklyScope()},
		{"monthly", models.MonthlyScope()},
		{"game specific", models.GameScope("vocab_match")},
	}

	for _, tt := range scopes {
		t.Run(tt.name, func(t *testing.T) {
			leaderboard := &models.Leaderboard{
				RegionID:        regionID,
				LeaderboardType: tt.scope.Type,
				GameType:        tt.scope.GameType,
				Period:          period,
			}
			doc := marshalSnapshot(t, leaderboard)
			key := snapshotKey(regionID, tt.scope, period.StartDate)

			for field, want := range key {
				got, ok := lookupDotted(doc, field)
				if !ok {
					t.Fatalf("Upsert key field %q is absent from the stored document", field)
				}

				var match bool
				switch want := want.(type) {
				case bson.ObjectID:
					match = got == want
				case models.LeaderboardType:
					match = got == string(want)
				case string:
					match = got == want
				case int64:
					match = got == want
				default:
					t.Fatalf("Unhandled key field type %T for %q", want, field)
				}
				if !match {
					t.Errorf("Key field %q: stored %v (%T), filter wants %v (%T)", field, got, got, want, want)
				}
			}
		})
	}
}

// The stored-document filter must agree with Leaderboard.IsCurrent, the
// documented visibility predicate, on every gating case.
func TestPublishedInPeriodFilterAgreesWithIsCurrent(t *testing.T) {
	now := int64(1500)
	filter := publishedInPeriodFilter(now)

	evaluate := func(l *models.Leaderboard) bool {
		if l.IsPublished != filter["isPublished"].(bool) {
			return false
		}
		if l.Period.StartDate > filter["period.startDate"].(bson.M)["$lte"].(int64) {
			return false
		}
		if l.Period.EndDate < filter["period.endDate"].(bson.M)["$gte"].(int64) {
			return false
		}
		return true
	}

	tests := []struct {
		name        string
		leaderboard models.Leaderboard
	}{
		{"published in period", models.Leaderboard{IsPublished: true, Period: models.Period{StartDate: 1000, EndDate: 2000}}},
		{"unpublished", models.Leaderboard{IsPublished: false, Period: models.Period{StartDate: 1000, EndDate: 2000}}},
		{"published but expired", models.Leaderboard{IsPublished: true, Period: models.Period{StartDate: 100, EndDate: 1000}}},
		{"published but not started", models.Leaderboard{IsPublished: true, Period: models.Period{StartDate: 2000, EndDate: 3000}}},
		{"boundary start", models.Leaderboard{IsPublished: true, Period: models.Period{StartDate: 1500, EndDate: 2000}}},
		{"boundary end", models.Leaderboard{IsPublished: true, Period: models.Period{StartDate: 1000, EndDate: 1500}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := evaluate(&tt.leaderboard), tt.leaderboard.IsCurrent(now); got != want {
				t.Errorf("Filter matches=%v but IsCurrent=%v for %+v", got, want, tt.leaderboard)
			}
		})
	}
}
