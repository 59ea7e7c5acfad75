package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type recordedActivity struct {
	studentID   bson.ObjectID
	sessionType models.SessionType
	gameType    string
	score       int
}

type fakeActivityRecorder struct {
	recorded []recordedActivity
	errs     map[bson.ObjectID]error
}

func (f *fakeActivityRecorder) RecordSessionActivity(ctx context.Context, studentID bson.ObjectID, sessionType models.SessionType, gameType string, score int) error {
	if err, ok := f.errs[studentID]; ok {
		return err
	}
	f.recorded = append(f.recorded, recordedActivity{
		studentID:   studentID,
		sessionType: sessionType,
		gameType:    gameType,
		score:       score,
	})
	return nil
}

func sessionEventBody(t *testing.T, studentIDs []string) []byte {
	t.Helper()
	body, err := json.Marshal(SessionCompletedData{
		Type:        EventTypeSessionCompleted,
		SessionID:   "session-1",
		SessionType: string(models.SessionTypeGame),
		GameType:    "vocab_match",
		StudentIDs:  studentIDs,
		Score:       80,
	})
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	return body
}

// A payload that cannot be parsed must be dropped, not returned as an error:
// an error triggers a requeue and the message would redeliver forever.
func TestHandleSessionCompleted_DropsMalformedPayload(t *testing.T) {
	recorder := &fakeActivityRecorder{}
	consumer := &EventConsumer{activityRecorder: recorder}

	if err := consumer.handleSessionCompleted([]byte("{not json")); err != nil {
		t.Errorf("Expected malformed payload to be dropped, got error: %v", err)
	}
	if len(recorder.recorded) != 0 {
		t.Errorf("Expected no activity recorded, got %d", len(recorder.recorded))
	}
}

func TestHandleSessionCompleted_SkipsInvalidStudentIDs(t *testing.T) {
	recorder := &fakeActivityRecorder{}
	consumer := &EventConsumer{activityRecorder: recorder}

	validID := bson.NewObjectID()
	body := sessionEventBody(t, []string{"not-a-hex-id", validID.Hex()})

	if err := consumer.handleSessionCompleted(body); err != nil {
		t.Fatalf("Expected invalid IDs to be skipped, got error: %v", err)
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("Expected 1 recorded activity, got %d", len(recorder.recorded))
	}
	got := recorder.recorded[0]
	if got.studentID != validID {
		t.Errorf("Recorded wrong student: %s", got.studentID.Hex())
	}
	if got.sessionType != models.SessionTypeGame || got.gameType != "vocab_match" || got.score != 80 {
		t.Errorf("Recorded wrong activity: %+v", got)
	}
}

func TestHandleSessionCompleted_DropsPermanentFailures(t *testing.T) {
	badID := bson.NewObjectID()
	goodID := bson.NewObjectID()
	recorder := &fakeActivityRecorder{
		errs: map[bson.ObjectID]error{
			badID: errors.New("validation failed: unknown session type"),
		},
	}
	consumer := &EventConsumer{activityRecorder: recorder}

	body := sessionEventBody(t, []string{badID.Hex(), goodID.Hex()})
	if err := consumer.handleSessionCompleted(body); err != nil {
		t.Fatalf("Expected permanent failure to be dropped, got error: %v", err)
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0].studentID != goodID {
		t.Errorf("Expected only the valid student recorded, got %+v", recorder.recorded)
	}
}

func TestHandleSessionCompleted_RequeuesTransientFailures(t *testing.T) {
	failingID := bson.NewObjectID()
	recorder := &fakeActivityRecorder{
		errs: map[bson.ObjectID]error{
			failingID: errors.New("connection reset by peer"),
		},
	}
	consumer := &EventConsumer{activityRecorder: recorder}

	body := sessionEventBody(t, []string{failingID.Hex()})
	if err := consumer.handleSessionCompleted(body); err == nil {
		t.Error("Expected a transient store failure to propagate for a requeue")
	}
}
