package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type SessionRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		collection: db.Collection("sessions"),
		mu:         &sync.Mutex{},
	}
}

func (r *SessionRepository) New(ctx context.Context, session *models.Session) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if session.Metadata.CreatedAt == 0 {
		session.Metadata.CreatedAt = currentTime
	}
	session.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Session, error) {
	var session models.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Complete marks an active session completed and freezes its duration.
func (r *SessionRepository) Complete(ctx context.Context, id bson.ObjectID, endTime int64, duration float64) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter := bson.M{"_id": id, "status": models.SessionStatusActive}
	update := bson.M{
		"$set": bson.M{
			"status":             models.SessionStatusCompleted,
			"endTime":            endTime,
			"duration":           duration,
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.Session
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// ActivityStatsByStudent aggregates completed sessions inside the period into
// per-student activity counts, one pipeline for the whole candidate set.
func (r *SessionRepository) ActivityStatsByStudent(ctx context.Context, studentIDs []bson.ObjectID, period models.Period) (map[bson.ObjectID]models.ActivityStats, error) {
	if len(studentIDs) == 0 {
		return map[bson.ObjectID]models.ActivityStats{}, nil
	}

	pipeline := []bson.M{
		{
			"$match": bson.M{
				"status":       models.SessionStatusCompleted,
				"participants": bson.M{"$in": studentIDs},
				"startTime": bson.M{
					"$gte": period.StartDate,
					"$lte": period.EndDate,
				},
			},
		},
		{
			"$unwind": "$participants",
		},
		{
			"$match": bson.M{
				"participants": bson.M{"$in": studentIDs},
			},
		},
		{
			"$group": bson.M{
				"_id": "$participants",
				"lectureSessions": bson.M{
					"$sum": bson.M{"$cond": []any{
						bson.M{"$eq": []any{"$sessionType", models.SessionTypeLecture}}, 1, 0,
					}},
				},
				"gameSessions": bson.M{
					"$sum": bson.M{"$cond": []any{
						bson.M{"$eq": []any{"$sessionType", models.SessionTypeGame}}, 1, 0,
					}},
				},
				"communicationSessions": bson.M{
					"$sum": bson.M{"$cond": []any{
						bson.M{"$in": []any{"$sessionType", models.CommunicationSessionTypes}}, 1, 0,
					}},
				},
				"totalSessions":          bson.M{"$sum": 1},
				"averageSessionDuration": bson.M{"$avg": "$duration"},
			},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate session activity: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		StudentID              bson.ObjectID `bson:"_id"`
		LectureSessions        int           `bson:"lectureSessions"`
		GameSessions           int           `bson:"gameSessions"`
		CommunicationSessions  int           `bson:"communicationSessions"`
		TotalSessions          int           `bson:"totalSessions"`
		AverageSessionDuration float64       `bson:"averageSessionDuration"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode session activity: %w", err)
	}

	stats := make(map[bson.ObjectID]models.ActivityStats, len(rows))
	for _, row := range rows {
		stats[row.StudentID] = models.ActivityStats{
			LectureSessions:        row.LectureSessions,
			GameSessions:           row.GameSessions,
			CommunicationSessions:  row.CommunicationSessions,
			TotalSessions:          row.TotalSessions,
			AverageSessionDuration: row.AverageSessionDuration,
		}
	}

	return stats, nil
}

func (r *SessionRepository) CountCompleted(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": models.SessionStatusCompleted})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "participants", Value: 1},
				{Key: "status", Value: 1},
				{Key: "startTime", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "regionId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sessionType", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	return nil
}
