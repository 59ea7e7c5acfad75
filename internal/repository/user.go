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

type UserRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		mu:         &sync.Mutex{},
	}
}

func (r *UserRepository) New(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if user.Metadata.CreatedAt == 0 {
		user.Metadata.CreatedAt = currentTime
	}
	user.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindStudentsByRegion returns the candidate set of a ranking pass: active
// students of the region, in insertion order so repeated passes stay stable.
func (r *UserRepository) FindStudentsByRegion(ctx context.Context, regionID bson.ObjectID) ([]*models.User, error) {
	filter := bson.M{
		"regionId": regionID,
		"role":     models.RoleStudent,
		"isActive": true,
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find students by region: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}

	return users, nil
}

func (r *UserRepository) CountStudentsByRegion(ctx context.Context, regionID bson.ObjectID) (int64, error) {
	filter := bson.M{
		"regionId": regionID,
		"role":     models.RoleStudent,
		"isActive": true,
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountStudents(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"role": models.RoleStudent, "isActive": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// IncrementActivity bumps one cumulative activity counter and lastActive.
func (r *UserRepository) IncrementActivity(ctx context.Context, id bson.ObjectID, activityType models.ActivityType, increment int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var field string
	switch activityType {
	case models.ActivityTypeLectures:
		field = "studentInfo.totalLecturesWatched"
	case models.ActivityTypeGames:
		field = "studentInfo.totalGameSessions"
	case models.ActivityTypeCommunication:
		field = "studentInfo.totalCommunicationSessions"
	default:
		return fmt.Errorf("invalid activity type: %s", activityType)
	}

	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{field: increment},
		"$set": bson.M{
			"lastActive":         time.Now().Unix(),
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment activity counter: %w", err)
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

// AppendGameScore records one entry in the per-game score ledger.
func (r *UserRepository) AppendGameScore(ctx context.Context, id bson.ObjectID, score models.GameScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter := bson.M{"_id": id}
	update := bson.M{
		"$push": bson.M{"gameScores": score},
		"$set": bson.M{
			"lastActive":         time.Now().Unix(),
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append game score: %w", err)
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

// RegionActivityStatistics groups active students by region with summed
// counters and the average composite score per student.
func (r *UserRepository) RegionActivityStatistics(ctx context.Context) ([]models.RegionStatistics, error) {
	pipeline := []bson.M{
		{
			"$match": bson.M{
				"role":     models.RoleStudent,
				"isActive": true,
				"regionId": bson.M{"$exists": true},
			},
		},
		{
			"$group": bson.M{
				"_id":           "$regionId",
				"totalStudents": bson.M{"$sum": 1},
				"totalGames":    bson.M{"$sum": "$studentInfo.totalGameSessions"},
				"totalLectures": bson.M{"$sum": "$studentInfo.totalLecturesWatched"},
				"averageScore": bson.M{
					"$avg": bson.M{"$add": []any{
						"$studentInfo.totalLecturesWatched",
						"$studentInfo.totalGameSessions",
						"$studentInfo.totalCommunicationSessions",
					}},
				},
			},
		},
		{
			"$lookup": bson.M{
				"from":         "regions",
				"localField":   "_id",
				"foreignField": "_id",
				"as":           "region",
			},
		},
		{
			"$unwind": "$region",
		},
		{
			"$addFields": bson.M{
				"regionName": "$region.name",
			},
		},
		{
			"$project": bson.M{"region": 0},
		},
		{
			"$sort": bson.M{"regionName": 1},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate region statistics: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []models.RegionStatistics
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode region statistics: %w", err)
	}

	return stats, nil
}

func (r *UserRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "regionId", Value: 1},
				{Key: "role", Value: 1},
				{Key: "isActive", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "lastActive", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
