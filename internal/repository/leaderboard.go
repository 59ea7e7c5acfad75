package repository

import (
	"context"
	"fmt"
	"time"

	"leaderboard-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type LeaderboardRepository struct {
	collection *mongo.Collection
}

func NewLeaderboardRepository(db *mongo.Database) *LeaderboardRepository {
	return &LeaderboardRepository{
		collection: db.Collection("leaderboards"),
	}
}

func snapshotKey(regionID bson.ObjectID, scope models.Scope, periodStart int64) bson.M {
	return bson.M{
		"regionId":         regionID,
		"leaderboardType":  scope.Type,
		"gameType":         scope.GameType,
		"period.startDate": periodStart,
	}
}

// Replace stores a freshly computed snapshot whole. The upsert on the
// compound key makes concurrent recomputations last-write-wins without any
// read-modify-write window.
func (r *LeaderboardRepository) Replace(ctx context.Context, leaderboard *models.Leaderboard) (*models.Leaderboard, error) {
	currentTime := time.Now().Unix()
	if leaderboard.Metadata.CreatedAt == 0 {
		leaderboard.Metadata.CreatedAt = currentTime
	}
	leaderboard.Metadata.UpdatedAt = currentTime

	filter := snapshotKey(leaderboard.RegionID, leaderboard.Scope(), leaderboard.Period.StartDate)

	// _id must stay out of the replacement so an existing document keeps its id.
	leaderboard.ID = bson.ObjectID{}

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var replaced models.Leaderboard
	err := r.collection.FindOneAndReplace(ctx, filter, leaderboard, opts).Decode(&replaced)
	if err != nil {
		return nil, fmt.Errorf("failed to replace leaderboard snapshot: %w", err)
	}

	return &replaced, nil
}

func (r *LeaderboardRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Leaderboard, error) {
	var leaderboard models.Leaderboard
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&leaderboard)
	if err != nil {
		return nil, err
	}
	return &leaderboard, nil
}

// publishedInPeriodFilter is the stored-document form of
// models.Leaderboard.IsCurrent: published and period containing now.
func publishedInPeriodFilter(now int64) bson.M {
	return bson.M{
		"isPublished":      true,
		"period.startDate": bson.M{"$lte": now},
		"period.endDate":   bson.M{"$gte": now},
	}
}

// FindCurrentPublished returns the published snapshot whose period contains
// now. Unpublished or out-of-period snapshots are invisible here. Overlapping
// published periods resolve to the latest start.
func (r *LeaderboardRepository) FindCurrentPublished(ctx context.Context, regionID bson.ObjectID, leaderboardType models.LeaderboardType, now int64) (*models.Leaderboard, error) {
	filter := publishedInPeriodFilter(now)
	filter["regionId"] = regionID
	filter["leaderboardType"] = leaderboardType

	opts := options.FindOne().SetSort(bson.M{"period.startDate": -1})

	var leaderboard models.Leaderboard
	err := r.collection.FindOne(ctx, filter, opts).Decode(&leaderboard)
	if err != nil {
		return nil, err
	}
	return &leaderboard, nil
}

func (r *LeaderboardRepository) FindAllCurrentPublished(ctx context.Context, leaderboardType models.LeaderboardType, now int64) ([]*models.Leaderboard, error) {
	filter := publishedInPeriodFilter(now)
	filter["leaderboardType"] = leaderboardType

	opts := options.Find().SetSort(bson.M{"period.startDate": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find published leaderboards: %w", err)
	}
	defer cursor.Close(ctx)

	var leaderboards []*models.Leaderboard
	if err = cursor.All(ctx, &leaderboards); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboards: %w", err)
	}

	return leaderboards, nil
}

func (r *LeaderboardRepository) SetPublished(ctx context.Context, id bson.ObjectID, isPublished bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"isPublished":        isPublished,
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update publication state: %w", err)
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *LeaderboardRepository) CountLeaderboards(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count leaderboards: %w", err)
	}
	return count, nil
}

func (r *LeaderboardRepository) CountPublished(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"isPublished": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count published leaderboards: %w", err)
	}
	return count, nil
}

func (r *LeaderboardRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "regionId", Value: 1},
				{Key: "leaderboardType", Value: 1},
				{Key: "gameType", Value: 1},
				{Key: "period.startDate", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "isPublished", Value: 1},
				{Key: "period.startDate", Value: 1},
				{Key: "period.endDate", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "lastUpdated", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard indexes: %w", err)
	}

	return nil
}
