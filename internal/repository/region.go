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

type RegionRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewRegionRepository(db *mongo.Database) *RegionRepository {
	return &RegionRepository{
		collection: db.Collection("regions"),
		mu:         &sync.Mutex{},
	}
}

func (r *RegionRepository) New(ctx context.Context, region *models.Region) (*models.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if region.ID.IsZero() {
		region.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if region.Metadata.CreatedAt == 0 {
		region.Metadata.CreatedAt = currentTime
	}
	region.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to insert region: %w", err)
	}
	return region, nil
}

func (r *RegionRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Region, error) {
	var region models.Region
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&region)
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *RegionRepository) FindByCode(ctx context.Context, code string) (*models.Region, error) {
	var region models.Region
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&region)
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *RegionRepository) FindAll(ctx context.Context, activeOnly bool) ([]*models.Region, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}

	opts := options.Find().SetSort(bson.M{"name": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find regions: %w", err)
	}
	defer cursor.Close(ctx)

	var regions []*models.Region
	if err = cursor.All(ctx, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}

	return regions, nil
}

func (r *RegionRepository) UpdateStatus(ctx context.Context, id bson.ObjectID, isActive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"isActive":           isActive,
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update region status: %w", err)
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *RegionRepository) CountRegions(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count regions: %w", err)
	}
	return count, nil
}

func (r *RegionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create region indexes: %w", err)
	}

	return nil
}
