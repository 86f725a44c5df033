package repository

import (
	"context"
	"errors"
	"fmt"

	"senser/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoProfilesRepository one document per sensor, looked up by the "id" field
type MongoProfilesRepository struct {
	collection *mongo.Collection
}

func NewMongoProfilesRepository(collection *mongo.Collection) *MongoProfilesRepository {
	return &MongoProfilesRepository{collection: collection}
}

var _ ProfilesRepository = (*MongoProfilesRepository)(nil)

func (r *MongoProfilesRepository) FindOne(ctx context.Context, sensorID int64) (*domain.SensorProfile, error) {
	var p domain.SensorProfile
	err := r.collection.FindOne(ctx, bson.D{{Key: "id", Value: sensorID}}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find sensor profile: %w", err)
	}
	return &p, nil
}

func (r *MongoProfilesRepository) FindNear(ctx context.Context, latitude, longitude, radiusMeters float64) ([]*domain.SensorProfile, error) {
	cursor, err := r.collection.Find(ctx, nearFilter(latitude, longitude, radiusMeters))
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []*domain.SensorProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode nearby profiles: %w", err)
	}
	return profiles, nil
}

// nearFilter $near sorts by distance; $maxDistance is in meters for GeoJSON points
func nearFilter(latitude, longitude, radiusMeters float64) bson.D {
	return bson.D{{Key: "location", Value: bson.D{
		{Key: "$near", Value: bson.D{
			{Key: "$geometry", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{longitude, latitude}},
			}},
			{Key: "$maxDistance", Value: radiusMeters},
		}},
	}}}
}

func (r *MongoProfilesRepository) Upsert(ctx context.Context, p *domain.SensorProfile) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.D{{Key: "id", Value: p.ID}},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sensor profile: %w", err)
	}
	return nil
}

func (r *MongoProfilesRepository) Delete(ctx context.Context, sensorID int64) error {
	if _, err := r.collection.DeleteOne(ctx, bson.D{{Key: "id", Value: sensorID}}); err != nil {
		return fmt.Errorf("failed to delete sensor profile: %w", err)
	}
	return nil
}

func (r *MongoProfilesRepository) EnsureGeoIndex(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create 2dsphere index: %w", err)
	}
	return nil
}
