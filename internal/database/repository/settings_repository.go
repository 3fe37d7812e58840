package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/iot-project/rack-wagon-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SettingsCollection string = "settings"

// SettingsRepository stores the singleton operator settings.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.SettingsModel, error)
	Set(ctx context.Context, settings *models.SettingsModel) error
	DeleteAll(ctx context.Context) (int64, error)
}

type MongoSettingsRepository struct {
	dbClient   *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoSettingsRepository(dbClient *mongo.Client, database *mongo.Database, collectionName string) (*MongoSettingsRepository, error) {
	if collectionName == "" {
		collectionName = SettingsCollection
	}
	collection := database.Collection(collectionName)
	if collection == nil {
		return nil, fmt.Errorf("could not get collection %s", collectionName)
	}

	return &MongoSettingsRepository{
		dbClient:   dbClient,
		db:         database,
		collection: collection,
	}, nil
}

// Get returns the settings document, or ErrNotFound when the operator never set one.
func (repo *MongoSettingsRepository) Get(ctx context.Context) (*models.SettingsModel, error) {
	result := repo.collection.FindOne(ctx, bson.M{})
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var settings models.SettingsModel
	if err := result.Decode(&settings); err != nil {
		return nil, fmt.Errorf("could not decode result into settings: %w", err)
	}

	return &settings, nil
}

// Set upserts the settings with an empty filter, so there is only ever one
// settings document and it always gets overwritten.
func (repo *MongoSettingsRepository) Set(ctx context.Context, settings *models.SettingsModel) error {
	fields := bson.M{}
	if settings.WagonLimit != nil {
		fields["wagon_limit"] = *settings.WagonLimit
	}
	if settings.RackID != nil {
		fields["rackId"] = *settings.RackID
	}
	if len(fields) == 0 {
		return fmt.Errorf("no settings to store")
	}

	opts := options.Update().SetUpsert(true)
	_, err := repo.collection.UpdateOne(ctx, bson.M{}, bson.M{"$set": fields}, opts)
	return err
}

func (repo *MongoSettingsRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := repo.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
