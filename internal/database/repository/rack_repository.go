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

const RackCollection string = "rack_wagons"

// RackRepository contains the methods any db implementation needs to store racks and their wagons
type RackRepository interface {
	GetFirst(ctx context.Context) (*models.RackModel, error)
	GetByRackID(ctx context.Context, rackID string) (*models.RackModel, error)
	GetAll(ctx context.Context) ([]models.RackModel, error)
	ReplaceIfVersion(ctx context.Context, rack *models.RackModel, expectedVersion int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

type MongoRackRepository struct {
	dbClient   *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoRackRepository(dbClient *mongo.Client, database *mongo.Database, collectionName string) (*MongoRackRepository, error) {
	if collectionName == "" {
		collectionName = RackCollection
	}
	collection := database.Collection(collectionName)
	if collection == nil {
		return nil, fmt.Errorf("could not get collection %s", collectionName)
	}

	return &MongoRackRepository{
		dbClient:   dbClient,
		db:         database,
		collection: collection,
	}, nil
}

// EnsureIndexes creates the unique rackId index. Concurrent first appends to
// the same rack rely on it to fail with a duplicate key instead of creating
// two documents.
func (repo *MongoRackRepository) EnsureIndexes(ctx context.Context) error {
	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "rackId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("rackId_unique"),
	})
	if err != nil {
		return fmt.Errorf("could not create rackId index on %s: %w", repo.collection.Name(), err)
	}
	return nil
}

// GetFirst returns whichever rack the store hands back first.
func (repo *MongoRackRepository) GetFirst(ctx context.Context) (*models.RackModel, error) {
	return repo.findOne(ctx, bson.M{})
}

func (repo *MongoRackRepository) GetByRackID(ctx context.Context, rackID string) (*models.RackModel, error) {
	return repo.findOne(ctx, bson.M{"rackId": rackID})
}

func (repo *MongoRackRepository) findOne(ctx context.Context, filter bson.M) (*models.RackModel, error) {
	result := repo.collection.FindOne(ctx, filter)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rack models.RackModel
	if err := result.Decode(&rack); err != nil {
		return nil, fmt.Errorf("could not decode result into rack: %w", err)
	}
	if rack.Wagons == nil {
		rack.Wagons = []models.WagonModel{}
	}

	return &rack, nil
}

func (repo *MongoRackRepository) GetAll(ctx context.Context) ([]models.RackModel, error) {
	cursor, err := repo.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var racks []models.RackModel
	if err = cursor.All(ctx, &racks); err != nil {
		return nil, err
	}

	if racks == nil {
		racks = make([]models.RackModel, 0)
	}

	return racks, nil
}

// ReplaceIfVersion writes the whole rack document only if the stored copy is
// still at expectedVersion. Version 0 means the rack was not found when it was
// read, in which case the document is upserted and a concurrent creator shows
// up as a duplicate key on the rackId index. Either way of losing is reported
// as ErrVersionConflict. On success rack.Version holds the new version.
func (repo *MongoRackRepository) ReplaceIfVersion(ctx context.Context, rack *models.RackModel, expectedVersion int64) error {
	filter := bson.M{"rackId": rack.RackID, "version": expectedVersion}
	if expectedVersion == 0 {
		// documents written before versioning have no version field
		filter = bson.M{
			"rackId": rack.RackID,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}

	replacement := *rack
	replacement.Version = expectedVersion + 1

	opts := options.Replace().SetUpsert(expectedVersion == 0)
	res, err := repo.collection.ReplaceOne(ctx, filter, replacement, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrVersionConflict
	}

	rack.Version = replacement.Version
	return nil
}

func (repo *MongoRackRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := repo.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
