package database

import (
	"context"
	"fmt"

	"github.com/iot-project/rack-wagon-service/internal/config"
	"github.com/iot-project/rack-wagon-service/internal/database/repository"
	"github.com/iot-project/rack-wagon-service/internal/database/usecase"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// A DatabaseClient establishes a connection to the MongoDB database and allows
// for interfacing through the different collections through it.
// Whoever uses this struct to establish a connection to the database is responsible
// for calling the Disconnect() method to gracefully disconnect from the database
type DatabaseClient struct {
	databaseClient     *mongo.Client
	rackRepository     *repository.MongoRackRepository
	settingsRepository *repository.MongoSettingsRepository
}

func NewDatabaseClient(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClient, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	databaseClient, err := newDatabaseClient(client, client.Database(cfg.Name), cfg)
	if err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	if err = databaseClient.rackRepository.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return databaseClient, nil
}

func newDatabaseClient(client *mongo.Client, db *mongo.Database, cfg config.DatabaseConfig) (*DatabaseClient, error) {
	rackRepository, err := repository.NewMongoRackRepository(client, db, cfg.RackCollection)
	if err != nil {
		return nil, fmt.Errorf("could not create rackRepository: %w", err)
	}

	settingsRepository, err := repository.NewMongoSettingsRepository(client, db, cfg.SettingsCollection)
	if err != nil {
		return nil, fmt.Errorf("could not create settingsRepository: %w", err)
	}

	return &DatabaseClient{
		databaseClient:     client,
		rackRepository:     rackRepository,
		settingsRepository: settingsRepository,
	}, nil
}

func (client *DatabaseClient) RackWagonUseCase(opts ...usecase.Option) *usecase.RackWagonUseCase {
	return usecase.NewRackWagonUseCase(client.rackRepository, client.settingsRepository, opts...)
}

func (client *DatabaseClient) Disconnect(ctx context.Context) error {
	err := client.databaseClient.Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("failed to disconnect MongoDB client: %w", err)
	}
	return nil
}
