// Package repositorytest provides in-memory repositories that follow the same
// contracts as the MongoDB ones, for use in tests of the layers above.
package repositorytest

import (
	"context"
	"sync"

	"github.com/iot-project/rack-wagon-service/internal/database/repository"
	"github.com/iot-project/rack-wagon-service/internal/models"
)

type RackRepository struct {
	mu    sync.Mutex
	racks []models.RackModel

	// Err, when set, is returned by every call.
	Err error
	// BeforeReplace runs before each ReplaceIfVersion, outside the lock.
	BeforeReplace func()
}

var _ repository.RackRepository = (*RackRepository)(nil)

func NewRackRepository() *RackRepository {
	return &RackRepository{}
}

func (repo *RackRepository) GetFirst(ctx context.Context) (*models.RackModel, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return nil, repo.Err
	}
	if len(repo.racks) == 0 {
		return nil, repository.ErrNotFound
	}
	return copyRack(repo.racks[0]), nil
}

func (repo *RackRepository) GetByRackID(ctx context.Context, rackID string) (*models.RackModel, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return nil, repo.Err
	}
	if i := repo.indexOf(rackID); i >= 0 {
		return copyRack(repo.racks[i]), nil
	}
	return nil, repository.ErrNotFound
}

func (repo *RackRepository) GetAll(ctx context.Context) ([]models.RackModel, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return nil, repo.Err
	}
	racks := make([]models.RackModel, 0, len(repo.racks))
	for _, rack := range repo.racks {
		racks = append(racks, *copyRack(rack))
	}
	return racks, nil
}

func (repo *RackRepository) ReplaceIfVersion(ctx context.Context, rack *models.RackModel, expectedVersion int64) error {
	if repo.BeforeReplace != nil {
		repo.BeforeReplace()
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return repo.Err
	}

	next := copyRack(*rack)
	next.Version = expectedVersion + 1

	i := repo.indexOf(rack.RackID)
	switch {
	case i < 0 && expectedVersion == 0:
		repo.racks = append(repo.racks, *next)
	case i >= 0 && repo.racks[i].Version == expectedVersion:
		repo.racks[i] = *next
	default:
		return repository.ErrVersionConflict
	}

	rack.Version = next.Version
	return nil
}

func (repo *RackRepository) DeleteAll(ctx context.Context) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return 0, repo.Err
	}
	n := int64(len(repo.racks))
	repo.racks = nil
	return n, nil
}

func (repo *RackRepository) indexOf(rackID string) int {
	for i := range repo.racks {
		if repo.racks[i].RackID == rackID {
			return i
		}
	}
	return -1
}

func copyRack(rack models.RackModel) *models.RackModel {
	wagons := make([]models.WagonModel, len(rack.Wagons))
	copy(wagons, rack.Wagons)
	rack.Wagons = wagons
	return &rack
}

type SettingsRepository struct {
	mu       sync.Mutex
	settings *models.SettingsModel

	Err error
}

var _ repository.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (repo *SettingsRepository) Get(ctx context.Context) (*models.SettingsModel, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return nil, repo.Err
	}
	if repo.settings == nil {
		return nil, repository.ErrNotFound
	}
	settings := *repo.settings
	return &settings, nil
}

// Set merges the given fields like a $set upsert would.
func (repo *SettingsRepository) Set(ctx context.Context, settings *models.SettingsModel) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return repo.Err
	}
	if repo.settings == nil {
		repo.settings = &models.SettingsModel{}
	}
	if settings.WagonLimit != nil {
		limit := *settings.WagonLimit
		repo.settings.WagonLimit = &limit
	}
	if settings.RackID != nil {
		rackID := *settings.RackID
		repo.settings.RackID = &rackID
	}
	return nil
}

func (repo *SettingsRepository) DeleteAll(ctx context.Context) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.Err != nil {
		return 0, repo.Err
	}
	if repo.settings == nil {
		return 0, nil
	}
	repo.settings = nil
	return 1, nil
}
