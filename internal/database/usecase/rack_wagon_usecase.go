package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iot-project/rack-wagon-service/internal/database/repository"
	"github.com/iot-project/rack-wagon-service/internal/models"
)

var (
	ErrMissingRackID      = errors.New("Missing required field: rackId")
	ErrLimitNotConfigured = errors.New("Operator has not set a wagon limit or rackId")
	ErrInvalidRackID      = errors.New("Invalid rackId")
	ErrLimitReached       = errors.New("Wagon limit reached, no more wagons allowed")
	ErrNoRecords          = errors.New("No records found")
	ErrConflict           = errors.New("concurrent update conflict")
)

const DefaultMaxAppendRetries = 5

// Archiver stores a copy of everything DeleteAll is about to remove.
type Archiver interface {
	Archive(ctx context.Context, archive models.ArchiveModel) error
}

type Option func(*RackWagonUseCase)

func WithArchiver(archiver Archiver) Option {
	return func(uc *RackWagonUseCase) {
		uc.archiver = archiver
	}
}

// WithMaxAppendRetries bounds how many times an append is retried after losing
// a version race. Negative values are treated as zero.
func WithMaxAppendRetries(retries int) Option {
	return func(uc *RackWagonUseCase) {
		if retries < 0 {
			retries = 0
		}
		uc.maxAppendRetries = retries
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *RackWagonUseCase) {
		uc.now = now
	}
}

type RackWagonUseCase struct {
	rackRepo         repository.RackRepository
	settingsRepo     repository.SettingsRepository
	archiver         Archiver
	maxAppendRetries int
	now              func() time.Time
}

func NewRackWagonUseCase(rackRepo repository.RackRepository, settingsRepo repository.SettingsRepository, opts ...Option) *RackWagonUseCase {
	uc := &RackWagonUseCase{
		rackRepo:         rackRepo,
		settingsRepo:     settingsRepo,
		maxAppendRetries: DefaultMaxAppendRetries,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SetLimit replaces the operator settings. The limit is stored as given,
// zero and negative values included.
func (uc *RackWagonUseCase) SetLimit(ctx context.Context, wagonLimit int, rackID string) (models.SetLimitResponse, error) {
	if err := uc.settingsRepo.Set(ctx, models.NewSettingsModel(wagonLimit, rackID)); err != nil {
		return models.SetLimitResponse{}, err
	}

	return models.SetLimitResponse{
		Message: fmt.Sprintf("Wagon limit set to %d", wagonLimit),
		RackID:  rackID,
	}, nil
}

// AppendWagon adds one wagon to the authorized rack, creating the rack on its
// first wagon. Losing a write race re-runs the whole validation against fresh
// state, up to the configured number of retries.
func (uc *RackWagonUseCase) AppendWagon(ctx context.Context, rackID string, status *string) (models.RackSnapshotResponse, error) {
	for attempt := 0; ; attempt++ {
		snapshot, err := uc.appendWagonOnce(ctx, rackID, status)
		if !errors.Is(err, repository.ErrVersionConflict) {
			return snapshot, err
		}
		if attempt >= uc.maxAppendRetries {
			return models.RackSnapshotResponse{}, fmt.Errorf("%w on rack %s, retry the request", ErrConflict, rackID)
		}
		if err := ctx.Err(); err != nil {
			return models.RackSnapshotResponse{}, err
		}
	}
}

func (uc *RackWagonUseCase) appendWagonOnce(ctx context.Context, rackID string, status *string) (models.RackSnapshotResponse, error) {
	settings, err := uc.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return models.RackSnapshotResponse{}, err
	}
	if !settings.Configured() {
		return models.RackSnapshotResponse{}, ErrLimitNotConfigured
	}
	if rackID != *settings.RackID {
		return models.RackSnapshotResponse{}, ErrInvalidRackID
	}

	rack, err := uc.rackRepo.GetByRackID(ctx, rackID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		rack = models.NewRackModel(rackID)
	case err != nil:
		return models.RackSnapshotResponse{}, err
	case rack.TotalWagons() >= *settings.WagonLimit:
		return models.RackSnapshotResponse{}, ErrLimitReached
	}

	now := uc.now()
	wagon := rack.NextWagon(status, now)
	expectedVersion := rack.Version
	rack.Wagons = append(rack.Wagons, wagon)

	if err := uc.rackRepo.ReplaceIfVersion(ctx, rack, expectedVersion); err != nil {
		return models.RackSnapshotResponse{}, err
	}

	snapshot := models.NewRackSnapshotResponse(rack, now)
	snapshot.Message = fmt.Sprintf("Wagon %d data stored successfully.", wagon.WagonNo)
	return snapshot, nil
}

// GetRack returns the rack with rackID, or the first stored rack when rackID is nil.
func (uc *RackWagonUseCase) GetRack(ctx context.Context, rackID *string) (models.RackSnapshotResponse, error) {
	var rack *models.RackModel
	var err error
	if rackID != nil {
		rack, err = uc.rackRepo.GetByRackID(ctx, *rackID)
	} else {
		rack, err = uc.rackRepo.GetFirst(ctx)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return models.RackSnapshotResponse{}, ErrNoRecords
	}
	if err != nil {
		return models.RackSnapshotResponse{}, err
	}

	return models.NewRackSnapshotResponse(rack, uc.now()), nil
}

// DeleteAll wipes every rack and the settings. With an archiver configured the
// current state is archived first and nothing is deleted if that fails.
func (uc *RackWagonUseCase) DeleteAll(ctx context.Context) (models.MessageResponse, error) {
	if uc.archiver != nil {
		if err := uc.archive(ctx); err != nil {
			return models.MessageResponse{}, err
		}
	}

	if _, err := uc.rackRepo.DeleteAll(ctx); err != nil {
		return models.MessageResponse{}, err
	}
	if _, err := uc.settingsRepo.DeleteAll(ctx); err != nil {
		return models.MessageResponse{}, err
	}

	return models.MessageResponse{Message: "All records and settings deleted"}, nil
}

func (uc *RackWagonUseCase) archive(ctx context.Context) error {
	racks, err := uc.rackRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	settings, err := uc.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	archive := models.ArchiveModel{
		CreatedAt: uc.now().UTC(),
		Settings:  settings,
		Racks:     racks,
	}
	if err := uc.archiver.Archive(ctx, archive); err != nil {
		return fmt.Errorf("could not archive racks before delete: %w", err)
	}
	return nil
}
