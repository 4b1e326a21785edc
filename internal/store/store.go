package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puripilot/internal/model"
)

// DefaultDeviceName is applied when a device is created without a name.
const DefaultDeviceName = "Lg Puricare"

// DefaultFloorplanName is applied when a floorplan is created without a name.
const DefaultFloorplanName = "Floorplan"

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListDevices(ctx context.Context) ([]model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	CreateDevice(ctx context.Context, dev *model.Device) error
	UpsertDevice(ctx context.Context, id string, in DeviceUpsert, now time.Time) (*model.Device, bool, error)
	SetDeviceMode(ctx context.Context, id string, mode model.DeviceMode, now time.Time) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error

	ListFloorplans(ctx context.Context) ([]model.Floorplan, error)
	GetFloorplan(ctx context.Context, id string) (*model.Floorplan, error)
	LatestFloorplan(ctx context.Context) (*model.Floorplan, error)
	CreateFloorplan(ctx context.Context, fp *model.Floorplan) error
	UpsertFloorplan(ctx context.Context, id string, in FloorplanUpsert, now time.Time) (*model.Floorplan, bool, error)
	DeleteFloorplan(ctx context.Context, id string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for callers that need direct
// access (subscription handlers, notification workers).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Devices ---

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var dev model.Device
	if err := s.db.WithContext(ctx).First(&dev, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch device %s: %w", id, err)
	}
	return &dev, nil
}

func (s *gormStore) CreateDevice(ctx context.Context, dev *model.Device) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", dev.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check device %s: %w", dev.ID, err)
	}
	if count > 0 {
		return ErrConflict
	}
	if err := s.db.WithContext(ctx).Create(dev).Error; err != nil {
		// Two concurrent creates can both observe "missing"; the primary
		// key constraint catches the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create device %s: %w", dev.ID, err)
	}
	return nil
}

// UpsertDevice inserts the row when id is unknown, otherwise updates the
// mutable fields. The insert-else-update runs as a single ON CONFLICT
// statement inside a transaction, with created_at excluded from the
// conflict column set so it survives a concurrent-insert race.
// The returned bool reports whether a new row was inserted.
func (s *gormStore) UpsertDevice(ctx context.Context, id string, in DeviceUpsert, now time.Time) (*model.Device, bool, error) {
	var row model.Device
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Device
		err := tx.First(&existing, "id = ?", id).Error
		fresh := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !fresh {
			return err
		}

		row = model.Device{ID: id, UpdatedAt: now}
		if fresh {
			row.Name = DefaultDeviceName
			if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
				row.Name = strings.TrimSpace(*in.Name)
			}
			row.Mode = model.ModeOff
			if in.Mode != nil {
				row.Mode = model.DeviceMode(*in.Mode)
			}
			row.SmellClass = model.SmellBackground
			if in.SmellClass != nil {
				row.SmellClass = model.SmellClass(*in.SmellClass)
			}
			seen := now
			if in.LastSeen != nil {
				seen = *in.LastSeen
			}
			row.LastSeen = &seen
			row.CreatedAt = now
			if in.CreatedAt != nil {
				row.CreatedAt = *in.CreatedAt
			}
		} else {
			// A blank or whitespace-only name means "no change", not an error.
			row.Name = existing.Name
			if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
				row.Name = strings.TrimSpace(*in.Name)
			}
			row.Mode = existing.Mode
			if in.Mode != nil {
				row.Mode = model.DeviceMode(*in.Mode)
			}
			row.SmellClass = existing.SmellClass
			if in.SmellClass != nil {
				row.SmellClass = model.SmellClass(*in.SmellClass)
			}
			row.LastSeen = existing.LastSeen
			if in.LastSeen != nil {
				row.LastSeen = in.LastSeen
			}
			if row.LastSeen == nil {
				row.LastSeen = &now
			}
			row.CreatedAt = existing.CreatedAt
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "mode", "smell_class", "last_seen", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert device %s: %w", id, err)
		}
		created = fresh
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &row, created, nil
}

// SetDeviceMode updates the mode of an existing device and refreshes
// last_seen and updated_at in the same write.
func (s *gormStore) SetDeviceMode(ctx context.Context, id string, mode model.DeviceMode, now time.Time) (*model.Device, error) {
	res := s.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", id).Updates(map[string]any{
		"mode":       mode,
		"last_seen":  now,
		"updated_at": now,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update mode for device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetDevice(ctx, id)
}

func (s *gormStore) DeleteDevice(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Device{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Floorplans ---

func (s *gormStore) ListFloorplans(ctx context.Context) ([]model.Floorplan, error) {
	var plans []model.Floorplan
	if err := s.db.WithContext(ctx).Order("id").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list floorplans: %w", err)
	}
	return plans, nil
}

func (s *gormStore) GetFloorplan(ctx context.Context, id string) (*model.Floorplan, error) {
	var fp model.Floorplan
	if err := s.db.WithContext(ctx).First(&fp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch floorplan %s: %w", id, err)
	}
	return &fp, nil
}

// LatestFloorplan returns the row with the greatest updated_at. Equal
// timestamps are broken deterministically by the highest id.
func (s *gormStore) LatestFloorplan(ctx context.Context) (*model.Floorplan, error) {
	var fp model.Floorplan
	err := s.db.WithContext(ctx).
		Order("updated_at DESC, id DESC").
		First(&fp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch latest floorplan: %w", err)
	}
	return &fp, nil
}

func (s *gormStore) CreateFloorplan(ctx context.Context, fp *model.Floorplan) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Floorplan{}).Where("id = ?", fp.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check floorplan %s: %w", fp.ID, err)
	}
	if count > 0 {
		return ErrConflict
	}
	if err := s.db.WithContext(ctx).Create(fp).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create floorplan %s: %w", fp.ID, err)
	}
	return nil
}

// UpsertFloorplan inserts the row when id is unknown, otherwise replaces
// name and data while preserving created_at. Same single-statement
// ON CONFLICT shape as UpsertDevice.
func (s *gormStore) UpsertFloorplan(ctx context.Context, id string, in FloorplanUpsert, now time.Time) (*model.Floorplan, bool, error) {
	var row model.Floorplan
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Floorplan
		err := tx.First(&existing, "id = ?", id).Error
		fresh := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !fresh {
			return err
		}

		row = model.Floorplan{ID: id, Data: in.Data, UpdatedAt: now}
		if fresh {
			row.Name = DefaultFloorplanName
			if in.Name != nil && *in.Name != "" {
				row.Name = *in.Name
			}
			row.CreatedAt = now
		} else {
			row.Name = existing.Name
			if in.Name != nil && *in.Name != "" {
				row.Name = *in.Name
			}
			row.CreatedAt = existing.CreatedAt
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "data", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert floorplan %s: %w", id, err)
		}
		created = fresh
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &row, created, nil
}

func (s *gormStore) DeleteFloorplan(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Floorplan{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete floorplan %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
