package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aereco-dxr-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)
	UpsertDevice(ctx context.Context, device *model.Device) error
	DeleteDevice(ctx context.Context, id int64) error
	SubscriptionsForDevice(ctx context.Context, deviceID int64) ([]model.PushSubscription, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that run their own
// queries.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListDevices returns every registered device.
func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// GetDevice fetches one device by its registry ID.
func (s *gormStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

// UpsertDevice registers a device or updates an existing registration
// with the same host and port.
func (s *gormStore) UpsertDevice(ctx context.Context, device *model.Device) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "host"}, {Name: "port"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "poll_interval_seconds", "version", "updated_at"}),
	}).Create(device).Error; err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	// The conflict path does not populate the ID; fetch it back.
	if device.ID == 0 {
		var existing model.Device
		if err := s.db.WithContext(ctx).
			Where("host = ? AND port = ?", device.Host, device.Port).
			First(&existing).Error; err != nil {
			return fmt.Errorf("failed to reload device after upsert: %w", err)
		}
		device.ID = existing.ID
	}
	return nil
}

// DeleteDevice removes a device and its subscription mappings.
func (s *gormStore) DeleteDevice(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_device_mapping WHERE device_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear subscription mappings for device %d: %w", id, err)
		}
		if err := tx.Delete(&model.Device{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete device %d: %w", id, err)
		}
		return nil
	})
}

// SubscriptionsForDevice returns all push subscriptions watching a device.
func (s *gormStore) SubscriptionsForDevice(ctx context.Context, deviceID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.device_id = ?", deviceID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for device %d: %w", deviceID, err)
	}
	return subscriptions, nil
}
