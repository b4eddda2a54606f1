package model

import "time"

// Device is a registered DXR ventilation unit.
type Device struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"size:128;not null" json:"name"`
	Host                string    `gorm:"size:256;not null;uniqueIndex:idx_device_host_port" json:"host"`
	Port                int       `gorm:"not null;uniqueIndex:idx_device_host_port" json:"port"`
	PollIntervalSeconds int       `json:"pollIntervalSeconds"`
	Version             string    `gorm:"size:64" json:"version"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
