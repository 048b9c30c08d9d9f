package models

import "time"

// DeviceEntry is one key-value row in the persistent device store. Keys are
// namespaced per collection and session ("cart:<session>", "wishlist:<session>").
type DeviceEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
