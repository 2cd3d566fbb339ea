package model

import "time"

// StorageItem is one key of a browser profile's emulated local storage.
type StorageItem struct {
	ProfileID string    `db:"profile_id"`
	Key       string    `db:"item_key"`
	Value     string    `db:"item_value"`
	UpdatedAt time.Time `db:"updated_at"`
}
