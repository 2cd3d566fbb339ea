package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/tasktracker/internal/model"
)

var (
	ErrItemNotFound = errors.New("storage item not found")
)

// LocalStorageRepository emulates window.localStorage, scoped per browser profile.
type LocalStorageRepository interface {
	Item(profileID, key string) (string, error)
	SetItem(profileID, key, value string) error
	RemoveItem(profileID, key string) error
	Items(profileID string) ([]*model.StorageItem, error)
	Clear(profileID string) error
}

type localStorageRepository struct {
	db *sqlx.DB
}

func NewLocalStorageRepository(db *sqlx.DB) LocalStorageRepository {
	return &localStorageRepository{db: db}
}

func (r *localStorageRepository) Item(profileID, key string) (string, error) {
	var value string
	query := `SELECT item_value FROM local_storage WHERE profile_id = $1 AND item_key = $2`

	err := r.db.Get(&value, query, profileID, key)
	if err == sql.ErrNoRows {
		return "", ErrItemNotFound
	}

	return value, err
}

// SetItem replaces the whole value; there is no partial update.
func (r *localStorageRepository) SetItem(profileID, key, value string) error {
	query := `INSERT INTO local_storage (profile_id, item_key, item_value, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (profile_id, item_key)
	          DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at`

	_, err := r.db.Exec(query, profileID, key, value, time.Now().UTC())
	return err
}

// RemoveItem is a no-op for missing keys, like localStorage.removeItem.
func (r *localStorageRepository) RemoveItem(profileID, key string) error {
	query := `DELETE FROM local_storage WHERE profile_id = $1 AND item_key = $2`

	_, err := r.db.Exec(query, profileID, key)
	return err
}

func (r *localStorageRepository) Items(profileID string) ([]*model.StorageItem, error) {
	var items []*model.StorageItem
	query := `SELECT * FROM local_storage WHERE profile_id = $1 ORDER BY item_key ASC`

	err := r.db.Select(&items, query, profileID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *localStorageRepository) Clear(profileID string) error {
	query := `DELETE FROM local_storage WHERE profile_id = $1`

	_, err := r.db.Exec(query, profileID)
	return err
}
