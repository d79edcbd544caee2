package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrRecordNotFound = errors.New("record not found")

// RecordRepository is a string key/value store. Values are opaque to it.
type RecordRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type recordRepository struct {
	db *sqlx.DB
}

func NewRecordRepository(db *sqlx.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Get(key string) (string, error) {
	var value string
	err := r.db.Get(&value, `SELECT value FROM records WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return "", ErrRecordNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *recordRepository) Set(key, value string) error {
	query := `
		INSERT INTO records (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, key, value, time.Now())
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *recordRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM records WHERE key = $1`, key)
	return err
}
