package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/threewords/journal/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	ByID(id string) (*model.User, error)
	ByGoogleSub(sub string) (*model.User, error)
	// Upsert creates the user on first sign-in and refreshes the profile
	// fields afterwards. The stored ID is written back into user.
	Upsert(user *model.User) error
	Delete(id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByGoogleSub(sub string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE google_sub = $1`

	err := r.db.Get(user, query, sub)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) Upsert(user *model.User) error {
	now := time.Now()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, google_sub, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (google_sub) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, user.ID, user.GoogleSub, user.Email, user.Name, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return err
	}

	stored, err := r.ByGoogleSub(user.GoogleSub)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
