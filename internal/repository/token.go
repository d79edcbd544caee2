package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/threewords/journal/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository persists the Google Sheets grant of each user, one per user.
type TokenRepository interface {
	Save(token *model.OAuthToken) error
	ByUserID(userID string) (*model.OAuthToken, error)
	Delete(userID string) error
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Save(token *model.OAuthToken) error {
	now := time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	// A refreshed token may come back without a refresh token; keep the old one then.
	query := `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN oauth_tokens.refresh_token ELSE excluded.refresh_token END,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query,
		token.UserID,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		token.Expiry,
		token.CreatedAt,
		token.UpdatedAt,
	)
	return err
}

func (r *tokenRepository) ByUserID(userID string) (*model.OAuthToken, error) {
	var token model.OAuthToken
	err := r.db.Get(&token, `SELECT * FROM oauth_tokens WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Delete(userID string) error {
	_, err := r.db.Exec(`DELETE FROM oauth_tokens WHERE user_id = $1`, userID)
	return err
}
