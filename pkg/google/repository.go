package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
)

// TokenRepository keeps one OAuth grant per user. A row starts with only the login nonce and
// receives the token once the callback for that nonce arrives.
type TokenRepository interface {
	DeleteForUser(ctx context.Context, userId int) error
	StoreNonce(ctx context.Context, userId int, nonce string) error
	StoreToken(ctx context.Context, nonce string, token *oauth2.Token) (bool, error)
	GetToken(ctx context.Context, userId int) (*oauth2.Token, error)
}

type TokenRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{db: db}
}

func (r *TokenRepositoryImpl) DeleteForUser(ctx context.Context, userId int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM google_calendar_auth WHERE user_id = $1", userId)
	if err != nil {
		return fmt.Errorf("failed to delete Google auth for user %d: %w", userId, err)
	}
	return nil
}

func (r *TokenRepositoryImpl) StoreNonce(ctx context.Context, userId int, nonce string) error {
	_, err := r.db.Exec(ctx, "INSERT INTO google_calendar_auth (user_id, nonce) VALUES ($1, $2)", userId, nonce)
	if err != nil {
		return fmt.Errorf("failed to store Google auth nonce for user %d: %w", userId, err)
	}
	return nil
}

func (r *TokenRepositoryImpl) StoreToken(ctx context.Context, nonce string, token *oauth2.Token) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE google_calendar_auth SET access_token = $1, refresh_token = $2, expiry = $3 WHERE nonce = $4",
		token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		return false, fmt.Errorf("failed to store Google auth token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetToken returns nil without an error when the user never finished the OAuth flow.
func (r *TokenRepositoryImpl) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	var accessToken, refreshToken *string
	var expiry *int64
	err := r.db.QueryRow(ctx,
		`SELECT access_token, refresh_token, expiry FROM google_calendar_auth
		 WHERE user_id = $1 AND access_token IS NOT NULL
		 LIMIT 1`, userId).
		Scan(&accessToken, &refreshToken, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}

	token := &oauth2.Token{AccessToken: *accessToken}
	if refreshToken != nil {
		token.RefreshToken = *refreshToken
	}
	if expiry != nil {
		token.Expiry = time.Unix(*expiry, 0)
	}
	return token, nil
}
