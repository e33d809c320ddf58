package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// TokenRepository keeps one OAuth token per member, keyed during the login flow by a nonce.
type TokenRepository interface {
	StoreNonce(ctx context.Context, memberId uuid.UUID, nonce string) error
	StoreToken(ctx context.Context, nonce string, token *oauth2.Token) (bool, error)
	GetToken(ctx context.Context, memberId uuid.UUID) (*oauth2.Token, error)
	DeleteToken(ctx context.Context, memberId uuid.UUID) error
}

type TokenRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{db: db}
}

// StoreNonce starts a new login for the member, dropping any earlier token.
func (r *TokenRepositoryImpl) StoreNonce(ctx context.Context, memberId uuid.UUID, nonce string) error {
	query := `INSERT INTO google_calendar_auth (member_id, nonce) VALUES ($1, $2)
				ON CONFLICT (member_id) DO UPDATE SET nonce = EXCLUDED.nonce, access_token = '', refresh_token = '', expiry = 0`
	if _, err := r.db.Exec(ctx, query, memberId, nonce); err != nil {
		return fmt.Errorf("failed to store Google auth nonce for member %s: %w", memberId, err)
	}
	return nil
}

func (r *TokenRepositoryImpl) StoreToken(ctx context.Context, nonce string, token *oauth2.Token) (bool, error) {
	query := `UPDATE google_calendar_auth SET access_token = $1, refresh_token = $2, expiry = $3 WHERE nonce = $4`
	tag, err := r.db.Exec(ctx, query, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		return false, fmt.Errorf("unable to store Google auth token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetToken returns nil without error when the member never completed a login.
func (r *TokenRepositoryImpl) GetToken(ctx context.Context, memberId uuid.UUID) (*oauth2.Token, error) {
	var token oauth2.Token
	var expiry int64
	err := r.db.QueryRow(ctx,
		`SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE member_id = $1`, memberId).
		Scan(&token.AccessToken, &token.RefreshToken, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		log.Tracef("Google login of member %s was never completed", memberId)
		return nil, nil
	}
	token.Expiry = time.Unix(expiry, 0)
	return &token, nil
}

func (r *TokenRepositoryImpl) DeleteToken(ctx context.Context, memberId uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM google_calendar_auth WHERE member_id = $1`, memberId); err != nil {
		return fmt.Errorf("failed to delete Google auth for member %s: %w", memberId, err)
	}
	return nil
}
