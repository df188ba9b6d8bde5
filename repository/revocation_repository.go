// file: repository/revocation_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-music-api/common"
	"go-music-api/logger"
	"go-music-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

// IRevocationRepository defines the contract for the token blacklist.
type IRevocationRepository interface {
	Find(ctx context.Context, token string) (*model.RevokedToken, error)
	Insert(ctx context.Context, token string, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RevocationRepository implements IRevocationRepository on postgres.
type RevocationRepository struct {
	DB *sql.DB
}

// NewRevocationRepository creates a new RevocationRepository.
func NewRevocationRepository(db *sql.DB) *RevocationRepository {
	return &RevocationRepository{DB: db}
}

// Find retrieves the blacklist entry for the exact token string.
// It returns ErrNotFound if the token was never revoked.
func (r *RevocationRepository) Find(ctx context.Context, token string) (*model.RevokedToken, error) {
	entry := &model.RevokedToken{}
	query := `SELECT token, expires_at, created_at FROM revoked_tokens WHERE token = $1`
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&entry.Token, &entry.ExpiresAt, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).WithField("token_fp", common.ShortFingerprint(token)).
			Error("Failed to execute get revoked token query")
		return nil, err
	}
	return entry, nil
}

// Insert adds a blacklist entry. Inserting a token that is already revoked is a no-op.
func (r *RevocationRepository) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	log := logger.Log.WithFields(logrus.Fields{
		"token_fp":   common.ShortFingerprint(token),
		"expires_at": expiresAt,
	})
	log.Info("Executing query to revoke a token")

	query := `INSERT INTO revoked_tokens (token, expires_at) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`
	if _, err := r.DB.ExecContext(ctx, query, token, expiresAt); err != nil {
		log.WithError(err).Error("Failed to execute revoke token query")
		return err
	}
	return nil
}

// PurgeExpired deletes entries whose token would have expired before the given time.
func (r *RevocationRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	log := logger.Log.WithField("before", before)

	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`
	result, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		log.WithError(err).Error("Failed to execute purge revoked tokens query")
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read purged row count")
		return 0, err
	}
	return deleted, nil
}
