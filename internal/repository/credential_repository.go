package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
)

type CredentialRepository interface {
	// GetPrimary returns the most recently saved credential, or nil.
	GetPrimary(ctx context.Context) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) (int64, error)
	RemoveAll(ctx context.Context) error
}

type credentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db, now: time.Now}
}

func (r *credentialRepository) GetPrimary(ctx context.Context) (*models.Credential, error) {
	query := `
		SELECT id, external_account_id, handle, display_name, access_token, access_token_secret, created_at, updated_at
		FROM credentials
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	var c models.Credential
	err := r.db.QueryRowContext(ctx, query).Scan(&c.ID, &c.ExternalAccountID, &c.Handle, &c.DisplayName,
		&c.AccessToken, &c.AccessTokenSecret, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

// Save replaces whatever credential was stored before.
func (r *credentialRepository) Save(ctx context.Context, c *models.Credential) (int64, error) {
	query := `
		INSERT INTO credentials (external_account_id, handle, display_name, access_token, access_token_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
			return err
		}
		now := dbTime(r.now())
		return tx.QueryRowContext(ctx, query, c.ExternalAccountID, c.Handle, c.DisplayName,
			c.AccessToken, c.AccessTokenSecret, now, now).Scan(&id)
	})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *credentialRepository) RemoveAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
