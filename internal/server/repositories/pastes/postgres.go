// Package pastes provides the PostgreSQL-backed repository for pastes and
// their files.
package pastes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/dbx"
	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
)

// PostgresRepository implements paste storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, paste *models.Paste) error {
	query := `
		INSERT INTO pastes (id, user_id, title, protected, passphrase_salt, passphrase_verifier)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		paste.ID, paste.UserID, paste.Title, paste.Protected,
		paste.PassphraseSalt, paste.PassphraseVerifier); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddFile(ctx context.Context, file *models.PasteFile) error {
	query := `
		INSERT INTO paste_files (paste_id, position, name, language, is_main, body, salt, nonce)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		file.PasteID, file.Position, file.Name, file.Language, file.IsMain,
		file.Body, file.Salt, file.Nonce); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the paste row for the given id.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Paste, error) {
	query := `
		SELECT id, user_id, title, protected, passphrase_salt, passphrase_verifier, created_at, updated_at
		FROM pastes
		WHERE id = $1
	`
	paste := &models.Paste{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&paste.ID, &paste.UserID, &paste.Title, &paste.Protected,
		&paste.PassphraseSalt, &paste.PassphraseVerifier,
		&paste.CreatedAt, &paste.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return paste, nil
}

// GetFiles returns the paste's files in position order. Position is part of
// a file's address, so the ordering here is load-bearing.
func (r *PostgresRepository) GetFiles(ctx context.Context, pasteID string) ([]models.PasteFile, error) {
	query := `
		SELECT id, paste_id, position, name, language, is_main, body, salt, nonce
		FROM paste_files
		WHERE paste_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, pasteID)
	if err != nil {
		return nil, fmt.Errorf("failed to select paste files: %w", err)
	}
	defer rows.Close()

	var result []models.PasteFile
	for rows.Next() {
		var item models.PasteFile
		if err := rows.Scan(
			&item.ID, &item.PasteID, &item.Position, &item.Name, &item.Language,
			&item.IsMain, &item.Body, &item.Salt, &item.Nonce,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Paste, error) {
	query := `
		SELECT id, title, protected, created_at
		FROM pastes
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select pastes: %w", err)
	}
	defer rows.Close()

	var result []*models.Paste
	for rows.Next() {
		var item models.Paste
		if err := rows.Scan(&item.ID, &item.Title, &item.Protected, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateTitle(ctx context.Context, id string, title string) error {
	query := `
		UPDATE pastes SET title = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, title); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteFiles(ctx context.Context, pasteID string) error {
	query := `
		DELETE FROM paste_files
		WHERE paste_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, pasteID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM pastes
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
