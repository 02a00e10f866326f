package pastes

import (
	"context"

	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the paste row. Files are added with AddFile; the
	// caller is expected to run both inside one transaction.
	Create(ctx context.Context, paste *models.Paste) error
	AddFile(ctx context.Context, file *models.PasteFile) error

	// GetByID returns the paste row including verifier material, without files.
	GetByID(ctx context.Context, id string) (*models.Paste, error)
	// GetFiles returns the paste's files ordered by position.
	GetFiles(ctx context.Context, pasteID string) ([]models.PasteFile, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Paste, error)

	UpdateTitle(ctx context.Context, id string, title string) error
	DeleteFiles(ctx context.Context, pasteID string) error
	Delete(ctx context.Context, id string) error
}
