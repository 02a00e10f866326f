// Package client implements the remote paste store client used by the CLI.
package client

import (
	"context"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
)

type Client interface {
	Close() error
	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) error
	List(ctx context.Context) ([]models.PasteOverview, error)
	Fetch(ctx context.Context, pasteID string) (*models.Paste, error)
	Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error)
	Create(ctx context.Context, paste *models.Paste, passphrase string) (string, error)
	Update(ctx context.Context, paste *models.Paste) error
	Delete(ctx context.Context, pasteID string) error
	GetArchivePutURL(ctx context.Context, pasteID string) (string, error)
	GetArchiveGetURL(ctx context.Context, pasteID string) (string, error)
}
