package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
	"github.com/dmitrijs2005/pastekeeper/internal/netx"
)

// archiveSnapshot is the JSON document stored in object storage by Backup.
// Bodies are the materialized plaintext views, so restoring a snapshot does
// not require the original passphrase.
type archiveSnapshot struct {
	PasteID string            `json:"paste_id"`
	Files   []models.FileView `json:"files"`
}

// Backup materializes a paste through the unlock cache and uploads the
// snapshot to a presigned object-storage URL issued by the server.
func (a *App) Backup(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter paste id to back up", os.Stdout)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	files, err := a.cache.GetFiles(ctx, id, a.protected[id])
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if len(files) == 0 {
		return nil
	}

	data, err := json.Marshal(archiveSnapshot{PasteID: id, Files: files})
	if err != nil {
		return err
	}

	url, err := a.api.GetArchivePutURL(ctx, id)
	if err != nil {
		log.Printf("error requesting upload url: %v", err)
		return err
	}

	if err := netx.UploadToPresignedURL(url, data); err != nil {
		log.Printf("upload error: %v", err)
		return err
	}

	fmt.Println("Backup uploaded")
	return nil
}

// Restore downloads a previously uploaded snapshot and prints its contents.
func (a *App) Restore(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter paste id to restore", os.Stdout)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	url, err := a.api.GetArchiveGetURL(ctx, id)
	if err != nil {
		log.Printf("error requesting download url: %v", err)
		return err
	}

	data, err := netx.DownloadFromPresignedURL(url)
	if err != nil {
		log.Printf("download error: %v", err)
		return err
	}

	var snap archiveSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("snapshot decode error: %v", err)
		return err
	}

	for _, f := range snap.Files {
		printFileView(f)
	}
	return nil
}
