package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
)

// Show materializes a paste's files through the unlock cache and prints
// them. Repeated shows of the same paste are served from the cache without
// touching the network or re-prompting.
func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter paste id", os.Stdout)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	files, err := a.cache.GetFiles(ctx, id, a.protected[id])
	if err != nil {
		if errors.Is(err, common.ErrAccessDenied) {
			// Per AEAD semantics we cannot actually tell a wrong
			// passphrase from corrupted data; the server saw a verifier
			// mismatch, which in practice means a typo.
			fmt.Println("Incorrect passphrase")
			return err
		}
		log.Printf("error: %v", err)
		return err
	}

	if len(files) == 0 {
		return nil
	}

	for _, f := range files {
		printFileView(f)
	}
	return nil
}
