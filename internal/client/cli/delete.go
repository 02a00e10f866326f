package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

// Delete removes one of the user's pastes and drops any cached entry for it.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter paste id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	if err := a.api.Delete(ctx, id); err != nil {
		log.Printf("error deleting paste: %v", err)
		return err
	}

	a.cache.Invalidate(id)
	delete(a.protected, id)
	fmt.Println("Deleted")
	return nil
}

// Refresh drops the local paste cache, including unlock sessions. The next
// Show of a protected paste prompts for its passphrase again.
func (a *App) Refresh(ctx context.Context) error {
	a.cache.Refresh()
	fmt.Println("Cache cleared")
	return nil
}
