package cli

import (
	"context"
	"fmt"
	"log"
)

// List prints the logged-in user's pastes and remembers which of them are
// protected so Show can route through the unlock path directly.
func (a *App) List(ctx context.Context) error {
	pastes, err := a.api.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	for _, p := range pastes {
		a.protected[p.ID] = p.Protected
		marker := " "
		if p.Protected {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  (%s)\n", marker, p.ID, p.Title, p.CreatedAt)
	}
	if len(pastes) == 0 {
		fmt.Println("No pastes yet")
	}
	return nil
}
