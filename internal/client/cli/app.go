// Package cli implements the interactive PasteKeeper client: a REPL over
// the paste store API with the unlock session cache in the middle.
package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pastekeeper/internal/client/cache"
	"github.com/dmitrijs2005/pastekeeper/internal/client/client"
	"github.com/dmitrijs2005/pastekeeper/internal/client/config"
)

type App struct {
	config   *config.Config
	api      client.Client
	cache    *cache.UnlockCache
	reader   *bufio.Reader
	userName string

	// protected remembers, from the last listing, which paste IDs the
	// store reported as passphrase-protected. IDs not present here are
	// assumed public; the cache falls back to the unlock path if the
	// store denies the fetch anyway.
	protected map[string]bool
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewPasteKeeperClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:    c,
		api:       apiClient,
		reader:    bufio.NewReader(os.Stdin),
		protected: make(map[string]bool),
	}

	a.cache = cache.NewUnlockCache(apiClient, cache.PromptFunc(a.askPassphrase))

	return a, nil
}

// askPassphrase is the prompt collaborator handed to the unlock cache.
// An empty passphrase is treated as the user declining.
func (a *App) askPassphrase(label string) (string, bool) {
	pw, err := getPassphraseFn(fmt.Sprintf("Passphrase for paste %s (empty to cancel): ", label), os.Stdout)
	if err != nil || len(pw) == 0 {
		return "", false
	}
	return string(pw), true
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) Run() {
	defer a.api.Close()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(a, func() string {
		if a.isLoggedIn() {
			return a.userName
		}
		return "anonymous"
	}, scanner)
}
