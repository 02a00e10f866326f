// Package cache implements the unlock session cache: per-paste state that
// lets the client materialize a paste's files without re-fetching it from
// the store or re-prompting for a passphrase it has already verified.
//
// A paste ID maps to at most one of: nothing, a plain entry (fetched
// payload, no passphrase), or an unlock session (payload plus the
// passphrase that unsealed it). Sessions are created only after the store
// accepted an unlock attempt; a denied or aborted attempt leaves the cache
// exactly as it was.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/cryptox"
)

// UndecryptableBody substitutes the body of a file whose blob could not be
// unsealed with the session passphrase. The rest of the paste still
// materializes: files of one paste may be sealed under different keys or
// not sealed at all.
const UndecryptableBody = "[unable to decrypt]"

// Store is the slice of the remote client the cache depends on.
type Store interface {
	Fetch(ctx context.Context, pasteID string) (*models.Paste, error)
	Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error)
}

// PassphrasePrompt asks the user for a passphrase. ok=false means the user
// declined; the in-flight operation is cancelled without error. Invoked at
// most once per unlock attempt.
type PassphrasePrompt interface {
	Ask(label string) (passphrase string, ok bool)
}

// PromptFunc adapts a function to the PassphrasePrompt interface.
type PromptFunc func(label string) (string, bool)

func (f PromptFunc) Ask(label string) (string, bool) { return f(label) }

type session struct {
	paste      *models.Paste
	passphrase string
}

// UnlockCache is the explicit store object owned by whichever component
// orchestrates paste materialization. It is safe for concurrent use: map
// access is guarded, and unlock attempts for the same paste ID are
// serialized so only one prompt/unlock round trip runs at a time per ID.
type UnlockCache struct {
	store  Store
	prompt PassphrasePrompt

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	plain    map[string]*models.Paste
	sessions map[string]*session
}

func NewUnlockCache(store Store, prompt PassphrasePrompt) *UnlockCache {
	return &UnlockCache{
		store:    store,
		prompt:   prompt,
		locks:    make(map[string]*sync.Mutex),
		plain:    make(map[string]*models.Paste),
		sessions: make(map[string]*session),
	}
}

func (c *UnlockCache) idLock(pasteID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[pasteID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[pasteID] = l
	}
	return l
}

// GetFiles materializes the files of a paste, in store order.
//
// A cached entry is served with no network call and no prompt. Otherwise a
// non-protected paste is fetched and cached as a plain entry, and a
// protected paste goes through prompt → unlock → session. Declining the
// prompt returns an empty result and nil error. A store denial surfaces as
// common.ErrAccessDenied with the cache untouched, so the caller can retry.
func (c *UnlockCache) GetFiles(ctx context.Context, pasteID string, isProtected bool) ([]models.FileView, error) {

	l := c.idLock(pasteID)
	l.Lock()
	defer l.Unlock()

	c.mu.Lock()
	s, hasSession := c.sessions[pasteID]
	p, hasPlain := c.plain[pasteID]
	c.mu.Unlock()

	if hasSession {
		return materialize(s.paste, s.passphrase), nil
	}
	if hasPlain {
		return materialize(p, ""), nil
	}

	if !isProtected {
		paste, err := c.store.Fetch(ctx, pasteID)
		if err != nil {
			if errors.Is(err, common.ErrAccessDenied) {
				// The paste is protected after all (or became protected
				// since it was listed). Fall through to the unlock path.
				return c.unlock(ctx, pasteID)
			}
			return nil, err
		}
		c.mu.Lock()
		c.plain[pasteID] = paste
		c.mu.Unlock()
		return materialize(paste, ""), nil
	}

	return c.unlock(ctx, pasteID)
}

// unlock runs one prompt → server unlock attempt. Caller holds the per-ID
// lock.
func (c *UnlockCache) unlock(ctx context.Context, pasteID string) ([]models.FileView, error) {
	passphrase, ok := c.prompt.Ask(pasteID)
	if !ok {
		// User abort: not a fault, nothing to report, nothing cached.
		return []models.FileView{}, nil
	}

	paste, err := c.store.Unlock(ctx, pasteID, passphrase)
	if err != nil {
		// Denied or failed: no session may exist for this ID afterwards.
		// A pre-existing entry is stale by definition once the store
		// denies access, so drop it rather than silently reusing it.
		if errors.Is(err, common.ErrAccessDenied) {
			c.drop(pasteID)
		}
		return nil, err
	}

	c.mu.Lock()
	delete(c.plain, pasteID)
	c.sessions[pasteID] = &session{paste: paste, passphrase: passphrase}
	c.mu.Unlock()

	return materialize(paste, passphrase), nil
}

func (c *UnlockCache) drop(pasteID string) {
	c.mu.Lock()
	delete(c.plain, pasteID)
	delete(c.sessions, pasteID)
	c.mu.Unlock()
}

// Invalidate drops any cached entry for the paste. Used when a store call
// outside the cache reports the entry stale (access revoked, paste
// updated). The next GetFiles re-fetches or re-prompts.
func (c *UnlockCache) Invalidate(pasteID string) {
	c.drop(pasteID)
}

// Refresh drops every cached entry and every unlock session. Nothing is
// revoked server-side; previously unlocked pastes simply prompt again.
func (c *UnlockCache) Refresh() {
	c.mu.Lock()
	c.plain = make(map[string]*models.Paste)
	c.sessions = make(map[string]*session)
	c.mu.Unlock()
}

// materialize converts a payload to file views in store order. Sealed
// bodies are unsealed with the session passphrase on every call; plaintext
// for a sealed file is never stored back into the cached payload.
func materialize(paste *models.Paste, passphrase string) []models.FileView {
	views := make([]models.FileView, 0, len(paste.Files))
	for i := range paste.Files {
		f := &paste.Files[i]
		view := models.FileView{Name: f.Name, Language: f.Language, IsMain: f.IsMain}
		if f.IsSealed() {
			body, err := cryptox.Unseal(f.Blob(), passphrase)
			if err != nil {
				view.Body = UndecryptableBody
				view.Undecryptable = true
			} else {
				view.Body = body
			}
		} else {
			view.Body = f.Body
		}
		views = append(views, view)
	}
	return views
}
