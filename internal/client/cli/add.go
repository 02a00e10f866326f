package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
	"github.com/dmitrijs2005/pastekeeper/internal/cryptox"
)

// minPassphraseLen is presentation-layer policy; the codec itself does not
// enforce a passphrase length floor.
const minPassphraseLen = 6

// Add collects a new paste interactively and creates it on the server.
// For a protected paste every file body is sealed client-side before it
// leaves the process; the server receives the passphrase once, to store a
// verifier for later unlock checks, never the derived content key.
func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter paste title", os.Stdout)
	if err != nil {
		return err
	}

	var files []models.PasteFile
	for {
		name, err := getSimpleText(a.reader, "Enter file name (empty to finish)", os.Stdout)
		if err != nil {
			return err
		}
		if name == "" {
			break
		}
		language, err := getSimpleText(a.reader, "Enter language (optional)", os.Stdout)
		if err != nil {
			return err
		}
		body, err := GetMultiline(a.reader, "Enter file body:", os.Stdout)
		if err != nil {
			return err
		}
		files = append(files, models.PasteFile{
			Name:     name,
			Language: language,
			IsMain:   len(files) == 0,
			Body:     body,
		})
	}

	if len(files) == 0 {
		fmt.Println("Nothing to create")
		return nil
	}

	answer, err := getSimpleText(a.reader, "Protect with a passphrase? (y/N)", os.Stdout)
	if err != nil {
		return err
	}

	passphrase := ""
	if answer == "y" || answer == "Y" {
		passphrase, err = a.collectPassphrase()
		if err != nil {
			log.Printf("error: %v", err)
			return err
		}
		if passphrase == "" {
			fmt.Println("Cancelled")
			return nil
		}

		for i := range files {
			blob, err := cryptox.Seal(files[i].Body, passphrase)
			if err != nil {
				log.Printf("seal error: %v", err)
				return err
			}
			files[i].Body = blob.Ciphertext
			files[i].Salt = blob.Salt
			files[i].Nonce = blob.Nonce
		}
	}

	paste := &models.Paste{Title: title, Protected: passphrase != "", Files: files}

	id, err := a.api.Create(ctx, paste, passphrase)
	if err != nil {
		log.Printf("error creating paste: %v", err)
		return err
	}

	a.protected[id] = paste.Protected
	fmt.Printf("Created paste %s\n", id)
	return nil
}

// collectPassphrase reads and confirms a new passphrase, enforcing the
// minimum length. Returns "" if the user cancels.
func (a *App) collectPassphrase() (string, error) {
	for {
		pw, err := getPassphraseFn("Enter passphrase (empty to cancel): ", os.Stdout)
		if err != nil {
			return "", err
		}
		if len(pw) == 0 {
			return "", nil
		}
		if len(pw) < minPassphraseLen {
			fmt.Printf("Passphrase must be at least %d characters\n", minPassphraseLen)
			continue
		}
		confirm, err := getPassphraseFn("Repeat passphrase: ", os.Stdout)
		if err != nil {
			return "", err
		}
		if string(pw) != string(confirm) {
			fmt.Println("Passphrases do not match")
			continue
		}
		return string(pw), nil
	}
}
