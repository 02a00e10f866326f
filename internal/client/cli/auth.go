package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/pastekeeper/internal/client/client"
	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/cryptox"
)

// getSimpleText and getPassphraseFn are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassphraseFn = getPassphrase

// Register prompts for a username and account password and creates a new
// account. The account verifier is the PBKDF2 key derived from the password
// and a fresh random salt; the password itself never leaves the process.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassphraseFn("Enter account password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	verifier := cryptox.DeriveKey(string(password), salt)
	defer common.WipeByteArray(verifier)

	if err := a.api.Register(ctx, userName, salt, verifier); err != nil {
		log.Printf("registration error: %v", err)
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login fetches the account salt, derives the verifier from the entered
// password, and authenticates. On success the user's own pastes become
// available for list/add/delete.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassphraseFn("Enter account password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt, err := a.api.GetSalt(ctx, userName)
	if err != nil {
		log.Printf("login error: %v", err)
		return err
	}

	verifier := cryptox.DeriveKey(string(password), salt)
	defer common.WipeByteArray(verifier)

	if err := a.api.Login(ctx, userName, verifier); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Println("Incorrect username or password")
		} else {
			log.Printf("login error: %v", err)
		}
		return err
	}

	a.userName = userName
	fmt.Println("Success!")
	return nil
}
