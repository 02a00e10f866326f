// Package models defines server-side data models persisted in the database.
package models

import "time"

// Paste is the server-side record of one paste. For a protected paste,
// PassphraseSalt and PassphraseVerifier hold the PBKDF2 verifier material;
// the passphrase itself is never stored.
type Paste struct {
	ID                 string
	UserID             string
	Title              string
	Protected          bool
	PassphraseSalt     []byte
	PassphraseVerifier []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Files              []PasteFile
}

// PasteFile is one file of a paste. Position fixes the order the store
// returns files in. Salt and Nonce are empty for plaintext bodies and
// carry the client-side sealing parameters otherwise.
type PasteFile struct {
	ID       string
	PasteID  string
	Position int
	Name     string
	Language string
	IsMain   bool
	Body     string
	Salt     string
	Nonce    string
}
