// Package models defines the paste payload types exchanged with the store.
package models

import "github.com/dmitrijs2005/pastekeeper/internal/cryptox"

// PasteFile is one file of a paste as delivered by the store. A file whose
// Salt and Nonce are non-empty carries a sealed body; otherwise Body is
// plaintext as stored.
type PasteFile struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	IsMain   bool   `json:"is_main"`
	Body     string `json:"body"`
	Salt     string `json:"salt,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

// IsSealed reports whether the file body is encrypted.
func (f *PasteFile) IsSealed() bool {
	return f.Salt != "" && f.Nonce != ""
}

// Blob returns the file's body and its cipher parameters as a SealedBlob.
// Only meaningful when IsSealed is true.
func (f *PasteFile) Blob() *cryptox.SealedBlob {
	return &cryptox.SealedBlob{Ciphertext: f.Body, Salt: f.Salt, Nonce: f.Nonce}
}

// Paste is the full payload of one paste. File order is store-defined and
// preserved everywhere: a file's position is part of its address.
type Paste struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Protected bool        `json:"protected"`
	CreatedAt string      `json:"created_at,omitempty"`
	Files     []PasteFile `json:"files"`
}

// PasteOverview is one row of the owner's paste listing.
type PasteOverview struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Protected bool   `json:"protected"`
	CreatedAt string `json:"created_at"`
}

// FileView is a materialized file as handed to the presentation layer:
// plaintext body if the file was plaintext or unsealed successfully,
// or a sentinel body with Undecryptable set when unsealing failed.
type FileView struct {
	Name          string
	Language      string
	IsMain        bool
	Body          string
	Undecryptable bool
}
