package models

import "time"

// RefreshToken is one issued refresh token. Tokens are single-use: the
// refresh endpoint deletes the presented row and inserts a replacement.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
