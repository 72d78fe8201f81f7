package models

import "time"

// Credential is the connected account's access token pair. Only one is
// stored at a time; the process acts on behalf of that single identity.
type Credential struct {
	ID                int64     `db:"id" json:"id"`
	ExternalAccountID string    `db:"external_account_id" json:"external_account_id"`
	Handle            string    `db:"handle" json:"handle"`
	DisplayName       string    `db:"display_name" json:"display_name"`
	AccessToken       string    `db:"access_token" json:"-"`
	AccessTokenSecret string    `db:"access_token_secret" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsComplete reports whether both halves of the token pair are present.
func (c *Credential) IsComplete() bool {
	return c != nil && c.AccessToken != "" && c.AccessTokenSecret != ""
}
