package models

import "time"

// User is an account record. PasswordHash and Spotify never leave the process through JSON.
type User struct {
	ID           string       `json:"id"`
	Sequence     int          `json:"-"`
	Username     string       `json:"username"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Spotify      *SpotifyAuth `json:"-"`
}

// Public returns a copy with the password hash and provider auth stripped.
func (u User) Public() *User {
	u.PasswordHash = ""
	u.Spotify = nil
	return &u
}

// SpotifyAuth is the provider auth sub-record embedded in a [User].
//
// ExpiresAt holds the stored expiry verbatim so an unreadable value can be
// detected and treated as expired.
type SpotifyAuth struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCredentials reports whether any token is stored.
func (a *SpotifyAuth) HasCredentials() bool {
	return a != nil && (a.AccessToken != "" || a.RefreshToken != "")
}

// TokenPayload is the provider's response to a code exchange or a refresh.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}
