package dto

import "time"

// CredentialsRequest payload for registration and login. Password is the
// field name older clients send; RawPassword wins when both are present.
type CredentialsRequest struct {
	Identifier  string `json:"identifier"`
	RawPassword string `json:"rawPassword"`
	Password    string `json:"password"`
}

// Secret returns the submitted raw password.
func (r CredentialsRequest) Secret() string {
	if r.RawPassword != "" {
		return r.RawPassword
	}
	return r.Password
}

// PrincipalResponse describes a principal without its password hash.
type PrincipalResponse struct {
	Identifier string `json:"identifier"`
	Role       string `json:"role"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}
