package domain

// AuthState is the terminal state of the per-request authentication pass.
type AuthState string

const (
	AuthStateAnonymous     AuthState = "anonymous"
	AuthStateAuthenticated AuthState = "authenticated"
	AuthStateRejected      AuthState = "rejected"
)

// Identity is the authenticated caller published to downstream handlers.
// Role is the live role from the credential store, not the token snapshot.
type Identity struct {
	Identifier string
	Role       Role
}
