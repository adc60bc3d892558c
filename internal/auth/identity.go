package auth

// Identity is the authenticated caller attached to a request after the
// bearer token has been verified and the subject re-checked against the
// user store.  It intentionally carries no password material.
type Identity struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
