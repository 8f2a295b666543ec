package models

// NewUser is the payload of a createUser call.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the remote API's view of a created account.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response body.
type LoginResponse struct {
	Token string `json:"token"`
}
