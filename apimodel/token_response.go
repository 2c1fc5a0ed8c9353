package apimodel

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Usage: Authorization: Bearer <accessToken>
	// Lifespan: minutes; expiry is discovered by the client through a 401.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. It is a hint only;
	// clients never act on it and rely on the 401 contract instead.
	ExpiresIn int `json:"expiresIn,omitempty"`
}
