package identsdk

import "time"

// result is the response envelope every API endpoint uses.
type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenPair holds the credentials issued by login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// User is the profile projection returned alongside a successful login.
type User struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	Roles              []string `json:"roles"`
	IsEmailVerified    bool     `json:"isEmailVerified"`
	IsTwoFactorEnabled bool     `json:"isTwoFactorEnabled"`
}

// RegisterRequest carries the fields required to create an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RegisterResult reports the outcome of a registration.
type RegisterResult struct {
	UserID                    string `json:"userId"`
	EmailVerificationRequired bool   `json:"emailVerificationRequired"`
}

// HealthResponse is returned by the /livez and /readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks breaks a readiness report down per dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

type loginData struct {
	TokenPair
	User User `json:"user"`
}
