package domain

import "time"

// DeviceInfo is optional client metadata captured when a session is created.
type DeviceInfo struct {
	UserAgent string
	IPAddress string
	DeviceID  string
}

// Session ties an issued refresh token to a user and device. Tokens are
// stored as SHA-256 fingerprints only; the raw JWTs never touch the store.
// At most one active session exists per refresh token fingerprint.
type Session struct {
	ID               string
	UserID           UserID
	RefreshTokenHash string // fingerprint, unique
	AccessTokenHash  string // fingerprint, kept for diagnostics
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
	DeviceInfo       DeviceInfo
	IsActive         bool
	LastUsedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
