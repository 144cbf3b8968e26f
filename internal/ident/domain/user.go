package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyFirstName = errors.New("first name cannot be empty")
	ErrEmptyLastName  = errors.New("last name cannot be empty")
)

// Profile is the mutable per-user profile data.
type Profile struct {
	FirstName          string
	LastName           string
	Avatar             string
	PhoneNumber        string
	DateOfBirth        *time.Time
	IsEmailVerified    bool
	IsTwoFactorEnabled bool
	LastLoginAt        *time.Time
}

// User is the account aggregate. Mutating methods bump UpdatedAt; the store
// persists whatever state the aggregate carries.
type User struct {
	ID           UserID
	Email        Email
	PasswordHash string // argon2id encoded, never exposed in projections
	Profile      Profile
	Roles        []Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a freshly registered user: active, email unverified.
func NewUser(id UserID, email Email, profile Profile) (User, error) {
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	if profile.FirstName == "" {
		return User{}, ErrEmptyFirstName
	}
	if profile.LastName == "" {
		return User{}, ErrEmptyLastName
	}

	now := time.Now().UTC()
	return User{
		ID:        id,
		Email:     email,
		Profile:   profile,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) touch() { u.UpdatedAt = time.Now().UTC() }

func (u *User) AssignRole(role Role) {
	if u.HasRole(role) {
		return
	}
	u.Roles = append(u.Roles, role)
	u.touch()
}

func (u *User) RemoveRole(role Role) {
	kept := u.Roles[:0]
	for _, r := range u.Roles {
		if !r.Equals(role) {
			kept = append(kept, r)
		}
	}
	u.Roles = kept
	u.touch()
}

func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r.Equals(role) {
			return true
		}
	}
	return false
}

func (u User) HasRoleNamed(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames projects the assigned role names, in assignment order.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u User) HasPermission(p Permission) bool {
	for _, r := range u.Roles {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}

func (u User) CanPerform(resource, action string) bool {
	for _, r := range u.Roles {
		if r.CanPerform(resource, action) {
			return true
		}
	}
	return false
}

// UpdateProfile replaces the editable profile fields, keeping the
// account-state flags the profile also carries.
func (u *User) UpdateProfile(firstName, lastName, avatar, phoneNumber string, dateOfBirth *time.Time) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return ErrEmptyFirstName
	}
	if lastName == "" {
		return ErrEmptyLastName
	}

	u.Profile.FirstName = firstName
	u.Profile.LastName = lastName
	u.Profile.Avatar = avatar
	u.Profile.PhoneNumber = phoneNumber
	u.Profile.DateOfBirth = dateOfBirth
	u.touch()
	return nil
}

// VerifyEmail marks the address verified.
func (u *User) VerifyEmail() {
	u.Profile.IsEmailVerified = true
	u.touch()
}

func (u *User) EnableTwoFactor() {
	u.Profile.IsTwoFactorEnabled = true
	u.touch()
}

func (u *User) DisableTwoFactor() {
	u.Profile.IsTwoFactorEnabled = false
	u.touch()
}

// RecordLogin stamps the last successful login.
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.Profile.LastLoginAt = &now
	u.touch()
}

func (u *User) Activate() {
	u.IsActive = true
	u.touch()
}

func (u *User) Deactivate() {
	u.IsActive = false
	u.touch()
}

func (u User) FullName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}

func (u User) HighestRoleLevel() int {
	highest := 0
	for _, r := range u.Roles {
		if r.Level > highest {
			highest = r.Level
		}
	}
	return highest
}

func (u User) IsAdmin() bool {
	return u.HasRoleNamed(RoleNameAdmin) || u.HighestRoleLevel() >= adminLevel
}

func (u User) IsManager() bool {
	return u.HasRoleNamed(RoleNameManager) || u.HighestRoleLevel() >= managerLevel
}
