package domain

import (
	"errors"
	"time"
)

// ErrInvalidRole reports a role violating its construction invariants.
var ErrInvalidRole = errors.New("invalid role")

// Role names and privilege levels referenced across the service.
const (
	RoleNameUser    = "User"
	RoleNameManager = "Manager"
	RoleNameAdmin   = "Admin"

	managerLevel = 5
	adminLevel   = 10
)

// Role is a named privilege bundle. Higher level means more privilege.
// Equality is by id.
type Role struct {
	ID          string
	Name        string
	Description string
	Level       int
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewRole(id, name, description string, level int) (Role, error) {
	if id == "" || name == "" || level < 0 {
		return Role{}, ErrInvalidRole
	}
	return Role{
		ID:          id,
		Name:        name,
		Description: description,
		Level:       level,
	}, nil
}

func (r Role) Equals(other Role) bool { return r.ID == other.ID }

func (r *Role) AddPermission(p Permission) {
	if !r.HasPermission(p) {
		r.Permissions = append(r.Permissions, p)
	}
}

func (r *Role) RemovePermission(p Permission) {
	kept := r.Permissions[:0]
	for _, existing := range r.Permissions {
		if !existing.Equals(p) {
			kept = append(kept, existing)
		}
	}
	r.Permissions = kept
}

func (r Role) HasPermission(p Permission) bool {
	for _, existing := range r.Permissions {
		if existing.Equals(p) {
			return true
		}
	}
	return false
}

func (r Role) CanPerform(resource, action string) bool {
	for _, p := range r.Permissions {
		if p.CanPerform(resource, action) {
			return true
		}
	}
	return false
}

func (r Role) IsHigherLevelThan(other Role) bool { return r.Level > other.Level }
func (r Role) IsLowerLevelThan(other Role) bool  { return r.Level < other.Level }
