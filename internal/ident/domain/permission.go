package domain

import "errors"

// ErrInvalidPermission reports a permission with a blank field.
var ErrInvalidPermission = errors.New("permission fields cannot be empty")

// Permission grants a single action on a resource. Uniqueness of the
// resource:action key within a role is enforced at the persistence boundary.
type Permission struct {
	ID          string
	Name        string
	Description string
	Resource    string
	Action      string
}

func NewPermission(id, name, description, resource, action string) (Permission, error) {
	if id == "" || name == "" || description == "" || resource == "" || action == "" {
		return Permission{}, ErrInvalidPermission
	}
	return Permission{
		ID:          id,
		Name:        name,
		Description: description,
		Resource:    resource,
		Action:      action,
	}, nil
}

// Key is the canonical "resource:action" form.
func (p Permission) Key() string { return p.Resource + ":" + p.Action }

func (p Permission) Equals(other Permission) bool {
	return p.Resource == other.Resource && p.Action == other.Action
}

func (p Permission) CanPerform(resource, action string) bool {
	return p.Resource == resource && p.Action == action
}
