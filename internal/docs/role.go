package docs

import (
	"fmt"
	"strings"
)

// Role is a per-department capability grade. The ordering Viewer < Member <
// Manager holds for plain capability comparisons only; Member's mutation
// rights additionally depend on authorship and the organization flag.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleMember  Role = "member"
	RoleManager Role = "manager"
)

// ParseRole normalizes and validates a stored role value.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleViewer:
		return RoleViewer, nil
	case RoleMember:
		return RoleMember, nil
	case RoleManager:
		return RoleManager, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleMember:
		return 2
	case RoleManager:
		return 3
	}
	return 0
}

// AtLeast reports whether r grants at least the capability grade of other.
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank()
}

type action int

const (
	actionView action = iota
	actionEdit
	actionDelete
	actionArchive
	actionComment
)

// roleAllows is the canonical capability table for actions on an existing
// document. isAuthor is the authorship relation between actor and document;
// membersMutateAll is the organization's override flag.
func roleAllows(role Role, act action, isAuthor, membersMutateAll bool) bool {
	switch role {
	case RoleViewer:
		return act == actionView
	case RoleMember:
		switch act {
		case actionView, actionComment:
			return true
		case actionEdit, actionDelete, actionArchive:
			return isAuthor || membersMutateAll
		}
		return false
	case RoleManager:
		return true
	}
	return false
}
