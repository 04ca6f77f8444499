package docs

import (
	"encoding/json"
	"time"
)

// Organization is the tenant boundary. Every department and document belongs
// to exactly one organization; cross-organization reference is always a
// policy violation.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// AllowMembersMutateAll lets Members edit/delete/archive documents they
	// did not author, within departments they already have access to.
	AllowMembersMutateAll bool      `json:"allow_members_mutate_all"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Department is a sub-unit of an organization. Users hold zero or one role
// per department.
type Department struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor is the fully resolved identity every engine call receives by value.
// OrganizationID is immutable after provisioning; DepartmentRoles maps
// department id to the single role held there.
type Actor struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	DepartmentRoles map[string]Role `json:"department_roles"`
}

// RoleFor resolves the actor's role in a department.
func (a Actor) RoleFor(departmentID string) (Role, bool) {
	if departmentID == "" {
		return "", false
	}
	role, ok := a.DepartmentRoles[departmentID]
	return role, ok
}

// DocumentStatus is the editorial state of a document.
type DocumentStatus string

const (
	StatusDraft  DocumentStatus = "draft"
	StatusActive DocumentStatus = "active"
	StatusFinal  DocumentStatus = "final"
)

// ParseStatus validates a status value.
func ParseStatus(s string) (DocumentStatus, bool) {
	switch DocumentStatus(s) {
	case StatusDraft, StatusActive, StatusFinal:
		return DocumentStatus(s), true
	}
	return "", false
}

// Document is the protected resource. An empty DepartmentID means the
// document has no addressable department and no role can be resolved for it,
// making it permanently inaccessible to view/edit/delete.
type Document struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	DepartmentID   string         `json:"department_id,omitempty"`
	AuthorID       string         `json:"author_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Status         DocumentStatus `json:"status"`
	ArchivedAt     *time.Time     `json:"archived_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Archived reports whether the document is soft-deleted.
func (d Document) Archived() bool { return d.ArchivedAt != nil }

// Section is a structured child of a document. Content is a bounded JSON
// payload; mutation authorization follows the parent document.
type Section struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Content    json.RawMessage `json:"content"`
	Complete   bool            `json:"complete"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DeletedCommentMarker replaces comment content on soft delete so thread
// structure survives.
const DeletedCommentMarker = "[deleted]"

// Comment is a free-text child of a document. Deleted comments keep their
// row with the content replaced by DeletedCommentMarker.
type Comment struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
}

// Permissions is the server-computed affordance set returned with every
// read, so presentation layers never re-derive authorization rules.
type Permissions struct {
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanArchive bool `json:"can_archive"`
}

// DocumentView is the read model for a single document.
type DocumentView struct {
	Document    Document    `json:"document"`
	Sections    []Section   `json:"sections"`
	Comments    []Comment   `json:"comments"`
	Permissions Permissions `json:"permissions"`
}

// DocumentSummary pairs a listed document with its computed permissions.
type DocumentSummary struct {
	Document    Document    `json:"document"`
	Permissions Permissions `json:"permissions"`
}

// DocumentPatch carries the mutable document fields; nil means unchanged.
type DocumentPatch struct {
	Title       *string
	Description *string
	Status      *DocumentStatus
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// ListFilter narrows ListDocuments output. The organization scope is always
// implicit from the actor and is never caller-controlled.
type ListFilter struct {
	DepartmentID    string
	Status          string
	Search          string
	IncludeArchived bool
}
