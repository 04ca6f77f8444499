package docs

import (
	"context"
	"errors"
	"time"

	"paperdesk.org/internal/audit"
)

// ErrStoreNotFound is the storage-layer absence signal. The service maps it
// into the caller-facing taxonomy; stores never return ErrNotFound directly.
var ErrStoreNotFound = errors.New("docs: store row not found")

// Store is the uniform persistence interface. Every mutator accepts the
// prepared audit entry and must persist it in the same atomic unit as the
// mutation: a failed write leaves no entry, a failed entry aborts the write.
// AppendAudit alone runs outside that guarantee and exists solely for the
// out-of-band UnauthorizedAttempt records.
type Store interface {
	GetOrganization(ctx context.Context, id string) (Organization, error)
	GetDepartment(ctx context.Context, id string) (Department, error)
	GetActor(ctx context.Context, userID string) (Actor, error)
	GetDocument(ctx context.Context, id string) (Document, error)
	GetSections(ctx context.Context, documentID string) ([]Section, error)
	GetSection(ctx context.Context, documentID, sectionID string) (Section, error)
	GetComments(ctx context.Context, documentID string) ([]Comment, error)
	GetComment(ctx context.Context, commentID string) (Comment, error)
	ListDocuments(ctx context.Context, organizationID string, filter ListFilter) ([]Document, error)

	CreateDocument(ctx context.Context, doc Document, entry audit.Entry) error
	UpdateDocument(ctx context.Context, doc Document, entry audit.Entry) error
	SetArchived(ctx context.Context, documentID string, archivedAt *time.Time, updatedAt time.Time, entry audit.Entry) (Document, error)
	// DeleteDocument counts the children it is about to remove into the
	// entry's "sections"/"comments" details, writes the snapshot entry, then
	// removes children and the row, all in one transaction.
	DeleteDocument(ctx context.Context, documentID string, entry audit.Entry) error
	UpdateSection(ctx context.Context, section Section, entry audit.Entry) error
	AddComment(ctx context.Context, comment Comment, entry audit.Entry) error
	SoftDeleteComment(ctx context.Context, commentID, marker string, entry audit.Entry) (Comment, error)

	AppendAudit(ctx context.Context, entry audit.Entry) error
	ListAudit(ctx context.Context, documentID string, limit int) ([]audit.Entry, error)
}
