package docs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paperdesk.org/internal/audit"
	"paperdesk.org/internal/ids"
	"paperdesk.org/internal/obs"
	"paperdesk.org/internal/ratelimit"
)

// Service drives every operation through the same protocol: validate,
// rate-limit (expensive reads), fetch, authorize, then mutate and audit as
// one atomic unit. No other component writes to persisted state.
type Service struct {
	store   Store
	limiter ratelimit.Limiter
	publish func(audit.Entry)
	now     func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithSearchLimiter installs the limiter consulted for the search class.
func WithSearchLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithActivityPublisher registers a sink for committed audit entries
// (the SSE activity feed). Best-effort, called after commit.
func WithActivityPublisher(publish func(audit.Entry)) Option {
	return func(s *Service) {
		if publish != nil {
			s.publish = publish
		}
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the engine.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("docs: store is required")
	}
	s := &Service{
		store:   store,
		limiter: ratelimit.NewSlidingWindow(ratelimit.DefaultSearchConfig()),
		publish: func(audit.Entry) {},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Operations ----------------------------------------------------------------

// CreateDocument creates a draft document in the target department.
func (s *Service) CreateDocument(ctx context.Context, actor Actor, departmentID, title, description string) (Document, error) {
	const op = "create_document"
	doc, err := s.createDocument(ctx, actor, departmentID, title, description)
	obs.ObserveOperation(op, outcome(err))
	return doc, err
}

func (s *Service) createDocument(ctx context.Context, actor Actor, departmentID, title, description string) (Document, error) {
	if err := requireActor(actor); err != nil {
		return Document{}, err
	}
	if err := validateID("department_id", departmentID); err != nil {
		return Document{}, err
	}
	if err := validateTitle(title); err != nil {
		return Document{}, err
	}
	if err := validateDescription(description); err != nil {
		return Document{}, err
	}

	dept, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Document{}, fmt.Errorf("%w: department", ErrNotFound)
		}
		return Document{}, s.internal("create_document", err)
	}

	if actor.OrganizationID != dept.OrganizationID {
		// foreign department: do not reveal that it exists
		s.recordAttempt(ctx, actor.ID, "", "create_document")
		return Document{}, fmt.Errorf("%w: department", ErrNotFound)
	}
	if !CanCreate(actor, dept) {
		s.recordAttempt(ctx, actor.ID, "", "create_document")
		return Document{}, fmt.Errorf("%w: create denied", ErrForbidden)
	}

	now := s.now()
	doc := Document{
		ID:             ids.New(),
		OrganizationID: dept.OrganizationID,
		DepartmentID:   dept.ID,
		AuthorID:       actor.ID,
		Title:          title,
		Description:    description,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionCreated, map[string]string{
		"department_id": dept.ID,
		"title_len":     strconv.Itoa(len(title)),
		"status":        string(doc.Status),
	})
	if err != nil {
		return Document{}, s.internal("create_document: audit", err)
	}
	if err := s.store.CreateDocument(ctx, doc, entry); err != nil {
		return Document{}, s.internal("create_document", err)
	}
	s.committed(ctx, entry)
	return doc, nil
}

// UpdateDocument applies a patch to a live document.
func (s *Service) UpdateDocument(ctx context.Context, actor Actor, id string, patch DocumentPatch) (Document, error) {
	const op = "update_document"
	doc, err := s.updateDocument(ctx, actor, id, patch)
	obs.ObserveOperation(op, outcome(err))
	return doc, err
}

func (s *Service) updateDocument(ctx context.Context, actor Actor, id string, patch DocumentPatch) (Document, error) {
	if err := requireActor(actor); err != nil {
		return Document{}, err
	}
	if err := validateID("document_id", id); err != nil {
		return Document{}, err
	}
	if patch.Empty() {
		return Document{}, fmt.Errorf("%w: empty patch", ErrInvalidInput)
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return Document{}, err
		}
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return Document{}, err
		}
	}
	if patch.Status != nil {
		if _, ok := ParseStatus(string(*patch.Status)); !ok {
			return Document{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
		}
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "update_document")
		return Document{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if doc.Archived() {
		// archived documents are frozen; restore first
		return Document{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if !CanEdit(actor, doc, org) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "update_document")
		return Document{}, fmt.Errorf("%w: edit denied", ErrForbidden)
	}

	details := map[string]string{}
	if patch.Title != nil {
		doc.Title = *patch.Title
		details["title_len"] = strconv.Itoa(len(doc.Title))
	}
	if patch.Description != nil {
		doc.Description = *patch.Description
		details["description_len"] = strconv.Itoa(len(doc.Description))
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
		details["status"] = string(doc.Status)
	}
	doc.UpdatedAt = s.now()

	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionUpdated, details)
	if err != nil {
		return Document{}, s.internal("update_document: audit", err)
	}
	if err := s.store.UpdateDocument(ctx, doc, entry); err != nil {
		return Document{}, s.internal("update_document", err)
	}
	s.committed(ctx, entry)
	return doc, nil
}

// ArchiveDocument soft-deletes a document. Archiving an already archived
// document succeeds (last-write-wins) and records its own entry.
func (s *Service) ArchiveDocument(ctx context.Context, actor Actor, id string) (Document, error) {
	const op = "archive_document"
	now := s.now()
	doc, err := s.setArchived(ctx, actor, id, &now, audit.ActionArchived, op)
	obs.ObserveOperation(op, outcome(err))
	return doc, err
}

// UnarchiveDocument restores a soft-deleted document.
func (s *Service) UnarchiveDocument(ctx context.Context, actor Actor, id string) (Document, error) {
	const op = "unarchive_document"
	doc, err := s.setArchived(ctx, actor, id, nil, audit.ActionUnarchived, op)
	obs.ObserveOperation(op, outcome(err))
	return doc, err
}

func (s *Service) setArchived(ctx context.Context, actor Actor, id string, archivedAt *time.Time, action audit.Action, op string) (Document, error) {
	if err := requireActor(actor); err != nil {
		return Document{}, err
	}
	if err := validateID("document_id", id); err != nil {
		return Document{}, err
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, op)
		return Document{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if !CanArchive(actor, doc, org) {
		s.recordAttempt(ctx, actor.ID, doc.ID, op)
		return Document{}, fmt.Errorf("%w: archive denied", ErrForbidden)
	}

	entry, err := audit.NewEntry(actor.ID, doc.ID, action, nil)
	if err != nil {
		return Document{}, s.internal(op+": audit", err)
	}
	updated, err := s.store.SetArchived(ctx, doc.ID, archivedAt, s.now(), entry)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Document{}, fmt.Errorf("%w: document", ErrNotFound)
		}
		return Document{}, s.internal(op, err)
	}
	s.committed(ctx, entry)
	return updated, nil
}

// DeleteDocument permanently removes a document and its children. The audit
// snapshot is written before the delete statements, inside the same
// transaction, because the row cannot be re-read afterward.
func (s *Service) DeleteDocument(ctx context.Context, actor Actor, id string) (Document, error) {
	const op = "delete_document"
	doc, err := s.deleteDocument(ctx, actor, id)
	obs.ObserveOperation(op, outcome(err))
	return doc, err
}

func (s *Service) deleteDocument(ctx context.Context, actor Actor, id string) (Document, error) {
	if err := requireActor(actor); err != nil {
		return Document{}, err
	}
	if err := validateID("document_id", id); err != nil {
		return Document{}, err
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "delete_document")
		return Document{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if !CanDelete(actor, doc, org) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "delete_document")
		return Document{}, fmt.Errorf("%w: delete denied", ErrForbidden)
	}

	// child counts are filled in by the store inside the delete transaction
	// so the snapshot matches what the transaction actually removes
	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionDeleted, map[string]string{
		"title":         doc.Title,
		"status":        string(doc.Status),
		"department_id": doc.DepartmentID,
		"author_id":     doc.AuthorID,
	})
	if err != nil {
		return Document{}, s.internal("delete_document: audit", err)
	}
	if err := s.store.DeleteDocument(ctx, doc.ID, entry); err != nil {
		return Document{}, s.internal("delete_document", err)
	}
	s.committed(ctx, entry)
	return doc, nil
}

// GetDocument returns a document with its sections, comments and the
// server-computed permissions object.
func (s *Service) GetDocument(ctx context.Context, actor Actor, id string, includeArchived bool) (DocumentView, error) {
	const op = "get_document"
	view, err := s.getDocument(ctx, actor, id, includeArchived)
	obs.ObserveOperation(op, outcome(err))
	return view, err
}

func (s *Service) getDocument(ctx context.Context, actor Actor, id string, includeArchived bool) (DocumentView, error) {
	if err := requireActor(actor); err != nil {
		return DocumentView{}, err
	}
	if err := validateID("document_id", id); err != nil {
		return DocumentView{}, err
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, id)
	if err != nil {
		return DocumentView{}, err
	}
	if !CanView(actor, doc) {
		// read path: a denied viewer learns nothing, including existence
		s.recordAttempt(ctx, actor.ID, doc.ID, "get_document")
		return DocumentView{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if doc.Archived() && !(includeArchived && CanViewArchived(actor, doc)) {
		return DocumentView{}, fmt.Errorf("%w: document", ErrNotFound)
	}

	sections, err := s.store.GetSections(ctx, doc.ID)
	if err != nil {
		return DocumentView{}, s.internal("get_document: sections", err)
	}
	comments, err := s.store.GetComments(ctx, doc.ID)
	if err != nil {
		return DocumentView{}, s.internal("get_document: comments", err)
	}
	return DocumentView{
		Document:    doc,
		Sections:    sections,
		Comments:    comments,
		Permissions: PermissionsFor(actor, doc, org),
	}, nil
}

// ListDocuments returns the documents visible to the actor within its own
// organization. A non-empty search term consumes search-class quota.
func (s *Service) ListDocuments(ctx context.Context, actor Actor, filter ListFilter) ([]DocumentSummary, error) {
	const op = "list_documents"
	list, err := s.listDocuments(ctx, actor, filter)
	obs.ObserveOperation(op, outcome(err))
	return list, err
}

func (s *Service) listDocuments(ctx context.Context, actor Actor, filter ListFilter) ([]DocumentSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.DepartmentID != "" {
		if err := validateID("department_id", filter.DepartmentID); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" {
		if _, ok := ParseStatus(filter.Status); !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
		}
	}
	if len(filter.Search) > MaxSearchLen {
		return nil, fmt.Errorf("%w: search term too long", ErrInvalidInput)
	}

	// limiter sits between validation and fetch so abusive traffic never
	// reaches storage
	if filter.Search != "" {
		key := ratelimit.Key{ActorID: actor.ID, Class: "search"}
		if !s.limiter.Allow(key, s.now()) {
			obs.ObserveRateLimited("search")
			return nil, fmt.Errorf("%w: search", ErrRateLimited)
		}
	}

	org, err := s.store.GetOrganization(ctx, actor.OrganizationID)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, fmt.Errorf("%w: organization", ErrNotFound)
		}
		return nil, s.internal("list_documents: organization", err)
	}

	docs, err := s.store.ListDocuments(ctx, actor.OrganizationID, filter)
	if err != nil {
		return nil, s.internal("list_documents", err)
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		if !CanView(actor, doc) {
			continue
		}
		if doc.Archived() && !(filter.IncludeArchived && CanViewArchived(actor, doc)) {
			continue
		}
		out = append(out, DocumentSummary{
			Document:    doc,
			Permissions: PermissionsFor(actor, doc, org),
		})
	}
	return out, nil
}

// UpdateSection replaces a section's content payload.
func (s *Service) UpdateSection(ctx context.Context, actor Actor, documentID, sectionID string, content []byte) (Section, error) {
	const op = "update_section"
	section, err := s.updateSection(ctx, actor, documentID, sectionID, content)
	obs.ObserveOperation(op, outcome(err))
	return section, err
}

func (s *Service) updateSection(ctx context.Context, actor Actor, documentID, sectionID string, content []byte) (Section, error) {
	if err := requireActor(actor); err != nil {
		return Section{}, err
	}
	if err := validateID("document_id", documentID); err != nil {
		return Section{}, err
	}
	if err := validateID("section_id", sectionID); err != nil {
		return Section{}, err
	}
	if err := validateSectionContent(content); err != nil {
		return Section{}, err
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, documentID)
	if err != nil {
		return Section{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "update_section")
		return Section{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if doc.Archived() {
		return Section{}, fmt.Errorf("%w: document", ErrNotFound)
	}

	section, err := s.store.GetSection(ctx, doc.ID, sectionID)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Section{}, fmt.Errorf("%w: section", ErrNotFound)
		}
		return Section{}, s.internal("update_section", err)
	}

	if !CanEdit(actor, doc, org) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "update_section")
		return Section{}, fmt.Errorf("%w: edit denied", ErrForbidden)
	}

	section.Content = content
	section.UpdatedAt = s.now()

	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionSectionUpdated, map[string]string{
		"section_id":    section.ID,
		"content_bytes": strconv.Itoa(len(content)),
	})
	if err != nil {
		return Section{}, s.internal("update_section: audit", err)
	}
	if err := s.store.UpdateSection(ctx, section, entry); err != nil {
		return Section{}, s.internal("update_section", err)
	}
	s.committed(ctx, entry)
	return section, nil
}

// AddComment appends a comment to a live document.
func (s *Service) AddComment(ctx context.Context, actor Actor, documentID, content string) (Comment, error) {
	const op = "add_comment"
	comment, err := s.addComment(ctx, actor, documentID, content)
	obs.ObserveOperation(op, outcome(err))
	return comment, err
}

func (s *Service) addComment(ctx context.Context, actor Actor, documentID, content string) (Comment, error) {
	if err := requireActor(actor); err != nil {
		return Comment{}, err
	}
	if err := validateID("document_id", documentID); err != nil {
		return Comment{}, err
	}
	if err := validateComment(content); err != nil {
		return Comment{}, err
	}

	doc, _, err := s.fetchDocumentAndOrg(ctx, documentID)
	if err != nil {
		return Comment{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "add_comment")
		return Comment{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if doc.Archived() {
		return Comment{}, fmt.Errorf("%w: document", ErrNotFound)
	}
	if !CanComment(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "add_comment")
		return Comment{}, fmt.Errorf("%w: comment denied", ErrForbidden)
	}

	comment := Comment{
		ID:         ids.New(),
		DocumentID: doc.ID,
		AuthorID:   actor.ID,
		Content:    content,
		CreatedAt:  s.now(),
	}
	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionCommentAdded, map[string]string{
		"comment_id":  comment.ID,
		"content_len": strconv.Itoa(len(content)),
	})
	if err != nil {
		return Comment{}, s.internal("add_comment: audit", err)
	}
	if err := s.store.AddComment(ctx, comment, entry); err != nil {
		return Comment{}, s.internal("add_comment", err)
	}
	s.committed(ctx, entry)
	return comment, nil
}

// DeleteComment soft-deletes a comment: content is replaced by a fixed
// marker so thread structure survives. Allowed for the comment author and
// for actors who may delete the parent document.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, commentID string) (Comment, error) {
	const op = "delete_comment"
	comment, err := s.deleteComment(ctx, actor, commentID)
	obs.ObserveOperation(op, outcome(err))
	return comment, err
}

func (s *Service) deleteComment(ctx context.Context, actor Actor, commentID string) (Comment, error) {
	if err := requireActor(actor); err != nil {
		return Comment{}, err
	}
	if err := validateID("comment_id", commentID); err != nil {
		return Comment{}, err
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Comment{}, fmt.Errorf("%w: comment", ErrNotFound)
		}
		return Comment{}, s.internal("delete_comment", err)
	}

	doc, org, err := s.fetchDocumentAndOrg(ctx, comment.DocumentID)
	if err != nil {
		return Comment{}, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "delete_comment")
		return Comment{}, fmt.Errorf("%w: comment", ErrNotFound)
	}

	ownDeletable := comment.AuthorID == actor.ID && CanComment(actor, doc)
	if !ownDeletable && !CanDelete(actor, doc, org) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "delete_comment")
		return Comment{}, fmt.Errorf("%w: delete denied", ErrForbidden)
	}

	entry, err := audit.NewEntry(actor.ID, doc.ID, audit.ActionCommentDeleted, map[string]string{
		"comment_id": comment.ID,
	})
	if err != nil {
		return Comment{}, s.internal("delete_comment: audit", err)
	}
	deleted, err := s.store.SoftDeleteComment(ctx, comment.ID, DeletedCommentMarker, entry)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Comment{}, fmt.Errorf("%w: comment", ErrNotFound)
		}
		return Comment{}, s.internal("delete_comment", err)
	}
	s.committed(ctx, entry)
	return deleted, nil
}

// ActivityLog returns recent audit entries for a document the actor can see.
func (s *Service) ActivityLog(ctx context.Context, actor Actor, documentID string, limit int) ([]audit.Entry, error) {
	const op = "activity_log"
	entries, err := s.activityLog(ctx, actor, documentID, limit)
	obs.ObserveOperation(op, outcome(err))
	return entries, err
}

func (s *Service) activityLog(ctx context.Context, actor Actor, documentID string, limit int) ([]audit.Entry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateID("document_id", documentID); err != nil {
		return nil, err
	}

	doc, _, err := s.fetchDocumentAndOrg(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, doc) {
		s.recordAttempt(ctx, actor.ID, doc.ID, "activity_log")
		return nil, fmt.Errorf("%w: document", ErrNotFound)
	}
	if doc.Archived() && !CanViewArchived(actor, doc) {
		return nil, fmt.Errorf("%w: document", ErrNotFound)
	}

	entries, err := s.store.ListAudit(ctx, doc.ID, limit)
	if err != nil {
		return nil, s.internal("activity_log", err)
	}
	return entries, nil
}

// Protocol helpers ----------------------------------------------------------

// requireActor is checked literally first, before any storage access.
func requireActor(actor Actor) error {
	if strings.TrimSpace(actor.ID) == "" {
		return fmt.Errorf("%w: actor identity is required", ErrUnauthenticated)
	}
	return nil
}

// fetchDocumentAndOrg loads the target and its tenant. A document whose
// organization row is missing indicates corruption and surfaces as internal.
func (s *Service) fetchDocumentAndOrg(ctx context.Context, id string) (Document, Organization, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Document{}, Organization{}, fmt.Errorf("%w: document", ErrNotFound)
		}
		return Document{}, Organization{}, s.internal("fetch document", err)
	}
	org, err := s.store.GetOrganization(ctx, doc.OrganizationID)
	if err != nil {
		return Document{}, Organization{}, s.internal("fetch organization", err)
	}
	return doc, org, nil
}

// recordAttempt writes the UnauthorizedAttempt entry outside the main
// transaction. Best-effort: its failure must not mask the denial response.
func (s *Service) recordAttempt(ctx context.Context, actorID, documentID, operation string) {
	entry, err := audit.NewEntry(actorID, documentID, audit.ActionUnauthorizedAttempt, map[string]string{
		"operation": operation,
	})
	if err != nil {
		obs.LogEntry(map[string]any{"level": "error", "msg": "build unauthorized attempt entry", "err": err.Error()})
		return
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		obs.LogEntry(map[string]any{"level": "error", "msg": "record unauthorized attempt", "err": err.Error()})
		return
	}
	obs.ObserveAuditEntry(string(audit.ActionUnauthorizedAttempt))
	audit.LogEntry(ctx, entry)
}

// committed runs the post-commit hooks for a persisted entry.
func (s *Service) committed(ctx context.Context, entry audit.Entry) {
	obs.ObserveAuditEntry(string(entry.Action))
	audit.LogEntry(ctx, entry)
	s.publish(entry)
}

// internal logs the full cause server-side and returns the generic sentinel;
// storage and driver error text never reaches callers.
func (s *Service) internal(op string, err error) error {
	obs.LogEntry(map[string]any{
		"level": "error",
		"msg":   "engine internal error",
		"op":    op,
		"err":   err.Error(),
	})
	return fmt.Errorf("%w: %s", ErrInternal, op)
}

// outcome maps a protocol result to a bounded metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}
