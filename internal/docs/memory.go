package docs

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"paperdesk.org/internal/audit"
)

// InMemory implements Store with in-process concurrency safety. It backs
// tests, the smoke binary and dev mode; production uses the Postgres store.
type InMemory struct {
	mu        sync.RWMutex
	orgs      map[string]Organization
	depts     map[string]Department
	actors    map[string]Actor
	documents map[string]Document
	sections  map[string][]Section // documentID -> sections
	comments  map[string][]Comment // documentID -> comments
	entries   []audit.Entry

	// failAudit simulates ledger write failure inside the transactional
	// mutators. Test hook only.
	failAudit bool
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		orgs:      make(map[string]Organization),
		depts:     make(map[string]Department),
		actors:    make(map[string]Actor),
		documents: make(map[string]Document),
		sections:  make(map[string][]Section),
		comments:  make(map[string][]Comment),
	}
}

var _ Store = (*InMemory)(nil)

// Seed helpers -------------------------------------------------------------

// SeedOrganization registers a tenant.
func (s *InMemory) SeedOrganization(org Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = org
}

// SeedDepartment registers a department.
func (s *InMemory) SeedDepartment(dept Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depts[dept.ID] = dept
}

// SeedActor registers a user with department roles.
func (s *InMemory) SeedActor(actor Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[actor.ID] = actor
}

// SeedDocument inserts a document without audit coupling. Test setup only;
// runtime creation goes through CreateDocument.
func (s *InMemory) SeedDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// SeedSection inserts a section without audit coupling.
func (s *InMemory) SeedSection(section Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section.DocumentID] = append(s.sections[section.DocumentID], section)
}

// SeedComment inserts a comment without audit coupling.
func (s *InMemory) SeedComment(comment Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.DocumentID] = append(s.comments[comment.DocumentID], comment)
}

// FailNextAudit makes transactional mutators reject the audit append,
// proving the mutation rolls back with it.
func (s *InMemory) FailNextAudit(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAudit = fail
}

// Reads --------------------------------------------------------------------

func (s *InMemory) GetOrganization(ctx context.Context, id string) (Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return Organization{}, ErrStoreNotFound
	}
	return org, nil
}

func (s *InMemory) GetDepartment(ctx context.Context, id string) (Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dept, ok := s.depts[id]
	if !ok {
		return Department{}, ErrStoreNotFound
	}
	return dept, nil
}

func (s *InMemory) GetActor(ctx context.Context, userID string) (Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[userID]
	if !ok {
		return Actor{}, ErrStoreNotFound
	}
	// copy the role map so callers cannot mutate shared state
	roles := make(map[string]Role, len(actor.DepartmentRoles))
	for k, v := range actor.DepartmentRoles {
		roles[k] = v
	}
	actor.DepartmentRoles = roles
	return actor, nil
}

func (s *InMemory) GetDocument(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return Document{}, ErrStoreNotFound
	}
	return doc, nil
}

func (s *InMemory) GetSections(ctx context.Context, documentID string) ([]Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Section, len(s.sections[documentID]))
	copy(out, s.sections[documentID])
	return out, nil
}

func (s *InMemory) GetSection(ctx context.Context, documentID, sectionID string) (Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sec := range s.sections[documentID] {
		if sec.ID == sectionID {
			return sec, nil
		}
	}
	return Section{}, ErrStoreNotFound
}

func (s *InMemory) GetComments(ctx context.Context, documentID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Comment, len(s.comments[documentID]))
	copy(out, s.comments[documentID])
	return out, nil
}

func (s *InMemory) GetComment(ctx context.Context, commentID string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.comments {
		for _, c := range list {
			if c.ID == commentID {
				return c, nil
			}
		}
	}
	return Comment{}, ErrStoreNotFound
}

func (s *InMemory) ListDocuments(ctx context.Context, organizationID string, filter ListFilter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, doc := range s.documents {
		if doc.OrganizationID != organizationID {
			continue
		}
		if filter.DepartmentID != "" && doc.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Status != "" && string(doc.Status) != filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(doc, filter.Search) {
			continue
		}
		if doc.Archived() && !filter.IncludeArchived {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesSearch(doc Document, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(doc.Title), term) ||
		strings.Contains(strings.ToLower(doc.Description), term)
}

// Transactional mutators ----------------------------------------------------

// appendEntryLocked is the shared audit step for every mutator. Callers hold
// the write lock; a failure here must leave their staged changes unapplied.
func (s *InMemory) appendEntryLocked(entry audit.Entry) error {
	if s.failAudit {
		return audit.ErrInvalidEntry
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemory) CreateDocument(ctx context.Context, doc Document, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendEntryLocked(entry); err != nil {
		return err
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *InMemory) UpdateDocument(ctx context.Context, doc Document, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return ErrStoreNotFound
	}
	if err := s.appendEntryLocked(entry); err != nil {
		return err
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *InMemory) SetArchived(ctx context.Context, documentID string, archivedAt *time.Time, updatedAt time.Time, entry audit.Entry) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return Document{}, ErrStoreNotFound
	}
	if err := s.appendEntryLocked(entry); err != nil {
		return Document{}, err
	}
	doc.ArchivedAt = archivedAt
	doc.UpdatedAt = updatedAt
	s.documents[documentID] = doc
	return doc, nil
}

func (s *InMemory) DeleteDocument(ctx context.Context, documentID string, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return ErrStoreNotFound
	}
	// snapshot entry first, carrying the counts this delete removes,
	// then children, then the row
	if entry.Details == nil {
		entry.Details = map[string]string{}
	}
	entry.Details["sections"] = strconv.Itoa(len(s.sections[documentID]))
	entry.Details["comments"] = strconv.Itoa(len(s.comments[documentID]))
	if err := s.appendEntryLocked(entry); err != nil {
		return err
	}
	delete(s.sections, documentID)
	delete(s.comments, documentID)
	delete(s.documents, documentID)
	return nil
}

func (s *InMemory) UpdateSection(ctx context.Context, section Section, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sections[section.DocumentID]
	for i, sec := range list {
		if sec.ID == section.ID {
			if err := s.appendEntryLocked(entry); err != nil {
				return err
			}
			list[i] = section
			return nil
		}
	}
	return ErrStoreNotFound
}

func (s *InMemory) AddComment(ctx context.Context, comment Comment, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[comment.DocumentID]; !ok {
		return ErrStoreNotFound
	}
	if err := s.appendEntryLocked(entry); err != nil {
		return err
	}
	s.comments[comment.DocumentID] = append(s.comments[comment.DocumentID], comment)
	return nil
}

func (s *InMemory) SoftDeleteComment(ctx context.Context, commentID, marker string, entry audit.Entry) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, list := range s.comments {
		for i, c := range list {
			if c.ID != commentID {
				continue
			}
			if err := s.appendEntryLocked(entry); err != nil {
				return Comment{}, err
			}
			c.Content = marker
			c.Deleted = true
			s.comments[docID][i] = c
			return c, nil
		}
	}
	return Comment{}, ErrStoreNotFound
}

// Audit --------------------------------------------------------------------

func (s *InMemory) AppendAudit(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntryLocked(entry)
}

func (s *InMemory) ListAudit(ctx context.Context, documentID string, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for _, e := range s.entries {
		if documentID != "" && e.DocumentID != documentID {
			continue
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
