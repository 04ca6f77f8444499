package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"paperdesk.org/internal/audit"
	"paperdesk.org/internal/docs"
)

const pgErrForeignKeyViolation = "23503"

// Store is the Postgres document store. Every mutator inserts its audit
// entry inside the same transaction as the row change.
type Store struct {
	db *sql.DB
}

var _ docs.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool. Used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Reads --------------------------------------------------------------------

func (s *Store) GetOrganization(ctx context.Context, id string) (docs.Organization, error) {
	var org docs.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, allow_members_mutate_all, created_at, updated_at
		from organizations
		where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.AllowMembersMutateAll, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Organization{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetDepartment(ctx context.Context, id string) (docs.Department, error) {
	var dept docs.Department
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, name, created_at
		from departments
		where id = $1
	`, id).Scan(&dept.ID, &dept.OrganizationID, &dept.Name, &dept.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Department{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Department{}, err
	}
	return dept, nil
}

func (s *Store) GetActor(ctx context.Context, userID string) (docs.Actor, error) {
	var actor docs.Actor
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id from users where id = $1
	`, userID).Scan(&actor.ID, &actor.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Actor{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Actor{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select department_id, role
		from user_department_roles
		where user_id = $1
	`, userID)
	if err != nil {
		return docs.Actor{}, err
	}
	defer rows.Close()

	actor.DepartmentRoles = map[string]docs.Role{}
	for rows.Next() {
		var deptID, roleName string
		if err := rows.Scan(&deptID, &roleName); err != nil {
			return docs.Actor{}, err
		}
		role, err := docs.ParseRole(roleName)
		if err != nil {
			return docs.Actor{}, fmt.Errorf("user %s department %s: %w", userID, deptID, err)
		}
		actor.DepartmentRoles[deptID] = role
	}
	if err := rows.Err(); err != nil {
		return docs.Actor{}, err
	}
	return actor, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (docs.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, `
		select id, organization_id, department_id, author_id, title, description,
		       status, archived_at, created_at, updated_at
		from documents
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Document{}, docs.ErrStoreNotFound
	}
	return doc, err
}

func (s *Store) GetSections(ctx context.Context, documentID string) ([]docs.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, document_id, content, complete, updated_at
		from sections
		where document_id = $1
		order by id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docs.Section
	for rows.Next() {
		var sec docs.Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Content, &sec.Complete, &sec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *Store) GetSection(ctx context.Context, documentID, sectionID string) (docs.Section, error) {
	var sec docs.Section
	err := s.db.QueryRowContext(ctx, `
		select id, document_id, content, complete, updated_at
		from sections
		where document_id = $1 and id = $2
	`, documentID, sectionID).Scan(&sec.ID, &sec.DocumentID, &sec.Content, &sec.Complete, &sec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Section{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Section{}, err
	}
	return sec, nil
}

func (s *Store) GetComments(ctx context.Context, documentID string) ([]docs.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, document_id, author_id, content, deleted, created_at
		from comments
		where document_id = $1
		order by created_at, id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docs.Comment
	for rows.Next() {
		var c docs.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.Content, &c.Deleted, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetComment(ctx context.Context, commentID string) (docs.Comment, error) {
	var c docs.Comment
	err := s.db.QueryRowContext(ctx, `
		select id, document_id, author_id, content, deleted, created_at
		from comments
		where id = $1
	`, commentID).Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.Content, &c.Deleted, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Comment{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Comment{}, err
	}
	return c, nil
}

func (s *Store) ListDocuments(ctx context.Context, organizationID string, filter docs.ListFilter) ([]docs.Document, error) {
	var (
		conds = []string{"organization_id = $1"}
		args  = []any{organizationID}
		idx   = 2
	)
	if filter.DepartmentID != "" {
		conds = append(conds, fmt.Sprintf("department_id = $%d", idx))
		args = append(args, filter.DepartmentID)
		idx++
	}
	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Search != "" {
		conds = append(conds, fmt.Sprintf("(title ilike $%d or description ilike $%d)", idx, idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	if !filter.IncludeArchived {
		conds = append(conds, "archived_at is null")
	}

	query := fmt.Sprintf(`
		select id, organization_id, department_id, author_id, title, description,
		       status, archived_at, created_at, updated_at
		from documents
		where %s
		order by id
	`, strings.Join(conds, " and "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docs.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Transactional mutators ----------------------------------------------------

func (s *Store) CreateDocument(ctx context.Context, doc docs.Document, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into documents (id, organization_id, department_id, author_id,
		                       title, description, status, created_at, updated_at)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7, $8, $9)
	`, doc.ID, doc.OrganizationID, doc.DepartmentID, doc.AuthorID,
		doc.Title, doc.Description, string(doc.Status), doc.CreatedAt, doc.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return docs.ErrStoreNotFound
		}
		return err
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) UpdateDocument(ctx context.Context, doc docs.Document, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update documents
		set title = $2, description = $3, status = $4, updated_at = $5
		where id = $1
	`, doc.ID, doc.Title, doc.Description, string(doc.Status), doc.UpdatedAt)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return docs.ErrStoreNotFound
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SetArchived(ctx context.Context, documentID string, archivedAt *time.Time, updatedAt time.Time, entry audit.Entry) (docs.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docs.Document{}, err
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := scanDocument(tx.QueryRowContext(ctx, `
		update documents
		set archived_at = $2, updated_at = $3
		where id = $1
		returning id, organization_id, department_id, author_id, title, description,
		          status, archived_at, created_at, updated_at
	`, documentID, archivedAt, updatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Document{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Document{}, err
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return docs.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return docs.Document{}, err
	}
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// child counts come from inside the transaction so the snapshot matches
	// what this delete removes
	var sections, comments int
	if err := tx.QueryRowContext(ctx,
		`select count(*) from sections where document_id = $1`, documentID).Scan(&sections); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		`select count(*) from comments where document_id = $1`, documentID).Scan(&comments); err != nil {
		return err
	}
	if entry.Details == nil {
		entry.Details = map[string]string{}
	}
	entry.Details["sections"] = strconv.Itoa(sections)
	entry.Details["comments"] = strconv.Itoa(comments)

	// snapshot entry first; activity_log carries no foreign key to documents
	// so the entry survives the row it describes
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from comments where document_id = $1`, documentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from sections where document_id = $1`, documentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from documents where id = $1`, documentID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return docs.ErrStoreNotFound
	}
	return tx.Commit()
}

func (s *Store) UpdateSection(ctx context.Context, section docs.Section, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update sections
		set content = $3, complete = $4, updated_at = $5
		where document_id = $1 and id = $2
	`, section.DocumentID, section.ID, []byte(section.Content), section.Complete, section.UpdatedAt)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return docs.ErrStoreNotFound
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddComment(ctx context.Context, comment docs.Comment, entry audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into comments (id, document_id, author_id, content, deleted, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.DocumentID, comment.AuthorID, comment.Content, comment.Deleted, comment.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return docs.ErrStoreNotFound
		}
		return err
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SoftDeleteComment(ctx context.Context, commentID, marker string, entry audit.Entry) (docs.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docs.Comment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var c docs.Comment
	err = tx.QueryRowContext(ctx, `
		update comments
		set content = $2, deleted = true
		where id = $1
		returning id, document_id, author_id, content, deleted, created_at
	`, commentID, marker).Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.Content, &c.Deleted, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return docs.Comment{}, docs.ErrStoreNotFound
	}
	if err != nil {
		return docs.Comment{}, err
	}
	if err := appendEntryTx(ctx, tx, entry); err != nil {
		return docs.Comment{}, err
	}
	if err := tx.Commit(); err != nil {
		return docs.Comment{}, err
	}
	return c, nil
}

// Audit --------------------------------------------------------------------

func (s *Store) AppendAudit(ctx context.Context, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into activity_log (id, document_id, actor_id, action, details, created_at)
		values ($1, nullif($2, ''), $3, $4, $5, $6)
	`, entry.ID, entry.DocumentID, entry.ActorID, string(entry.Action), details, entry.CreatedAt)
	return err
}

func (s *Store) ListAudit(ctx context.Context, documentID string, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var (
		conds = []string{"1=1"}
		args  = []any{}
		idx   = 1
	)
	if documentID != "" {
		conds = []string{fmt.Sprintf("document_id = $%d", idx)}
		args = append(args, documentID)
		idx++
	}
	query := fmt.Sprintf(`
		select id, coalesce(document_id, ''), actor_id, action, details, created_at
		from activity_log
		where %s
		order by created_at, id
		limit $%d
	`, strings.Join(conds, " and "), idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			action  string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ActorID, &action, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = audit.Action(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- helpers ---

// appendEntryTx is the shared audit step for every mutator: the entry commits
// or rolls back with the row change it describes.
func appendEntryTx(ctx context.Context, tx *sql.Tx, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		insert into activity_log (id, document_id, actor_id, action, details, created_at)
		values ($1, nullif($2, ''), $3, $4, $5, $6)
	`, entry.ID, entry.DocumentID, entry.ActorID, string(entry.Action), details, entry.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (docs.Document, error) {
	var (
		doc      docs.Document
		dept     sql.NullString
		status   string
		archived sql.NullTime
	)
	err := row.Scan(&doc.ID, &doc.OrganizationID, &dept, &doc.AuthorID,
		&doc.Title, &doc.Description, &status, &archived, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return docs.Document{}, err
	}
	// null department collapses to the empty string the engine treats as
	// "no addressable department"
	doc.DepartmentID = dept.String
	doc.Status = docs.DocumentStatus(status)
	if archived.Valid {
		t := archived.Time
		doc.ArchivedAt = &t
	}
	return doc, nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
