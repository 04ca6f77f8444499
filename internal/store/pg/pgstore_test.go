package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"paperdesk.org/internal/audit"
	"paperdesk.org/internal/docs"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func mustEntry(t *testing.T, action audit.Action, documentID string) audit.Entry {
	t.Helper()
	entry, err := audit.NewEntry("user-m", documentID, action, nil)
	if err != nil {
		t.Fatalf("audit.NewEntry: %v", err)
	}
	return entry
}

func TestGetDocumentNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select (.+) from documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetDocument(context.Background(), "missing")
	if !errors.Is(err, docs.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDocumentScansArchivedAt(t *testing.T) {
	store, mock := newMock(t)
	archived := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select (.+) from documents").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "department_id", "author_id", "title",
			"description", "status", "archived_at", "created_at", "updated_at",
		}).AddRow("doc-1", "org-a", "dep1", "user-x", "Report", "", "draft", archived, now, now))

	doc, err := store.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !doc.Archived() || !doc.ArchivedAt.Equal(archived) {
		t.Fatalf("archived_at not scanned: %+v", doc)
	}
	if doc.Status != docs.StatusDraft {
		t.Fatalf("status mismatch: %s", doc.Status)
	}
}

func TestGetDocumentScansNullDepartment(t *testing.T) {
	store, mock := newMock(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select (.+) from documents").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "department_id", "author_id", "title",
			"description", "status", "archived_at", "created_at", "updated_at",
		}).AddRow("doc-1", "org-a", nil, "user-x", "Orphan", "", "draft", nil, now, now))

	doc, err := store.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.DepartmentID != "" {
		t.Fatalf("null department must scan to empty string, got %q", doc.DepartmentID)
	}
}

func TestGetActorAssemblesRoles(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select id, organization_id from users").
		WithArgs("user-x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).AddRow("user-x", "org-a"))
	mock.ExpectQuery("select department_id, role from user_department_roles").
		WithArgs("user-x").
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "role"}).
			AddRow("dep1", "member").
			AddRow("dep2", "viewer"))

	actor, err := store.GetActor(context.Background(), "user-x")
	if err != nil {
		t.Fatalf("GetActor: %v", err)
	}
	if actor.OrganizationID != "org-a" {
		t.Fatalf("organization mismatch: %s", actor.OrganizationID)
	}
	if role, ok := actor.RoleFor("dep1"); !ok || role != docs.RoleMember {
		t.Fatalf("dep1 role mismatch: %v %v", role, ok)
	}
	if role, ok := actor.RoleFor("dep2"); !ok || role != docs.RoleViewer {
		t.Fatalf("dep2 role mismatch: %v %v", role, ok)
	}
}

func TestGetActorRejectsUnknownRole(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select id, organization_id from users").
		WithArgs("user-x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).AddRow("user-x", "org-a"))
	mock.ExpectQuery("select department_id, role from user_department_roles").
		WithArgs("user-x").
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "role"}).AddRow("dep1", "admin"))

	if _, err := store.GetActor(context.Background(), "user-x"); err == nil {
		t.Fatal("expected unknown role to surface as error")
	}
}

func TestUpdateDocumentCommitsWithEntry(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionUpdated, "doc-1")

	mock.ExpectBegin()
	mock.ExpectExec("update documents").
		WithArgs("doc-1", "Report v2", "", "draft", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into activity_log").
		WithArgs(entry.ID, "doc-1", "user-m", "updated", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc := docs.Document{ID: "doc-1", Title: "Report v2", Status: docs.StatusDraft, UpdatedAt: time.Now().UTC()}
	if err := store.UpdateDocument(context.Background(), doc, entry); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateDocumentRollsBackOnAuditFailure(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionUpdated, "doc-1")

	mock.ExpectBegin()
	mock.ExpectExec("update documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into activity_log").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	doc := docs.Document{ID: "doc-1", Title: "Report v2", Status: docs.StatusDraft}
	if err := store.UpdateDocument(context.Background(), doc, entry); err == nil {
		t.Fatal("expected audit failure to fail the mutation")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateDocumentMissingRow(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionUpdated, "doc-1")

	mock.ExpectBegin()
	mock.ExpectExec("update documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.UpdateDocument(context.Background(), docs.Document{ID: "doc-1"}, entry)
	if !errors.Is(err, docs.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestSetArchivedReturnsUpdatedRow(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionArchived, "doc-1")
	archived := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	// updated_at is the caller's clock, never database time
	mock.ExpectBegin()
	mock.ExpectQuery("update documents").
		WithArgs("doc-1", archived, now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "department_id", "author_id", "title",
			"description", "status", "archived_at", "created_at", "updated_at",
		}).AddRow("doc-1", "org-a", "dep1", "user-x", "Report", "", "draft", archived, now, now))
	mock.ExpectExec("insert into activity_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc, err := store.SetArchived(context.Background(), "doc-1", &archived, now, entry)
	if err != nil {
		t.Fatalf("SetArchived: %v", err)
	}
	if !doc.Archived() {
		t.Fatalf("expected archived document, got %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteDocumentWritesSnapshotBeforeRows(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionDeleted, "doc-1")

	// order matters: in-transaction counts, entry, children, document row
	mock.ExpectBegin()
	mock.ExpectQuery(`select count\(\*\) from sections`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`select count\(\*\) from comments`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("insert into activity_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("delete from comments").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("delete from sections").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("delete from documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.DeleteDocument(context.Background(), "doc-1", entry); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if entry.Details["sections"] != "3" || entry.Details["comments"] != "2" {
		t.Fatalf("snapshot must carry the in-transaction counts: %v", entry.Details)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListDocumentsAppliesFilters(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select (.+) from documents").
		WithArgs("org-a", "dep1", "draft", "%report%").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "department_id", "author_id", "title",
			"description", "status", "archived_at", "created_at", "updated_at",
		}).AddRow("doc-1", "org-a", "dep1", "user-x", "Report", "", "draft", nil, time.Now(), time.Now()))

	list, err := store.ListDocuments(context.Background(), "org-a", docs.ListFilter{
		DepartmentID: "dep1",
		Status:       "draft",
		Search:       "report",
	})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(list) != 1 || list[0].ID != "doc-1" {
		t.Fatalf("unexpected result: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAuditRoundTripsDetails(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select (.+) from activity_log").
		WithArgs("doc-1", 100).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "document_id", "actor_id", "action", "details", "created_at",
		}).AddRow("e1", "doc-1", "user-m", "deleted", []byte(`{"title":"Report"}`), time.Now()))

	entries, err := store.ListAudit(context.Background(), "doc-1", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionDeleted || entries[0].Details["title"] != "Report" {
		t.Fatalf("entry not decoded: %+v", entries[0])
	}
}

func TestAddCommentForeignKeyMapsToNotFound(t *testing.T) {
	store, mock := newMock(t)
	entry := mustEntry(t, audit.ActionCommentAdded, "doc-1")

	mock.ExpectBegin()
	mock.ExpectExec("insert into comments").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	mock.ExpectRollback()

	err := store.AddComment(context.Background(), docs.Comment{ID: "c1", DocumentID: "doc-1"}, entry)
	if !errors.Is(err, docs.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}
