package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"paperdesk.org/internal/docs"
)

// Smoke test for the document engine: runs the full lifecycle against the
// in-memory store and checks the audit ledger at the end.
func main() {
	store := docs.NewInMemory()
	store.SeedOrganization(docs.Organization{ID: "org-smoke", Name: "Smoke"})
	store.SeedDepartment(docs.Department{ID: "dep-eng", OrganizationID: "org-smoke", Name: "Engineering"})

	manager := docs.Actor{ID: "mgr", OrganizationID: "org-smoke", DepartmentRoles: map[string]docs.Role{"dep-eng": docs.RoleManager}}
	member := docs.Actor{ID: "mem", OrganizationID: "org-smoke", DepartmentRoles: map[string]docs.Role{"dep-eng": docs.RoleMember}}
	store.SeedActor(manager)
	store.SeedActor(member)

	svc, err := docs.NewService(store)
	if err != nil {
		log.Fatalf("init service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc, err := svc.CreateDocument(ctx, member, "dep-eng", "Smoke document", "created by smoke test")
	if err != nil {
		log.Fatalf("create: %v", err)
	}

	title := "Smoke document v2"
	if _, err := svc.UpdateDocument(ctx, member, doc.ID, docs.DocumentPatch{Title: &title}); err != nil {
		log.Fatalf("update: %v", err)
	}

	comment, err := svc.AddComment(ctx, manager, doc.ID, "looks fine")
	if err != nil {
		log.Fatalf("comment: %v", err)
	}
	if _, err := svc.DeleteComment(ctx, manager, comment.ID); err != nil {
		log.Fatalf("comment delete: %v", err)
	}

	if _, err := svc.ArchiveDocument(ctx, manager, doc.ID); err != nil {
		log.Fatalf("archive: %v", err)
	}
	if _, err := svc.GetDocument(ctx, member, doc.ID, false); !errors.Is(err, docs.ErrNotFound) {
		log.Fatalf("archived document visible to member: %v", err)
	}
	if _, err := svc.UnarchiveDocument(ctx, manager, doc.ID); err != nil {
		log.Fatalf("unarchive: %v", err)
	}

	entries, err := svc.ActivityLog(ctx, manager, doc.ID, 100)
	if err != nil {
		log.Fatalf("activity: %v", err)
	}
	// created, updated, comment_added, comment_deleted, archived, unarchived
	if len(entries) != 6 {
		log.Fatalf("expected 6 ledger entries, got %d", len(entries))
	}

	if _, err := svc.DeleteDocument(ctx, manager, doc.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetDocument(ctx, manager, doc.ID, true); !errors.Is(err, docs.ErrNotFound) {
		log.Fatalf("deleted document still readable: %v", err)
	}

	fmt.Printf("✅ docs engine smoke test passed: document=%s\n", doc.ID)
}
