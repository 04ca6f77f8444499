package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"paperdesk.org/internal/auth"
	"paperdesk.org/internal/obs"
)

func TestNewEntry(t *testing.T) {
	entry, err := NewEntry("user-1", "doc-1", ActionUpdated, map[string]string{
		"title_len": "42",
	})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected generated id")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected timestamp")
	}
	if entry.Details["title_len"] != "42" {
		t.Fatalf("details not carried: %v", entry.Details)
	}
}

func TestNewEntryCopiesDetails(t *testing.T) {
	details := map[string]string{"k": "v"}
	entry, err := NewEntry("user-1", "doc-1", ActionCreated, details)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	details["k"] = "mutated"
	if entry.Details["k"] != "v" {
		t.Fatal("entry details must not alias caller map")
	}
}

func TestNewEntryRejectsUnknownAction(t *testing.T) {
	if _, err := NewEntry("user-1", "doc-1", Action("renamed"), nil); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestNewEntryRequiresActor(t *testing.T) {
	if _, err := NewEntry("", "doc-1", ActionCreated, nil); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestNewEntryAllowsMissingDocument(t *testing.T) {
	// Pre-creation failures carry no document id.
	entry, err := NewEntry("user-1", "", ActionUnauthorizedAttempt, map[string]string{"op": "create"})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if entry.DocumentID != "" {
		t.Fatalf("expected empty document id, got %q", entry.DocumentID)
	}
}

func TestNewEntryFailsClosedOnOversizedDetails(t *testing.T) {
	big := map[string]string{"blob": strings.Repeat("x", MaxDetailValueLen+1)}
	if _, err := NewEntry("user-1", "doc-1", ActionUpdated, big); !errors.Is(err, ErrDetailsTooLarge) {
		t.Fatalf("expected ErrDetailsTooLarge, got %v", err)
	}

	many := map[string]string{}
	for i := 0; i < 64; i++ {
		many[strings.Repeat("k", 40)+string(rune('a'+i%26))+string(rune('a'+i/26))] = strings.Repeat("v", 200)
	}
	if _, err := NewEntry("user-1", "doc-1", ActionUpdated, many); !errors.Is(err, ErrDetailsTooLarge) {
		t.Fatalf("expected serialized ceiling to reject, got %v", err)
	}
}

func TestLogEntryEmitsJSON(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = auth.ContextWithUser(ctx, "user-42")

	entry, err := NewEntry("user-42", "doc-9", ActionArchived, map[string]string{"status": "archived"})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	LogEntry(ctx, entry)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if line["type"] != "audit" {
		t.Fatalf("unexpected type: %v", line["type"])
	}
	if line["action"] != "archived" {
		t.Fatalf("unexpected action: %v", line["action"])
	}
	if line["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", line["request_id"])
	}
	if line["document_id"] != "doc-9" {
		t.Fatalf("unexpected document id: %v", line["document_id"])
	}
	fields, ok := line["fields"].(map[string]any)
	if !ok || fields["status"] != "archived" {
		t.Fatalf("fields missing or incorrect: %v", line["fields"])
	}
}
