// Package audit defines the append-only activity ledger. Entries are
// validated here and persisted by the store in the same transaction as the
// mutation they describe; nothing in the codebase updates or deletes them.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paperdesk.org/internal/ids"
)

// Action identifies the state change an entry records.
type Action string

const (
	ActionCreated             Action = "created"
	ActionUpdated             Action = "updated"
	ActionArchived            Action = "archived"
	ActionUnarchived          Action = "unarchived"
	ActionDeleted             Action = "deleted"
	ActionSectionUpdated      Action = "section_updated"
	ActionCommentAdded        Action = "comment_added"
	ActionCommentDeleted      Action = "comment_deleted"
	ActionUnauthorizedAttempt Action = "unauthorized_attempt"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionArchived, ActionUnarchived,
		ActionDeleted, ActionSectionUpdated, ActionCommentAdded,
		ActionCommentDeleted, ActionUnauthorizedAttempt:
		return true
	}
	return false
}

// Details size ceilings. The ledger stores identifiers, lengths and enum
// values, never payload bodies; the serialized ceiling is the hard stop.
const (
	MaxDetailKeyLen      = 64
	MaxDetailValueLen    = 256
	MaxDetailsSerialized = 2048
)

var (
	ErrInvalidEntry    = errors.New("audit: invalid entry")
	ErrDetailsTooLarge = errors.New("audit: details exceed size ceiling")
)

// Entry is one immutable activity record. DocumentID is empty for failures
// that precede document creation.
type Entry struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id,omitempty"`
	ActorID    string            `json:"actor_id"`
	Action     Action            `json:"action"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewEntry validates and assembles an entry. It fails closed: oversized or
// malformed details reject the entry rather than truncating it.
func NewEntry(actorID, documentID string, action Action, details map[string]string) (Entry, error) {
	if actorID == "" {
		return Entry{}, fmt.Errorf("%w: actor id is required", ErrInvalidEntry)
	}
	if !action.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, action)
	}
	if err := validateDetails(details); err != nil {
		return Entry{}, err
	}
	copied := make(map[string]string, len(details))
	for k, v := range details {
		copied[k] = v
	}
	return Entry{
		ID:         ids.New(),
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     action,
		Details:    copied,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func validateDetails(details map[string]string) error {
	if len(details) == 0 {
		return nil
	}
	for k, v := range details {
		if k == "" {
			return fmt.Errorf("%w: empty detail key", ErrInvalidEntry)
		}
		if len(k) > MaxDetailKeyLen {
			return fmt.Errorf("%w: key %q", ErrDetailsTooLarge, k[:16])
		}
		if len(v) > MaxDetailValueLen {
			return fmt.Errorf("%w: value for key %q", ErrDetailsTooLarge, k)
		}
	}
	serialized, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("%w: details not serializable", ErrInvalidEntry)
	}
	if len(serialized) > MaxDetailsSerialized {
		return fmt.Errorf("%w: %d bytes serialized", ErrDetailsTooLarge, len(serialized))
	}
	return nil
}
