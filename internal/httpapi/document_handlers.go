package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paperdesk.org/internal/audit"
	"paperdesk.org/internal/docs"
)

type createDocumentRequest struct {
	DepartmentID string `json:"department_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

type updateDocumentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type updateSectionRequest struct {
	Content json.RawMessage `json:"content"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}

type listDocumentsResponse struct {
	Items []docs.DocumentSummary `json:"items"`
	AsOf  time.Time              `json:"as_of"`
}

type activityLogResponse struct {
	Items []audit.Entry `json:"items"`
	AsOf  time.Time     `json:"as_of"`
}

func (a *API) handleDocumentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createDocument(w, r)
	case http.MethodGet:
		a.listDocuments(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	id := parts[0]
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getDocument(w, r, id)
		case http.MethodPatch:
			a.updateDocument(w, r, id)
		case http.MethodDelete:
			a.deleteDocument(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "archive":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.archiveDocument(w, r, id, true)
	case len(parts) == 2 && parts[1] == "unarchive":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.archiveDocument(w, r, id, false)
	case len(parts) == 2 && parts[1] == "comments":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addComment(w, r, id)
	case len(parts) == 2 && parts[1] == "activity":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.activityLog(w, r, id)
	case len(parts) == 3 && parts[1] == "sections":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.updateSection(w, r, id, parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleCommentResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/comments/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}

	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	comment, err := a.service.DeleteComment(r.Context(), actor, id)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (a *API) createDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := a.service.CreateDocument(r.Context(), actor, req.DepartmentID, req.Title, req.Description)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/documents/"+doc.ID)
	writeJSON(w, http.StatusCreated, doc)
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	q := r.URL.Query()
	filter := docs.ListFilter{
		DepartmentID:    strings.TrimSpace(q.Get("department_id")),
		Status:          strings.TrimSpace(q.Get("status")),
		Search:          strings.TrimSpace(q.Get("q")),
		IncludeArchived: parseBool(q.Get("include_archived")),
	}

	items, err := a.service.ListDocuments(r.Context(), actor, filter)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listDocumentsResponse{
		Items: items,
		AsOf:  time.Now().UTC(),
	})
}

func (a *API) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	view, err := a.service.GetDocument(r.Context(), actor, id, parseBool(r.URL.Query().Get("include_archived")))
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) updateDocument(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req updateDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := docs.DocumentPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status, ok := docs.ParseStatus(*req.Status)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "unknown status "+strconv.Quote(*req.Status))
			return
		}
		patch.Status = &status
	}

	doc, err := a.service.UpdateDocument(r.Context(), actor, id, patch)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	doc, err := a.service.DeleteDocument(r.Context(), actor, id)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      doc.ID,
		"deleted": true,
	})
}

func (a *API) archiveDocument(w http.ResponseWriter, r *http.Request, id string, archive bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var (
		doc docs.Document
		err error
	)
	if archive {
		doc, err = a.service.ArchiveDocument(r.Context(), actor, id)
	} else {
		doc, err = a.service.UnarchiveDocument(r.Context(), actor, id)
	}
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) updateSection(w http.ResponseWriter, r *http.Request, documentID, sectionID string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req updateSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	section, err := a.service.UpdateSection(r.Context(), actor, documentID, sectionID, req.Content)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (a *API) addComment(w http.ResponseWriter, r *http.Request, documentID string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req addCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := a.service.AddComment(r.Context(), actor, documentID, req.Content)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (a *API) activityLog(w http.ResponseWriter, r *http.Request, documentID string) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items, err := a.service.ActivityLog(r.Context(), actor, documentID, limit)
	if err != nil {
		handleDocsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityLogResponse{
		Items: items,
		AsOf:  time.Now().UTC(),
	})
}

// --- helpers ---

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < min || val > max {
		return 0, errors.New("limit must be between 1 and 1000")
	}
	return val, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDocsError maps engine sentinels to transport status codes. The
// response body carries the sentinel text only; internal causes stay in
// server logs.
func handleDocsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docs.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, docs.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="paperdesk"`)
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, docs.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, docs.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, docs.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, r, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
