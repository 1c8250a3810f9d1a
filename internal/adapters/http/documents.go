package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// URL segments use dashes; the stored kinds use underscores.
var kindSegments = map[string]domain.DocumentKind{
	"courier-receipt":    domain.KindCourierReceipt,
	"custom-declaration": domain.KindCustomDeclaration,
	"custom-clearance":   domain.KindCustomClearance,
}

func pathKind(r *http.Request) (domain.DocumentKind, bool) {
	kind, ok := kindSegments[r.PathValue("kind")]
	return kind, ok
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	projectKey, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	kind, ok := pathKind(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown document kind")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.documentIngest.UploadDocument(r.Context(), projectKey, kind, header.Filename, file)
	if err != nil {
		writeErr(w, err)
		return
	}
	rt.recordUploadMetric(string(kind))
	rt.recordActivity(r, rt.groupIDForProject(r, doc.ProjectID), string(kind), doc.ID, "uploaded")
	writeData(w, http.StatusCreated, doc)
}

func (rt *Router) listProjectDocuments(w http.ResponseWriter, r *http.Request) {
	projectKey, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	kind, ok := pathKind(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown document kind")
		return
	}
	project, err := rt.projects.GetByKey(r.Context(), projectKey)
	if err != nil {
		writeErr(w, err)
		return
	}

	page := parsePage(r)
	docs, total, err := rt.documents.ListByProject(r.Context(), kind, project.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(docs, page, total))
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := rt.resolveDocument(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := rt.resolveDocument(w, r)
	if !ok {
		return
	}
	if err := rt.documents.Delete(r.Context(), doc.Kind, domain.KeyFromID(doc.ID)); err != nil {
		writeErr(w, err)
		return
	}

	// Uploaded assistant files are cleaned up best-effort; their
	// leakage never blocks the deletion.
	if doc.OpenAIFileID != "" && rt.gateway != nil {
		if err := rt.gateway.DeleteFile(r.Context(), doc.OpenAIFileID); err != nil {
			slog.Warn("assistant_file_cleanup_failed",
				"request_id", requestIDFromContext(r.Context()),
				"document_id", doc.ID,
				"file_id", doc.OpenAIFileID,
				"error", err,
			)
		}
	}
	rt.recordActivity(r, rt.groupIDForProject(r, doc.ProjectID), string(doc.Kind), doc.ID, "deleted")
	writeMessage(w, http.StatusOK, "document deleted")
}

func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	kind, ok := pathKind(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown document kind")
		return
	}

	task, threadID, err := rt.analyzer.RequestAnalysis(r.Context(), kind, key)
	if err != nil {
		writeErr(w, err)
		return
	}
	rt.recordTriggerMetric(task.Kind)
	rt.recordActivity(r, rt.groupIDForProject(r, task.ProjectID), string(kind), task.DocumentID, "analysis_requested")
	writeData(w, http.StatusAccepted, map[string]any{
		"status":     "processing",
		"taskId":     task.ID,
		"threadId":   threadID,
		"documentId": task.DocumentID,
	})
}

func (rt *Router) getDocumentInsights(w http.ResponseWriter, r *http.Request) {
	doc, ok := rt.resolveDocument(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"status":    doc.Status,
		"extracted": json.RawMessage(doc.Extracted),
		"insights":  json.RawMessage(doc.Insights),
	})
}

func (rt *Router) resolveDocument(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	kind, ok := pathKind(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown document kind")
		return nil, false
	}
	doc, err := rt.documents.GetByKey(r.Context(), kind, key)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return doc, true
}
