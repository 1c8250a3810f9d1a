package httpadapter

import (
	"errors"
	"io"
	"net/http"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// uploads are capped well below the assistant file ceiling
const maxUploadMemory = 32 << 20

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	projectKey, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
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

	invoice, err := rt.invoiceIngest.UploadInvoice(r.Context(), projectKey, header.Filename, file)
	if err != nil {
		writeErr(w, err)
		return
	}
	rt.recordUploadMetric("invoice")
	rt.recordActivity(r, rt.groupIDForProject(r, invoice.ProjectID), "invoice", invoice.ID, "uploaded")
	writeData(w, http.StatusCreated, invoice)
}

func (rt *Router) listProjectInvoices(w http.ResponseWriter, r *http.Request) {
	projectKey, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	project, err := rt.projects.GetByKey(r.Context(), projectKey)
	if err != nil {
		writeErr(w, err)
		return
	}

	page := parsePage(r)
	invoices, total, err := rt.invoices.ListByProject(r.Context(), project.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(invoices, page, total))
}

func (rt *Router) getInvoice(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	invoice, err := rt.invoices.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, invoice)
}

func (rt *Router) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.invoices.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "invoice deleted")
}

func (rt *Router) translateInvoice(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	task, err := rt.translator.RequestTranslation(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	rt.recordTriggerMetric(task.Kind)
	rt.recordActivity(r, rt.groupIDForProject(r, task.ProjectID), "invoice", task.InvoiceID, "translation_requested")
	writeData(w, http.StatusAccepted, map[string]any{
		"status":    "processing",
		"taskId":    task.ID,
		"invoiceId": task.InvoiceID,
	})
}

func (rt *Router) downloadTranslatedInvoice(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	invoice, err := rt.invoices.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	if invoice.TranslatedFilePath == "" {
		writeErr(w, domain.WrapError(domain.ErrNotFound, "download translation",
			errors.New("invoice has no translated file yet")))
		return
	}

	f, err := rt.storage.Open(r.Context(), invoice.TranslatedFilePath)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+invoice.TranslatedFileName+`"`)
	_, _ = io.Copy(w, f)
}
