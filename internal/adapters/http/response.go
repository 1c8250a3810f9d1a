package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// envelope is the uniform response body: every endpoint answers with
// {success, message, data, timestamp}.
type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{
		Success:   status < 400,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{
		Success:   status < 400,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func writeErr(w http.ResponseWriter, err error) {
	writeMessage(w, mapErrorToHTTPStatus(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type listData struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func listPayload(items any, page domain.Page, total int) listData {
	page = page.Normalize()
	totalPages := total / page.Size
	if total%page.Size != 0 {
		totalPages++
	}
	return listData{
		Items:      items,
		Page:       page.Number,
		Limit:      page.Size,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePage(r *http.Request) domain.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return domain.Page{Number: page, Size: limit}.Normalize()
}

func pathKey(r *http.Request) (domain.Key, error) {
	return domain.ParseKey(r.PathValue("key"))
}
