package domain

import "time"

type TaskKind string

const (
	TaskTranslateInvoice TaskKind = "translate_invoice"
	TaskAnalyzeDocument  TaskKind = "analyze_document"
)

// Task is the queue payload connecting the HTTP trigger endpoints to
// the worker. Handlers enqueue, the worker executes.
type Task struct {
	ID         string    `json:"id"`
	Kind       TaskKind  `json:"kind"`
	ProjectID  int64     `json:"projectId"`
	InvoiceID  int64     `json:"invoiceId,omitempty"`
	DocumentID int64     `json:"documentId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// AssistantRun describes one run request against the project thread.
type AssistantRun struct {
	Instructions      string
	Message           string
	AttachmentFileIDs []string
	JSONResponse      bool
	Temperature       float32
}
