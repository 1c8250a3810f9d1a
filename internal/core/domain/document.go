package domain

import (
	"encoding/json"
	"time"
)

type DocumentKind string

const (
	KindCourierReceipt    DocumentKind = "courier_receipt"
	KindCustomDeclaration DocumentKind = "custom_declaration"
	KindCustomClearance   DocumentKind = "custom_clearance"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case KindCourierReceipt, KindCustomDeclaration, KindCustomClearance:
		return true
	}
	return false
}

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// CanTransition enforces the workflow state machine. Terminal states
// are re-enterable only through pending (explicit re-analysis).
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return to == StatusPending
	}
	return false
}

// Document is one customs-family record: courier receipt, customs
// declaration or customs clearance. The three share a single shape.
type Document struct {
	ID        int64        `json:"id"`
	GUID      string       `json:"guid"`
	ProjectID int64        `json:"projectId"`
	Kind      DocumentKind `json:"kind"`

	FilePath    string `json:"filePath"`
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent,omitempty"`

	Extracted    json.RawMessage `json:"extracted,omitempty"`
	Insights     json.RawMessage `json:"insights,omitempty"`
	OpenAIFileID string          `json:"openAIFileId,omitempty"`

	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
