package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

type ProjectStatus string

const (
	ProjectDraft    ProjectStatus = "draft"
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

const (
	maxProjectTitle       = 40
	maxProjectDescription = 255
	maxThreadID           = 100
)

// Project binds an export shipment to one assistant conversation.
// ThreadID is empty until the first assistant interaction and is
// immutable once set.
type Project struct {
	ID          int64         `json:"id"`
	GUID        string        `json:"guid"`
	GroupID     int64         `json:"groupId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	IsActive    bool          `json:"isActive"`

	ThreadID string `json:"threadId,omitempty"`

	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	SourceCurrency string  `json:"sourceCurrency"`
	TargetCurrency string  `json:"targetCurrency"`
	ExchangeRate   float64 `json:"exchangeRate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Project) Validate() error {
	if p.GroupID <= 0 {
		return WrapError(ErrInvalidInput, "validate project", errors.New("groupId is required"))
	}
	if p.Title == "" {
		return WrapError(ErrInvalidInput, "validate project", errors.New("title is required"))
	}
	if utf8.RuneCountInString(p.Title) > maxProjectTitle {
		return WrapError(ErrInvalidInput, "validate project", errors.New("title exceeds 40 characters"))
	}
	if utf8.RuneCountInString(p.Description) > maxProjectDescription {
		return WrapError(ErrInvalidInput, "validate project", errors.New("description exceeds 255 characters"))
	}
	if len(p.ThreadID) > maxThreadID {
		return WrapError(ErrInvalidInput, "validate project", errors.New("threadId exceeds 100 characters"))
	}
	if p.ExchangeRate <= 0 {
		return WrapError(ErrInvalidInput, "validate project", errors.New("exchangeRate must be positive"))
	}
	switch p.Status {
	case ProjectDraft, ProjectActive, ProjectArchived:
	default:
		return WrapError(ErrInvalidInput, "validate project", errors.New("unknown project status"))
	}
	return nil
}
