package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
)

// IngestUseCase receives uploaded invoices and customs documents,
// stores the binary, derives the text/structured content and creates
// the pending row. Processing itself happens in the worker.
type IngestUseCase struct {
	projects  ports.ProjectRepository
	invoices  ports.InvoiceRepository
	documents ports.DocumentRepository
	storage   ports.ObjectStorage
	flattener ports.FileFlattener
	parser    ports.InvoiceParser
}

func NewIngestUseCase(
	projects ports.ProjectRepository,
	invoices ports.InvoiceRepository,
	documents ports.DocumentRepository,
	storage ports.ObjectStorage,
	flattener ports.FileFlattener,
	parser ports.InvoiceParser,
) *IngestUseCase {
	return &IngestUseCase{
		projects:  projects,
		invoices:  invoices,
		documents: documents,
		storage:   storage,
		flattener: flattener,
		parser:    parser,
	}
}

func (uc *IngestUseCase) UploadInvoice(
	ctx context.Context,
	projectKey domain.Key,
	filename string,
	body io.Reader,
) (*domain.Invoice, error) {
	project, err := uc.projects.GetByKey(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload invoice", errors.New("empty file"))
	}

	data, err := uc.parser.Parse(ctx, bytes.NewReader(raw))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse invoice spreadsheet", err)
	}
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice content: %w", err)
	}

	guid := uuid.NewString()
	key := storageKey("invoices", guid, filename)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save invoice file: %w", err)
	}

	now := time.Now().UTC()
	invoice := &domain.Invoice{
		GUID:             guid,
		ProjectID:        project.ID,
		OriginalFilePath: key,
		OriginalFileName: filename,
		OriginalContent:  string(content),
		Status:           domain.StatusPending,
		UploadedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("create invoice row: %w", err)
	}
	return invoice, nil
}

func (uc *IngestUseCase) UploadDocument(
	ctx context.Context,
	projectKey domain.Key,
	kind domain.DocumentKind,
	filename string,
	body io.Reader,
) (*domain.Document, error) {
	if !kind.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("unknown document kind %q", kind))
	}
	project, err := uc.projects.GetByKey(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("empty file"))
	}

	text, err := uc.flattener.Flatten(ctx, filename, bytes.NewReader(raw))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "flatten document", err)
	}

	guid := uuid.NewString()
	key := storageKey(string(kind), guid, filename)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save document file: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		GUID:        guid,
		ProjectID:   project.ID,
		Kind:        kind,
		FilePath:    key,
		FileName:    filename,
		FileContent: text,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document row: %w", err)
	}
	return doc, nil
}

// Uploaded files shard under media/<category>/<guid prefix>/ so a
// single directory never accumulates every file of a category.
func storageKey(category, guid, filename string) string {
	return path.Join("media", category, guid[:2], guid+"_"+sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
