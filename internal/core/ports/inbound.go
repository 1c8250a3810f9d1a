package ports

import (
	"context"
	"io"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for invoice upload.
type InvoiceIngestor interface {
	UploadInvoice(ctx context.Context, projectKey domain.Key, filename string, body io.Reader) (*domain.Invoice, error)
}

// DocumentIngestor is the inbound contract for customs document upload.
type DocumentIngestor interface {
	UploadDocument(ctx context.Context, projectKey domain.Key, kind domain.DocumentKind, filename string, body io.Reader) (*domain.Document, error)
}

// TranslationService triggers and executes invoice translation.
type TranslationService interface {
	RequestTranslation(ctx context.Context, invoiceKey domain.Key) (*domain.Task, error)
	TranslateByID(ctx context.Context, invoiceID int64) error
}

// AnalysisService triggers and executes two-phase document analysis.
type AnalysisService interface {
	RequestAnalysis(ctx context.Context, kind domain.DocumentKind, documentKey domain.Key) (*domain.Task, string, error)
	AnalyzeByID(ctx context.Context, documentID int64) error
}
