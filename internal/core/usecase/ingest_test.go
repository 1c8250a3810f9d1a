package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

func TestUploadInvoiceStoresAndCreatesPendingRow(t *testing.T) {
	projects := &projectRepoFake{project: &domain.Project{ID: 7, GroupID: 2}}
	invoices := &invoiceRepoFake{}
	documents := &documentRepoFake{}
	storage := &storageFake{}
	parser := &parserFake{data: domain.InvoiceData{InvoiceNumber: "EXP-001"}}

	uc := NewIngestUseCase(projects, invoices, documents, storage, &flattenerFake{text: "flat"}, parser)

	invoice, err := uc.UploadInvoice(context.Background(), domain.KeyFromID(7), "My Invoice.xlsx", strings.NewReader("xlsx-bytes"))
	if err != nil {
		t.Fatalf("UploadInvoice() error = %v", err)
	}

	if invoice.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", invoice.Status)
	}
	if !strings.Contains(invoice.OriginalContent, "EXP-001") {
		t.Fatalf("expected parsed content persisted, got %q", invoice.OriginalContent)
	}
	wantPrefix := "media/invoices/" + invoice.GUID[:2] + "/"
	if !strings.HasPrefix(invoice.OriginalFilePath, wantPrefix) {
		t.Fatalf("expected sharded path under %q, got %q", wantPrefix, invoice.OriginalFilePath)
	}
	if !strings.HasSuffix(invoice.OriginalFilePath, "My_Invoice.xlsx") {
		t.Fatalf("expected sanitized filename, got %q", invoice.OriginalFilePath)
	}
	if _, ok := storage.saved[invoice.OriginalFilePath]; !ok {
		t.Fatalf("expected file stored at %q", invoice.OriginalFilePath)
	}
	if len(invoices.created) != 1 {
		t.Fatalf("expected one invoice row, got %d", len(invoices.created))
	}
}

func TestUploadDocumentFlattensContent(t *testing.T) {
	projects := &projectRepoFake{project: &domain.Project{ID: 7}}
	storage := &storageFake{}
	documents := &documentRepoFake{}

	uc := NewIngestUseCase(projects, &invoiceRepoFake{}, documents, storage, &flattenerFake{text: "carrier,DHL"}, &parserFake{})

	doc, err := uc.UploadDocument(context.Background(), domain.KeyFromID(7), domain.KindCourierReceipt, "receipt.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if doc.FileContent != "carrier,DHL" {
		t.Fatalf("expected flattened content, got %q", doc.FileContent)
	}
	if doc.Kind != domain.KindCourierReceipt || doc.Status != domain.StatusPending {
		t.Fatalf("unexpected document row: %+v", doc)
	}
	if !strings.HasPrefix(doc.FilePath, "media/courier_receipt/") {
		t.Fatalf("expected kind category in path, got %q", doc.FilePath)
	}
}

func TestUploadDocumentRejectsUnknownKind(t *testing.T) {
	uc := NewIngestUseCase(&projectRepoFake{project: &domain.Project{ID: 7}}, &invoiceRepoFake{}, &documentRepoFake{}, &storageFake{}, &flattenerFake{}, &parserFake{})

	_, err := uc.UploadDocument(context.Background(), domain.KeyFromID(7), "waybill", "f.pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
