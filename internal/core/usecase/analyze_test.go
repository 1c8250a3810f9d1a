package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

const (
	extractionReply = `{"shippingInfo": {"carrier": "DHL", "trackingNumber": "JD014600003SE"}}`
	validationReply = `{"overallMatchScore": 87, "complianceAssessment": {"status": "ok"}}`
)

func newAnalyzeFixture() (*AnalyzeDocumentUseCase, *projectRepoFake, *invoiceRepoFake, *documentRepoFake, *gatewayFake, *queueFake, *notifierFake) {
	project := &domain.Project{ID: 7, ThreadID: "thread-7", ExchangeRate: 4.2}
	doc := &domain.Document{
		ID:          5,
		GUID:        "9c1d2e3f-aaaa-bbbb-cccc-000000000005",
		ProjectID:   7,
		Kind:        domain.KindCourierReceipt,
		FilePath:    "media/courier_receipt/9c/receipt.pdf",
		FileName:    "receipt.pdf",
		FileContent: "carrier: DHL tracking: JD014600003SE",
		Status:      domain.StatusPending,
	}
	invoice := domain.Invoice{ID: 3, ProjectID: 7, OriginalFileName: "invoice.xlsx", OriginalContent: `{"invoice_number":"EXP-001"}`}

	projects := &projectRepoFake{project: project}
	invoices := &invoiceRepoFake{invoice: &invoice, list: []domain.Invoice{invoice}, listTotal: 1}
	documents := &documentRepoFake{doc: doc}
	gateway := &gatewayFake{runReplies: []string{extractionReply, validationReply}}
	queue := &queueFake{}
	notifier := &notifierFake{}

	uc := NewAnalyzeDocumentUseCase(projects, invoices, documents, queue, gateway, &storageFake{}, &flattenerFake{}, notifier)
	return uc, projects, invoices, documents, gateway, queue, notifier
}

func TestAnalyzeByIDSuccess(t *testing.T) {
	uc, _, _, documents, gateway, _, notifier := newAnalyzeFixture()

	if err := uc.AnalyzeByID(context.Background(), 5); err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}

	if len(documents.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(documents.statusCalls))
	}
	if documents.statusCalls[0].status != domain.StatusProcessing || documents.statusCalls[1].status != domain.StatusCompleted {
		t.Fatalf("unexpected status sequence: %+v", documents.statusCalls)
	}
	if string(documents.savedExtraction) != extractionReply {
		t.Fatalf("unexpected persisted extraction: %s", documents.savedExtraction)
	}
	if string(documents.savedInsights) != validationReply {
		t.Fatalf("unexpected persisted insights: %s", documents.savedInsights)
	}
	if documents.fileID == "" {
		t.Fatalf("expected assistant file id persisted")
	}
	if len(gateway.uploads) != 1 {
		t.Fatalf("expected one file upload, got %d", len(gateway.uploads))
	}
	if len(gateway.runCalls) != 2 {
		t.Fatalf("expected extraction + validation runs, got %d", len(gateway.runCalls))
	}
	if len(gateway.runCalls[0].run.AttachmentFileIDs) != 1 {
		t.Fatalf("extraction run must attach the uploaded file")
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != 5 {
		t.Fatalf("expected completion notification for document 5, got %+v", notifier.notified)
	}
}

func TestAnalyzeValidationFailureKeepsExtraction(t *testing.T) {
	uc, _, _, documents, gateway, _, notifier := newAnalyzeFixture()
	gateway.runErrs = []error{nil, errors.New("validation run failed")}

	err := uc.AnalyzeByID(context.Background(), 5)
	if err == nil {
		t.Fatalf("expected error")
	}

	if string(documents.savedExtraction) != extractionReply {
		t.Fatalf("phase-1 extraction must survive phase-2 failure, got: %s", documents.savedExtraction)
	}
	if !strings.Contains(string(documents.savedInsights), "courier_receipt_analysis_failed") {
		t.Fatalf("expected stage-tagged failure insight, got: %s", documents.savedInsights)
	}
	last := documents.statusCalls[len(documents.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", last)
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("failed analysis must not notify")
	}
}

func TestAnalyzeTimeoutRecordsRunTimedOutStage(t *testing.T) {
	uc, _, _, documents, gateway, _, _ := newAnalyzeFixture()
	gateway.runErrs = []error{domain.WrapError(domain.ErrRunTimedOut, "run to completion", errors.New("300 polls"))}

	if err := uc.AnalyzeByID(context.Background(), 5); err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(documents.savedInsights), domain.StageRunTimedOut) {
		t.Fatalf("expected run_timed_out stage, got: %s", documents.savedInsights)
	}
}

func TestAnalyzeReusesPersistedAssistantFile(t *testing.T) {
	uc, _, _, documents, gateway, _, _ := newAnalyzeFixture()
	documents.doc.OpenAIFileID = "file-existing"

	if err := uc.AnalyzeByID(context.Background(), 5); err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if len(gateway.uploads) != 0 {
		t.Fatalf("expected no re-upload for persisted file id, got %d", len(gateway.uploads))
	}
	if gateway.runCalls[0].run.AttachmentFileIDs[0] != "file-existing" {
		t.Fatalf("expected persisted file id attached, got %+v", gateway.runCalls[0].run.AttachmentFileIDs)
	}
}

func TestRequestAnalysisRequiresInvoices(t *testing.T) {
	uc, _, invoices, _, _, queue, _ := newAnalyzeFixture()
	invoices.listTotal = 0

	_, _, err := uc.RequestAnalysis(context.Background(), domain.KindCourierReceipt, domain.KeyFromID(5))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected no task published")
	}
}

func TestRequestAnalysisRejectsProcessingDocument(t *testing.T) {
	uc, _, _, documents, _, queue, _ := newAnalyzeFixture()
	documents.doc.Status = domain.StatusProcessing

	_, _, err := uc.RequestAnalysis(context.Background(), domain.KindCourierReceipt, domain.KeyFromID(5))
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected no task for in-flight document")
	}
}

func TestRequestAnalysisEnqueuesAndReturnsThread(t *testing.T) {
	uc, _, _, documents, _, queue, _ := newAnalyzeFixture()

	task, threadID, err := uc.RequestAnalysis(context.Background(), domain.KindCourierReceipt, domain.KeyFromID(5))
	if err != nil {
		t.Fatalf("RequestAnalysis() error = %v", err)
	}
	if threadID != "thread-7" {
		t.Fatalf("expected project thread, got %q", threadID)
	}
	if task.Kind != domain.TaskAnalyzeDocument || task.DocumentID != 5 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one published task")
	}
	if len(documents.statusCalls) != 1 || documents.statusCalls[0].status != domain.StatusPending {
		t.Fatalf("expected pending reset, got %+v", documents.statusCalls)
	}
}
