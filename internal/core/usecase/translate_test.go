package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

const translatedReply = `{
	"merchant_exporter": "Aurum Sp. z o.o.",
	"invoice_number": "EXP-001",
	"items": [
		{"description": "Gold ring", "hsn_code": "7113", "uom": "PCS", "quantity": 10, "rate": 50, "amount": 500},
		{"description": "Silver chain", "hsn_code": "7113", "uom": "PCS", "quantity": 5, "rate": 100, "amount": 500}
	],
	"totals": {"fob_total": 950, "freight": 30, "insurance": 20, "total_cif_amount": 1000},
	"total_value_words": "cztery tysiące dwieście"
}`

func newTranslateFixture() (*TranslateInvoiceUseCase, *projectRepoFake, *invoiceRepoFake, *gatewayFake, *queueFake, *rendererFake, *storageFake) {
	project := &domain.Project{
		ID:             7,
		ThreadID:       "thread-7",
		SourceLanguage: "en",
		TargetLanguage: "pl",
		SourceCurrency: "USD",
		TargetCurrency: "PLN",
		ExchangeRate:   4.2,
	}
	invoice := &domain.Invoice{
		ID:               3,
		GUID:             "0f3b7f6e-aaaa-bbbb-cccc-000000000003",
		ProjectID:        7,
		OriginalFileName: "invoice.xlsx",
		OriginalContent:  `{"invoice_number":"EXP-001"}`,
		Status:           domain.StatusPending,
	}

	projects := &projectRepoFake{project: project}
	invoices := &invoiceRepoFake{invoice: invoice}
	gateway := &gatewayFake{runReplies: []string{translatedReply}}
	queue := &queueFake{}
	renderer := &rendererFake{}
	storage := &storageFake{}

	uc := NewTranslateInvoiceUseCase(projects, invoices, queue, gateway, renderer, storage)
	return uc, projects, invoices, gateway, queue, renderer, storage
}

func TestTranslateByIDSuccess(t *testing.T) {
	uc, _, invoices, gateway, _, renderer, storage := newTranslateFixture()

	if err := uc.TranslateByID(context.Background(), 3); err != nil {
		t.Fatalf("TranslateByID() error = %v", err)
	}

	if len(invoices.statusCalls) != 1 || invoices.statusCalls[0].status != domain.StatusProcessing {
		t.Fatalf("unexpected status calls: %+v", invoices.statusCalls)
	}
	if !invoices.translationSaved {
		t.Fatalf("expected translation to be saved")
	}

	var data domain.InvoiceData
	if err := json.Unmarshal([]byte(invoices.translation.content), &data); err != nil {
		t.Fatalf("translated content is not valid json: %v", err)
	}
	if data.TotalValue != 4200.00 {
		t.Fatalf("expected locally recomputed total_value 4200.00, got %v", data.TotalValue)
	}
	if data.ConversionRate != 4.2 {
		t.Fatalf("expected conversion_rate 4.2, got %v", data.ConversionRate)
	}
	if data.Items[0].ConvertedRate != 210.00 {
		t.Fatalf("expected converted item rate 210.00, got %v", data.Items[0].ConvertedRate)
	}

	if len(gateway.runCalls) != 1 {
		t.Fatalf("expected one run, got %d", len(gateway.runCalls))
	}
	if !gateway.runCalls[0].run.JSONResponse {
		t.Fatalf("first ladder rung must request json response format")
	}
	if len(renderer.rendered) != 1 {
		t.Fatalf("expected one render call, got %d", len(renderer.rendered))
	}
	if !strings.HasPrefix(invoices.translation.fileName, "trans_") {
		t.Fatalf("expected trans_ prefix, got %q", invoices.translation.fileName)
	}
	if _, ok := storage.saved[invoices.translation.filePath]; !ok {
		t.Fatalf("expected rendered file stored at %q", invoices.translation.filePath)
	}
}

func TestTranslateLadderFallsThroughToSecondStrategy(t *testing.T) {
	uc, _, invoices, gateway, _, _, _ := newTranslateFixture()
	gateway.runErrs = []error{errors.New("run failed")}
	gateway.runReplies = []string{"", translatedReply}

	if err := uc.TranslateByID(context.Background(), 3); err != nil {
		t.Fatalf("TranslateByID() error = %v", err)
	}

	if len(gateway.runCalls) != 2 {
		t.Fatalf("expected two runs, got %d", len(gateway.runCalls))
	}
	if !gateway.runCalls[0].run.JSONResponse || gateway.runCalls[1].run.JSONResponse {
		t.Fatalf("expected json format only on first rung: %+v", gateway.runCalls)
	}
	if !invoices.translationSaved {
		t.Fatalf("expected translation saved after fallback rung")
	}
}

func TestTranslateMarksFailedWhenLadderExhausted(t *testing.T) {
	uc, _, invoices, gateway, _, _, _ := newTranslateFixture()
	runErr := errors.New("run failed")
	gateway.runErrs = []error{runErr, runErr, runErr}

	err := uc.TranslateByID(context.Background(), 3)
	if err == nil {
		t.Fatalf("expected error after exhausted ladder")
	}
	if len(gateway.runCalls) != 3 {
		t.Fatalf("expected three ladder rungs, got %d", len(gateway.runCalls))
	}
	last := invoices.statusCalls[len(invoices.statusCalls)-1]
	if last.status != domain.StatusFailed || last.errMsg == "" {
		t.Fatalf("expected failed status with message, got %+v", last)
	}
	if !strings.Contains(string(invoices.savedInsights), domain.StageTranslationFailed) {
		t.Fatalf("expected stage-tagged failure insight, got %s", invoices.savedInsights)
	}
}

func TestRequestTranslationEnqueuesTask(t *testing.T) {
	uc, _, invoices, _, queue, _, _ := newTranslateFixture()

	task, err := uc.RequestTranslation(context.Background(), domain.KeyFromID(3))
	if err != nil {
		t.Fatalf("RequestTranslation() error = %v", err)
	}
	if task.Kind != domain.TaskTranslateInvoice || task.InvoiceID != 3 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one published task, got %d", len(queue.published))
	}
	if len(invoices.statusCalls) != 1 || invoices.statusCalls[0].status != domain.StatusPending {
		t.Fatalf("expected pending reset before enqueue, got %+v", invoices.statusCalls)
	}
}

func TestRequestTranslationRejectsProcessingInvoice(t *testing.T) {
	uc, _, invoices, _, queue, _, _ := newTranslateFixture()
	invoices.invoice.Status = domain.StatusProcessing

	_, err := uc.RequestTranslation(context.Background(), domain.KeyFromID(3))
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("RequestTranslation() error = %v, want conflict", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected no task for in-flight invoice, got %d", len(queue.published))
	}
}

func TestRequestTranslationReopensTerminalInvoice(t *testing.T) {
	uc, _, invoices, _, queue, _, _ := newTranslateFixture()
	invoices.invoice.Status = domain.StatusFailed

	if _, err := uc.RequestTranslation(context.Background(), domain.KeyFromID(3)); err != nil {
		t.Fatalf("RequestTranslation() error = %v", err)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one published task, got %d", len(queue.published))
	}
}

func TestExtractJSONHandlesFencedReply(t *testing.T) {
	raw, err := extractJSON("Here is the result:\n```json\n{\"a\": 1}\n```\nDone.")
	if err != nil {
		t.Fatalf("extractJSON() error = %v", err)
	}
	if raw != `{"a": 1}` {
		t.Fatalf("unexpected extraction: %q", raw)
	}

	if _, err := extractJSON("no json here"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-json reply, got %v", err)
	}
}
