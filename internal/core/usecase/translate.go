package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
)

// TranslateInvoiceUseCase drives invoice translation: the trigger
// half enqueues, the worker half climbs the prompt ladder against the
// project thread, recomputes converted totals locally and renders the
// translated spreadsheet.
type TranslateInvoiceUseCase struct {
	projects ports.ProjectRepository
	invoices ports.InvoiceRepository
	queue    ports.TaskQueue
	gateway  ports.AssistantGateway
	renderer ports.InvoiceRenderer
	storage  ports.ObjectStorage
	threads  *ProjectThreads
}

func NewTranslateInvoiceUseCase(
	projects ports.ProjectRepository,
	invoices ports.InvoiceRepository,
	queue ports.TaskQueue,
	gateway ports.AssistantGateway,
	renderer ports.InvoiceRenderer,
	storage ports.ObjectStorage,
) *TranslateInvoiceUseCase {
	return &TranslateInvoiceUseCase{
		projects: projects,
		invoices: invoices,
		queue:    queue,
		gateway:  gateway,
		renderer: renderer,
		storage:  storage,
		threads:  NewProjectThreads(projects, gateway),
	}
}

func (uc *TranslateInvoiceUseCase) RequestTranslation(ctx context.Context, invoiceKey domain.Key) (*domain.Task, error) {
	invoice, err := uc.invoices.GetByKey(ctx, invoiceKey)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice: %w", err)
	}
	if invoice.OriginalContent == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "request translation", errors.New("invoice has no extracted content"))
	}
	if invoice.Status != domain.StatusPending && !invoice.Status.CanTransition(domain.StatusPending) {
		return nil, domain.WrapError(domain.ErrConflict, "request translation",
			fmt.Errorf("invoice is %s", invoice.Status))
	}
	project, err := uc.projects.GetByKey(ctx, domain.KeyFromID(invoice.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	if _, err := uc.threads.Ensure(ctx, project); err != nil {
		return nil, err
	}

	if err := uc.invoices.UpdateStatus(ctx, invoice.ID, domain.StatusPending, ""); err != nil {
		return nil, fmt.Errorf("reset invoice status: %w", err)
	}

	task := domain.Task{
		ID:         uuid.NewString(),
		Kind:       domain.TaskTranslateInvoice,
		ProjectID:  project.ID,
		InvoiceID:  invoice.ID,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishTask(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue translation task: %w", err)
	}
	return &task, nil
}

func (uc *TranslateInvoiceUseCase) TranslateByID(ctx context.Context, invoiceID int64) error {
	invoice, err := uc.invoices.GetByKey(ctx, domain.KeyFromID(invoiceID))
	if err != nil {
		return fmt.Errorf("fetch invoice: %w", err)
	}
	project, err := uc.projects.GetByKey(ctx, domain.KeyFromID(invoice.ProjectID))
	if err != nil {
		return fmt.Errorf("fetch project: %w", err)
	}

	if err := uc.invoices.UpdateStatus(ctx, invoiceID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.translate(ctx, project, invoice); err != nil {
		return uc.fail(ctx, invoice, err)
	}
	return nil
}

func (uc *TranslateInvoiceUseCase) fail(ctx context.Context, invoice *domain.Invoice, cause error) error {
	stage := domain.StageTranslationFailed
	if domain.IsKind(cause, domain.ErrRunTimedOut) {
		stage = domain.StageRunTimedOut
	}
	insight := domain.FailureInsight{
		Stage:   stage,
		Message: cause.Error(),
		Metadata: map[string]any{
			"invoiceId": invoice.ID,
			"projectId": invoice.ProjectID,
		},
	}
	if err := uc.invoices.SaveInsights(ctx, invoice.ID, insight.JSON()); err != nil {
		slog.Error("failure_insight_persist_failed", "invoice_id", invoice.ID, "error", err)
	}
	if err := uc.invoices.UpdateStatus(ctx, invoice.ID, domain.StatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}
	return cause
}

func (uc *TranslateInvoiceUseCase) translate(ctx context.Context, project *domain.Project, invoice *domain.Invoice) error {
	threadID, err := uc.threads.Ensure(ctx, project)
	if err != nil {
		return err
	}

	reply, err := uc.runLadder(ctx, project, invoice, threadID)
	if err != nil {
		return err
	}

	data, err := parseInvoiceReply(reply)
	if err != nil {
		return err
	}
	data.ApplyExchangeRate(project.ExchangeRate)

	content, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal translated content: %w", err)
	}

	rendered, err := uc.renderer.Render(ctx, data)
	if err != nil {
		return fmt.Errorf("render translated invoice: %w", err)
	}

	fileName := "trans_" + sanitizeFilename(invoice.OriginalFileName)
	filePath := storageKey("invoices", invoice.GUID+"-t", fileName)
	if err := uc.storage.Save(ctx, filePath, bytes.NewReader(rendered)); err != nil {
		return fmt.Errorf("save translated file: %w", err)
	}

	if err := uc.invoices.SaveTranslation(ctx, invoice.ID, filePath, fileName, string(content)); err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}

// runLadder tries each strategy in order and stops at the first
// completed run. A non-final rung failing is logged, not fatal.
func (uc *TranslateInvoiceUseCase) runLadder(ctx context.Context, project *domain.Project, invoice *domain.Invoice, threadID string) (string, error) {
	ladder := translationLadder()
	var lastErr error
	for i, strategy := range ladder {
		reply, err := uc.gateway.RunToCompletion(ctx, threadID, domain.AssistantRun{
			Instructions: strategy.instructions(project),
			Message:      invoice.OriginalContent,
			JSONResponse: strategy.jsonResponse,
			Temperature:  0,
		})
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		slog.Warn("translation_strategy_failed",
			"invoice_id", invoice.ID,
			"strategy", strategy.name,
			"rung", i+1,
			"error", err,
		)
	}
	return "", fmt.Errorf("all translation strategies exhausted: %w", lastErr)
}

func parseInvoiceReply(reply string) (domain.InvoiceData, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return domain.InvoiceData{}, err
	}
	var data domain.InvoiceData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.InvoiceData{}, domain.WrapError(domain.ErrInvalidInput, "parse translated invoice", err)
	}
	return data, nil
}
