package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
)

// AnalyzeDocumentUseCase runs the two-phase analysis: extraction
// against the uploaded file, then validation of the extraction
// against the project invoices on the same thread. Extraction output
// is persisted before validation starts, so a validation failure
// never loses phase-1 progress.
type AnalyzeDocumentUseCase struct {
	projects  ports.ProjectRepository
	invoices  ports.InvoiceRepository
	documents ports.DocumentRepository
	queue     ports.TaskQueue
	gateway   ports.AssistantGateway
	storage   ports.ObjectStorage
	flattener ports.FileFlattener
	notifier  ports.Notifier
	threads   *ProjectThreads

	observePhase func(phase string, d time.Duration)
}

// SetPhaseObserver installs an optional callback that receives the
// duration of each assistant phase. The worker wires it to metrics.
func (uc *AnalyzeDocumentUseCase) SetPhaseObserver(fn func(phase string, d time.Duration)) {
	uc.observePhase = fn
}

func (uc *AnalyzeDocumentUseCase) timePhase(phase string, start time.Time) {
	if uc.observePhase != nil {
		uc.observePhase(phase, time.Since(start))
	}
}

func NewAnalyzeDocumentUseCase(
	projects ports.ProjectRepository,
	invoices ports.InvoiceRepository,
	documents ports.DocumentRepository,
	queue ports.TaskQueue,
	gateway ports.AssistantGateway,
	storage ports.ObjectStorage,
	flattener ports.FileFlattener,
	notifier ports.Notifier,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		projects:  projects,
		invoices:  invoices,
		documents: documents,
		queue:     queue,
		gateway:   gateway,
		storage:   storage,
		flattener: flattener,
		notifier:  notifier,
		threads:   NewProjectThreads(projects, gateway),
	}
}

func (uc *AnalyzeDocumentUseCase) RequestAnalysis(ctx context.Context, kind domain.DocumentKind, documentKey domain.Key) (*domain.Task, string, error) {
	doc, err := uc.documents.GetByKey(ctx, kind, documentKey)
	if err != nil {
		return nil, "", fmt.Errorf("fetch document: %w", err)
	}
	if doc.FilePath == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "request analysis", errors.New("document has no uploaded file"))
	}
	if doc.Status != domain.StatusPending && !doc.Status.CanTransition(domain.StatusPending) {
		return nil, "", domain.WrapError(domain.ErrConflict, "request analysis",
			fmt.Errorf("document is %s", doc.Status))
	}

	project, err := uc.projects.GetByKey(ctx, domain.KeyFromID(doc.ProjectID))
	if err != nil {
		return nil, "", fmt.Errorf("fetch project: %w", err)
	}

	_, total, err := uc.invoices.ListByProject(ctx, project.ID, domain.Page{Number: 1, Size: 1})
	if err != nil {
		return nil, "", fmt.Errorf("count project invoices: %w", err)
	}
	if total == 0 {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "request analysis", errors.New("project has no invoices to validate against"))
	}

	threadID, err := uc.threads.Ensure(ctx, project)
	if err != nil {
		return nil, "", err
	}

	if err := uc.documents.UpdateStatus(ctx, doc.ID, domain.StatusPending, ""); err != nil {
		return nil, "", fmt.Errorf("reset document status: %w", err)
	}

	task := domain.Task{
		ID:         uuid.NewString(),
		Kind:       domain.TaskAnalyzeDocument,
		ProjectID:  project.ID,
		DocumentID: doc.ID,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishTask(ctx, task); err != nil {
		return nil, "", fmt.Errorf("enqueue analysis task: %w", err)
	}
	return &task, threadID, nil
}

func (uc *AnalyzeDocumentUseCase) AnalyzeByID(ctx context.Context, documentID int64) error {
	doc, err := uc.documents.GetByKey(ctx, "", domain.KeyFromID(documentID))
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	project, err := uc.projects.GetByKey(ctx, domain.KeyFromID(doc.ProjectID))
	if err != nil {
		return fmt.Errorf("fetch project: %w", err)
	}

	if err := uc.documents.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	threadID, err := uc.threads.Ensure(ctx, project)
	if err != nil {
		return uc.fail(ctx, doc, domain.ExtractionFailedStage(doc.Kind), err)
	}

	extractStart := time.Now()
	extracted, err := uc.extract(ctx, doc, threadID)
	uc.timePhase("extraction", extractStart)
	if err != nil {
		return uc.fail(ctx, doc, failureStage(domain.ExtractionFailedStage(doc.Kind), err), err)
	}
	if err := uc.documents.SaveExtraction(ctx, doc.ID, extracted); err != nil {
		return uc.fail(ctx, doc, domain.ExtractionFailedStage(doc.Kind), fmt.Errorf("persist extraction: %w", err))
	}

	validateStart := time.Now()
	insights, err := uc.validate(ctx, doc, project, threadID, extracted)
	uc.timePhase("validation", validateStart)
	if err != nil {
		return uc.fail(ctx, doc, failureStage(domain.AnalysisFailedStage(doc.Kind), err), err)
	}
	if err := uc.documents.SaveInsights(ctx, doc.ID, insights); err != nil {
		return uc.fail(ctx, doc, domain.AnalysisFailedStage(doc.Kind), fmt.Errorf("persist insights: %w", err))
	}

	if err := uc.documents.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}

	if uc.notifier != nil {
		if err := uc.notifier.AnalysisCompleted(ctx, doc); err != nil {
			slog.Warn("analysis_notification_failed", "document_id", doc.ID, "error", err)
		}
	}
	return nil
}

func (uc *AnalyzeDocumentUseCase) extract(ctx context.Context, doc *domain.Document, threadID string) (json.RawMessage, error) {
	fileID := doc.OpenAIFileID
	if fileID == "" {
		content, err := uc.documentText(ctx, doc)
		if err != nil {
			return nil, err
		}
		fileID, err = uc.gateway.UploadFile(ctx, sanitizeFilename(doc.FileName)+".txt", []byte(content))
		if err != nil {
			return nil, fmt.Errorf("upload document to assistant: %w", err)
		}
		if err := uc.documents.SetOpenAIFileID(ctx, doc.ID, fileID); err != nil {
			return nil, fmt.Errorf("persist assistant file id: %w", err)
		}
		doc.OpenAIFileID = fileID
	}

	reply, err := uc.gateway.RunToCompletion(ctx, threadID, domain.AssistantRun{
		Instructions:      buildExtractionPrompt(doc.Kind),
		Message:           fmt.Sprintf("Extract the data from the attached %s file.", doc.FileName),
		AttachmentFileIDs: []string{fileID},
		JSONResponse:      true,
		Temperature:       0,
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (uc *AnalyzeDocumentUseCase) validate(ctx context.Context, doc *domain.Document, project *domain.Project, threadID string, extracted json.RawMessage) (json.RawMessage, error) {
	invoices, _, err := uc.invoices.ListByProject(ctx, project.ID, domain.Page{Number: 1, Size: 200})
	if err != nil {
		return nil, fmt.Errorf("list project invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate document", errors.New("project has no invoices"))
	}

	reply, err := uc.gateway.RunToCompletion(ctx, threadID, domain.AssistantRun{
		Instructions: buildValidationPrompt(doc.Kind, string(extracted), invoices),
		Message:      "Validate the extracted document against the project invoices.",
		JSONResponse: true,
		Temperature:  0,
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// documentText prefers the flattened content captured at upload and
// falls back to re-flattening the stored binary.
func (uc *AnalyzeDocumentUseCase) documentText(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.FileContent != "" {
		return doc.FileContent, nil
	}
	f, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, f)
		_ = f.Close()
	}()
	text, err := uc.flattener.Flatten(ctx, doc.FileName, f)
	if err != nil {
		return "", fmt.Errorf("flatten stored document: %w", err)
	}
	return text, nil
}

func (uc *AnalyzeDocumentUseCase) fail(ctx context.Context, doc *domain.Document, stage string, cause error) error {
	insight := domain.FailureInsight{
		Stage:   stage,
		Message: cause.Error(),
		Metadata: map[string]any{
			"documentId": doc.ID,
			"kind":       string(doc.Kind),
		},
	}
	if err := uc.documents.SaveInsights(ctx, doc.ID, insight.JSON()); err != nil {
		slog.Error("failure_insight_persist_failed", "document_id", doc.ID, "error", err)
	}
	if err := uc.documents.UpdateStatus(ctx, doc.ID, domain.StatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}
	return cause
}

func failureStage(phaseStage string, err error) string {
	if domain.IsKind(err, domain.ErrRunTimedOut) {
		return domain.StageRunTimedOut
	}
	return phaseStage
}
