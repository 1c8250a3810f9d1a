package bootstrap

import (
	"context"
	"fmt"

	"github.com/aurumline/exportdesk/internal/config"
	"github.com/aurumline/exportdesk/internal/core/ports"
	"github.com/aurumline/exportdesk/internal/core/usecase"
	"github.com/aurumline/exportdesk/internal/infrastructure/assistant/openai"
	"github.com/aurumline/exportdesk/internal/infrastructure/flatten"
	"github.com/aurumline/exportdesk/internal/infrastructure/notify"
	"github.com/aurumline/exportdesk/internal/infrastructure/queue/nats"
	"github.com/aurumline/exportdesk/internal/infrastructure/render/exceltmpl"
	"github.com/aurumline/exportdesk/internal/infrastructure/repository/postgres"
	"github.com/aurumline/exportdesk/internal/infrastructure/resilience"
	"github.com/aurumline/exportdesk/internal/infrastructure/storage/localfs"
)

const (
	invoiceAssistantName = "exportdesk-invoice-translator"
	invoiceAssistantInstructions = "You translate jewelry export invoices. " +
		"You receive invoice data as JSON and return the same JSON structure " +
		"with text fields translated to the requested language. Respond with JSON only."

	documentAssistantName = "exportdesk-document-analyst"
	documentAssistantInstructions = "You analyze customs and courier documents for jewelry export shipments. " +
		"You extract structured fields from flattened document text and validate them " +
		"against the project's invoices. Respond with JSON only."
)

type App struct {
	Config config.Config

	Groups           ports.GroupRepository
	Users            ports.UserRepository
	Projects         ports.ProjectRepository
	Invoices         ports.InvoiceRepository
	Documents        ports.DocumentRepository
	CustomAgents     ports.GroupContactRepository
	ShippingServices ports.GroupContactRepository
	Addresses        ports.GroupAddressRepository
	Activity         ports.ActivityRepository

	Storage ports.ObjectStorage
	Queue   ports.TaskQueue

	InvoiceGateway  ports.AssistantGateway
	DocumentGateway ports.AssistantGateway

	Ingest     *usecase.IngestUseCase
	Translator *usecase.TranslateInvoiceUseCase
	Analyzer   *usecase.AnalyzeDocumentUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	groups := postgres.NewGroupRepository(db)
	users := postgres.NewUserRepository(db)
	projects := postgres.NewProjectRepository(db)
	invoices := postgres.NewInvoiceRepository(db)
	documents := postgres.NewDocumentRepository(db)
	customAgents := postgres.NewCustomAgentRepository(db)
	shippingServices := postgres.NewShippingServiceRepository(db)
	addresses := postgres.NewGroupAddressRepository(db)
	activity := postgres.NewActivityRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init task queue: %w", err)
	}

	invoiceGateway := openai.New(openai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		AssistantID:     cfg.InvoiceAssistantID,
		Model:           cfg.AssistantModel,
		PollInterval:    cfg.RunPollInterval,
		PollMaxAttempts: cfg.RunPollMaxAttempts,
		MaxUploadBytes:  cfg.UploadMaxBytes,
	}, executor)
	if _, err := invoiceGateway.EnsureAssistant(ctx, invoiceAssistantName, invoiceAssistantInstructions); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ensure invoice assistant: %w", err)
	}

	documentGateway := openai.New(openai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		AssistantID:     cfg.DocumentAssistantID,
		Model:           cfg.AssistantModel,
		PollInterval:    cfg.RunPollInterval,
		PollMaxAttempts: cfg.RunPollMaxAttempts,
		MaxUploadBytes:  cfg.UploadMaxBytes,
	}, executor)
	if _, err := documentGateway.EnsureAssistant(ctx, documentAssistantName, documentAssistantInstructions); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ensure document assistant: %w", err)
	}

	flattener := flatten.New()
	parser := exceltmpl.NewParser()
	renderer := exceltmpl.NewRenderer()
	notifier := notify.NewLogNotifier(nil)

	ingest := usecase.NewIngestUseCase(projects, invoices, documents, storage, flattener, parser)
	translator := usecase.NewTranslateInvoiceUseCase(projects, invoices, queue, invoiceGateway, renderer, storage)
	analyzer := usecase.NewAnalyzeDocumentUseCase(projects, invoices, documents, queue, documentGateway, storage, flattener, notifier)

	return &App{
		Config: cfg,

		Groups:           groups,
		Users:            users,
		Projects:         projects,
		Invoices:         invoices,
		Documents:        documents,
		CustomAgents:     customAgents,
		ShippingServices: shippingServices,
		Addresses:        addresses,
		Activity:         activity,

		Storage: storage,
		Queue:   queue,

		InvoiceGateway:  invoiceGateway,
		DocumentGateway: documentGateway,

		Ingest:     ingest,
		Translator: translator,
		Analyzer:   analyzer,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
