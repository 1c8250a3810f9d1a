package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// GroupRepository persists tenant groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.Group, error)
	List(ctx context.Context, page domain.Page) ([]domain.Group, int, error)
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, key domain.Key) error
}

// UserRepository persists group members.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.User, error)
	ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, key domain.Key) error
}

// GroupContactRepository persists one flavor of group counterparty:
// customs agents and shipping services each get an instance bound to
// their own table.
type GroupContactRepository interface {
	Create(ctx context.Context, contact *domain.GroupContact) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.GroupContact, error)
	ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.GroupContact, int, error)
	Update(ctx context.Context, contact *domain.GroupContact) error
	Delete(ctx context.Context, key domain.Key) error
}

// GroupAddressRepository persists group pickup/delivery addresses.
type GroupAddressRepository interface {
	Create(ctx context.Context, addr *domain.GroupAddress) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.GroupAddress, error)
	ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.GroupAddress, int, error)
	Update(ctx context.Context, addr *domain.GroupAddress) error
	Delete(ctx context.Context, key domain.Key) error
}

// ProjectRepository persists projects and the project/thread binding.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.Project, error)
	List(ctx context.Context, page domain.Page) ([]domain.Project, int, error)
	ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.Project, int, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, key domain.Key) error

	// SetThreadID binds a thread to the project only while no thread
	// is bound yet. Returns domain.ErrConflict when a concurrent
	// binder won; callers re-read and use the stored thread.
	SetThreadID(ctx context.Context, projectID int64, threadID string) error
}

// InvoiceRepository persists invoices and translation results.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByKey(ctx context.Context, key domain.Key) (*domain.Invoice, error)
	ListByProject(ctx context.Context, projectID int64, page domain.Page) ([]domain.Invoice, int, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	Delete(ctx context.Context, key domain.Key) error
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error
	SaveTranslation(ctx context.Context, id int64, filePath, fileName, content string) error
	SaveInsights(ctx context.Context, id int64, insights json.RawMessage) error
}

// DocumentRepository persists the customs document family.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByKey(ctx context.Context, kind domain.DocumentKind, key domain.Key) (*domain.Document, error)
	ListByProject(ctx context.Context, kind domain.DocumentKind, projectID int64, page domain.Page) ([]domain.Document, int, error)
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, kind domain.DocumentKind, key domain.Key) error
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id int64, extracted json.RawMessage) error
	SaveInsights(ctx context.Context, id int64, insights json.RawMessage) error
	SetOpenAIFileID(ctx context.Context, id int64, fileID string) error
}

// ActivityRepository records best-effort audit entries.
type ActivityRepository interface {
	Record(ctx context.Context, entry *domain.ActivityEntry) error
	ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.ActivityEntry, int, error)
}

// ObjectStorage stores uploaded and rendered files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TaskQueue connects trigger endpoints to the worker.
type TaskQueue interface {
	PublishTask(ctx context.Context, task domain.Task) error
	SubscribeTasks(ctx context.Context, handler func(context.Context, domain.Task) error) error
}

// AssistantGateway drives the assistant-threads protocol for one
// configured assistant.
type AssistantGateway interface {
	CreateThread(ctx context.Context) (string, error)
	UploadFile(ctx context.Context, name string, data []byte) (string, error)
	RunToCompletion(ctx context.Context, threadID string, run domain.AssistantRun) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// FileFlattener turns a stored binary document into plain text the
// assistant can read.
type FileFlattener interface {
	Flatten(ctx context.Context, filename string, data io.Reader) (string, error)
}

// InvoiceParser reads structured invoice data out of an uploaded
// spreadsheet laid out in the standard invoice template.
type InvoiceParser interface {
	Parse(ctx context.Context, data io.Reader) (domain.InvoiceData, error)
}

// InvoiceRenderer fills the invoice template from translated data.
type InvoiceRenderer interface {
	Render(ctx context.Context, data domain.InvoiceData) ([]byte, error)
}

// Notifier announces finished analyses. Implementations are
// best-effort; errors are logged, never propagated.
type Notifier interface {
	AnalysisCompleted(ctx context.Context, doc *domain.Document) error
}
