package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
	"github.com/aurumline/exportdesk/internal/observability/metrics"
)

// Options carries the router's runtime knobs.
type Options struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueTimeout   time.Duration
	Metrics        *metrics.HTTPServerMetrics
}

// Router exposes the back-office HTTP API: CRUD per entity plus the
// upload and workflow trigger endpoints.
type Router struct {
	opts Options

	groups           ports.GroupRepository
	users            ports.UserRepository
	projects         ports.ProjectRepository
	invoices         ports.InvoiceRepository
	documents        ports.DocumentRepository
	customAgents     ports.GroupContactRepository
	shippingServices ports.GroupContactRepository
	addresses        ports.GroupAddressRepository
	activity         ports.ActivityRepository
	storage          ports.ObjectStorage
	gateway          ports.AssistantGateway

	invoiceIngest  ports.InvoiceIngestor
	documentIngest ports.DocumentIngestor
	translator     ports.TranslationService
	analyzer       ports.AnalysisService
}

type Dependencies struct {
	Groups           ports.GroupRepository
	Users            ports.UserRepository
	Projects         ports.ProjectRepository
	Invoices         ports.InvoiceRepository
	Documents        ports.DocumentRepository
	CustomAgents     ports.GroupContactRepository
	ShippingServices ports.GroupContactRepository
	Addresses        ports.GroupAddressRepository
	Activity         ports.ActivityRepository
	Storage          ports.ObjectStorage
	Gateway          ports.AssistantGateway

	InvoiceIngest  ports.InvoiceIngestor
	DocumentIngest ports.DocumentIngestor
	Translator     ports.TranslationService
	Analyzer       ports.AnalysisService
}

func NewRouter(opts Options, deps Dependencies) *Router {
	return &Router{
		opts:             opts,
		groups:           deps.Groups,
		users:            deps.Users,
		projects:         deps.Projects,
		invoices:         deps.Invoices,
		documents:        deps.Documents,
		customAgents:     deps.CustomAgents,
		shippingServices: deps.ShippingServices,
		addresses:        deps.Addresses,
		activity:         deps.Activity,
		storage:          deps.Storage,
		gateway:          deps.Gateway,
		invoiceIngest:    deps.InvoiceIngest,
		documentIngest:   deps.DocumentIngest,
		translator:       deps.Translator,
		analyzer:         deps.Analyzer,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	mux.HandleFunc("POST /api/v1/groups", rt.createGroup)
	mux.HandleFunc("GET /api/v1/groups", rt.listGroups)
	mux.HandleFunc("GET /api/v1/groups/{key}", rt.getGroup)
	mux.HandleFunc("PUT /api/v1/groups/{key}", rt.updateGroup)
	mux.HandleFunc("DELETE /api/v1/groups/{key}", rt.deleteGroup)
	mux.HandleFunc("GET /api/v1/groups/{key}/users", rt.listGroupUsers)
	mux.HandleFunc("GET /api/v1/groups/{key}/projects", rt.listGroupProjects)
	mux.HandleFunc("GET /api/v1/groups/{key}/activity", rt.listGroupActivity)
	mux.HandleFunc("GET /api/v1/groups/{key}/custom-agents", rt.listGroupCustomAgents)
	mux.HandleFunc("GET /api/v1/groups/{key}/shipping-services", rt.listGroupShippingServices)
	mux.HandleFunc("GET /api/v1/groups/{key}/addresses", rt.listGroupAddresses)

	mux.HandleFunc("POST /api/v1/users", rt.createUser)
	mux.HandleFunc("GET /api/v1/users/{key}", rt.getUser)
	mux.HandleFunc("PUT /api/v1/users/{key}", rt.updateUser)
	mux.HandleFunc("DELETE /api/v1/users/{key}", rt.deleteUser)

	mux.HandleFunc("POST /api/v1/custom-agents", rt.createCustomAgent)
	mux.HandleFunc("GET /api/v1/custom-agents/{key}", rt.getCustomAgent)
	mux.HandleFunc("PUT /api/v1/custom-agents/{key}", rt.updateCustomAgent)
	mux.HandleFunc("DELETE /api/v1/custom-agents/{key}", rt.deleteCustomAgent)

	mux.HandleFunc("POST /api/v1/shipping-services", rt.createShippingService)
	mux.HandleFunc("GET /api/v1/shipping-services/{key}", rt.getShippingService)
	mux.HandleFunc("PUT /api/v1/shipping-services/{key}", rt.updateShippingService)
	mux.HandleFunc("DELETE /api/v1/shipping-services/{key}", rt.deleteShippingService)

	mux.HandleFunc("POST /api/v1/group-addresses", rt.createGroupAddress)
	mux.HandleFunc("GET /api/v1/group-addresses/{key}", rt.getGroupAddress)
	mux.HandleFunc("PUT /api/v1/group-addresses/{key}", rt.updateGroupAddress)
	mux.HandleFunc("DELETE /api/v1/group-addresses/{key}", rt.deleteGroupAddress)

	mux.HandleFunc("POST /api/v1/projects", rt.createProject)
	mux.HandleFunc("GET /api/v1/projects", rt.listProjects)
	mux.HandleFunc("GET /api/v1/projects/{key}", rt.getProject)
	mux.HandleFunc("PUT /api/v1/projects/{key}", rt.updateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{key}", rt.deleteProject)

	mux.HandleFunc("POST /api/v1/projects/{key}/invoices", rt.uploadInvoice)
	mux.HandleFunc("GET /api/v1/projects/{key}/invoices", rt.listProjectInvoices)
	mux.HandleFunc("GET /api/v1/invoices/{key}", rt.getInvoice)
	mux.HandleFunc("DELETE /api/v1/invoices/{key}", rt.deleteInvoice)
	mux.HandleFunc("POST /api/v1/invoices/{key}/translate", rt.translateInvoice)
	mux.HandleFunc("GET /api/v1/invoices/{key}/translated", rt.downloadTranslatedInvoice)

	mux.HandleFunc("POST /api/v1/projects/{key}/documents/{kind}", rt.uploadDocument)
	mux.HandleFunc("GET /api/v1/projects/{key}/documents/{kind}", rt.listProjectDocuments)
	mux.HandleFunc("GET /api/v1/documents/{kind}/{key}", rt.getDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{kind}/{key}", rt.deleteDocument)
	mux.HandleFunc("POST /api/v1/documents/{kind}/{key}/analyze", rt.analyzeDocument)
	mux.HandleFunc("GET /api/v1/documents/{kind}/{key}/insights", rt.getDocumentInsights)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.QueueTimeout)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordActivity is best-effort: failures are logged and swallowed so
// audit writes never abort the primary operation.
func (rt *Router) recordActivity(r *http.Request, groupID int64, entity string, entityID int64, action string) {
	if rt.activity == nil {
		return
	}
	entry := domain.ActivityEntry{
		GroupID:   groupID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.activity.Record(r.Context(), &entry); err != nil {
		slog.Warn("activity_record_failed",
			"request_id", requestIDFromContext(r.Context()),
			"entity", entity,
			"action", action,
			"error", err,
		)
	}
}

// groupIDForProject resolves the group owning a project so invoice and
// document activity lands under the group's audit feed. Best-effort
// like recordActivity: a failed lookup yields 0 and only loses the
// audit entry, never the operation.
func (rt *Router) groupIDForProject(r *http.Request, projectID int64) int64 {
	if rt.projects == nil || projectID <= 0 {
		return 0
	}
	project, err := rt.projects.GetByKey(r.Context(), domain.KeyFromID(projectID))
	if err != nil {
		slog.Warn("activity_group_lookup_failed",
			"request_id", requestIDFromContext(r.Context()),
			"project_id", projectID,
			"error", err,
		)
		return 0
	}
	return project.GroupID
}

func (rt *Router) recordUploadMetric(entity string) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(rt.opts.Service, entity)
	}
}

func (rt *Router) recordTriggerMetric(kind domain.TaskKind) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordTrigger(rt.opts.Service, string(kind))
	}
}
