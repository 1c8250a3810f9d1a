package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type fakeGroups struct {
	groups map[int64]*domain.Group
}

func (f *fakeGroups) Create(_ context.Context, g *domain.Group) error {
	g.ID = int64(len(f.groups) + 1)
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroups) GetByKey(_ context.Context, key domain.Key) (*domain.Group, error) {
	for _, g := range f.groups {
		if g.ID == key.ID || g.GUID == key.GUID {
			return g, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get group", errors.New(key.String()))
}

func (f *fakeGroups) List(_ context.Context, _ domain.Page) ([]domain.Group, int, error) {
	out := make([]domain.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (f *fakeGroups) Update(_ context.Context, g *domain.Group) error {
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroups) Delete(_ context.Context, key domain.Key) error {
	delete(f.groups, key.ID)
	return nil
}

type fakeProjects struct {
	project *domain.Project
}

func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error {
	p.ID = 7
	f.project = p
	return nil
}

func (f *fakeProjects) GetByKey(_ context.Context, key domain.Key) (*domain.Project, error) {
	if f.project != nil && (key.ID == f.project.ID || key.GUID == f.project.GUID) {
		return f.project, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get project", errors.New(key.String()))
}

func (f *fakeProjects) List(_ context.Context, _ domain.Page) ([]domain.Project, int, error) {
	if f.project == nil {
		return nil, 0, nil
	}
	return []domain.Project{*f.project}, 1, nil
}

func (f *fakeProjects) ListByGroup(_ context.Context, _ int64, _ domain.Page) ([]domain.Project, int, error) {
	return f.List(context.Background(), domain.Page{})
}

func (f *fakeProjects) Update(_ context.Context, p *domain.Project) error {
	f.project = p
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, _ domain.Key) error {
	f.project = nil
	return nil
}

func (f *fakeProjects) SetThreadID(_ context.Context, _ int64, threadID string) error {
	f.project.ThreadID = threadID
	return nil
}

type fakeInvoices struct {
	invoice *domain.Invoice
}

func (f *fakeInvoices) Create(_ context.Context, inv *domain.Invoice) error {
	inv.ID = 3
	f.invoice = inv
	return nil
}

func (f *fakeInvoices) GetByKey(_ context.Context, key domain.Key) (*domain.Invoice, error) {
	if f.invoice != nil && (key.ID == f.invoice.ID || key.GUID == f.invoice.GUID) {
		return f.invoice, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get invoice", errors.New(key.String()))
}

func (f *fakeInvoices) ListByProject(_ context.Context, _ int64, _ domain.Page) ([]domain.Invoice, int, error) {
	if f.invoice == nil {
		return nil, 0, nil
	}
	return []domain.Invoice{*f.invoice}, 1, nil
}

func (f *fakeInvoices) Update(_ context.Context, inv *domain.Invoice) error {
	f.invoice = inv
	return nil
}

func (f *fakeInvoices) Delete(_ context.Context, _ domain.Key) error {
	f.invoice = nil
	return nil
}

func (f *fakeInvoices) UpdateStatus(_ context.Context, _ int64, status domain.DocumentStatus, msg string) error {
	f.invoice.Status = status
	f.invoice.ErrorMessage = msg
	return nil
}

func (f *fakeInvoices) SaveInsights(_ context.Context, _ int64, insights json.RawMessage) error {
	f.invoice.Insights = insights
	return nil
}

func (f *fakeInvoices) SaveTranslation(_ context.Context, _ int64, filePath, fileName, content string) error {
	f.invoice.TranslatedFilePath = filePath
	f.invoice.TranslatedFileName = fileName
	f.invoice.TranslatedContent = content
	return nil
}

type fakeDocuments struct {
	doc *domain.Document
}

func (f *fakeDocuments) Create(_ context.Context, d *domain.Document) error {
	d.ID = 5
	f.doc = d
	return nil
}

func (f *fakeDocuments) GetByKey(_ context.Context, kind domain.DocumentKind, key domain.Key) (*domain.Document, error) {
	if f.doc != nil && (key.ID == f.doc.ID || key.GUID == f.doc.GUID) && (kind == "" || kind == f.doc.Kind) {
		return f.doc, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New(key.String()))
}

func (f *fakeDocuments) ListByProject(_ context.Context, _ domain.DocumentKind, _ int64, _ domain.Page) ([]domain.Document, int, error) {
	if f.doc == nil {
		return nil, 0, nil
	}
	return []domain.Document{*f.doc}, 1, nil
}

func (f *fakeDocuments) Update(_ context.Context, d *domain.Document) error {
	f.doc = d
	return nil
}

func (f *fakeDocuments) Delete(_ context.Context, _ domain.DocumentKind, _ domain.Key) error {
	f.doc = nil
	return nil
}

func (f *fakeDocuments) UpdateStatus(_ context.Context, _ int64, status domain.DocumentStatus, msg string) error {
	f.doc.Status = status
	f.doc.ErrorMessage = msg
	return nil
}

func (f *fakeDocuments) SaveExtraction(_ context.Context, _ int64, extracted json.RawMessage) error {
	f.doc.Extracted = extracted
	return nil
}

func (f *fakeDocuments) SaveInsights(_ context.Context, _ int64, insights json.RawMessage) error {
	f.doc.Insights = insights
	return nil
}

func (f *fakeDocuments) SetOpenAIFileID(_ context.Context, _ int64, fileID string) error {
	f.doc.OpenAIFileID = fileID
	return nil
}

type fakeActivity struct {
	entries []domain.ActivityEntry
}

func (f *fakeActivity) Record(_ context.Context, e *domain.ActivityEntry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeActivity) ListByGroup(_ context.Context, _ int64, _ domain.Page) ([]domain.ActivityEntry, int, error) {
	return f.entries, len(f.entries), nil
}

type fakeStorage struct {
	files map[string][]byte
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, _ := io.ReadAll(data)
	f.files[key] = raw
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open stored file", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeIngest struct{}

func (fakeIngest) UploadInvoice(_ context.Context, _ domain.Key, filename string, _ io.Reader) (*domain.Invoice, error) {
	return &domain.Invoice{ID: 3, ProjectID: 7, OriginalFileName: filename, Status: domain.StatusPending}, nil
}

func (fakeIngest) UploadDocument(_ context.Context, _ domain.Key, kind domain.DocumentKind, filename string, _ io.Reader) (*domain.Document, error) {
	return &domain.Document{ID: 5, ProjectID: 7, Kind: kind, FileName: filename, Status: domain.StatusPending}, nil
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) RequestTranslation(_ context.Context, key domain.Key) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Task{ID: "task-1", Kind: domain.TaskTranslateInvoice, ProjectID: 7, InvoiceID: key.ID}, nil
}

func (f *fakeTranslator) TranslateByID(_ context.Context, _ int64) error { return nil }

type fakeAnalyzer struct {
	err error
}

func (f *fakeAnalyzer) RequestAnalysis(_ context.Context, _ domain.DocumentKind, key domain.Key) (*domain.Task, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return &domain.Task{ID: "task-2", Kind: domain.TaskAnalyzeDocument, ProjectID: 7, DocumentID: key.ID}, "thread-7", nil
}

func (f *fakeAnalyzer) AnalyzeByID(_ context.Context, _ int64) error { return nil }

type fakeGateway struct{}

func (fakeGateway) CreateThread(_ context.Context) (string, error) { return "thread-7", nil }

func (fakeGateway) UploadFile(_ context.Context, _ string, _ []byte) (string, error) {
	return "file-1", nil
}

func (fakeGateway) RunToCompletion(_ context.Context, _ string, _ domain.AssistantRun) (string, error) {
	return "{}", nil
}

func (fakeGateway) DeleteFile(_ context.Context, _ string) error { return nil }

func newTestDeps() Dependencies {
	projects := &fakeProjects{project: &domain.Project{
		ID:           7,
		GUID:         "3f1c2a54-9a1e-4a42-b6d4-0c5f0e1de111",
		GroupID:      1,
		Title:        "Stockholm shipment",
		Status:       domain.ProjectActive,
		ThreadID:     "thread-7",
		ExchangeRate: 4.2,
	}}
	return Dependencies{
		Groups:           &fakeGroups{groups: map[int64]*domain.Group{1: {ID: 1, GUID: "g-1", Name: "Aurum Line"}}},
		Users:            nil,
		Projects:         projects,
		Invoices:         &fakeInvoices{invoice: &domain.Invoice{ID: 3, GUID: "inv-guid", ProjectID: 7, Status: domain.StatusPending}},
		Documents:        &fakeDocuments{doc: &domain.Document{ID: 5, GUID: "doc-guid", ProjectID: 7, Kind: domain.KindCourierReceipt, Status: domain.StatusPending}},
		CustomAgents:     newFakeContacts(),
		ShippingServices: newFakeContacts(),
		Addresses:        newFakeAddresses(),
		Activity:         &fakeActivity{},
		Storage:          &fakeStorage{files: map[string][]byte{}},
		Gateway:          fakeGateway{},
		InvoiceIngest:    fakeIngest{},
		DocumentIngest:   fakeIngest{},
		Translator:       &fakeTranslator{},
		Analyzer:         &fakeAnalyzer{},
	}
}

func newTestHandler(opts Options) http.Handler {
	return NewRouter(opts, newTestDeps()).Handler()
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestGetProjectByGUID(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/3f1c2a54-9a1e-4a42-b6d4-0c5f0e1de111", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	env := decodeEnvelope(t, res)
	if !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}
	data, _ := env.Data.(map[string]any)
	if data["threadId"] != "thread-7" {
		t.Fatalf("threadId = %v", data["threadId"])
	}
}

func TestGetMissingProjectReturns404(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/999", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
	if env := decodeEnvelope(t, res); env.Success {
		t.Fatalf("expected failure envelope")
	}
}

func TestAnalyzeTriggerReturnsProcessing(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/courier-receipt/5/analyze", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	env := decodeEnvelope(t, res)
	data, _ := env.Data.(map[string]any)
	if data["status"] != "processing" || data["threadId"] != "thread-7" {
		t.Fatalf("unexpected trigger payload %v", data)
	}
}

func TestAnalyzeTriggerRejectsUnknownKind(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parcel-photo/5/analyze", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestCreateGroupRequiresName(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", strings.NewReader(`{"description":"no name"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestUploadInvoiceAcceptsMultipart(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "invoice.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("workbook-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/invoices", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	env := decodeEnvelope(t, res)
	data, _ := env.Data.(map[string]any)
	if data["originalFileName"] != "invoice.xlsx" {
		t.Fatalf("unexpected upload payload %v", data)
	}
}

func TestUploadInvoiceActivityLandsUnderOwningGroup(t *testing.T) {
	deps := newTestDeps()
	activity := deps.Activity.(*fakeActivity)
	handler := NewRouter(Options{Service: "api"}, deps).Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "invoice.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("workbook-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/7/invoices", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if len(activity.entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(activity.entries))
	}
	entry := activity.entries[0]
	if entry.GroupID != 1 || entry.Entity != "invoice" || entry.Action != "uploaded" {
		t.Fatalf("unexpected activity entry %+v", entry)
	}
}

func TestAnalyzeTriggerActivityLandsUnderOwningGroup(t *testing.T) {
	deps := newTestDeps()
	activity := deps.Activity.(*fakeActivity)
	handler := NewRouter(Options{Service: "api"}, deps).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/courier-receipt/5/analyze", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if len(activity.entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(activity.entries))
	}
	if got := activity.entries[0].GroupID; got != 1 {
		t.Fatalf("activity group = %d, want 1", got)
	}
}

func TestDownloadTranslatedInvoiceStreamsFile(t *testing.T) {
	storage := &fakeStorage{files: map[string][]byte{
		"media/invoices/ab/trans_invoice.xlsx": []byte("rendered"),
	}}
	invoices := &fakeInvoices{invoice: &domain.Invoice{
		ID:                 3,
		Status:             domain.StatusCompleted,
		TranslatedFilePath: "media/invoices/ab/trans_invoice.xlsx",
		TranslatedFileName: "trans_invoice.xlsx",
	}}
	rt := NewRouter(Options{Service: "api"}, Dependencies{
		Invoices: invoices,
		Storage:  storage,
	})
	handler := rt.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/3/translated", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if res.Body.String() != "rendered" {
		t.Fatalf("body = %q", res.Body.String())
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "trans_invoice.xlsx") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestTranslateTriggerMapsInvalidInput(t *testing.T) {
	rt := NewRouter(Options{Service: "api"}, Dependencies{
		Translator: &fakeTranslator{err: domain.WrapError(domain.ErrInvalidInput, "request translation", errors.New("no content"))},
	})
	handler := rt.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/3/translate", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestEnvelopeTimestampPresent(t *testing.T) {
	handler := newTestHandler(Options{Service: "api"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/7", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	env := decodeEnvelope(t, res)
	if env.Timestamp.IsZero() || time.Since(env.Timestamp) > time.Minute {
		t.Fatalf("timestamp = %v", env.Timestamp)
	}
}
