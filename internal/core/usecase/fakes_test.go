package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type projectRepoFake struct {
	project       *domain.Project
	getErr        error
	setThreadErr  error
	setThreadArgs []string
}

func (f *projectRepoFake) Create(context.Context, *domain.Project) error { return nil }

func (f *projectRepoFake) GetByKey(context.Context, domain.Key) (*domain.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyProject := *f.project
	return &copyProject, nil
}

func (f *projectRepoFake) List(context.Context, domain.Page) ([]domain.Project, int, error) {
	return nil, 0, nil
}

func (f *projectRepoFake) ListByGroup(context.Context, int64, domain.Page) ([]domain.Project, int, error) {
	return nil, 0, nil
}

func (f *projectRepoFake) Update(context.Context, *domain.Project) error { return nil }
func (f *projectRepoFake) Delete(context.Context, domain.Key) error      { return nil }

func (f *projectRepoFake) SetThreadID(_ context.Context, _ int64, threadID string) error {
	if f.setThreadErr != nil {
		return f.setThreadErr
	}
	f.setThreadArgs = append(f.setThreadArgs, threadID)
	f.project.ThreadID = threadID
	return nil
}

type invoiceRepoFake struct {
	invoice     *domain.Invoice
	list        []domain.Invoice
	listTotal   int
	created     []*domain.Invoice
	statusCalls []statusCall
	translation struct {
		filePath string
		fileName string
		content  string
	}
	translationSaved bool
	savedInsights    json.RawMessage
}

func (f *invoiceRepoFake) Create(_ context.Context, inv *domain.Invoice) error {
	inv.ID = int64(len(f.created) + 1)
	f.created = append(f.created, inv)
	return nil
}

func (f *invoiceRepoFake) GetByKey(context.Context, domain.Key) (*domain.Invoice, error) {
	copyInvoice := *f.invoice
	return &copyInvoice, nil
}

func (f *invoiceRepoFake) ListByProject(context.Context, int64, domain.Page) ([]domain.Invoice, int, error) {
	return f.list, f.listTotal, nil
}

func (f *invoiceRepoFake) Update(context.Context, *domain.Invoice) error { return nil }
func (f *invoiceRepoFake) Delete(context.Context, domain.Key) error      { return nil }

func (f *invoiceRepoFake) UpdateStatus(_ context.Context, _ int64, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *invoiceRepoFake) SaveInsights(_ context.Context, _ int64, insights json.RawMessage) error {
	f.savedInsights = insights
	return nil
}

func (f *invoiceRepoFake) SaveTranslation(_ context.Context, _ int64, filePath, fileName, content string) error {
	f.translationSaved = true
	f.translation.filePath = filePath
	f.translation.fileName = fileName
	f.translation.content = content
	return nil
}

type documentRepoFake struct {
	doc             *domain.Document
	created         []*domain.Document
	statusCalls     []statusCall
	savedExtraction json.RawMessage
	savedInsights   json.RawMessage
	fileID          string
}

func (f *documentRepoFake) Create(_ context.Context, doc *domain.Document) error {
	doc.ID = int64(len(f.created) + 1)
	f.created = append(f.created, doc)
	return nil
}

func (f *documentRepoFake) GetByKey(context.Context, domain.DocumentKind, domain.Key) (*domain.Document, error) {
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *documentRepoFake) ListByProject(context.Context, domain.DocumentKind, int64, domain.Page) ([]domain.Document, int, error) {
	return nil, 0, nil
}

func (f *documentRepoFake) Update(context.Context, *domain.Document) error { return nil }

func (f *documentRepoFake) Delete(context.Context, domain.DocumentKind, domain.Key) error {
	return nil
}

func (f *documentRepoFake) UpdateStatus(_ context.Context, _ int64, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *documentRepoFake) SaveExtraction(_ context.Context, _ int64, extracted json.RawMessage) error {
	f.savedExtraction = extracted
	return nil
}

func (f *documentRepoFake) SaveInsights(_ context.Context, _ int64, insights json.RawMessage) error {
	f.savedInsights = insights
	return nil
}

func (f *documentRepoFake) SetOpenAIFileID(_ context.Context, _ int64, fileID string) error {
	f.fileID = fileID
	return nil
}

type runCall struct {
	run domain.AssistantRun
}

type gatewayFake struct {
	threadID          string
	createThreadCalls int
	createThreadErr   error

	uploads    []string
	uploadErr  error
	nextFileID string

	runCalls   []runCall
	runReplies []string
	runErrs    []error
}

func (f *gatewayFake) CreateThread(context.Context) (string, error) {
	f.createThreadCalls++
	if f.createThreadErr != nil {
		return "", f.createThreadErr
	}
	if f.threadID == "" {
		f.threadID = "thread-new"
	}
	return f.threadID, nil
}

func (f *gatewayFake) UploadFile(_ context.Context, name string, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, name)
	if f.nextFileID == "" {
		f.nextFileID = "file-1"
	}
	return f.nextFileID, nil
}

func (f *gatewayFake) RunToCompletion(_ context.Context, _ string, run domain.AssistantRun) (string, error) {
	idx := len(f.runCalls)
	f.runCalls = append(f.runCalls, runCall{run: run})
	if idx < len(f.runErrs) && f.runErrs[idx] != nil {
		return "", f.runErrs[idx]
	}
	if idx < len(f.runReplies) {
		return f.runReplies[idx], nil
	}
	if len(f.runReplies) > 0 {
		return f.runReplies[len(f.runReplies)-1], nil
	}
	return "", nil
}

func (f *gatewayFake) DeleteFile(context.Context, string) error { return nil }

type queueFake struct {
	published []domain.Task
	err       error
}

func (f *queueFake) PublishTask(_ context.Context, task domain.Task) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, task)
	return nil
}

func (f *queueFake) SubscribeTasks(context.Context, func(context.Context, domain.Task) error) error {
	return nil
}

type storageFake struct {
	saved map[string][]byte
	files map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw := f.files[key]
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type rendererFake struct {
	rendered []domain.InvoiceData
	output   []byte
	err      error
}

func (f *rendererFake) Render(_ context.Context, data domain.InvoiceData) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rendered = append(f.rendered, data)
	if f.output == nil {
		return []byte("xlsx"), nil
	}
	return f.output, nil
}

type flattenerFake struct {
	text string
	err  error
}

func (f *flattenerFake) Flatten(context.Context, string, io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type parserFake struct {
	data domain.InvoiceData
	err  error
}

func (f *parserFake) Parse(context.Context, io.Reader) (domain.InvoiceData, error) {
	if f.err != nil {
		return domain.InvoiceData{}, f.err
	}
	return f.data, nil
}

type notifierFake struct {
	notified []int64
	err      error
}

func (f *notifierFake) AnalysisCompleted(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, doc.ID)
	return nil
}
