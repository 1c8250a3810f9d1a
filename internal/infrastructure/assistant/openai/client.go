package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/infrastructure/resilience"
)

const (
	defaultPollInterval    = 1 * time.Second
	defaultPollMaxAttempts = 300
	defaultMaxUploadBytes  = 512 << 20
)

type Config struct {
	APIKey          string
	BaseURL         string
	AssistantID     string
	Model           string
	PollInterval    time.Duration
	PollMaxAttempts int
	MaxUploadBytes  int64
}

// Client drives one configured assistant over the threads protocol.
// The assistant enforces a single active run per thread, so every new
// run starts by cancelling leftovers.
type Client struct {
	api             *sdk.Client
	assistantID     string
	model           string
	executor        *resilience.Executor
	pollInterval    time.Duration
	pollMaxAttempts int
	maxUploadBytes  int64
}

func New(cfg Config, executor *resilience.Executor) *Client {
	clientCfg := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollMaxAttempts := cfg.PollMaxAttempts
	if pollMaxAttempts <= 0 {
		pollMaxAttempts = defaultPollMaxAttempts
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return &Client{
		api:             sdk.NewClientWithConfig(clientCfg),
		assistantID:     cfg.AssistantID,
		model:           cfg.Model,
		executor:        executor,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
		maxUploadBytes:  maxUploadBytes,
	}
}

// EnsureAssistant resolves the configured assistant once at startup:
// validates a configured id, or creates one when none is configured.
func (c *Client) EnsureAssistant(ctx context.Context, name, instructions string) (string, error) {
	if c.assistantID != "" {
		if _, err := c.api.RetrieveAssistant(ctx, c.assistantID); err != nil {
			return "", wrapTemporaryIfNeeded("openai.retrieve_assistant", err)
		}
		return c.assistantID, nil
	}

	assistant, err := c.api.CreateAssistant(ctx, sdk.AssistantRequest{
		Model:        c.model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []sdk.AssistantTool{{Type: sdk.AssistantToolTypeFileSearch}},
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai.create_assistant", err)
	}
	c.assistantID = assistant.ID
	return assistant.ID, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var threadID string
	call := func(ctx context.Context) error {
		thread, err := c.api.CreateThread(ctx, sdk.ThreadRequest{})
		if err != nil {
			return err
		}
		threadID = thread.ID
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.create_thread", call, classifyAssistantError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai.create_thread", err)
	}
	return threadID, nil
}

func (c *Client) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	if int64(len(data)) > c.maxUploadBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "openai upload file",
			fmt.Errorf("file %s exceeds %d bytes", name, c.maxUploadBytes))
	}

	var fileID string
	call := func(ctx context.Context) error {
		file, err := c.api.CreateFileBytes(ctx, sdk.FileBytesRequest{
			Name:    name,
			Bytes:   data,
			Purpose: sdk.PurposeAssistants,
		})
		if err != nil {
			return err
		}
		fileID = file.ID
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.upload_file", call, classifyAssistantError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai.upload_file", err)
	}
	return fileID, nil
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.api.DeleteFile(ctx, fileID); err != nil {
		return wrapTemporaryIfNeeded("openai.delete_file", err)
	}
	return nil
}

func (c *Client) RunToCompletion(ctx context.Context, threadID string, run domain.AssistantRun) (string, error) {
	if err := c.cancelActiveRuns(ctx, threadID); err != nil {
		return "", err
	}

	msgReq := sdk.MessageRequest{
		Role:    "user",
		Content: run.Message,
	}
	for _, fileID := range run.AttachmentFileIDs {
		msgReq.Attachments = append(msgReq.Attachments, sdk.ThreadAttachment{
			FileID: fileID,
			Tools:  []sdk.ThreadAttachmentTool{{Type: "file_search"}},
		})
	}
	if _, err := c.api.CreateMessage(ctx, threadID, msgReq); err != nil {
		return "", wrapTemporaryIfNeeded("openai.create_message", err)
	}

	temperature := run.Temperature
	runReq := sdk.RunRequest{
		AssistantID:  c.assistantID,
		Instructions: run.Instructions,
		Temperature:  &temperature,
	}
	if run.JSONResponse {
		runReq.ResponseFormat = map[string]any{"type": "json_object"}
	}

	created, err := c.api.CreateRun(ctx, threadID, runReq)
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai.create_run", err)
	}

	return c.awaitRun(ctx, threadID, created.ID)
}

func (c *Client) awaitRun(ctx context.Context, threadID, runID string) (string, error) {
	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		run, err := c.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return "", wrapTemporaryIfNeeded("openai.retrieve_run", err)
		}

		switch run.Status {
		case sdk.RunStatusCompleted:
			return c.latestAssistantReply(ctx, threadID, runID)
		case sdk.RunStatusFailed, sdk.RunStatusCancelled, sdk.RunStatusExpired, sdk.RunStatusIncomplete:
			detail := string(run.Status)
			if run.LastError != nil {
				detail = fmt.Sprintf("%s: %s (%v)", run.Status, run.LastError.Message, run.LastError.Code)
			}
			return "", fmt.Errorf("assistant run ended without completion: %s", detail)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	// Abandon the run so the thread is usable for the next attempt.
	if _, err := c.api.CancelRun(ctx, threadID, runID); err != nil {
		slog.Warn("cancel_timed_out_run_failed", "thread_id", threadID, "run_id", runID, "error", err)
	}
	return "", domain.WrapError(domain.ErrRunTimedOut, "await assistant run",
		fmt.Errorf("run %s not terminal after %d polls", runID, c.pollMaxAttempts))
}

// cancelActiveRuns clears any run still occupying the thread.
func (c *Client) cancelActiveRuns(ctx context.Context, threadID string) error {
	limit := 10
	runs, err := c.api.ListRuns(ctx, threadID, sdk.Pagination{Limit: &limit})
	if err != nil {
		return wrapTemporaryIfNeeded("openai.list_runs", err)
	}

	for _, run := range runs.Runs {
		if !runIsActive(run.Status) {
			continue
		}
		slog.Warn("cancelling_active_run", "thread_id", threadID, "run_id", run.ID, "status", run.Status)
		if _, err := c.api.CancelRun(ctx, threadID, run.ID); err != nil {
			slog.Warn("cancel_active_run_failed", "thread_id", threadID, "run_id", run.ID, "error", err)
			continue
		}
		c.awaitCancellation(ctx, threadID, run.ID)
	}
	return nil
}

func (c *Client) awaitCancellation(ctx context.Context, threadID, runID string) {
	for attempt := 0; attempt < 10; attempt++ {
		run, err := c.api.RetrieveRun(ctx, threadID, runID)
		if err != nil || !runIsActive(run.Status) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.pollInterval):
		}
	}
}

func runIsActive(status sdk.RunStatus) bool {
	switch status {
	case sdk.RunStatusQueued, sdk.RunStatusInProgress, sdk.RunStatusRequiresAction, sdk.RunStatusCancelling:
		return true
	}
	return false
}

func (c *Client) latestAssistantReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := 10
	order := "desc"
	messages, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai.list_messages", err)
	}

	for _, message := range messages.Messages {
		if message.Role != "assistant" {
			continue
		}
		for _, part := range message.Content {
			if part.Text != nil && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}
	return "", errors.New("completed run produced no assistant text")
}
