package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type assistantAPIStub struct {
	mux *http.ServeMux

	activeRuns    []map[string]any
	runStatuses   []string
	replyText     string
	retrieveCount atomic.Int64
	cancelCount   atomic.Int64
	messageCount  atomic.Int64
	createdRuns   atomic.Int64
}

func newAssistantAPIStub() *assistantAPIStub {
	s := &assistantAPIStub{replyText: `{"ok":true}`}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/threads", func(w http.ResponseWriter, _ *http.Request) {
		writeStubJSON(w, map[string]any{"id": "thread_test", "object": "thread"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/runs", func(w http.ResponseWriter, _ *http.Request) {
		writeStubJSON(w, map[string]any{"data": s.activeRuns})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/messages", func(w http.ResponseWriter, _ *http.Request) {
		s.messageCount.Add(1)
		writeStubJSON(w, map[string]any{"id": "msg_user", "role": "user"})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs", func(w http.ResponseWriter, _ *http.Request) {
		s.createdRuns.Add(1)
		writeStubJSON(w, map[string]any{"id": "run_test", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("run") != "run_test" {
			// cancelled leftover runs report terminal immediately
			writeStubJSON(w, map[string]any{"id": r.PathValue("run"), "status": "cancelled"})
			return
		}
		n := int(s.retrieveCount.Add(1))
		status := s.runStatuses[len(s.runStatuses)-1]
		if n <= len(s.runStatuses) {
			status = s.runStatuses[n-1]
		}
		writeStubJSON(w, map[string]any{"id": "run_test", "status": status})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs/{run}/cancel", func(w http.ResponseWriter, r *http.Request) {
		s.cancelCount.Add(1)
		writeStubJSON(w, map[string]any{"id": r.PathValue("run"), "status": "cancelling"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/messages", func(w http.ResponseWriter, _ *http.Request) {
		writeStubJSON(w, map[string]any{"data": []map[string]any{
			{
				"id":   "msg_reply",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "text", "text": map[string]any{"value": s.replyText}},
				},
			},
		}})
	})

	s.mux = mux
	return s
}

func writeStubJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, stub *assistantAPIStub, pollMaxAttempts int) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.mux)
	t.Cleanup(srv.Close)

	return New(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL + "/v1",
		AssistantID:     "asst_test",
		Model:           "gpt-4o",
		PollInterval:    time.Millisecond,
		PollMaxAttempts: pollMaxAttempts,
	}, nil)
}

func TestRunToCompletionPollsUntilCompleted(t *testing.T) {
	stub := newAssistantAPIStub()
	stub.runStatuses = []string{"queued", "in_progress", "completed"}
	client := newTestClient(t, stub, 10)

	reply, err := client.RunToCompletion(context.Background(), "thread_test", domain.AssistantRun{
		Instructions: "translate",
		Message:      "{}",
		JSONResponse: true,
	})
	if err != nil {
		t.Fatalf("RunToCompletion() error = %v", err)
	}
	if reply != `{"ok":true}` {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if got := stub.retrieveCount.Load(); got != 3 {
		t.Fatalf("expected 3 status polls, got %d", got)
	}
	if stub.messageCount.Load() != 1 || stub.createdRuns.Load() != 1 {
		t.Fatalf("expected one message and one run, got %d/%d", stub.messageCount.Load(), stub.createdRuns.Load())
	}
}

func TestRunToCompletionTimesOutAfterMaxPolls(t *testing.T) {
	stub := newAssistantAPIStub()
	stub.runStatuses = []string{"in_progress"}
	client := newTestClient(t, stub, 3)

	_, err := client.RunToCompletion(context.Background(), "thread_test", domain.AssistantRun{Message: "{}"})
	if !domain.IsKind(err, domain.ErrRunTimedOut) {
		t.Fatalf("expected ErrRunTimedOut, got %v", err)
	}
	if got := stub.retrieveCount.Load(); got != 3 {
		t.Fatalf("expected exactly 3 polls, got %d", got)
	}
	if stub.cancelCount.Load() != 1 {
		t.Fatalf("timed-out run must be cancelled, cancel calls = %d", stub.cancelCount.Load())
	}
}

func TestRunToCompletionCancelsLeftoverActiveRun(t *testing.T) {
	stub := newAssistantAPIStub()
	stub.runStatuses = []string{"completed"}
	stub.activeRuns = []map[string]any{
		{"id": "run_stale", "status": "in_progress"},
	}
	client := newTestClient(t, stub, 10)

	if _, err := client.RunToCompletion(context.Background(), "thread_test", domain.AssistantRun{Message: "{}"}); err != nil {
		t.Fatalf("RunToCompletion() error = %v", err)
	}
	if stub.cancelCount.Load() != 1 {
		t.Fatalf("expected stale run cancelled once, got %d", stub.cancelCount.Load())
	}
}

func TestRunToCompletionFailsOnTerminalFailure(t *testing.T) {
	stub := newAssistantAPIStub()
	stub.runStatuses = []string{"failed"}
	client := newTestClient(t, stub, 10)

	_, err := client.RunToCompletion(context.Background(), "thread_test", domain.AssistantRun{Message: "{}"})
	if err == nil {
		t.Fatalf("expected error for failed run")
	}
	if domain.IsKind(err, domain.ErrRunTimedOut) {
		t.Fatalf("terminal failure must not classify as timeout: %v", err)
	}
}

func TestUploadFileRejectsOversizedPayload(t *testing.T) {
	stub := newAssistantAPIStub()
	client := newTestClient(t, stub, 10)
	client.maxUploadBytes = 8

	_, err := client.UploadFile(context.Background(), "big.txt", []byte("0123456789"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateThreadReturnsServerThreadID(t *testing.T) {
	stub := newAssistantAPIStub()
	client := newTestClient(t, stub, 10)

	threadID, err := client.CreateThread(context.Background())
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if threadID != "thread_test" {
		t.Fatalf("unexpected thread id: %q", threadID)
	}
}
