// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithConfigDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})
	if client.config.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected default base URL, got %s", client.config.BaseURL)
	}
	if client.config.Timeout != 60*time.Second {
		t.Errorf("expected default timeout, got %v", client.config.Timeout)
	}
	if client.streamClient.Timeout != 0 {
		t.Error("stream client must not carry an overall timeout")
	}
}

func TestEndpointJoining(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://localhost:9000/"})
	got := client.endpoint("stream_completion", "hello")
	want := "http://localhost:9000/stream_completion/hello"
	if got != want {
		t.Errorf("endpoint = %s, want %s", got, want)
	}
}

func TestStreamCompletionConcatenation(t *testing.T) {
	chunks := []string{"Sun", "ny and", " warm."}

	var gotPath string
	var gotMessages string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotMessages = r.PostFormValue("messages")

		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	history := []Message{{Role: "user", Content: "What's the weather?"}}

	var received strings.Builder
	err := client.StreamCompletion(context.Background(), "What's the weather?", history, func(chunk string) {
		received.WriteString(chunk)
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	if received.String() != "Sunny and warm." {
		t.Errorf("concatenated stream = %q, want %q", received.String(), "Sunny and warm.")
	}
	if !strings.HasPrefix(gotPath, "/stream_completion/") {
		t.Errorf("unexpected path %s", gotPath)
	}

	var decoded []Message
	if err := json.Unmarshal([]byte(gotMessages), &decoded); err != nil {
		t.Fatalf("messages field is not a JSON array: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Role != "user" {
		t.Errorf("unexpected history payload: %+v", decoded)
	}
}

func TestStreamCompletionEscapesQuery(t *testing.T) {
	var gotEscaped string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEscaped = r.URL.EscapedPath()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.StreamCompletion(context.Background(), "a/b question?", nil, func(string) {})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
	if !strings.Contains(gotEscaped, "a%2Fb") {
		t.Errorf("query not escaped in path: %s", gotEscaped)
	}
}

func TestStreamCompletionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	called := false
	err := client.StreamCompletion(context.Background(), "q", nil, func(string) { called = true })

	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, called, "callback must not fire on a failed request")
}

func TestStreamCompletionCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.StreamCompletion(ctx, "q", nil, func(chunk string) {
			cancel()
		})
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an error after cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestReportSuccess(t *testing.T) {
	var gotContentType string
	var gotMessages string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotMessages = r.FormValue("messages")
		json.NewEncoder(w).Encode(map[string]string{"report": "# Findings\n\nAll clear.", "error": ""})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	report, err := client.Report(context.Background(), "status", []Message{{Role: "user", Content: "status"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "# Findings\n\nAll clear.", report)
	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Contains(t, gotMessages, `"role":"user"`)
}

func TestUnreachableBackendMatchesSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: baseURL})

	err := client.StreamCompletion(context.Background(), "q", nil, func(string) {})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("stream against a closed backend = %v, want ErrBackendUnavailable", err)
	}

	_, err = client.GetTitles(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("titles against a closed backend = %v, want ErrBackendUnavailable", err)
	}
	if !IsPersistenceError(err) {
		t.Error("titles failure must still classify as a persistence error")
	}
}

func TestReportEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Report(context.Background(), "q", nil, nil)
	if !errors.Is(err, ErrEmptyBody) {
		t.Errorf("report with no body = %v, want ErrEmptyBody", err)
	}
}

func TestReportBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"report": "", "error": "model overloaded"})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	report, err := client.Report(context.Background(), "q", nil, nil)

	require.Error(t, err)
	assert.True(t, IsApplicationError(err), "error field on 200 must classify as an application error")
	assert.Empty(t, report)
}

func TestAppendAndLoadMessage(t *testing.T) {
	transcripts := map[string][]Message{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/append_message":
			var req appendRequest
			json.NewDecoder(r.Body).Decode(&req)
			transcripts[req.Title] = append(transcripts[req.Title], req.Message)
			w.WriteHeader(http.StatusOK)
		case "/load_message":
			var req titleRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(transcripts[req.Title])
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	ctx := context.Background()

	if err := client.AppendMessage(ctx, "Weather check", Message{Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("AppendMessage user: %v", err)
	}
	if err := client.AppendMessage(ctx, "Weather check", Message{Role: "assistant", Content: "hello"}); err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}

	messages, err := client.LoadMessage(ctx, "Weather check")
	if err != nil {
		t.Fatalf("LoadMessage: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("turns out of order: %+v", messages)
	}
}

func TestGetTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("get_titles must use GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string][]string{"titles": {"First", "Second"}})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	titles, err := client.GetTitles(context.Background())
	if err != nil {
		t.Fatalf("GetTitles: %v", err)
	}
	if len(titles) != 2 || titles[0] != "First" {
		t.Errorf("unexpected titles: %v", titles)
	}
}

func TestDeleteMessagePersistenceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.DeleteMessage(context.Background(), "gone")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsPersistenceError(err) {
		t.Errorf("expected a persistence error, got %v", err)
	}
}
