// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/registry"
)

type fakeBackend struct {
	appends   []api.Message
	failAll   bool
	failAfter int
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/append_message":
			if f.failAll || (f.failAfter > 0 && len(f.appends) >= f.failAfter) {
				http.Error(w, "storage unavailable", http.StatusInternalServerError)
				return
			}
			var req struct {
				Title   string      `json:"title"`
				Message api.Message `json:"message"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			f.appends = append(f.appends, req.Message)
			w.WriteHeader(http.StatusOK)
		case "/get_titles":
			json.NewEncoder(w).Encode(map[string][]string{"titles": {"Weather check"}})
		default:
			http.NotFound(w, r)
		}
	})
}

func newSynchronizer(serverURL string) (*Synchronizer, *registry.Registry) {
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: serverURL})
	reg := registry.New(client)
	return NewSynchronizer(client, reg), reg
}

func TestFinalizeExchangeOrdering(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	sync, reg := newSynchronizer(server.URL)
	title := reg.ResolveIdentity("What's the weather?")

	err := sync.FinalizeExchange(context.Background(), title, "What's the weather?", "Sunny and warm.")
	if err != nil {
		t.Fatalf("FinalizeExchange: %v", err)
	}

	if len(backend.appends) != 2 {
		t.Fatalf("expected 2 appends, got %d", len(backend.appends))
	}
	if backend.appends[0].Role != "user" {
		t.Error("user turn must persist first")
	}
	if backend.appends[1].Role != "assistant" {
		t.Error("assistant turn must persist second")
	}
	if !reg.Confirmed() {
		t.Error("successful persistence must confirm the identity")
	}
	if known := reg.Known(); len(known) != 1 {
		t.Errorf("titles must refresh after persistence, got %v", known)
	}
}

func TestFinalizeExchangeUserFailureSkipsAssistant(t *testing.T) {
	backend := &fakeBackend{failAll: true}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	sync, reg := newSynchronizer(server.URL)
	title := reg.ResolveIdentity("opener")

	err := sync.FinalizeExchange(context.Background(), title, "q", "a")
	if err == nil {
		t.Fatal("expected an error when the user turn cannot persist")
	}
	if len(backend.appends) != 0 {
		t.Error("assistant turn must not persist after the user turn fails")
	}
	if reg.Confirmed() {
		t.Error("failed persistence must not confirm the identity")
	}
}

func TestFinalizeExchangeAssistantFailure(t *testing.T) {
	backend := &fakeBackend{failAfter: 1}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	sync, reg := newSynchronizer(server.URL)
	title := reg.ResolveIdentity("opener")

	err := sync.FinalizeExchange(context.Background(), title, "q", "a")
	if err == nil {
		t.Fatal("expected an error when the assistant turn cannot persist")
	}
	if len(backend.appends) != 1 || backend.appends[0].Role != "user" {
		t.Errorf("user turn must survive an assistant failure: %+v", backend.appends)
	}
	if !reg.Confirmed() {
		t.Error("the user append succeeding must confirm the identity")
	}
}
