// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/intel-tui/internal/api"
)

func newTestRegistry(baseURL string) *Registry {
	return New(api.NewClientWithConfig(&api.ClientConfig{BaseURL: baseURL}))
}

func TestDeriveTitleShort(t *testing.T) {
	if got := DeriveTitle("What's the weather?"); got != "What's the weather?" {
		t.Errorf("DeriveTitle = %q", got)
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := DeriveTitle(long)
	if got != strings.Repeat("a", 30)+"..." {
		t.Errorf("DeriveTitle = %q", got)
	}
}

func TestDeriveTitleRuneSafe(t *testing.T) {
	long := strings.Repeat("日", 40)
	got := DeriveTitle(long)
	want := strings.Repeat("日", 30) + "..."
	if got != want {
		t.Errorf("DeriveTitle = %q, want %q", got, want)
	}
}

func TestDeriveTitleFlattensNewlines(t *testing.T) {
	got := DeriveTitle("line one\nline two")
	if strings.Contains(got, "\n") {
		t.Errorf("title contains newline: %q", got)
	}
}

func TestResolveIdentityIdempotent(t *testing.T) {
	r := New(nil)
	first := r.ResolveIdentity("What's the weather today in town?")
	second := r.ResolveIdentity("a completely different message")

	if first != second {
		t.Errorf("identity changed between calls: %q then %q", first, second)
	}
	if r.Active() != first {
		t.Errorf("active = %q, want %q", r.Active(), first)
	}
	if r.Confirmed() {
		t.Error("derived identity must start unconfirmed")
	}
}

func TestResolveIdentityAfterClear(t *testing.T) {
	r := New(nil)
	first := r.ResolveIdentity("first conversation opener here")
	r.ClearActive()
	second := r.ResolveIdentity("second conversation opener here")

	if first == second {
		t.Error("cleared registry must derive a fresh identity")
	}
}

func TestConfirmOnlyMatchesActive(t *testing.T) {
	r := New(nil)
	title := r.ResolveIdentity("opener")
	r.Confirm("some other title")
	if r.Confirmed() {
		t.Error("confirming a non-active title must be a no-op")
	}
	r.Confirm(title)
	if !r.Confirmed() {
		t.Error("active title must confirm")
	}
}

func newBackend(t *testing.T, titles *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_titles":
			json.NewEncoder(w).Encode(map[string][]string{"titles": *titles})
		case "/delete_message":
			var req struct {
				Title string `json:"title"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			kept := (*titles)[:0]
			for _, title := range *titles {
				if title != req.Title {
					kept = append(kept, title)
				}
			}
			*titles = kept
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRefreshPopulatesKnown(t *testing.T) {
	titles := []string{"First", "Second"}
	server := newBackend(t, &titles)
	defer server.Close()

	r := newTestRegistry(server.URL)
	got, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 titles, got %v", got)
	}
	if known := r.Known(); len(known) != 2 || known[0] != "First" {
		t.Errorf("Known = %v", known)
	}
}

func TestRefreshRateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string][]string{"titles": {"Only"}})
	}))
	defer server.Close()

	r := newTestRegistry(server.URL)
	ctx := context.Background()
	r.Refresh(ctx)
	r.Refresh(ctx)
	r.Refresh(ctx)

	if calls != 1 {
		t.Errorf("expected 1 backend call under rapid refresh, got %d", calls)
	}
	if known := r.Known(); len(known) != 1 {
		t.Errorf("denied refresh must keep the cache: %v", known)
	}
}

func TestRemoveActiveConversation(t *testing.T) {
	titles := []string{"Weather check", "Other"}
	server := newBackend(t, &titles)
	defer server.Close()

	r := newTestRegistry(server.URL)
	r.Refresh(context.Background())
	r.SetActive("Weather check")

	wasActive, err := r.Remove(context.Background(), "Weather check")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !wasActive {
		t.Error("Remove must report the active conversation")
	}
	if r.Active() != "" {
		t.Error("removing the active conversation must clear the identity")
	}
	if known := r.Known(); len(known) != 1 || known[0] != "Other" {
		t.Errorf("Known after remove = %v", known)
	}
}

func TestRemoveOtherConversation(t *testing.T) {
	titles := []string{"Active", "Doomed"}
	server := newBackend(t, &titles)
	defer server.Close()

	r := newTestRegistry(server.URL)
	r.Refresh(context.Background())
	r.SetActive("Active")

	wasActive, err := r.Remove(context.Background(), "Doomed")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if wasActive {
		t.Error("removing another conversation must not report active")
	}
	if r.Active() != "Active" {
		t.Error("active identity must survive removing another conversation")
	}
}
