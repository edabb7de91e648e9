// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry tracks conversation identity. Every conversation is
// keyed by a title derived from its first user message, and the list of
// known conversations always comes from the backend, never from local
// guessing.
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/intel-tui/internal/api"
)

// TitleRunes is the number of runes kept when deriving a title.
const TitleRunes = 30

// titleSuffix marks a derived title that was cut short.
const titleSuffix = "..."

// DeriveTitle builds a conversation title from the first user message.
// Titles longer than TitleRunes are truncated and suffixed, newlines
// collapse to spaces.
func DeriveTitle(firstMessage string) string {
	flat := strings.Join(strings.Fields(firstMessage), " ")
	runes := []rune(flat)
	if len(runes) <= TitleRunes {
		return flat
	}
	return string(runes[:TitleRunes]) + titleSuffix
}

// Registry caches backend conversation titles and tracks which one is
// active. The title list refreshes only from the get_titles endpoint.
type Registry struct {
	mu sync.Mutex

	client *api.Client
	titles []string

	active    string
	confirmed bool

	// limiter spaces out refresh calls; a denied refresh serves the
	// cached list instead.
	limiter *rate.Limiter
}

// New creates a registry backed by client.
func New(client *api.Client) *Registry {
	return &Registry{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// ResolveIdentity returns the title for the current conversation. An
// existing active title wins; otherwise a title is derived from
// firstMessage and becomes the provisional active identity. Calling
// again with any argument returns the same title until the
// conversation is cleared.
func (r *Registry) ResolveIdentity(firstMessage string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return r.active
	}
	r.active = DeriveTitle(firstMessage)
	r.confirmed = false
	return r.active
}

// Active returns the current conversation title, or empty when no
// conversation is active.
func (r *Registry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActive switches to a known conversation. Titles chosen from the
// backend list are confirmed by definition.
func (r *Registry) SetActive(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = title
	r.confirmed = true
}

// ClearActive forgets the current conversation identity.
func (r *Registry) ClearActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
	r.confirmed = false
}

// Confirm marks title as server-side persisted. A confirmed identity
// never changes for the life of the conversation.
func (r *Registry) Confirm(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == title {
		r.confirmed = true
	}
}

// Confirmed reports whether the active identity exists on the backend.
func (r *Registry) Confirmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirmed
}

// Refresh fetches the title list from the backend, subject to rate
// limiting. When the limiter denies the call the cached list is
// returned unchanged.
func (r *Registry) Refresh(ctx context.Context) ([]string, error) {
	if !r.limiter.Allow() {
		return r.Known(), nil
	}

	titles, err := r.client.GetTitles(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.titles = titles
	r.mu.Unlock()
	return append([]string(nil), titles...), nil
}

// Known returns the cached title list.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

// Remove deletes a conversation from the backend and the cache.
// Returns true when the removed conversation was the active one, in
// which case the active identity is cleared.
func (r *Registry) Remove(ctx context.Context, title string) (bool, error) {
	if err := r.client.DeleteMessage(ctx, title); err != nil {
		return false, err
	}

	r.mu.Lock()
	wasActive := r.active == title
	if wasActive {
		r.active = ""
		r.confirmed = false
	}
	kept := r.titles[:0]
	for _, t := range r.titles {
		if t != title {
			kept = append(kept, t)
		}
	}
	r.titles = kept
	r.mu.Unlock()

	return wasActive, nil
}
