// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation view of the TUI: the
// transcript viewport, input line, conversation sidebar, and the
// message plumbing that carries streamed chunks and deep reports from
// the backend into the transcript.
package chat
