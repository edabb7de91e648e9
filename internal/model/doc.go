// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the core conversation types: messages, the
// in-memory transcript, and conversion to the backend wire format.
package model
