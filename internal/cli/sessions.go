// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/config"
)

// HandleSessions lists stored conversations or deletes one.
//
//	intel sessions
//	intel sessions --json
//	intel sessions delete <title>
func HandleSessions(args Args) int {
	cfg := config.Global()
	baseURL := cfg.Backend.BaseURL
	if args.Backend != "" {
		baseURL = args.Backend
	}
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: baseURL})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(args.Rest) > 0 && args.Rest[0] == "delete" {
		if len(args.Rest) < 2 {
			fmt.Fprintln(os.Stderr, "usage: intel sessions delete <title>")
			return 1
		}
		title := strings.Join(args.Rest[1:], " ")
		if err := client.DeleteMessage(ctx, title); err != nil {
			fmt.Fprintf(os.Stderr, "failed to delete %q: %v\n", title, err)
			return 1
		}
		fmt.Printf("deleted %q\n", title)
		return 0
	}

	titles, err := client.GetTitles(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list conversations: %v\n", err)
		return 1
	}

	if args.JSON {
		out, err := json.MarshalIndent(map[string][]string{"titles": titles}, "", "  ")
		if err != nil {
			return 1
		}
		fmt.Println(string(out))
		return 0
	}

	if len(titles) == 0 {
		fmt.Println("no stored conversations")
		return 0
	}
	for _, title := range titles {
		fmt.Println(title)
	}
	return 0
}
