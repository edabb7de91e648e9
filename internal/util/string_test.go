// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"fits", "storm front", 11, "storm front"},
		{"short budget keeps prefix", "storm front moving east", 8, "storm..."},
		{"tiny budget drops ellipsis", "abcd", 3, "abc"},
		{"zero budget", "anything", 0, ""},
		{"empty input", "", 10, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateRunes(tc.input, tc.maxRunes); got != tc.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q",
					tc.input, tc.maxRunes, got, tc.want)
			}
		})
	}
}

func TestTruncateRunesKeepsUTF8Intact(t *testing.T) {
	got := TruncateRunes("天気の報告です", 5)
	if got != "天気..." {
		t.Errorf("TruncateRunes = %q, want %q", got, "天気...")
	}
	for _, r := range got {
		if r == '�' {
			t.Fatal("truncation split a multi-byte character")
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"ascii cut", "hello world", 8, "hello..."},
		{"wide runes count double", "天気の報告", 7, "天気..."},
		{"tiny budget drops ellipsis", "report", 2, "re"},
		{"zero budget", "report", 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateWidth(tc.input, tc.maxWidth); got != tc.want {
				t.Errorf("TruncateWidth(%q, %d) = %q, want %q",
					tc.input, tc.maxWidth, got, tc.want)
			}
		})
	}
}

func TestTruncateWidthNeverExceedsBudget(t *testing.T) {
	inputs := []string{"mixed 天気 report", "全角テキストのみ", "plain ascii text"}
	for _, s := range inputs {
		for _, budget := range []int{4, 7, 10} {
			got := TruncateWidth(s, budget)
			if w := runewidth.StringWidth(got); w > budget {
				t.Errorf("TruncateWidth(%q, %d) = %q occupies %d columns",
					s, budget, got, w)
			}
		}
	}
}
