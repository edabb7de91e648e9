// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"
)

func TestStreamingBufferBatchFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(3, 30)

	sb.Write("a")
	sb.Write("b")
	if _, ok := sb.Flush(); ok {
		t.Error("buffer must not flush below the batch size within the frame window")
	}

	sb.Write("c")
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("buffer must flush at the batch size")
	}
	if content != "abc" {
		t.Errorf("flushed %q, want %q", content, "abc")
	}
	if sb.Pending() != 0 {
		t.Errorf("pending after flush = %d", sb.Pending())
	}
}

func TestStreamingBufferTimeFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 30)
	sb.Write("slow")

	time.Sleep(40 * time.Millisecond)
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("buffer must flush after the frame interval")
	}
	if content != "slow" {
		t.Errorf("flushed %q", content)
	}
}

func TestStreamingBufferOrderPreserved(t *testing.T) {
	sb := NewStreamingBuffer()
	chunks := []string{"Sun", "ny and", " warm."}
	for _, chunk := range chunks {
		sb.Write(chunk)
	}

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("ForceFlush must return buffered content")
	}
	if content != "Sunny and warm." {
		t.Errorf("content = %q", content)
	}
}

func TestStreamingBufferForceFlushEmpty(t *testing.T) {
	sb := NewStreamingBuffer()
	if _, ok := sb.ForceFlush(); ok {
		t.Error("empty buffer must not force flush")
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("discarded")
	sb.Reset()

	if _, ok := sb.ForceFlush(); ok {
		t.Error("reset must discard buffered content")
	}
	if sb.Pending() != 0 {
		t.Error("reset must clear the pending count")
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			sb.Write("x")
		}
		close(done)
	}()

	var collected strings.Builder
	for {
		select {
		case <-done:
			if content, ok := sb.ForceFlush(); ok {
				collected.WriteString(content)
			}
			if len(collected.String()) != 500 {
				t.Errorf("collected %d bytes, want 500", len(collected.String()))
			}
			return
		default:
			if content, ok := sb.ForceFlush(); ok {
				collected.WriteString(content)
			}
		}
	}
}

func TestStreamingBufferConfigClamps(t *testing.T) {
	sb := NewStreamingBufferWithConfig(-1, 500)
	if sb.batchSize != 15 {
		t.Errorf("batch size = %d, want default", sb.batchSize)
	}
	if sb.minFlushMs != time.Duration(1000/30)*time.Millisecond {
		t.Errorf("flush interval = %v, want 30fps default", sb.minFlushMs)
	}
}
