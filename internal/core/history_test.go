package core

import (
	"fmt"
	"testing"
	"time"
)

func testMessage(i int) Message {
	return Message{
		ID:        fmt.Sprintf("id-%d", i),
		SenderID:  "u1",
		Content:   fmt.Sprintf("m%d", i),
		CreatedAt: time.Unix(int64(i), 0),
	}
}

func TestHistoryBounded(t *testing.T) {
	const capacity = 5
	h := NewHistory(capacity)

	for i := 0; i < capacity+3; i++ {
		h.Append(testMessage(i))
	}

	if h.Len() != capacity {
		t.Fatalf("expected length %d, got %d", capacity, h.Len())
	}

	recent := h.Recent(capacity)
	for i, m := range recent {
		if want := fmt.Sprintf("m%d", i+3); m.Content != want {
			t.Fatalf("recent[%d] = %q, want %q (oldest not evicted)", i, m.Content, want)
		}
	}
}

func TestHistoryRecentClamped(t *testing.T) {
	h := NewHistory(10)
	h.Append(testMessage(0))
	h.Append(testMessage(1))

	if got := h.Recent(20); len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got := h.Recent(0); got != nil {
		t.Fatalf("expected nil for k=0, got %v", got)
	}
}

func TestHistoryKeepsDuplicates(t *testing.T) {
	h := NewHistory(10)
	m := testMessage(0)
	h.Append(m)
	h.Append(m)

	if h.Len() != 2 {
		t.Fatalf("duplicates must be stored as distinct entries, len=%d", h.Len())
	}
}

func TestMessageIDsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewMessageID(now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate message id %q", id)
		}
		seen[id] = struct{}{}
	}
}
