package id

import (
	"strings"
	"testing"
	"time"
)

func TestNewMessageID(t *testing.T) {
	msgID := NewMessageID()
	if !strings.HasPrefix(string(msgID), "msg_") {
		t.Errorf("Expected msg_ prefix, got %s", msgID)
	}
}

func TestNewChainID(t *testing.T) {
	chainID := NewChainID()
	if !strings.HasPrefix(string(chainID), "chain_") {
		t.Errorf("Expected chain_ prefix, got %s", chainID)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[MessageID]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSortability(t *testing.T) {
	// ULIDs generated across a timestamp boundary sort in creation order
	a := Default().GenerateString()
	time.Sleep(2 * time.Millisecond)
	b := Default().GenerateString()
	if a >= b {
		t.Errorf("IDs not k-sortable: %s >= %s", a, b)
	}
}

func TestHasPrefix(t *testing.T) {
	if !HasPrefix(string(NewMessageID()), MessagePrefix) {
		t.Error("HasPrefix should match message IDs")
	}
	if HasPrefix(string(NewMessageID()), ChainPrefix) {
		t.Error("HasPrefix should not match a different prefix")
	}
}
