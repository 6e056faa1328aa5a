package cache

import (
	"testing"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

func TestL1_PutGet(t *testing.T) {
	c := NewL1()

	if _, ok := c.Get("aa", 0); ok {
		t.Fatal("Expected miss on empty cache")
	}

	r := &domain.TraversalResult{Ordinal: 42, Resolved: true}
	c.Put("aa", 0, r)

	got, ok := c.Get("aa", 0)
	if !ok {
		t.Fatal("Expected hit after Put")
	}
	if got.Ordinal != 42 {
		t.Errorf("Expected ordinal 42, got %d", got.Ordinal)
	}

	// Same hash, different input index is a distinct entry
	if _, ok := c.Get("aa", 1); ok {
		t.Error("Expected miss for different input index")
	}

	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}
