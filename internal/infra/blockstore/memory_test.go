package blockstore

import (
	"context"
	"testing"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// An empty set is a no-op, not an error.
	if err := s.StoreCompacted(ctx, nil); err != nil {
		t.Fatalf("StoreCompacted(empty) failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", s.Len())
	}

	blocks := []*domain.CompactedBlock{
		{Index: 10, Hash: "0a", Payload: []byte("a")},
		{Index: 11, Hash: "0b", Payload: []byte("b")},
	}
	if err := s.StoreCompacted(ctx, blocks); err != nil {
		t.Fatalf("StoreCompacted failed: %v", err)
	}

	got, err := s.GetCompacted(ctx, 11)
	if err != nil {
		t.Fatalf("GetCompacted failed: %v", err)
	}
	if got == nil || got.Hash != "0b" {
		t.Errorf("Expected block 11 with hash 0b, got %+v", got)
	}

	missing, err := s.GetCompacted(ctx, 99)
	if err != nil {
		t.Fatalf("GetCompacted failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for absent height")
	}

	// Re-storing a height overwrites it.
	if err := s.StoreCompacted(ctx, []*domain.CompactedBlock{{Index: 10, Hash: "0c"}}); err != nil {
		t.Fatalf("StoreCompacted failed: %v", err)
	}
	got, _ = s.GetCompacted(ctx, 10)
	if got.Hash != "0c" {
		t.Errorf("Expected overwritten hash 0c, got %s", got.Hash)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", s.Len())
	}
}
