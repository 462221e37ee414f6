package memory

import (
	"context"
	"testing"

	"github.com/cerebric/cerebric/pkg/model"
)

func TestAppendInsertsTimestampWhenAbsent(t *testing.T) {
	s := New(t.TempDir(), "admin")
	if err := s.Append(PartitionRuntime, "outcomes.jsonl", map[string]any{"success": true}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.ListEntries(PartitionRuntime, "outcomes.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if _, ok := entries[0]["ts"]; !ok {
		t.Fatal("expected ts to be inserted")
	}
}

func TestAppendAllowsDuplicates(t *testing.T) {
	s := New(t.TempDir(), "admin")
	entry := map[string]any{"ts": "2024-01-01T00:00:00Z", "job_id": "hc1"}
	for i := 0; i < 3; i++ {
		if err := s.Append(PartitionRuntime, "outcomes.jsonl", entry); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := s.ListEntries(PartitionRuntime, "outcomes.jsonl")
	if len(entries) != 3 {
		t.Fatalf("expected 3 duplicate entries retained, got %d", len(entries))
	}
}

func TestListEntriesOnEmptyPartitionReturnsEmptyNotError(t *testing.T) {
	s := New(t.TempDir(), "admin")
	entries, err := s.ListEntries(PartitionRuntime, "missing.jsonl")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestPurgeRefusesProtectedPartitions(t *testing.T) {
	s := New(t.TempDir(), "admin")

	if err := s.Purge("profiles/" + "admin"); err == nil {
		t.Fatal("expected purge of admin profile to fail")
	}

	_ = s.Append(PartitionCore, "x.jsonl", map[string]any{"a": 1})
	if err := s.Purge(PartitionCore); err == nil {
		t.Fatal("expected purge of core to fail")
	}
}

func TestPurgeRemovesNonProtectedProfile(t *testing.T) {
	s := New(t.TempDir(), "admin")
	_ = s.Append("profiles/guest", "x.jsonl", map[string]any{"a": 1})

	if err := s.Purge("guest"); err != nil {
		t.Fatalf("expected purge to succeed: %v", err)
	}
	entries, _ := s.ListEntries("profiles/guest", "x.jsonl")
	if len(entries) != 0 {
		t.Fatal("expected entries gone after purge")
	}
}

func TestProtectedPartitionError(t *testing.T) {
	s := New(t.TempDir(), "admin")
	err := s.Purge(PartitionCore)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := model.ErrProtectedPartition; got == nil {
		t.Fatal("sanity: sentinel must exist")
	}
}

func TestNaiveRetrieverEmptyPartitionReturnsEmptyList(t *testing.T) {
	s := New(t.TempDir(), "admin")
	r := NewNaiveRetriever(s, PartitionRuntime, "outcomes.jsonl")
	hits, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty hits, got %d", len(hits))
	}
}

func TestNaiveRetrieverRanksByScoreDescending(t *testing.T) {
	s := New(t.TempDir(), "admin")
	_ = s.Append(PartitionRuntime, "notes.jsonl", map[string]any{"text": "disk disk disk"})
	_ = s.Append(PartitionRuntime, "notes.jsonl", map[string]any{"text": "disk usage high"})
	r := NewNaiveRetriever(s, PartitionRuntime, "notes.jsonl")

	hits, err := r.Retrieve(context.Background(), "disk", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatal("expected non-increasing score order")
		}
	}
}
