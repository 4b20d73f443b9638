package query

import (
	"errors"
	"testing"
)

func TestResolve_ExactID(t *testing.T) {
	e := loadSrc(t, "the cache is stale\n")
	id := nodeID(t, e, "the cache is stale")
	n, err := e.Resolve(id)
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != id {
		t.Errorf("resolved %s, want %s", n.ID, id)
	}
}

func TestResolve_IDPrefix(t *testing.T) {
	e := loadSrc(t, "the cache is stale\nanother line\n")
	id := nodeID(t, e, "the cache is stale")
	n, err := e.Resolve(id[:8])
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != id {
		t.Errorf("prefix resolved %s, want %s", n.ID, id)
	}
}

func TestResolve_ContentSubstring(t *testing.T) {
	e := loadSrc(t, "the cache is stale\ndeploy on friday\n")
	n, err := e.Resolve("CACHE")
	if err != nil {
		t.Fatal(err)
	}
	if n.Content != "the cache is stale" {
		t.Errorf("resolved %q", n.Content)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	e := loadSrc(t, "cache reads\ncache writes\n")
	_, err := e.Resolve("cache")
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if len(amb.Matches) != 2 {
		t.Errorf("matches = %d", len(amb.Matches))
	}
	if amb.Matches[0].Content != "cache reads" {
		t.Errorf("matches must come in source order, got %q first", amb.Matches[0].Content)
	}
}

func TestResolve_NotFound(t *testing.T) {
	e := loadSrc(t, "something\n")
	_, err := e.Resolve("absent")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
