package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.strand")
	if err := os.WriteFile(path, []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fired := make(chan struct{}, 4)
	go w.Run(func() { fired <- struct{}{} })

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("change callback never fired")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.strand")
	if err := os.WriteFile(path, []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fired := make(chan struct{}, 4)
	go w.Run(func() { fired <- struct{}{} })

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("sibling file change must not fire")
	case <-time.After(400 * time.Millisecond):
	}
}
