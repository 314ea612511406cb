package cache

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.Get(SourceHash([]byte("let x = 1;")))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("lookup in empty cache reported a hit")
	}
}

func TestPutAndGet(t *testing.T) {
	s := openTemp(t)

	hash := SourceHash([]byte("let x = 1;"))
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := s.Put(hash, data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := s.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("stored entry not found")
	}
	if string(got) != string(data) {
		t.Errorf("got %x, want %x", got, data)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTemp(t)

	hash := SourceHash([]byte("let x = 1;"))
	if err := s.Put(hash, []byte{1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(hash, []byte{2}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok, err := s.Get(hash)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("got %x, want 02", got)
	}
}

func TestDelete(t *testing.T) {
	s := openTemp(t)

	hash := SourceHash([]byte("let x = 1;"))
	if err := s.Put(hash, []byte{1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(hash); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(hash); ok {
		t.Error("entry still present after Delete")
	}

	// Deleting again is a no-op.
	if err := s.Delete(hash); err != nil {
		t.Errorf("Delete of missing entry failed: %v", err)
	}
}

func TestSourceHashStable(t *testing.T) {
	a := SourceHash([]byte("let x = 1;"))
	b := SourceHash([]byte("let x = 1;"))
	c := SourceHash([]byte("let x = 2;"))

	if a != b {
		t.Error("identical sources hashed differently")
	}
	if a == c {
		t.Error("different sources collided")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	hash := SourceHash([]byte("let x = 1;"))
	if err := first.Put(hash, []byte{7}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, ok, err := second.Get(hash)
	if err != nil || !ok {
		t.Fatalf("Get after reopen = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("got %x, want 07", got)
	}
}
