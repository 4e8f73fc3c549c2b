package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store
}

func TestLocalStoreRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, err := store.Writer(ctx, "blob1")
	if err != nil {
		t.Fatalf("Writer failed: %v", err)
	}
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, size, err := store.Open(ctx, "blob1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()
	if size != int64(len("hello world")) {
		t.Fatalf("expect size %d, got %d", len("hello world"), size)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(data, []byte("hello world")) {
		t.Fatalf("expect hello world, got %q", data)
	}
}

func TestLocalStoreExistsAndRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("missing blob reported as present")
	}

	w, err := store.Writer(ctx, "blob1")
	if err != nil {
		t.Fatalf("Writer failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	exists, err = store.Exists(ctx, "blob1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("blob reported as missing after create")
	}

	if err := store.Remove(ctx, "blob1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	exists, err = store.Exists(ctx, "blob1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("blob still present after remove")
	}
}

func TestLocalStoreAppend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "blob1", strings.NewReader("Hello, ")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := store.Append(ctx, "blob1", strings.NewReader("World")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	size, err := store.Stat(ctx, "blob1")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if size != int64(len("Hello, World")) {
		t.Fatalf("expect size %d, got %d", len("Hello, World"), size)
	}

	reader, _, err := store.Open(ctx, "blob1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "Hello, World" {
		t.Fatalf("expect Hello, World, got %q", data)
	}
}

func TestLocalStoreRename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "old", strings.NewReader("data")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Rename(ctx, "old", "new"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	exists, err := store.Exists(ctx, "old")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("old name still present after rename")
	}
	exists, err = store.Exists(ctx, "new")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("new name missing after rename")
	}
}

func TestLocalStoreList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := store.Append(ctx, name, strings.NewReader(name)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expect 3 blobs, got %d", len(names))
	}
}

func TestBlobNameDeterministic(t *testing.T) {
	if BlobName("a/b") != BlobName("a/b") {
		t.Fatal("BlobName is not deterministic")
	}
	if BlobName("a/b") == BlobName("a/c") {
		t.Fatal("different keys must not collide")
	}
	if len(BlobName("x")) != 64 {
		t.Fatalf("expect 64 hex chars, got %d", len(BlobName("x")))
	}
}
