package service

import (
	"blobvault/internal/apperr"
	"blobvault/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCreateObjectEmpty(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	obj, err := CreateObject(ctx, "/docs/empty.txt/", nil)
	if err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}
	if obj.Key != "docs/empty.txt" {
		t.Fatalf("expect normalized key, got %q", obj.Key)
	}
	if obj.Size != 0 {
		t.Fatalf("expect empty object, got size %d", obj.Size)
	}

	exists, err := storage.Default.Exists(ctx, storage.BlobName(obj.Key))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("expect blob file for empty object")
	}
}

func TestCreateObjectAlreadyExists(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	if _, err := CreateObject(ctx, "docs/a.txt", nil); err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}
	_, err := CreateObject(ctx, "docs/a.txt", nil)
	if err == nil {
		t.Fatal("expect duplicate create to fail")
	}
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expect bad request, got %v", err)
	}
}

func TestStoreAndReadObject(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	content := "hello blob"
	obj, err := StoreObject(ctx, "docs/hello.txt", nil, strings.NewReader(content))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}
	if obj.Size != int64(len(content)) {
		t.Fatalf("expect size %d, got %d", len(content), obj.Size)
	}
	sum := sha256.Sum256([]byte(content))
	if obj.Hash != hex.EncodeToString(sum[:]) {
		t.Fatalf("expect hash of content, got %s", obj.Hash)
	}

	reader, got, err := ReadObject(ctx, obj.ID)
	if err != nil {
		t.Fatalf("ReadObject failed: %v", err)
	}
	defer reader.Close()
	if got.ID != obj.ID {
		t.Fatalf("expect object %d, got %d", obj.ID, got.ID)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != content {
		t.Fatalf("expect %q, got %q", content, data)
	}
}

func TestEditObject(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	obj, err := StoreObject(ctx, "docs/edit.txt", nil, strings.NewReader("old"))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}

	updated, err := EditObject(ctx, "docs/edit.txt", strings.NewReader("new content"))
	if err != nil {
		t.Fatalf("EditObject failed: %v", err)
	}
	if updated.ID != obj.ID {
		t.Fatal("edit must keep the row")
	}
	if updated.Size != int64(len("new content")) {
		t.Fatalf("expect size %d, got %d", len("new content"), updated.Size)
	}
	if updated.Hash == obj.Hash {
		t.Fatal("expect hash to change on edit")
	}
}

func TestAppendObjectRemeasuresSize(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	obj, err := StoreObject(ctx, "logs/app.log", nil, strings.NewReader("line1\n"))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}

	updated, err := AppendObject(ctx, obj.ID, strings.NewReader("line2\n"))
	if err != nil {
		t.Fatalf("AppendObject failed: %v", err)
	}
	if updated.Size != int64(len("line1\nline2\n")) {
		t.Fatalf("expect size %d, got %d", len("line1\nline2\n"), updated.Size)
	}

	reader, _, err := ReadObject(ctx, obj.ID)
	if err != nil {
		t.Fatalf("ReadObject failed: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "line1\nline2\n" {
		t.Fatalf("expect appended content, got %q", data)
	}
}

func TestMoveObject(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	obj, err := StoreObject(ctx, "docs/old.txt", nil, strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}
	oldBlob := storage.BlobName(obj.Key)

	moved, err := MoveObject(ctx, obj.ID, "archive/new.txt", nil)
	if err != nil {
		t.Fatalf("MoveObject failed: %v", err)
	}
	if moved.Key != "archive/new.txt" {
		t.Fatalf("expect new key, got %q", moved.Key)
	}

	exists, err := storage.Default.Exists(ctx, oldBlob)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("old blob must move with the key")
	}
	exists, err = storage.Default.Exists(ctx, storage.BlobName("archive/new.txt"))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("blob missing at the new key's name")
	}

	if _, err := GetObjectByKey(ctx, "docs/old.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expect old key to be gone, got %v", err)
	}
}

func TestMoveObjectKeepsKind(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	kind := "text/plain"
	obj, err := StoreObject(ctx, "docs/k.txt", &kind, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}

	moved, err := MoveObject(ctx, obj.ID, "docs/k2.txt", nil)
	if err != nil {
		t.Fatalf("MoveObject failed: %v", err)
	}
	if moved.Kind == nil || *moved.Kind != "text/plain" {
		t.Fatal("move without a kind must preserve the old kind")
	}

	newKind := "text/markdown"
	moved, err = MoveObject(ctx, obj.ID, "docs/k2.txt", &newKind)
	if err != nil {
		t.Fatalf("MoveObject failed: %v", err)
	}
	if moved.Kind == nil || *moved.Kind != "text/markdown" {
		t.Fatal("move with a kind must retag the object")
	}
}

func TestDeleteObject(t *testing.T) {
	cleanTables(t)
	useTempStore(t)
	ctx := context.Background()

	obj, err := StoreObject(ctx, "docs/gone.txt", nil, strings.NewReader("bye"))
	if err != nil {
		t.Fatalf("StoreObject failed: %v", err)
	}

	deleted, err := DeleteObject(ctx, obj.ID)
	if err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}
	if deleted.ID != obj.ID {
		t.Fatalf("expect deleted row %d, got %d", obj.ID, deleted.ID)
	}

	if _, err := GetObjectByID(ctx, obj.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expect row to be gone, got %v", err)
	}
	// no broker in tests, removal falls back to the inline path
	exists, err := storage.Default.Exists(ctx, storage.BlobName(obj.Key))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("blob still present after delete")
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"/a/b/":  "a/b",
		"a/b":    "a/b",
		"///":    "",
		"/x":     "x",
		"deep/a": "deep/a",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
