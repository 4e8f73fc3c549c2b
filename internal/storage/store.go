package storage

import (
	"blobvault/config"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
)

// Store abstracts blob storage. Blobs are addressed by name only; the name of
// an object's blob is a pure function of its key (see BlobName).
type Store interface {
	// Writer opens the blob for writing, truncating or creating it.
	Writer(ctx context.Context, name string) (io.WriteCloser, error)
	// Append appends the reader's bytes to the blob and returns the count written.
	Append(ctx context.Context, name string, r io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	// Stat returns the blob size.
	Stat(ctx context.Context, name string) (int64, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
	// Rename moves a blob to a new name, used when an object key changes.
	Rename(ctx context.Context, oldName, newName string) error
	// List returns every blob name, used by the reconciliation sweep.
	List(ctx context.Context) ([]string, error)
}

// BlobName derives the blob location for an object key.
func BlobName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Default is the main blob store instance.
var Default Store

// InitStorage initializes the configured storage backend.
func InitStorage() {
	switch config.AppConfig.StorageBackend {
	case "minio":
		InitMinio()
	default:
		store, err := NewLocalStore(config.AppConfig.FilesDir)
		if err != nil {
			log.Fatal("init local storage fail", err)
		}
		Default = store
		log.Println("init local storage success")
	}
}
