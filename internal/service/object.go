package service

import (
	"blobvault/internal/apperr"
	"blobvault/internal/mq"
	"blobvault/internal/repo"
	"blobvault/internal/storage"
	"blobvault/model"
	"blobvault/utils"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/net/context"
	"gorm.io/gorm"
)

const objectCacheTTL = 5 * time.Minute

func cacheObject(ctx context.Context, obj *model.Object) {
	if obj == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_ = utils.SetObjectToCache(ctx, obj, objectCacheTTL)
}

// NormalizeKey strips leading and trailing slashes; empty means root.
func NormalizeKey(key string) string {
	return strings.Trim(key, "/")
}

// GetObjectByID finds an object row by id.
func GetObjectByID(ctx context.Context, id uint64) (*model.Object, error) {
	if cached, ok := utils.GetObjectFromCache(ctx, id); ok && cached != nil {
		return cached, nil
	}
	var obj model.Object
	err := repo.Db.Where("id = ?", id).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("object")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	cacheObject(ctx, &obj)
	return &obj, nil
}

// GetObjectByKey finds an object row by its normalized key.
func GetObjectByKey(ctx context.Context, key string) (*model.Object, error) {
	key = NormalizeKey(key)
	if id, ok := utils.GetObjectIDByKey(ctx, key); ok {
		obj, err := GetObjectByID(ctx, id)
		if err == nil {
			return obj, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		// cached id points at a row that no longer exists
	}
	var obj model.Object
	err := repo.Db.Where("object_key = ?", key).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("object")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	cacheObject(ctx, &obj)
	return &obj, nil
}

// CreateObject creates an empty object: the blob file first, then the
// metadata row. When the insert fails the blob is removed again, so a DB
// rollback cannot orphan a file on the happy path; the gc sweep catches the
// crash window between the two steps.
func CreateObject(ctx context.Context, key string, kind *string) (*model.Object, error) {
	key = NormalizeKey(key)
	if key == "" {
		return nil, apperr.BadRequest("key required")
	}
	blob := storage.BlobName(key)
	exists, err := storage.Default.Exists(ctx, blob)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.BadRequest("already exists")
	}

	w, err := storage.Default.Writer(ctx, blob)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := w.Close(); err != nil {
		return nil, apperr.Internal(err)
	}

	obj := &model.Object{Key: key, Kind: kind}
	err = repo.Db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(obj).Error
	})
	if err != nil {
		_ = storage.Default.Remove(ctx, blob)
		return nil, apperr.Database(err)
	}
	cacheObject(ctx, obj)
	return obj, nil
}

// StoreObject writes a whole object in one call: blob bytes streamed through
// a sha256 accumulator, then the metadata row. Fails when the blob already
// exists; EditObject is the overwrite path.
func StoreObject(ctx context.Context, key string, kind *string, r io.Reader) (*model.Object, error) {
	key = NormalizeKey(key)
	if key == "" {
		return nil, apperr.BadRequest("key required")
	}
	blob := storage.BlobName(key)
	exists, err := storage.Default.Exists(ctx, blob)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.BadRequest("already exists")
	}

	hash, size, err := writeBlob(ctx, blob, r)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	obj := &model.Object{Key: key, Kind: kind, Size: size, Hash: hash}
	if err := repo.Db.Create(obj).Error; err != nil {
		_ = storage.Default.Remove(ctx, blob)
		return nil, apperr.Database(err)
	}
	cacheObject(ctx, obj)
	return obj, nil
}

// EditObject overwrites an existing object's contents and metadata.
func EditObject(ctx context.Context, key string, r io.Reader) (*model.Object, error) {
	obj, err := GetObjectByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	blob := storage.BlobName(obj.Key)
	hash, size, err := writeBlob(ctx, blob, r)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := repo.Db.Model(&model.Object{}).
		Where("id = ?", obj.ID).
		Updates(map[string]interface{}{"hash": hash, "size": size}).Error; err != nil {
		return nil, apperr.Database(err)
	}
	_ = utils.InvalidateObjectCache(ctx, obj)
	return GetObjectByID(ctx, obj.ID)
}

// writeBlob streams r into the blob while hashing and counting.
func writeBlob(ctx context.Context, blob string, r io.Reader) (string, int64, error) {
	w, err := storage.Default.Writer(ctx, blob)
	if err != nil {
		return "", 0, err
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(w, hasher), r)
	if err != nil {
		_ = w.Close()
		return "", 0, err
	}
	if err := w.Close(); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}

// AppendObject appends bytes to an object's blob. The stored size is the
// file's measured length after the write, not an accumulated delta, so a
// retried append cannot drift the metadata.
func AppendObject(ctx context.Context, id uint64, r io.Reader) (*model.Object, error) {
	obj, err := GetObjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	blob := storage.BlobName(obj.Key)
	if _, err := storage.Default.Append(ctx, blob, r); err != nil {
		return nil, apperr.Internal(err)
	}
	size, err := storage.Default.Stat(ctx, blob)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := repo.Db.Model(&model.Object{}).
		Where("id = ?", id).
		Update("size", size).Error; err != nil {
		return nil, apperr.Database(err)
	}
	_ = utils.InvalidateObjectCache(ctx, obj)
	return GetObjectByID(ctx, id)
}

// MoveObject updates an object's key, preserving kind when none is supplied,
// and relocates the blob to the new key's derived name.
func MoveObject(ctx context.Context, id uint64, newKey string, kind *string) (*model.Object, error) {
	obj, err := GetObjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	newKey = NormalizeKey(newKey)
	if newKey == "" {
		return nil, apperr.BadRequest("key required")
	}
	if newKey == obj.Key && kind == nil {
		return obj, nil
	}

	oldBlob := storage.BlobName(obj.Key)
	newBlob := storage.BlobName(newKey)
	if newBlob != oldBlob {
		if err := storage.Default.Rename(ctx, oldBlob, newBlob); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	updates := map[string]interface{}{"object_key": newKey}
	if kind != nil {
		updates["kind"] = *kind
	}
	if err := repo.Db.Model(&model.Object{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		if newBlob != oldBlob {
			_ = storage.Default.Rename(ctx, newBlob, oldBlob)
		}
		return nil, apperr.Database(err)
	}
	_ = utils.InvalidateObjectCache(ctx, obj)
	return GetObjectByID(ctx, id)
}

// DeleteObject removes the metadata row transactionally, then hands the blob
// to the gc queue. Blob removal is outside the transaction: a crash after the
// commit leaves an orphan blob until a worker or the sweep picks it up.
func DeleteObject(ctx context.Context, id uint64) (*model.Object, error) {
	obj, err := GetObjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = repo.Db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&model.Object{}, id).Error
	})
	if err != nil {
		return nil, apperr.Database(err)
	}
	_ = utils.InvalidateObjectCache(ctx, obj)

	blob := storage.BlobName(obj.Key)
	if err := mq.PublishBlobRemoval(ctx, blob); err != nil {
		log.Printf("gc publish failed, removing blob inline: %v", err)
		if err := storage.Default.Remove(ctx, blob); err != nil {
			log.Printf("inline blob removal failed: %v", err)
		}
	}
	return obj, nil
}

// ReadObject opens an object's blob for streaming.
func ReadObject(ctx context.Context, id uint64) (io.ReadCloser, *model.Object, error) {
	obj, err := GetObjectByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reader, _, err := storage.Default.Open(ctx, storage.BlobName(obj.Key))
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	return reader, obj, nil
}
