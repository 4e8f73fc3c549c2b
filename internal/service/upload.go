package service

import (
	"blobvault/config"
	"blobvault/internal/apperr"
	"blobvault/internal/repo"
	"blobvault/internal/storage"
	"blobvault/model"
	"blobvault/utils"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/net/context"
	"gorm.io/gorm/clause"
)

// stagingDir is where an upload's part files accumulate. The token
// fingerprint names the directory, so retried requests with the same token
// land in the same staging area.
func stagingDir(claims *utils.UploadClaims) string {
	return filepath.Join(config.AppConfig.UploadsDir, claims.Fingerprint())
}

// CreateUpload prepares the staging directory for an upload token.
// Idempotent: re-creating an in-progress upload is a no-op.
func CreateUpload(claims *utils.UploadClaims) error {
	if err := os.MkdirAll(stagingDir(claims), 0755); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UploadPart stores one part under its index and returns the part's sha256.
// Re-sending an index overwrites the earlier bytes.
func UploadPart(ctx context.Context, claims *utils.UploadClaims, index int, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Internal(err)
	}
	if index < 0 {
		return "", apperr.BadRequest("invalid part index")
	}
	dir := stagingDir(claims)
	if _, err := os.Stat(dir); err != nil {
		return "", apperr.BadRequest("no such upload")
	}

	file, err := os.Create(filepath.Join(dir, strconv.Itoa(index)))
	if err != nil {
		return "", apperr.Internal(err)
	}
	hasher := sha256.New()
	_, err = io.Copy(io.MultiWriter(file, hasher), r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FinishUpload assembles the staged parts in index order into the object's
// blob, hashing the merged stream, then upserts the metadata row on the key.
// An assembly error leaves the staging directory in place so the client can
// retry finish without re-sending parts.
func FinishUpload(ctx context.Context, claims *utils.UploadClaims) (*model.Object, error) {
	dir := stagingDir(claims)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.BadRequest("no parts found")
	}
	type part struct {
		index int
		name  string
	}
	parts := make([]part, 0, len(entries))
	for _, entry := range entries {
		index, err := strconv.Atoi(entry.Name())
		if err != nil || index < 0 {
			continue
		}
		parts = append(parts, part{index: index, name: entry.Name()})
	}
	if len(parts) == 0 {
		return nil, apperr.BadRequest("no parts found")
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	key := NormalizeKey(claims.Key)
	blob := storage.BlobName(key)
	w, err := storage.Default.Writer(ctx, blob)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hasher := sha256.New()
	merged := io.MultiWriter(w, hasher)
	var size int64
	for _, p := range parts {
		file, err := os.Open(filepath.Join(dir, p.name))
		if err != nil {
			_ = w.Close()
			return nil, apperr.Internal(err)
		}
		n, err := io.Copy(merged, file)
		_ = file.Close()
		if err != nil {
			_ = w.Close()
			return nil, apperr.Internal(err)
		}
		size += n
	}
	if err := w.Close(); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, apperr.Internal(err)
	}

	obj := &model.Object{Key: key, Size: size, Hash: hex.EncodeToString(hasher.Sum(nil))}
	err = repo.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"hash", "size", "updated_at"}),
	}).Create(obj).Error
	if err != nil {
		return nil, apperr.Database(err)
	}

	_ = utils.InvalidateObjectCache(ctx, obj)
	return GetObjectByKey(ctx, key)
}
