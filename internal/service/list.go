package service

import (
	"blobvault/internal/apperr"
	"blobvault/internal/repo"
	"blobvault/model"
	"sort"
	"strings"

	"golang.org/x/net/context"
)

// DirectoryKind marks folded directory entries in listings.
const DirectoryKind = "directory"

// ListObjects pages through the keys under prefix and folds them into one
// directory level. Pagination applies to the flat rows before folding, so a
// directory spanning a page boundary shows up on both pages with partial
// aggregates.
func ListObjects(ctx context.Context, prefix string, limit, offset int) ([]model.Object, bool, error) {
	prefix = NormalizeKey(prefix)

	query := repo.Db.WithContext(ctx).Model(&model.Object{})
	if prefix != "" {
		query = query.Where("object_key LIKE ?", prefix+"/%")
	}
	var rows []model.Object
	err := query.Order("object_key").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, false, apperr.Database(err)
	}
	hasMore := len(rows) == limit
	return FoldObjects(prefix, rows), hasMore, nil
}

// FoldObjects collapses flat key rows into the entries of one directory
// level. Keys exactly one segment below the prefix pass through as files;
// deeper keys fold into a synthetic directory entry per first segment. A
// directory's size is the sum of its folded rows, its created_at the oldest
// child's and its updated_at the newest child's.
func FoldObjects(prefix string, rows []model.Object) []model.Object {
	depth := 0
	if prefix != "" {
		depth = len(strings.Split(prefix, "/"))
	}

	var files []model.Object
	dirs := make(map[string]*model.Object)

	for _, row := range rows {
		parts := strings.Split(row.Key, "/")
		if len(parts) <= depth {
			continue
		}
		if len(parts) == depth+1 {
			files = append(files, row)
			continue
		}
		name := parts[depth]
		dir, ok := dirs[name]
		if !ok {
			kind := DirectoryKind
			key := name
			if prefix != "" {
				key = prefix + "/" + name
			}
			dirs[name] = &model.Object{
				Key:       key,
				Kind:      &kind,
				Size:      row.Size,
				CreatedAt: row.CreatedAt,
				UpdatedAt: row.UpdatedAt,
			}
			continue
		}
		dir.Size += row.Size
		if row.CreatedAt.Before(dir.CreatedAt) {
			dir.CreatedAt = row.CreatedAt
		}
		if row.UpdatedAt.After(dir.UpdatedAt) {
			dir.UpdatedAt = row.UpdatedAt
		}
	}

	entries := make([]model.Object, 0, len(dirs)+len(files))
	for _, dir := range dirs {
		entries = append(entries, *dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	entries = append(entries, files...)
	return entries
}
