package utils

import (
	"blobvault/internal/repo"
	"blobvault/model"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Object-row cache on Redis. Every helper is a no-op when Redis is not
// configured, so the service layer can call these unconditionally.

const (
	cacheKeyObject    = "object"
	cacheKeyObjectKey = "object:key"
)

// BuildCacheKey builds a cache key.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

// SetObjectToCache caches an object row by id and key.
func SetObjectToCache(ctx context.Context, obj *model.Object, expiration time.Duration) error {
	if repo.Redis == nil || obj == nil {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := repo.Redis.Set(ctx, BuildCacheKey(cacheKeyObject, obj.ID), string(data), expiration).Err(); err != nil {
		return err
	}
	return repo.Redis.Set(ctx, BuildCacheKey(cacheKeyObjectKey, obj.Key), obj.ID, expiration).Err()
}

// GetObjectFromCache reads a cached object row by id.
func GetObjectFromCache(ctx context.Context, id uint64) (*model.Object, bool) {
	if repo.Redis == nil {
		return nil, false
	}
	val, err := repo.Redis.Get(ctx, BuildCacheKey(cacheKeyObject, id)).Result()
	if err != nil {
		return nil, false
	}
	var obj model.Object
	if err := json.Unmarshal([]byte(val), &obj); err != nil {
		return nil, false
	}
	return &obj, true
}

// GetObjectIDByKey reads a cached object id by key.
func GetObjectIDByKey(ctx context.Context, key string) (uint64, bool) {
	if repo.Redis == nil {
		return 0, false
	}
	id, err := repo.Redis.Get(ctx, BuildCacheKey(cacheKeyObjectKey, key)).Uint64()
	if err != nil {
		return 0, false
	}
	return id, true
}

// InvalidateObjectCache clears cached entries for an object row.
func InvalidateObjectCache(ctx context.Context, obj *model.Object) error {
	if repo.Redis == nil || obj == nil {
		return nil
	}
	return repo.Redis.Del(
		ctx,
		BuildCacheKey(cacheKeyObject, obj.ID),
		BuildCacheKey(cacheKeyObjectKey, obj.Key),
	).Err()
}
