package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var ErrDocumentNotFound = errors.New("DOCUMENT_NOT_FOUND")

// ProjectionSource：缓存 miss 时的回源端，由 store 层实现。
// 第二个返回值表示文档/版本是否存在（不存在触发空值缓存）。
type ProjectionSource interface {
	MarkdownProjection(ctx context.Context, docID, rev uint64) (string, bool, error)
}

type RenderCache interface {
	GetMarkdown(ctx context.Context, docID, rev uint64) (string, error)
	// Invalidate 在文档保存后清掉旧版本的投影
	Invalidate(ctx context.Context, docID, rev uint64) error
}

// 具体实现：基于 redis 的投影缓存，singleflight 合并并发回源
type redisRenderCache struct {
	rdb    redis.UniversalClient
	sf     singleflight.Group
	source ProjectionSource
}

func NewRedisRenderCache(rdb redis.UniversalClient, source ProjectionSource) RenderCache {
	return &redisRenderCache{rdb: rdb, source: source}
}

func (r *redisRenderCache) GetMarkdown(ctx context.Context, docID, rev uint64) (string, error) {
	key := markdownKey(docID, rev)

	val, err, _ := r.sf.Do(key, func() (interface{}, error) {
		v, hit, err := r.readCache(ctx, key)
		if err != nil {
			return "", err
		}
		if hit {
			return v, nil
		}

		// 回源 (Redis Miss)，从存储渲染投影
		md, exists, err := r.source.MarkdownProjection(ctx, docID, rev)
		if err != nil {
			return "", err
		}
		if !exists {
			// 填空值缓存，防止缓存穿透
			_ = r.writeNullCache(ctx, key)
			return "", ErrDocumentNotFound
		}
		_ = r.writeCache(ctx, key, md)
		return md, nil
	})
	if err != nil {
		return "", err
	}
	if s, ok := val.(string); ok {
		return s, nil
	}
	return "", errors.New("internal type error")
}

func (r *redisRenderCache) Invalidate(ctx context.Context, docID, rev uint64) error {
	return r.rdb.Del(ctx, markdownKey(docID, rev)).Err()
}
