package cache

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BaseTTL = 24 * time.Hour   // 基础过期时间
	Jitter  = 60 * time.Minute // 随机抖动范围
	// 空值标记：文档不存在时也写一条短 TTL 的占位，防止缓存穿透。
	// 投影本身可能是空串，所以用一个不可能出现在 markdown 里的哨兵值。
	EmptyCacheMarker = "\x00nil"
)

// 获取随机TTL，防止缓存雪崩
func getRandomTTL() time.Duration {
	return BaseTTL + time.Duration(rand.Int63n(int64(Jitter)))
}

func (r *redisRenderCache) readCache(ctx context.Context, key string) (string, bool, error) {
	res, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	if res == EmptyCacheMarker {
		// 占位命中：文档不存在，不再回源
		return "", false, ErrDocumentNotFound
	}
	return res, true, nil
}

func (r *redisRenderCache) writeCache(ctx context.Context, key string, val string) error {
	return r.rdb.Set(ctx, key, val, getRandomTTL()).Err()
}

func (r *redisRenderCache) writeNullCache(ctx context.Context, key string) error {
	return r.rdb.Set(ctx, key, EmptyCacheMarker, 5*time.Minute).Err()
}
