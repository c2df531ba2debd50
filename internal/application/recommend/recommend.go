// Package recommend 基于购买记录类型频次的图书推荐
package recommend

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// computeTimeout 合并计算的超时,计算不再跟随发起请求的ctx取消
const computeTimeout = 10 * time.Second

// 推荐策略(指标标签)
const (
	StrategyColdStart = "cold_start"
	StrategyGenre     = "genre"
)

// Cache 推荐结果缓存端口,由persistence/redis.JSONCache实现
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Recommendation 推荐的一本书
type Recommendation struct {
	BookID uint   `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Price  *int64 `json:"price"`
}

// RecommendUseCase 推荐用例
//
// 算法:
//  1. 统计已购图书的类型标签频次,频次高的在前,频次相同按首次出现顺序
//  2. 依次取每个类型下的图书(类型字段包含该标签,按价格降序),跳过已购买和已选中的
//  3. 凑满limit本或类型用完为止
//  4. 没有任何类型标签时冷启动:按价格降序取前limit本未购买的图书
//
// 推荐只读,不修改购物车、库存和购买记录。
type RecommendUseCase struct {
	bookRepo     book.Repository
	purchaseRepo purchase.Repository
	cache        Cache // 可以为nil
	cacheTTL     time.Duration
	group        singleflight.Group
}

// NewRecommendUseCase 创建推荐用例,cache为nil时不缓存
func NewRecommendUseCase(bookRepo book.Repository, purchaseRepo purchase.Repository, cache Cache, cacheTTL time.Duration) *RecommendUseCase {
	return &RecommendUseCase{
		bookRepo:     bookRepo,
		purchaseRepo: purchaseRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

// Execute 为用户推荐最多limit本书
// userID为0或limit<=0时返回空列表
func (uc *RecommendUseCase) Execute(ctx context.Context, userID uint, limit int) ([]Recommendation, error) {
	if userID == 0 || limit <= 0 {
		return []Recommendation{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, "recommend", "Recommend")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", int64(userID)), attribute.Int("limit", limit))

	history, err := uc.purchaseRepo.GetOrCreate(ctx, userID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	// 缓存key包含购买记录指纹:新的购买会换一个key,不会返回包含已购图书的旧结果
	key := fmt.Sprintf("%d:%d:%x", userID, limit, history.Fingerprint())
	if recs, ok := uc.fromCache(ctx, key); ok {
		return recs, nil
	}

	v, err, shared := uc.group.Do(key, func() (any, error) {
		// 同key的请求共享这次计算,第一个请求断开不能让其余请求一起失败
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		recs, strategy, err := uc.compute(computeCtx, history, limit)
		if err != nil {
			return nil, err
		}
		metrics.RecordRecommendation(strategy)
		span.SetAttributes(attribute.String("strategy", strategy))
		uc.toCache(computeCtx, key, recs)
		return recs, nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	recs := v.([]Recommendation)
	if shared {
		recs = slices.Clone(recs)
	}
	return recs, nil
}

func (uc *RecommendUseCase) compute(ctx context.Context, history *purchase.History, limit int) ([]Recommendation, string, error) {
	owned := history.OwnedIDs()

	genres := RankGenres(history.GenresOwned())
	if len(genres) == 0 {
		recs, err := uc.coldStart(ctx, owned, limit)
		return recs, StrategyColdStart, err
	}

	chosen := make(map[uint]struct{}, limit)
	recs := make([]Recommendation, 0, limit)
	for _, genre := range genres {
		candidates, err := uc.bookRepo.FindByGenreSubstring(ctx, genre)
		if err != nil {
			return nil, "", err
		}
		for _, b := range candidates {
			if _, ok := owned[b.ID]; ok {
				continue
			}
			if _, ok := chosen[b.ID]; ok {
				continue
			}
			chosen[b.ID] = struct{}{}
			recs = append(recs, toRecommendation(b))
			if len(recs) == limit {
				return recs, StrategyGenre, nil
			}
		}
	}
	return recs, StrategyGenre, nil
}

// coldStart 多取len(owned)本,过滤掉已购买的仍能凑满limit
func (uc *RecommendUseCase) coldStart(ctx context.Context, owned map[uint]struct{}, limit int) ([]Recommendation, error) {
	top, err := uc.bookRepo.FindTopByPriceDesc(ctx, limit+len(owned))
	if err != nil {
		return nil, err
	}
	recs := make([]Recommendation, 0, limit)
	for _, b := range top {
		if _, ok := owned[b.ID]; ok {
			continue
		}
		recs = append(recs, toRecommendation(b))
		if len(recs) == limit {
			break
		}
	}
	return recs, nil
}

// RankGenres 按频次降序排列类型标签,频次相同保持首次出现的顺序
func RankGenres(tokens []string) []string {
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	return order
}

func (uc *RecommendUseCase) fromCache(ctx context.Context, key string) ([]Recommendation, bool) {
	if uc.cache == nil {
		return nil, false
	}
	var recs []Recommendation
	ok, err := uc.cache.Get(ctx, key, &recs)
	switch {
	case err != nil:
		metrics.RecordRecommendCache("error")
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("读取推荐缓存失败")
		return nil, false
	case !ok:
		metrics.RecordRecommendCache("miss")
		return nil, false
	}
	metrics.RecordRecommendCache("hit")
	if recs == nil {
		recs = []Recommendation{}
	}
	return recs, true
}

func (uc *RecommendUseCase) toCache(ctx context.Context, key string, recs []Recommendation) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, recs, uc.cacheTTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("写入推荐缓存失败")
	}
}

func toRecommendation(b *book.Book) Recommendation {
	return Recommendation{
		BookID: b.ID,
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
		Price:  b.Price,
	}
}
