package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/pullum327/Reactorder/internal/cache"
)

const listCacheKey = "products:all"

// CachedRepository serves the public product listing from Redis with a short
// TTL. GetByIDs always goes to the database: order validation must see
// authoritative price and stock, never a cached snapshot.
type CachedRepository struct {
	repo   Repository
	cache  *cache.Cache
	logger *log.Logger
}

func NewCachedRepository(repo Repository, c *cache.Cache, logger *log.Logger) *CachedRepository {
	return &CachedRepository{repo: repo, cache: c, logger: logger}
}

func (r *CachedRepository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	err := r.cache.Get(ctx, listCacheKey, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Printf("catalog cache get: %v", err)
	}

	products, err = r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, listCacheKey, products); err != nil {
		r.logger.Printf("catalog cache set: %v", err)
	}
	return products, nil
}

func (r *CachedRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	return r.repo.GetByIDs(ctx, ids)
}
