package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const listingCacheKeyPrefix = "adoption_listing:"

type listingCache struct {
	client redis.Cmdable
}

func NewListingCache(client redis.Cmdable) repository.ListingCache {
	return &listingCache{client: client}
}

func listingKey(id string) string {
	return listingCacheKeyPrefix + id
}

func (c *listingCache) Get(ctx context.Context, id string) (*entity.Listing, error) {
	val, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get listing %s from cache: %w", id, err)
	}

	var listing entity.Listing
	if err := json.Unmarshal(val, &listing); err != nil {
		_ = c.Delete(ctx, id)
		return nil, fmt.Errorf("failed to unmarshal cached listing %s: %w", id, err)
	}
	return &listing, nil
}

func (c *listingCache) Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error {
	if listing == nil || listing.ID == "" {
		return errors.New("cannot cache nil listing or listing with empty ID")
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s: %w", listing.ID, err)
	}
	if err := c.client.Set(ctx, listingKey(listing.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache listing %s: %w", listing.ID, err)
	}
	return nil
}

func (c *listingCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, listingKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict listing %s from cache: %w", id, err)
	}
	return nil
}
