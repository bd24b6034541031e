// Package cache provides Redis caching for published tour lookups. The public
// playback surface is read-heavy; a short-lived cached copy of the tour
// document keeps popular share links off MongoDB. View and click counters are
// always incremented in the store, so a cached document may trail the live
// counters by at most the TTL.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strollio/backend/internal/models"
)

const (
	tourSlugKeyPrefix = "tour:slug:"

	defaultTTL = 30 * time.Second
)

// TourCache defines the caching operations for published tours.
type TourCache interface {
	// GetBySlug retrieves a cached tour by share slug. A miss returns (nil, nil).
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)

	// SetBySlug stores a tour under its share slug.
	SetBySlug(ctx context.Context, tour *models.Tour) error

	// InvalidateSlug drops a cached tour after an authoring mutation.
	InvalidateSlug(ctx context.Context, slug string) error

	// Close closes the cache connection.
	Close() error
}

// RedisTourCache implements TourCache using Redis.
type RedisTourCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTourCache connects to Redis and returns a tour cache.
func NewRedisTourCache(redisURL string) (*RedisTourCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to Redis!")
	return &RedisTourCache{client: client, ttl: defaultTTL}, nil
}

// GetBySlug retrieves a cached tour. Cache errors degrade to a miss so Redis
// being down never takes the public surface with it.
func (c *RedisTourCache) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	data, err := c.client.Get(ctx, tourSlugKeyPrefix+slug).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		log.Printf("tour cache read failed for slug %s: %v", slug, err)
		return nil, nil
	}

	var tour models.Tour
	if err := json.Unmarshal(data, &tour); err != nil {
		log.Printf("tour cache held malformed document for slug %s: %v", slug, err)
		return nil, nil
	}
	return &tour, nil
}

// SetBySlug stores a tour under its share slug with the cache TTL.
func (c *RedisTourCache) SetBySlug(ctx context.Context, tour *models.Tour) error {
	if tour.ShareSlug == "" {
		return nil
	}
	data, err := json.Marshal(tour)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tourSlugKeyPrefix+tour.ShareSlug, data, c.ttl).Err()
}

// InvalidateSlug removes a cached tour after its document changed.
func (c *RedisTourCache) InvalidateSlug(ctx context.Context, slug string) error {
	if slug == "" {
		return nil
	}
	return c.client.Del(ctx, tourSlugKeyPrefix+slug).Err()
}

// Close closes the Redis connection.
func (c *RedisTourCache) Close() error {
	return c.client.Close()
}
