package services

import (
	"context"
	"sync"
	"time"
)

// LocalClaimer is an in-process Claimer for single-instance deployments.
type LocalClaimer struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

func NewLocalClaimer() *LocalClaimer {
	return &LocalClaimer{claims: make(map[string]time.Time)}
}

func (c *LocalClaimer) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if expires, ok := c.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	c.claims[key] = now.Add(ttl)
	return true, nil
}

func (c *LocalClaimer) Release(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.claims, key)
	c.mu.Unlock()
	return nil
}
