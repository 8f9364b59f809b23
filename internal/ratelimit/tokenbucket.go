package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultLimitPerSec = 10

var _ RateLimiter = (*TokenBucketLimiter)(nil)

// TokenBucketLimiter is an in-process limiter with one token bucket per
// scope. Burst equals the per-second limit, so a full batch can start
// immediately while aggregate throughput stays at or below the limit.
type TokenBucketLimiter struct {
	limitPerSec int
	buckets     map[string]*rate.Limiter
	mu          sync.Mutex
}

func NewTokenBucketLimiter(limitPerSec int) *TokenBucketLimiter {
	if limitPerSec <= 0 {
		limitPerSec = defaultLimitPerSec
	}

	return &TokenBucketLimiter{
		limitPerSec: limitPerSec,
		buckets:     make(map[string]*rate.Limiter),
	}
}

func (l *TokenBucketLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	bucket, err := l.bucket(scope)
	if err != nil {
		return false, err
	}
	return bucket.Allow(), nil
}

func (l *TokenBucketLimiter) Wait(ctx context.Context, scope string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bucket, err := l.bucket(scope)
	if err != nil {
		return err
	}
	return bucket.Wait(ctx)
}

func (l *TokenBucketLimiter) bucket(scope string) (*rate.Limiter, error) {
	normalized := strings.ToLower(strings.TrimSpace(scope))
	if normalized == "" {
		return nil, fmt.Errorf("scope is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[normalized]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(l.limitPerSec), l.limitPerSec)
		l.buckets[normalized] = bucket
	}
	return bucket, nil
}
