package ratelimit

import "context"

// RateLimiter paces outbound sends per scope (one scope per campaign run).
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
