package llm

import (
	"context"
	"fmt"
	"time"

	"fortuna/internal/domain"

	"go.uber.org/zap"
)

// Retrier retries a Generator a fixed number of times with a fixed delay.
// Exhausted attempts are reported as domain.ErrUpstream.
type Retrier struct {
	next     Generator
	attempts int
	delay    time.Duration
	log      *zap.Logger
}

func NewRetrier(next Generator, attempts int, delay time.Duration, log *zap.Logger) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrier{next: next, attempts: attempts, delay: delay, log: log.Named("llm")}
}

func (r *Retrier) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		r.log.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Error(err))
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", domain.ErrUpstream, ctx.Err())
		case <-time.After(r.delay):
		}
	}
	return "", fmt.Errorf("%w: generation failed: %v", domain.ErrUpstream, lastErr)
}
