package config

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

const (
	BASE_BACKOFF   = 1 * time.Second
	MAX_BACKOFF    = 2 * time.Minute
	BACKOFF_FACTOR = 2.0
	JITTER_FACTOR  = 0.5
)

type backoffData struct {
	BackoffDelay time.Duration
	NextRetryAt  time.Time
}

// BackoffStore remembers, per key, when a failing upstream may be tried again.
type BackoffStore struct {
	mu       sync.RWMutex
	backoffs map[string]backoffData
}

func NewBackoffStore() *BackoffStore {
	return &BackoffStore{
		backoffs: make(map[string]backoffData),
	}
}

func (s *BackoffStore) NextRetryAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if backoff, exists := s.backoffs[key]; exists {
		return backoff.NextRetryAt.UTC(), true
	}
	return time.Time{}, false
}

// ShouldWait reports whether key is still backing off at now.
func (s *BackoffStore) ShouldWait(key string, now time.Time) bool {
	next, exists := s.NextRetryAt(key)
	return exists && now.Before(next)
}

func (s *BackoffStore) UpdateBackoff(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if backoff, exists := s.backoffs[key]; exists {
		backoff.BackoffDelay = calculateNewBackoffDelay(backoff.BackoffDelay)
		backoff.NextRetryAt = calculateNextRetryAt(backoff.BackoffDelay)
		s.backoffs[key] = backoff
	} else {
		s.backoffs[key] = backoffData{
			BackoffDelay: BASE_BACKOFF,
			NextRetryAt:  calculateNextRetryAt(BASE_BACKOFF),
		}
	}
}

func (s *BackoffStore) ResetBackoff(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.backoffs, key)
}

// DoWithBackoff sends req, retrying transport errors and 5xx responses with
// exponential backoff and jitter. maxRetries <= 0 retries until ctx is done.
// When retries run out on a 5xx the last response is returned for the caller
// to inspect.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	delay := BASE_BACKOFF
	var lastErr error

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.WithContext(ctx))
		exhausted := maxRetries > 0 && attempt >= maxRetries

		switch {
		case err == nil && resp.StatusCode < http.StatusInternalServerError:
			return resp, nil
		case err == nil && exhausted:
			return resp, nil
		case err == nil:
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		default:
			lastErr = err
		}

		if exhausted {
			return nil, fmt.Errorf("max retries exceeded after %d attempts: %w", attempt+1, lastErr)
		}

		wait := time.Until(calculateNextRetryAt(delay))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = calculateNewBackoffDelay(delay)
	}
}

func calculateNextRetryAt(backoff time.Duration) time.Time {
	jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
	backoff += jitter
	if backoff > MAX_BACKOFF {
		backoff = MAX_BACKOFF
	}
	return time.Now().Add(backoff).UTC()
}

func calculateNewBackoffDelay(backoffDelay time.Duration) time.Duration {
	backoffDelay *= BACKOFF_FACTOR
	if backoffDelay >= MAX_BACKOFF {
		backoffDelay = MAX_BACKOFF
	}
	return backoffDelay
}
