// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/taxonify/core"
)

// RetryPolicy retries an operation with exponential backoff. The zero value
// is not usable; construct with DefaultRetryPolicy or fill all fields.
//
// The delay before retry n is InitialDelay * Multiplier^(n-1), capped at
// MaxDelay. Only errors accepted by Retryable are retried; all other errors
// return immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// Multiplier scales the delay after each retry.
	Multiplier float64

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Retryable reports whether an error is worth retrying.
	// If nil, only core.ErrResourceExhausted is retried.
	Retryable func(error) bool

	// Sleep waits for the given duration or until the context is done.
	// If nil, a context-aware timer is used. Tests inject a fake.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the provider rate-limit policy: up to 10
// attempts with delays 5s, 10s, 20s, 40s, then capped at 70s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: 5 * time.Second,
		Multiplier:   2,
		MaxDelay:     70 * time.Second,
	}
}

// Do runs the operation under the policy. Returns the error from the last
// attempt when all attempts fail, or the first non-retryable error.
func (p RetryPolicy) Do(ctx context.Context, operation func() error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool {
			return errors.Is(err, core.ErrResourceExhausted)
		}
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "err", lastErr)

		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
