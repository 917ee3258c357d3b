// Package provider implements a generic fallback chain over external
// speech and translation providers. A chain is an ordered list of attempts
// plus a policy; the STT, translation and TTS selectors all execute through
// the same machinery and differ only in their provider lists and payloads.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Sentinel errors for chain execution.
var (
	// ErrEmptyResult is returned when a provider produced no usable payload
	// and no further fallback is permitted.
	ErrEmptyResult = errors.New("provider: empty result")

	// ErrExhausted is returned when every attempt in a chain failed and no
	// terminal fallback was configured.
	ErrExhausted = errors.New("provider: all providers failed")

	// ErrNoAttempts is returned when a chain has no attempts at all.
	ErrNoAttempts = errors.New("provider: no attempts configured")
)

// DefaultAttemptTimeout bounds a single provider call when the chain does
// not specify its own timeout.
const DefaultAttemptTimeout = 8 * time.Second

// Attempt is one provider invocation in a chain.
type Attempt[T any] struct {
	// Name identifies the provider for logging and result attribution.
	Name string

	// Run invokes the provider.
	Run func(ctx context.Context) (T, error)

	// RunNoHint, when set, re-invokes the provider with any language hint
	// cleared. It is tried once when Run returns an unusable result; this
	// recovers cases where a wrong hint suppresses detection.
	RunNoHint func(ctx context.Context) (T, error)
}

// Chain executes attempts in order until one yields a usable result.
type Chain[T any] struct {
	// Attempts are tried in order.
	Attempts []Attempt[T]

	// FallbackEnabled permits advancing past a failed attempt. When false,
	// the first attempt's failure is surfaced immediately.
	FallbackEnabled bool

	// Terminal, when set, is a deterministic last resort run unconditionally
	// after every attempt is exhausted. It is expected to always succeed.
	Terminal *Attempt[T]

	// Usable reports whether a payload returned without error is acceptable.
	// When nil every error-free payload is usable.
	Usable func(T) bool

	// Timeout bounds each individual attempt. Zero means
	// DefaultAttemptTimeout.
	Timeout time.Duration

	// Logger receives per-attempt diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Execute runs the chain and returns the first usable payload along with the
// name of the provider that produced it. Provider errors and panics are
// absorbed; the only errors returned describe the chain outcome itself.
func (c *Chain[T]) Execute(ctx context.Context) (T, string, error) {
	var zero T
	if len(c.Attempts) == 0 && c.Terminal == nil {
		return zero, "", ErrNoAttempts
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var firstErr error
	for i, attempt := range c.Attempts {
		result, err := c.invoke(ctx, attempt.Run)
		if err == nil && c.usable(result) {
			if i > 0 {
				logger.Info("fallback provider succeeded", "provider", attempt.Name, "position", i)
			}
			return result, attempt.Name, nil
		}

		if attempt.RunNoHint != nil {
			retried, retryErr := c.invoke(ctx, attempt.RunNoHint)
			if retryErr == nil && c.usable(retried) {
				logger.Info("retry without language hint succeeded", "provider", attempt.Name)
				return retried, attempt.Name, nil
			}
		}

		if err == nil {
			err = fmt.Errorf("%w from %s", ErrEmptyResult, attempt.Name)
		}
		if firstErr == nil {
			firstErr = err
		}
		logger.Warn("provider attempt failed", "provider", attempt.Name, "error", err)

		if !c.FallbackEnabled {
			return zero, attempt.Name, err
		}
		if ctx.Err() != nil {
			return zero, attempt.Name, ctx.Err()
		}
	}

	if c.Terminal != nil {
		result, err := c.invoke(ctx, c.Terminal.Run)
		if err == nil && c.usable(result) {
			logger.Warn("all providers failed, using terminal fallback",
				"provider", c.Terminal.Name,
			)
			return result, c.Terminal.Name, nil
		}
		logger.Error("terminal fallback failed", "provider", c.Terminal.Name, "error", err)
	}

	if firstErr != nil {
		return zero, "", fmt.Errorf("%w: %v", ErrExhausted, firstErr)
	}
	return zero, "", ErrExhausted
}

// invoke runs one provider call under its own timeout, converting panics
// into errors so a misbehaving provider cannot take down the chain.
func (c *Chain[T]) invoke(ctx context.Context, run func(ctx context.Context) (T, error)) (result T, err error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return run(callCtx)
}

func (c *Chain[T]) usable(result T) bool {
	if c.Usable == nil {
		return true
	}
	return c.Usable(result)
}

// NonEmptyText is the usability predicate shared by the text-producing
// selectors: the primary payload must be non-empty after trimming.
func NonEmptyText(text string) bool {
	return strings.TrimSpace(text) != ""
}
