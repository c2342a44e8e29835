package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/JaimeStill/reelsync/pkg/metrics"
)

const breakerName = "registry"

// Breaker wraps an API with a circuit breaker. Consecutive transport or 5xx
// failures open the circuit; 4xx responses never count against it.
type Breaker struct {
	api    API
	cb     *gobreaker.CircuitBreaker[any]
	logger *slog.Logger
}

// NewBreaker wraps api using the breaker settings in cfg.
func NewBreaker(api API, cfg *Config, logger *slog.Logger) *Breaker {
	logger = logger.With("system", "registry-breaker")
	threshold := uint32(cfg.BreakerFailures)

	metrics.RegistryBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldownDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || clientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.RegistryBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Breaker{
		api:    api,
		cb:     cb,
		logger: logger,
	}
}

func (b *Breaker) FindCollection(ctx context.Context, parentID, externalID string) (*Collection, error) {
	return execute(b, "find_collection", func() (*Collection, error) {
		return b.api.FindCollection(ctx, parentID, externalID)
	})
}

func (b *Breaker) FindCollectionByAncestor(ctx context.Context, ancestorID, externalID string) (*Collection, error) {
	return execute(b, "find_collection_by_ancestor", func() (*Collection, error) {
		return b.api.FindCollectionByAncestor(ctx, ancestorID, externalID)
	})
}

func (b *Breaker) CreateCollection(ctx context.Context, parentID, externalID, title string) (*Collection, error) {
	return execute(b, "create_collection", func() (*Collection, error) {
		return b.api.CreateCollection(ctx, parentID, externalID, title)
	})
}

func (b *Breaker) SetDescription(ctx context.Context, collectionID, text string) error {
	_, err := execute(b, "set_description", func() (struct{}, error) {
		return struct{}{}, b.api.SetDescription(ctx, collectionID, text)
	})
	return err
}

func (b *Breaker) CurrentUser(ctx context.Context) (*User, error) {
	return execute(b, "current_user", func() (*User, error) {
		return b.api.CurrentUser(ctx)
	})
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *Breaker, op string, fn func() (T, error)) (T, error) {
	var zero T

	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn("registry call rejected", "op", op, "error", err)
			return zero, &Error{
				Op:      op,
				Message: err.Error(),
				Err:     fmt.Errorf("%w: %w", ErrUnavailable, err),
			}
		}
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("registry %s: unexpected result type %T", op, result)
	}
	return typed, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
