package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Strategy is one way to obtain a result. Chains replace nested
// fallback-on-error handling: strategies are tried in order and the first
// success wins.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// RunChain tries each strategy in order and returns the first successful
// result together with the winning strategy's name. When every strategy
// fails the last error is returned.
func RunChain[T any](ctx context.Context, logger *slog.Logger, strategies []Strategy[T]) (T, string, error) {
	var zero T
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		out, err := s.Run(ctx)
		if err == nil {
			return out, s.Name, nil
		}
		lastErr = err
		logger.Debug("pipeline: strategy failed", "strategy", s.Name, "error", err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("pipeline: no strategies configured")
	}
	return zero, "", lastErr
}
