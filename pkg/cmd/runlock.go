package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ecampo/vendiq/pkg/runlock"
)

// NewRunLock selects a per-supplier run lock. An empty redisURL picks the
// in-process lock, which is only safe for a single instance.
func NewRunLock(ctx context.Context, logger *slog.Logger, redisURL string) (runlock.Locker, error) {
	if redisURL == "" {
		logger.Warn("No redis URL configured, using in-process run lock")

		return runlock.NewMemory(), nil
	}

	locker, err := runlock.NewRedis(ctx, logger, redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis run lock: %w", err)
	}

	return locker, nil
}
