package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-engine/internal/service"
)

// StartCascadeWorker replays interrupted branch cascades at startup and
// then re-checks on an interval in case a cascade initiated by this
// process fails partway through. Stops when ctx is cancelled.
func StartCascadeWorker(ctx context.Context, branches *service.BranchService, logger *zap.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		if err := branches.ResumePending(ctx); err != nil {
			logger.Error("cascade resume failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("cascade worker stopped")
				return
			case <-ticker.C:
				if err := branches.ResumePending(ctx); err != nil {
					logger.Error("cascade resume failed", zap.Error(err))
				}
			}
		}
	}()
}
