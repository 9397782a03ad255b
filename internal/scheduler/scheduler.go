// Package scheduler runs a named task on a fixed interval until the
// context is cancelled. The first run fires immediately.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

func Every(ctx context.Context, interval time.Duration, name string, log *zap.SugaredLogger, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	go func() {
		if err := task(ctx); err != nil {
			log.Errorw("scheduled task failed", "task", name, "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				log.Errorw("scheduled task failed", "task", name, "err", err)
			}
		}
	}
}
