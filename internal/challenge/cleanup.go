package challenge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cleaner periodically removes expired challenges from stores that have no
// physical TTL of their own. Read paths already ignore expired rows; the
// cleaner only keeps the table from growing.
type Cleaner struct {
	purger   Purger
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCleaner(purger Purger, interval time.Duration, logger *zap.Logger) *Cleaner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Cleaner{
		purger:   purger,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce purges expired challenges a single time.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	purged, err := c.purger.PurgeExpired(ctx)
	if err != nil {
		c.logger.Error("failed to purge expired challenges", zap.Error(err))
		return 0, err
	}
	if purged > 0 {
		c.logger.Debug("purged expired challenges", zap.Int64("count", purged))
	}
	return purged, nil
}

func (c *Cleaner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = c.RunOnce(ctx)
			}
		}
	}()
}

func (c *Cleaner) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wg.Wait()
}
