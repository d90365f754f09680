package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueMarker flips past-due invoices. Each call commits on its own.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OverdueScanner runs MarkOverdue on a fixed interval until ctx ends. No
// transaction is held between ticks.
type OverdueScanner struct {
	marker   OverdueMarker
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewOverdueScanner(marker OverdueMarker, interval time.Duration, logger *zap.Logger) *OverdueScanner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueScanner{marker: marker, interval: interval, logger: logger, now: time.Now}
}

func (s *OverdueScanner) Start(ctx context.Context) {
	s.logger.Info("starting overdue invoice scanner", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping overdue invoice scanner")
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *OverdueScanner) scan(ctx context.Context) {
	n, err := s.marker.MarkOverdue(ctx, s.now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("overdue scan failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("overdue scan", zap.Int64("marked", n))
	}
}
