package service

import (
	"context"
	"log/slog"
	"time"

	"agromind-server/internal/ports"
	"agromind-server/internal/util"
)

// RevocationSweeper periodically deletes ledger entries of tokens that are long expired.
type RevocationSweeper struct {
	ledger    ports.RevocationLedger
	interval  time.Duration
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewRevocationSweeper(ledger ports.RevocationLedger, interval, retention time.Duration, log *slog.Logger) *RevocationSweeper {
	return &RevocationSweeper{
		ledger:    ledger,
		interval:  interval,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled. A non-positive interval returns immediately.
func (s *RevocationSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one purge pass and returns the number of deleted entries.
func (s *RevocationSweeper) Sweep(ctx context.Context) int64 {
	const op = "service.RevocationSweeper.Sweep"

	before := s.now().Add(-s.retention)
	n, err := s.ledger.PurgeExpired(ctx, before)
	if err != nil {
		s.log.Error("revocation sweep failed", slog.String("op", op), util.Err(err))
		return 0
	}
	if n > 0 {
		s.log.Info("revocation ledger swept", slog.String("op", op), slog.Int64("deleted", n))
	}
	return n
}
