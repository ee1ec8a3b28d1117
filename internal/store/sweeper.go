package store

import (
	"context"
	"time"
)

// Sweeper runs the periodic retention pass over both partitions. It replaces
// per-request purge scheduling with a predictable background cadence; the
// manual cleanup endpoint calls SweepOnce directly.
type Sweeper struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
}

// NewSweeper creates a retention sweeper over the given store.
func NewSweeper(store *Store, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		interval:  interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(s.retention)
		}
	}
}

// SweepOnce purges entries older than maxAge from both partitions and
// returns the total removed. Purge failures are logged by the store and
// never escalate.
func (s *Sweeper) SweepOnce(maxAge time.Duration) int {
	total := 0
	for _, p := range []Partition{PartitionInbound, PartitionOutbound} {
		n, err := s.store.PurgeOlderThan(p, maxAge)
		if err != nil {
			s.store.logger.Warn().Err(err).Str("partition", string(p)).Msg("Retention sweep failed")
			continue
		}
		total += n
	}
	return total
}
