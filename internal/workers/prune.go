package workers

import (
	"context"
	"time"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
)

// ReplayPruner trims the server's replay log on a ticker: records older than
// the retention window have been pulled by every live device (or belong to
// devices considered gone) and only cost storage. Pruning never touches the
// authoritative entity tables.
type ReplayPruner struct {
	oplog     store.OperationRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

// NewReplayPruner builds the pruning worker from the workers config,
// applying the package defaults for unset fields.
func NewReplayPruner(oplog store.OperationRepository, cfg config.Workers, logger *logger.Logger) *ReplayPruner {
	retention := cfg.ReplayRetention
	if retention <= 0 {
		retention = config.DefaultReplayRetention
	}
	interval := cfg.PruneInterval
	if interval <= 0 {
		interval = config.DefaultPruneInterval
	}
	return &ReplayPruner{
		oplog:     oplog,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run implements [Worker]. It blocks, pruning once immediately and then on
// every interval tick, until ctx is cancelled.
func (w *ReplayPruner) Run(ctx context.Context) {
	w.logger.Info().
		Dur("retention", w.retention).
		Dur("interval", w.interval).
		Msg("replay prune worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("replay prune worker stopped")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *ReplayPruner) prune(ctx context.Context) {
	horizon := time.Now().Add(-w.retention).UnixMilli()
	pruned, err := w.oplog.PruneBefore(ctx, horizon)
	if err != nil {
		w.logger.Error().Err(err).Msg("replay prune failed")
		return
	}
	if pruned > 0 {
		w.logger.Info().Int64("pruned", pruned).Msg("replay log pruned")
	}
}
