package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
)

// jobTrigger is an out-of-band request to the scheduler goroutine.
type jobTrigger int

const (
	triggerManual jobTrigger = iota
	triggerOnline
)

// clientSyncJob is the concrete [ClientSyncJob]: a scheduler goroutine
// moving between idle, scheduled and running, driven by a single timer.
// Failed cycles are retried with an exponential backoff envelope; once the
// attempt budget is spent the job falls back to the regular interval. An
// authentication failure is never retried automatically: the session must be
// renewed first.
type clientSyncJob struct {
	syncService ClientSyncService
	syncCfg     config.ClientSync
	logger      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	trigger chan jobTrigger
}

// NewClientSyncJob creates the background scheduler. The job is idle until
// Start is called.
func NewClientSyncJob(syncService ClientSyncService, syncCfg config.ClientSync, logger *logger.Logger) ClientSyncJob {
	return &clientSyncJob{
		syncService: syncService,
		syncCfg:     syncCfg,
		logger:      logger,
	}
}

// Start implements [ClientSyncJob]. The first cycle runs immediately; later
// cycles follow the configured interval, manual triggers, and the failure
// backoff. The goroutine exits when ctx is cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, userID int64) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.trigger = make(chan jobTrigger, 1)
	trigger := j.trigger
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		j.run(jobCtx, userID, trigger)
	}()
}

// Stop implements [ClientSyncJob]. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// SyncNow implements [ClientSyncJob]. The request is dropped when one is
// already queued; the scheduler will run soon anyway.
func (j *clientSyncJob) SyncNow() {
	j.send(triggerManual)
}

// NotifyOnline implements [ClientSyncJob]. The cycle is delayed by the
// settle interval so a flapping link does not fire a sync per blip.
func (j *clientSyncJob) NotifyOnline() {
	j.send(triggerOnline)
}

func (j *clientSyncJob) send(t jobTrigger) {
	j.mu.Lock()
	trigger := j.trigger
	j.mu.Unlock()
	if trigger == nil {
		return
	}
	select {
	case trigger <- t:
	default:
	}
}

func (j *clientSyncJob) run(ctx context.Context, userID int64, trigger <-chan jobTrigger) {
	interval := j.syncCfg.Interval
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}
	settle := j.syncCfg.OnlineSettleDelay
	if settle <= 0 {
		settle = config.DefaultOnlineSettleDelay
	}

	backoff := j.newBackoff()
	var failedAttempts uint64

	// fire the first cycle right away
	timer := time.NewTimer(0)
	defer timer.Stop()

	rearm := func(d time.Duration) {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case t := <-trigger:
			switch t {
			case triggerOnline:
				j.logger.Debug().Dur("settle", settle).Msg("network back, sync scheduled")
				rearm(settle)
			default:
				rearm(0)
			}

		case <-timer.C:
			err := j.syncService.Sync(ctx, userID)
			if ctx.Err() != nil {
				return
			}

			if err == nil {
				backoff = j.newBackoff()
				failedAttempts = 0
				rearm(interval)
				continue
			}

			// a rejected credential cannot succeed on retry; the error is
			// already surfaced through the sync status, so the scheduler
			// parks until a manual trigger follows the re-login
			if errors.Is(err, ErrTokenIsExpiredOrInvalid) {
				j.logger.Warn().
					Err(err).
					Msg("session rejected, automatic sync paused until re-authentication")
				backoff = j.newBackoff()
				failedAttempts = 0
				continue
			}

			failedAttempts++
			maxAttempts := j.syncCfg.Retry.MaxAttempts
			if maxAttempts == 0 {
				maxAttempts = config.DefaultRetryMaxAttempts
			}
			if failedAttempts >= maxAttempts {
				// budget spent; stop hammering and wait for the next
				// regular slot
				j.logger.Warn().
					Err(err).
					Uint64("attempts", failedAttempts).
					Msg("sync retries exhausted, falling back to interval")
				backoff = j.newBackoff()
				failedAttempts = 0
				rearm(interval)
				continue
			}

			delay, _ := backoff.Next()
			j.logger.Warn().
				Err(err).
				Uint64("attempt", failedAttempts).
				Dur("retry_in", delay).
				Msg("sync cycle failed")
			rearm(delay)
		}
	}
}

// newBackoff builds a fresh retry envelope from the configured bounds:
// doubling from the base delay, capped, with percentage jitter.
func (j *clientSyncJob) newBackoff() retry.Backoff {
	base := j.syncCfg.Retry.BaseDelay
	if base <= 0 {
		base = config.DefaultRetryBaseDelay
	}
	maxDelay := j.syncCfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = config.DefaultRetryMaxDelay
	}
	jitter := j.syncCfg.Retry.JitterPercent
	if jitter == 0 {
		jitter = config.DefaultRetryJitter
	}

	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(maxDelay, backoff)
	backoff = retry.WithJitterPercent(jitter, backoff)
	return backoff
}
