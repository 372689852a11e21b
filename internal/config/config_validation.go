// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package config

// validate checks the merged [StructuredConfig] and fills in defaults for
// the sync-cycle and worker settings so downstream code never has to guess.
//
// Server-side required fields (DSN, token sign key) are checked at the point
// of use, not here, because the same structured config also backs the client
// binary where those fields are legitimately empty.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.Retention <= 0 {
		cfg.Sync.Retention = DefaultRetention
	}
	if cfg.Sync.OnlineSettleDelay <= 0 {
		cfg.Sync.OnlineSettleDelay = DefaultOnlineSettleDelay
	}
	if cfg.Sync.Retry.BaseDelay <= 0 {
		cfg.Sync.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Sync.Retry.MaxDelay <= 0 {
		cfg.Sync.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Sync.Retry.MaxAttempts == 0 {
		cfg.Sync.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Sync.Retry.JitterPercent == 0 {
		cfg.Sync.Retry.JitterPercent = DefaultRetryJitter
	}
	if cfg.Workers.ReplayRetention <= 0 {
		cfg.Workers.ReplayRetention = DefaultReplayRetention
	}
	if cfg.Workers.PruneInterval <= 0 {
		cfg.Workers.PruneInterval = DefaultPruneInterval
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.Path == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Interval == 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.App.ClientKind != "desktop" && cfg.App.ClientKind != "browser" {
		return ErrInvalidAppConfigs
	}

	return nil
}
