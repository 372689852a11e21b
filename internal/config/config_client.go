package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// ClientKind labels this client implementation ("desktop" or "browser").
	// The device identity is scoped by it.
	ClientKind string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the sync server base URL used by the client.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientStorage holds the local replica settings for the client.
type ClientStorage struct {
	// Path is the SQLite database file path.
	Path string
}

// ClientSync holds the sync-cycle settings for the client runtime.
type ClientSync struct {
	// Interval defines how often the periodic sync job runs.
	Interval time.Duration
	// Retention is how long acknowledged operations are kept locally.
	Retention time.Duration
	// OnlineSettleDelay is the pause before the recovery sync after the
	// network comes back.
	OnlineSettleDelay time.Duration
	// Retry bounds the automatic retry of failed cycles.
	Retry Retry
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains local replica settings.
	Storage ClientStorage
	// Sync contains sync-cycle settings.
	Sync ClientSync
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			ClientKind: cfg.App.ClientKind,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			Path: cfg.Storage.Local.Path,
		},
		Sync: ClientSync{
			Interval:          cfg.Sync.Interval,
			Retention:         cfg.Sync.Retention,
			OnlineSettleDelay: cfg.Sync.OnlineSettleDelay,
			Retry:             cfg.Sync.Retry,
		},
	}

	return clientCfg, clientCfg.validate()
}
