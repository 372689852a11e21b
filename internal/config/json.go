package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		ClientKind    string   `json:"client_kind"`
		Version       string   `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			Path string `json:"path"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Sync struct {
		Interval          Duration `json:"interval"`
		Retention         Duration `json:"retention"`
		OnlineSettleDelay Duration `json:"online_settle_delay"`
		Retry             struct {
			BaseDelay     Duration `json:"base_delay"`
			MaxDelay      Duration `json:"max_delay"`
			MaxAttempts   uint64   `json:"max_attempts"`
			JitterPercent uint64   `json:"jitter_percent"`
		} `json:"retry,omitempty"`
	} `json:"sync,omitempty"`

	Workers struct {
		ReplayRetention Duration `json:"replay_retention"`
		PruneInterval   Duration `json:"prune_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:  jsonCfg.App.TokenSignKey,
			TokenIssuer:   jsonCfg.App.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.App.TokenDuration),
			ClientKind:    jsonCfg.App.ClientKind,
			Version:       jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: LocalDB{
				Path: jsonCfg.Storage.Local.Path,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Sync: Sync{
			Interval:          time.Duration(jsonCfg.Sync.Interval),
			Retention:         time.Duration(jsonCfg.Sync.Retention),
			OnlineSettleDelay: time.Duration(jsonCfg.Sync.OnlineSettleDelay),
			Retry: Retry{
				BaseDelay:     time.Duration(jsonCfg.Sync.Retry.BaseDelay),
				MaxDelay:      time.Duration(jsonCfg.Sync.Retry.MaxDelay),
				MaxAttempts:   jsonCfg.Sync.Retry.MaxAttempts,
				JitterPercent: jsonCfg.Sync.Retry.JitterPercent,
			},
		},
		Workers: Workers{
			ReplayRetention: time.Duration(jsonCfg.Workers.ReplayRetention),
			PruneInterval:   time.Duration(jsonCfg.Workers.PruneInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
