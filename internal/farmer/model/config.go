package model

import "time"

// ================ Config ================
type APIConfig struct {
	BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
}

type HistoryConfig struct {
	CacheTTL time.Duration `envconfig:"HISTORY_CACHE_TTL" default:"24h"`
}

type MapConfig struct {
	SnapshotKey       string        `envconfig:"MAP_SNAPSHOT_KEY" default:"mapData"`
	SnapshotTTL       time.Duration `envconfig:"MAP_SNAPSHOT_TTL" default:"1h"`
	NavigationChannel string        `envconfig:"MAP_NAVIGATION_CHANNEL" default:"map:navigate"`
	URL               string        `envconfig:"MAP_URL" default:"http://127.0.0.1:8100/map"`
}

type DictationConfig struct {
	// Source is a file or fifo streaming one transcript fragment per line.
	// Empty means no speech-to-text on this machine.
	Source string `envconfig:"DICTATION_SOURCE"`
}
