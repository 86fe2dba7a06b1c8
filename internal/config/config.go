// Package config defines service configuration and its loading from
// defaults, an optional YAML file and LINEMATE_* environment variables.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the finalize queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// WorkerCount sets the number of recorder workers. One keeps ledger
	// writes single-writer.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// DedupeSize bounds how many finalized split IDs are remembered.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// RosterFile is an optional CSV or YAML roster loaded at startup.
	RosterFile string `koanf:"roster_file"`

	// ForwardsTotal and DefenseTotal are the role quotas of a split.
	ForwardsTotal int `koanf:"forwards_total" validate:"gte=0"`
	DefenseTotal  int `koanf:"defense_total" validate:"gte=0"`

	// Trials is the number of randomized line-building trials per role.
	Trials int `koanf:"trials" validate:"gte=1"`

	// PenaltyWeight scales the repeated-pairing penalty in team assignment.
	PenaltyWeight float64 `koanf:"penalty_weight" validate:"gte=0"`

	// LeftoverPolicy handles players beyond line capacity: drop, undersized, error.
	LeftoverPolicy string `koanf:"leftover_policy" validate:"oneof=drop undersized error"`

	// AllowIncomplete lets team assignment accept short lines.
	AllowIncomplete bool `koanf:"allow_incomplete"`

	// Seed fixes the RNG seed of every split when non-zero.
	Seed int64 `koanf:"seed"`

	// HistoryLimit is the default GET /history page; MaxHistoryLimit caps it.
	HistoryLimit    int `koanf:"history_limit" validate:"gte=1"`
	MaxHistoryLimit int `koanf:"max_history_limit" validate:"gtefield=HistoryLimit"`

	// HistoryCapacity keeps at most this many finalized splits; 0 keeps all.
	HistoryCapacity int `koanf:"history_capacity" validate:"gte=0"`

	// RedisAddr switches the pairing ledger to Redis when set.
	RedisAddr      string `koanf:"redis_addr" validate:"omitempty,hostname_port"`
	RedisDB        int    `koanf:"redis_db" validate:"gte=0"`
	RedisNamespace string `koanf:"redis_namespace"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       1024,
		WorkerCount:     1,
		DedupeSize:      10_000,
		ForwardsTotal:   12,
		DefenseTotal:    8,
		Trials:          500,
		PenaltyWeight:   1.5,
		LeftoverPolicy:  "drop",
		HistoryLimit:    20,
		MaxHistoryLimit: 200,
		RedisNamespace:  "linemate",
	}
}
