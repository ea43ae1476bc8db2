package jobs

import "time"

type Config struct {
	// Retention is how long finished jobs stay queryable.
	Retention time.Duration `yaml:"retention"`

	// PruneInterval is how often Run drops expired jobs.
	PruneInterval time.Duration `yaml:"prune_interval"`

	// EventBuffer is the headroom of each subscriber channel beyond the
	// replayed log. Events are dropped for subscribers that fall behind.
	EventBuffer int `yaml:"event_buffer"`
}

func DefaultConfig() Config {
	return Config{
		Retention:     30 * time.Minute,
		PruneInterval: time.Minute,
		EventBuffer:   16,
	}
}
