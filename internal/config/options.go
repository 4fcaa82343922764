package config

import (
	"time"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/rank"
)

// RankOptions returns the ranker settings. limit overrides MaxResults when
// positive.
func (c *Config) RankOptions(limit int) rank.Options {
	if limit <= 0 {
		limit = c.Search.MaxResults
	}
	return rank.Options{
		AllowNonContiguous: c.Search.AllowNonContiguous,
		Workers:            c.Search.Workers,
		ParallelThreshold:  c.Search.ParallelThreshold,
		Limit:              limit,
	}
}

// SortCriteria returns the tie-break of each kind and of the mixed mode.
// The config must have passed Validate.
func (c *Config) SortCriteria() (map[candidate.Kind]rank.SortCriterion, rank.SortCriterion) {
	perKind := map[candidate.Kind]rank.SortCriterion{
		candidate.KindFile:    rank.MustParseCriterion(c.Search.FileSort),
		candidate.KindSymbol:  rank.MustParseCriterion(c.Search.SymbolSort),
		candidate.KindCommand: rank.MustParseCriterion(c.Search.CommandSort),
	}
	return perKind, rank.MustParseCriterion(c.Search.MixedSort)
}

// AllKinds returns the kinds of the "all" mode.
func (c *Config) AllKinds() []candidate.Kind {
	kinds, err := candidate.ParseKinds(c.Search.AllKinds)
	if err != nil || len(kinds) == 0 {
		return candidate.Kinds()
	}
	return kinds
}

// WatchDebounce returns the watcher quiet period.
func (c *Config) WatchDebounce() time.Duration {
	return durationOr(c.Scanner.WatchDebounce, 200*time.Millisecond)
}

// TelemetryFlushInterval returns how often telemetry is persisted.
func (c *Config) TelemetryFlushInterval() time.Duration {
	return durationOr(c.Telemetry.FlushInterval, time.Minute)
}

func durationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
