// Package telemetry records how queries perform: latency per keystroke,
// which queries are repeated and which return nothing. All data stays on the
// local machine.
package telemetry

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketUnder1ms  LatencyBucket = "lt1ms"
	BucketUnder5ms  LatencyBucket = "lt5ms"
	BucketUnder16ms LatencyBucket = "lt16ms" // one frame at 60Hz
	BucketUnder50ms LatencyBucket = "lt50ms"
	BucketSlow      LatencyBucket = "ge50ms"
)

// Buckets lists the buckets from fastest to slowest.
func Buckets() []LatencyBucket {
	return []LatencyBucket{BucketUnder1ms, BucketUnder5ms, BucketUnder16ms, BucketUnder50ms, BucketSlow}
}

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 5*time.Millisecond:
		return BucketUnder5ms
	case d < 16*time.Millisecond:
		return BucketUnder16ms
	case d < 50*time.Millisecond:
		return BucketUnder50ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one answered query.
type QueryEvent struct {
	Query string
	// Mode is the kind searched ("file", "symbol", "command") or "mixed".
	Mode        string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// ZeroResultQuery is a query that matched nothing.
type ZeroResultQuery struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryCount is a query and how often it was issued.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // next write position
	size  int
}

// NewCircularBuffer creates a buffer holding up to capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{items: make([]T, capacity)}
}

// Add appends item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % len(b.items)
	if b.size < len(b.items) {
		b.size++
	}
}

// Items returns the items oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < len(b.items) {
		copy(result, b.items[:b.size])
	} else {
		n := copy(result, b.items[b.head:])
		copy(result[n:], b.items[:b.head])
	}
	return result
}

// Size returns the number of items held.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Snapshot is a point-in-time copy of the in-memory metrics.
type Snapshot struct {
	ModeCounts          map[string]int64        `json:"mode_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopQueries          []QueryCount            `json:"top_queries"`
	ZeroResultQueries   []ZeroResultQuery       `json:"zero_result_queries"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	RepeatCount         int64                   `json:"repeat_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of queries that matched nothing.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// Config configures a QueryMetrics.
type Config struct {
	TopQueriesCapacity  int           // distinct queries tracked (default 200)
	ZeroResultsCapacity int           // zero-result queries kept (default 100)
	FlushInterval       time.Duration // 0 disables periodic flushing
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		TopQueriesCapacity:  200,
		ZeroResultsCapacity: 100,
		FlushInterval:       time.Minute,
	}
}

// QueryMetrics aggregates query events in memory and periodically writes
// the increments since the last flush to a Store. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	modes       map[string]int64
	latencies   map[LatencyBucket]int64
	topQueries  *lru.Cache[string, int64]
	zeroResults *CircularBuffer[ZeroResultQuery]
	total       int64
	zeroCount   int64
	repeats     int64
	since       time.Time

	// Increments not yet written to the store.
	pendingModes     map[string]int64
	pendingLatencies map[LatencyBucket]int64
	pendingQueries   map[string]int64
	pendingZero      []ZeroResultQuery

	store  Store
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewQueryMetrics creates a collector. store may be nil for memory-only
// metrics.
func NewQueryMetrics(store Store, cfg Config) *QueryMetrics {
	if cfg.TopQueriesCapacity <= 0 {
		cfg.TopQueriesCapacity = 200
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}
	top, _ := lru.New[string, int64](cfg.TopQueriesCapacity)

	m := &QueryMetrics{
		modes:            make(map[string]int64),
		latencies:        make(map[LatencyBucket]int64),
		topQueries:       top,
		zeroResults:      NewCircularBuffer[ZeroResultQuery](cfg.ZeroResultsCapacity),
		since:            time.Now(),
		pendingModes:     make(map[string]int64),
		pendingLatencies: make(map[LatencyBucket]int64),
		pendingQueries:   make(map[string]int64),
		store:            store,
		stopCh:           make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.ticker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}
	return m
}

func (m *QueryMetrics) flushLoop() {
	for {
		select {
		case <-m.ticker.C:
			if err := m.Flush(); err != nil {
				slog.Debug("telemetry_flush_failed", slog.String("error", err.Error()))
			}
		case <-m.stopCh:
			return
		}
	}
}

// normalize folds a query for counting. Empty queries are not counted.
func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Record adds one event.
func (m *QueryMetrics) Record(e QueryEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.total++
	m.modes[e.Mode]++
	m.pendingModes[e.Mode]++

	bucket := LatencyToBucket(e.Latency)
	m.latencies[bucket]++
	m.pendingLatencies[bucket]++

	q := normalize(e.Query)
	if q == "" {
		return
	}
	count, seen := m.topQueries.Get(q)
	if seen {
		m.repeats++
	}
	m.topQueries.Add(q, count+1)
	m.pendingQueries[q]++

	if e.ResultCount == 0 {
		z := ZeroResultQuery{Query: e.Query, Timestamp: e.Timestamp}
		m.zeroResults.Add(z)
		m.zeroCount++
		m.pendingZero = append(m.pendingZero, z)
	}
}

// Snapshot returns the in-memory totals since the collector started.
func (m *QueryMetrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var top []QueryCount
	for _, q := range m.topQueries.Keys() {
		if n, ok := m.topQueries.Peek(q); ok {
			top = append(top, QueryCount{Query: q, Count: n})
		}
	}
	slices.SortStableFunc(top, func(a, b QueryCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(a.Query, b.Query)
	})

	return &Snapshot{
		ModeCounts:          maps.Clone(m.modes),
		LatencyDistribution: maps.Clone(m.latencies),
		TopQueries:          top,
		ZeroResultQueries:   m.zeroResults.Items(),
		TotalQueries:        m.total,
		ZeroResultCount:     m.zeroCount,
		RepeatCount:         m.repeats,
		Since:               m.since,
	}
}

// Flush writes the increments recorded since the last successful flush.
// On failure the increments are kept for the next attempt.
func (m *QueryMetrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	modes, lat, queries, zero := m.pendingModes, m.pendingLatencies, m.pendingQueries, m.pendingZero
	m.pendingModes = make(map[string]int64)
	m.pendingLatencies = make(map[LatencyBucket]int64)
	m.pendingQueries = make(map[string]int64)
	m.pendingZero = nil
	m.mu.Unlock()

	if len(modes) == 0 && len(queries) == 0 && len(zero) == 0 {
		return nil
	}

	err := m.store.Save(Batch{
		Date:        time.Now().Format("2006-01-02"),
		ModeCounts:  modes,
		Latencies:   lat,
		QueryCounts: queries,
		ZeroResults: zero,
	})
	if err != nil {
		m.restore(modes, lat, queries, zero)
		return err
	}
	return nil
}

func (m *QueryMetrics) restore(modes map[string]int64, lat map[LatencyBucket]int64, queries map[string]int64, zero []ZeroResultQuery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range modes {
		m.pendingModes[k] += v
	}
	for k, v := range lat {
		m.pendingLatencies[k] += v
	}
	for k, v := range queries {
		m.pendingQueries[k] += v
	}
	m.pendingZero = append(zero, m.pendingZero...)
}

// Close stops periodic flushing and flushes once more. The store is not
// closed.
func (m *QueryMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stopCh)
	}
	return m.Flush()
}
