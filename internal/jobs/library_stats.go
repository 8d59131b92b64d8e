package jobs

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/ingest/internal/metrics"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
)

// LibraryStats summarizes the library at one point in time.
type LibraryStats struct {
	Records   map[model.Kind]int
	Chains    int
	Uploaders int
	At        time.Time
}

// LibraryStatsTask periodically counts the library and publishes the counts as gauges.
type LibraryStatsTask struct {
	store store.RecordStore
	cron  string

	mu   sync.Mutex
	last LibraryStats
}

func NewLibraryStatsTask(interval string, store store.RecordStore) *LibraryStatsTask {
	return &LibraryStatsTask{store: store, cron: interval}
}

func (l *LibraryStatsTask) ID() string {
	return "library_stats"
}

func (l *LibraryStatsTask) Schedule() string {
	return l.cron
}

func (l *LibraryStatsTask) Run() {
	stats, err := l.Collect(context.Background())
	if err != nil {
		logrus.Errorf("error collecting library stats: %v", err)
		return
	}

	for _, kind := range model.Kinds {
		metrics.LibraryRecords.WithLabelValues(kind.String()).Set(float64(stats.Records[kind]))
	}
	logrus.Debugf("library has %d chains from %d uploaders", stats.Chains, stats.Uploaders)
}

// Collect counts records per kind, distinct version chains and distinct uploaders.
func (l *LibraryStatsTask) Collect(ctx context.Context) (LibraryStats, error) {
	records, err := l.store.ListRecords(ctx)
	if err != nil {
		return LibraryStats{}, err
	}

	chains := mapset.NewThreadUnsafeSet[string]()
	uploaders := mapset.NewThreadUnsafeSet[string]()
	stats := LibraryStats{Records: make(map[model.Kind]int), At: time.Now().UTC()}
	for _, record := range records {
		stats.Records[record.Kind]++
		chains.Add(record.RootID())
		uploaders.Add(record.Uploader)
	}
	stats.Chains = chains.Cardinality()
	stats.Uploaders = uploaders.Cardinality()

	l.mu.Lock()
	l.last = stats
	l.mu.Unlock()

	return stats, nil
}

// Last returns the most recently collected stats.
func (l *LibraryStatsTask) Last() LibraryStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.last
}
