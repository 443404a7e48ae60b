package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
)

// ErrLoadInProgress is returned by Refresh while another load is running.
var ErrLoadInProgress = errors.New("a load is already in progress")

const outcomeCancelled = "cancelled"

// Fetcher retrieves the raw feed document from an endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

// Publisher forwards a completed snapshot downstream.
type Publisher interface {
	PublishBatch(ctx context.Context, snap domain.Snapshot) error
}

// Pipeline composes the fetcher and the feed parser and keeps the result of
// the most recent completed load.
type Pipeline struct {
	fetcher   Fetcher
	publisher Publisher
	endpoint  string
	logger    *slog.Logger
	metrics   *observability.Metrics

	loading  atomic.Bool
	snapshot atomic.Pointer[domain.Snapshot]
}

// New creates a Pipeline that loads from endpoint. Pass a nil publisher to
// disable publishing.
func New(f Fetcher, pub Publisher, endpoint string, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		publisher: pub,
		endpoint:  endpoint,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run performs the initial load. Later loads only happen through Refresh.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "endpoint", p.endpoint)

	snap, err := p.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		return err
	}
	p.logger.Info("initial load complete", "records", snap.Len())
	return nil
}

// LoadEarthquakes fetches and parses endpoint. Any failure, including another
// load already being in flight, is logged and yields an empty, non-nil slice.
// The snapshot is left untouched.
func (p *Pipeline) LoadEarthquakes(ctx context.Context, endpoint string) []domain.Earthquake {
	if !p.loading.CompareAndSwap(false, true) {
		p.logger.Warn("load rejected", "endpoint", endpoint, "error", ErrLoadInProgress)
		return []domain.Earthquake{}
	}
	defer p.loading.Store(false)

	feed, err := p.load(ctx, endpoint)
	if err != nil {
		return []domain.Earthquake{}
	}
	return feed.Earthquakes
}

// Refresh loads the configured endpoint and replaces the current snapshot.
// Only one load runs at a time. A failed load still replaces the snapshot,
// with an empty one. If ctx is cancelled before the load finishes, the result
// is discarded and ctx.Err() is returned.
func (p *Pipeline) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if !p.loading.CompareAndSwap(false, true) {
		return domain.Snapshot{}, ErrLoadInProgress
	}
	defer p.loading.Store(false)

	feed, err := p.load(ctx, p.endpoint)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Snapshot{}, ctxErr
	}
	if err != nil {
		feed = domain.Feed{}
	}

	snap := domain.NewSnapshot(feed.Earthquakes)
	p.snapshot.Store(&snap)
	p.metrics.SnapshotSize.Set(float64(snap.Len()))

	p.publish(ctx, snap)
	return p.Snapshot(), nil
}

// Snapshot returns a copy of the most recent completed load, or the zero
// Snapshot if none has completed.
func (p *Pipeline) Snapshot() domain.Snapshot {
	s := p.snapshot.Load()
	if s == nil {
		return domain.Snapshot{}
	}
	return domain.Snapshot{
		Earthquakes: slices.Clone(s.Earthquakes),
		LoadedAt:    s.LoadedAt,
	}
}

// Loading reports whether a Refresh is in flight.
func (p *Pipeline) Loading() bool {
	return p.loading.Load()
}

// CheckReadiness returns nil once a load has completed, successful or not.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no feed load has completed yet")
	}
	return nil
}

// load is the typed core of the pipeline: fetch, then parse.
func (p *Pipeline) load(ctx context.Context, endpoint string) (domain.Feed, error) {
	start := time.Now()
	p.metrics.LoadInFlight.Inc()
	defer p.metrics.LoadInFlight.Dec()

	feed, err := p.fetchAndParse(ctx, endpoint)
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		p.metrics.Loads.WithLabelValues(outcomeCancelled).Inc()
		p.logger.Info("load cancelled, discarding result", "endpoint", endpoint)
		return domain.Feed{}, ctx.Err()
	}
	if err != nil {
		p.metrics.Loads.WithLabelValues(string(failureKind(err))).Inc()
		p.logLoadError(endpoint, err)
		return domain.Feed{}, err
	}

	p.metrics.Loads.WithLabelValues("success").Inc()
	p.metrics.RecordsLoaded.Add(float64(len(feed.Earthquakes)))
	if feed.Skipped > 0 {
		p.metrics.FeaturesSkipped.Add(float64(feed.Skipped))
		p.logger.Warn("skipped malformed features", "endpoint", endpoint, "skipped", feed.Skipped)
	}
	p.logger.Debug("feed loaded", "endpoint", endpoint, "records", len(feed.Earthquakes), "duration", time.Since(start))
	return feed, nil
}

func (p *Pipeline) fetchAndParse(ctx context.Context, endpoint string) (domain.Feed, error) {
	raw, err := p.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return domain.Feed{}, err
	}
	return domain.ParseFeed(raw)
}

func (p *Pipeline) logLoadError(endpoint string, err error) {
	var le *domain.LoadError
	if errors.As(err, &le) && le.Kind == domain.FailureBadStatus {
		p.logger.Error("feed load failed", "endpoint", endpoint, "kind", le.Kind, "status", le.StatusCode)
		return
	}
	p.logger.Error("feed load failed", "endpoint", endpoint, "kind", failureKind(err), "error", err)
}

// failureKind treats errors from fetchers outside the domain taxonomy as I/O
// failures.
func failureKind(err error) domain.FailureKind {
	if kind := domain.KindOf(err); kind != "" {
		return kind
	}
	return domain.FailureIO
}

func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot) {
	if p.publisher == nil || snap.Len() == 0 {
		return
	}
	if err := p.publisher.PublishBatch(ctx, snap); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "error", err, "batch_size", snap.Len())
		return
	}
	p.metrics.RecordsPublished.Add(float64(snap.Len()))
}
