// Package datadog implements a Datadog backend for the internal/metrics package.
//
// NOTE ABOUT FLUSHING:
// This backend serves both one-shot ingest commands and long-running services.
// Submitting only once at process exit can make Datadog dashboards/monitors awkward
// for long jobs (you get a single spike rather than a time series).
//
// Therefore we:
//   - buffer metrics in-memory (fast, lock-protected)
//   - periodically Flush() on a ticker (default: once per minute)
//   - Flush() one final time on Close()
//
// Concurrency model:
//   - pipeline goroutines can call IncCounter/ObserveHistogram at any time
//   - Flush snapshots+resets buffers under a mutex, then submits out-of-lock
//   - The flush loop calls Flush() periodically; Close() stops the loop
//
// If the process is killed with SIGKILL/OOM, Close() won't run (no backend can fix that).
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"sheetsql/internal/metrics"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "sheetsql".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted to Datadog.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// The following fields are unexported test seams. Production code never
	// sets them; unit tests use them to avoid real network submission and
	// nondeterministic clocks/tickers.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal surface of the Datadog SDK we use. The SDK
// exposes a concrete *datadogV2.MetricsApi; depending on this tiny private
// interface instead keeps tests hermetic.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu      sync.Mutex
	counts  map[seriesKey]float64
	samples map[seriesKey][]float64
}

type seriesKey struct {
	name string
	tags string // sorted, comma-joined
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client. The
// client reads DD_API_KEY (and friends) from the environment.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "sheetsql"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		cfg := dd.NewConfiguration()
		client := dd.NewAPIClient(cfg)
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  newTicker,
		counts:     make(map[seriesKey]float64),
		samples:    make(map[seriesKey][]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	k := keyFor(name, labels)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[k] += delta
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	k := keyFor(name, labels)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[k] = append(b.samples[k], value)
}

func keyFor(name string, labels metrics.Labels) seriesKey {
	if len(labels) == 0 {
		return seriesKey{name: name}
	}
	tags := make([]string, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, k+":"+v)
	}
	sort.Strings(tags)
	return seriesKey{name: name, tags: strings.Join(tags, ",")}
}

// snapshotAndReset grabs the buffered metrics and resets the buffers. Buffers
// reset even if the subsequent submission fails, so a broken exporter can
// never block the pipeline.
func (b *Backend) snapshotAndReset() (map[seriesKey]float64, map[seriesKey][]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts, samples := b.counts, b.samples
	b.counts = make(map[seriesKey]float64)
	b.samples = make(map[seriesKey][]float64)
	return counts, samples
}

// Flush submits buffered metrics to Datadog. Returns nil when there is
// nothing to submit.
func (b *Backend) Flush() error {
	counts, samples := b.snapshotAndReset()
	if len(counts) == 0 && len(samples) == 0 {
		return nil
	}

	series := b.buildSeries(counts, samples, b.now().Unix())
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries is pure (no locks, no network, no clocks) so naming/tagging
// behavior can be unit tested. Counters become COUNT series; histogram
// buffers become avg/max gauges plus a sample-count COUNT.
func (b *Backend) buildSeries(counts map[seriesKey]float64, samples map[seriesKey][]float64, nowUnix int64) []datadogV2.MetricSeries {
	mk := func(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string) datadogV2.MetricSeries {
		return datadogV2.MetricSeries{
			Metric: metric,
			Type:   typ.Ptr(),
			Points: []datadogV2.MetricPoint{
				{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
			},
			Tags: tags,
		}
	}

	series := make([]datadogV2.MetricSeries, 0, len(counts)+3*len(samples))

	for k, v := range counts {
		if v == 0 {
			continue
		}
		series = append(series, mk(k.name, datadogV2.METRICINTAKETYPE_COUNT, v, b.tagsFor(k)))
	}

	for k, vals := range samples {
		if len(vals) == 0 {
			continue
		}
		sum, max := 0.0, vals[0]
		for _, v := range vals {
			sum += v
			if v > max {
				max = v
			}
		}
		tags := b.tagsFor(k)
		series = append(series,
			mk(k.name+".avg", datadogV2.METRICINTAKETYPE_GAUGE, sum/float64(len(vals)), tags),
			mk(k.name+".max", datadogV2.METRICINTAKETYPE_GAUGE, max, tags),
			mk(k.name+".count", datadogV2.METRICINTAKETYPE_COUNT, float64(len(vals)), tags),
		)
	}

	return series
}

func (b *Backend) tagsFor(k seriesKey) []string {
	tags := append([]string{}, b.baseTags...)
	if k.tags != "" {
		tags = append(tags, strings.Split(k.tags, ",")...)
	}
	return tags
}

// Close stops the background flush loop and performs one final Flush.
// Close at most once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV splits a comma-separated tag list (e.g. "env:prod,team:data")
// into Datadog tags, dropping empty entries.
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
