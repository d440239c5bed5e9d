package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pitabwire/obsthemes/internal/observability"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
	scans  map[string]int
	last   int
}

func (o *recordingObserver) RecordListingCacheHit() {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *recordingObserver) RecordListingCacheMiss() {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

func (o *recordingObserver) RecordCatalogScan(status string, themes int) {
	o.mu.Lock()
	if o.scans == nil {
		o.scans = make(map[string]int)
	}
	o.scans[status]++
	o.last = themes
	o.mu.Unlock()
}

func TestLister_servesCachedListingUntilExpiry(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("a"))

	clock := newFakeClock()
	obs := &recordingObserver{}
	l := NewLister(NewLoader(), dir, 30*time.Second, WithClock(clock.Now), WithListingObserver(obs))
	ctx := context.Background()

	files, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("List() = %d files, want 1", len(files))
	}

	writeTheme(t, dir, "b.ovt", themeText("b"))

	clock.Advance(29 * time.Second)
	files, _ = l.List(ctx)
	if len(files) != 1 {
		t.Errorf("List() before expiry = %d files, want cached 1", len(files))
	}

	clock.Advance(time.Second)
	files, _ = l.List(ctx)
	if len(files) != 2 {
		t.Errorf("List() after expiry = %d files, want 2", len(files))
	}

	if obs.hits != 1 {
		t.Errorf("hits = %d, want 1", obs.hits)
	}
	if obs.misses != 2 {
		t.Errorf("misses = %d, want 2", obs.misses)
	}
	if obs.scans[ScanSuccess] != 2 {
		t.Errorf("successful scans = %d, want 2", obs.scans[ScanSuccess])
	}
	if obs.last != 2 {
		t.Errorf("last scan themes = %d, want 2", obs.last)
	}
}

func TestLister_Invalidate(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("a"))

	l := NewLister(NewLoader(), dir, time.Hour)
	ctx := context.Background()
	if _, err := l.List(ctx); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	writeTheme(t, dir, "b.ovt", themeText("b"))
	l.Invalidate()

	files, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("List() after Invalidate = %d files, want 2", len(files))
	}
}

func TestLister_zeroTTLAlwaysRescans(t *testing.T) {
	dir := t.TempDir()
	obs := &recordingObserver{}
	l := NewLister(NewLoader(), dir, 0, WithListingObserver(obs))

	for i := 0; i < 3; i++ {
		if _, err := l.List(context.Background()); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}
	if obs.misses != 3 || obs.hits != 0 {
		t.Errorf("hits/misses = %d/%d, want 0/3", obs.hits, obs.misses)
	}
}

func TestLister_returnsCallerOwnedSlice(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("a"))
	l := NewLister(NewLoader(), dir, time.Hour)

	first, _ := l.List(context.Background())
	first[0].Name = "mutated"

	second, _ := l.List(context.Background())
	if second[0].Name != "a.ovt" {
		t.Errorf("cached listing was mutated: %q", second[0].Name)
	}
}

func TestLister_scanError(t *testing.T) {
	obs := &recordingObserver{}
	l := NewLister(NewLoader(), filepath.Join(t.TempDir(), "missing"), time.Minute, WithListingObserver(obs))

	if _, err := l.List(context.Background()); err == nil {
		t.Fatal("List() of a missing directory should return error")
	}
	if obs.scans[ScanError] != 1 {
		t.Errorf("error scans = %d, want 1", obs.scans[ScanError])
	}
	if err := l.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() of a missing directory should return error")
	}
}

func TestLister_concurrentList(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("a"))
	obs := &recordingObserver{}
	l := NewLister(NewLoader(), dir, time.Hour, WithListingObserver(obs))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.List(context.Background()); err != nil {
				t.Errorf("List() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if obs.misses != 1 {
		t.Errorf("misses = %d, want a single scan", obs.misses)
	}
	if obs.hits != 15 {
		t.Errorf("hits = %d, want 15", obs.hits)
	}
}

func TestLister_spanRecordsCacheHit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("com.example.a"))
	l := NewLister(NewLoader(), dir, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := l.List(context.Background()); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	for i, want := range []bool{false, true} {
		if spans[i].Name != "catalog.list" {
			t.Errorf("span %d name = %q, want catalog.list", i, spans[i].Name)
		}
		found := false
		for _, a := range spans[i].Attributes {
			if a.Key == observability.AttrCacheHit {
				found = true
				if a.Value.AsBool() != want {
					t.Errorf("span %d cache hit = %v, want %v", i, a.Value.AsBool(), want)
				}
			}
		}
		if !found {
			t.Errorf("span %d missing %s attribute", i, observability.AttrCacheHit)
		}
	}
}
