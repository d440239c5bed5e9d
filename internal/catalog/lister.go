package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/model"
)

// DefaultListingTTL is how long a directory listing is served from cache.
const DefaultListingTTL = 30 * time.Second

// Scan outcomes reported to a ListingObserver.
const (
	ScanSuccess = "success"
	ScanError   = "error"
)

// ListingObserver receives listing cache and scan events.
// *observability.Metrics satisfies it.
type ListingObserver interface {
	RecordListingCacheHit()
	RecordListingCacheMiss()
	RecordCatalogScan(status string, themes int)
}

type nopListingObserver struct{}

func (nopListingObserver) RecordListingCacheHit()        {}
func (nopListingObserver) RecordListingCacheMiss()       {}
func (nopListingObserver) RecordCatalogScan(string, int) {}

// listing is an immutable directory scan result.
type listing struct {
	files     []model.ThemeFile
	expiresAt time.Time
}

// Lister serves the theme directory listing from a snapshot that is rescanned
// once its TTL has passed. Reads are lock-free; rescans are serialized.
type Lister struct {
	loader   *Loader
	dir      string
	ttl      time.Duration
	now      func() time.Time
	observer ListingObserver
	logger   *zap.Logger

	snap atomic.Pointer[listing]
	mu   sync.Mutex
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) ListerOption {
	return func(l *Lister) {
		if now != nil {
			l.now = now
		}
	}
}

// WithListingObserver sets the receiver of cache and scan events.
func WithListingObserver(o ListingObserver) ListerOption {
	return func(l *Lister) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithLogger sets the logger for scan events.
func WithLogger(logger *zap.Logger) ListerOption {
	return func(l *Lister) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLister creates a Lister for dir. A negative ttl is treated as zero, which
// rescans on every call.
func NewLister(loader *Loader, dir string, ttl time.Duration, opts ...ListerOption) *Lister {
	if ttl < 0 {
		ttl = 0
	}
	l := &Lister{
		loader:   loader,
		dir:      dir,
		ttl:      ttl,
		now:      time.Now,
		observer: nopListingObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory being listed.
func (l *Lister) Dir() string {
	return l.dir
}

// Loader returns the loader used for scans.
func (l *Lister) Loader() *Loader {
	return l.loader
}

// List returns the theme files in the directory, sorted by name. The returned
// slice is owned by the caller.
func (l *Lister) List(ctx context.Context) ([]model.ThemeFile, error) {
	ctx, span := observability.StartSpan(ctx, "catalog.list")
	files, hit, err := l.list(ctx)
	span.SetAttributes(observability.AttrCacheHit.Bool(hit))
	if err == nil {
		span.SetAttributes(observability.AttrThemeCount.Int(len(files)))
	}
	observability.EndSpanWithError(span, err)
	return files, err
}

// list serves the cached snapshot or rescans. It reports whether the cache
// was used.
func (l *Lister) list(ctx context.Context) ([]model.ThemeFile, bool, error) {
	if files, ok := l.cached(); ok {
		l.observer.RecordListingCacheHit()
		l.logger.Debug("theme listing served from cache", zap.Int("themes", len(files)))
		return files, true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another caller may have rescanned while we waited.
	if files, ok := l.cached(); ok {
		l.observer.RecordListingCacheHit()
		return files, true, nil
	}
	l.observer.RecordListingCacheMiss()

	files, err := l.loader.Scan(ctx, l.dir)
	if err != nil {
		l.observer.RecordCatalogScan(ScanError, 0)
		l.logger.Error("theme directory scan failed", zap.String("dir", l.dir), zap.Error(err))
		return nil, false, err
	}

	l.observer.RecordCatalogScan(ScanSuccess, len(files))
	l.logger.Info("theme directory scanned", zap.String("dir", l.dir), zap.Int("themes", len(files)))

	l.snap.Store(&listing{files: files, expiresAt: l.now().Add(l.ttl)})
	return cloneFiles(files), false, nil
}

// Invalidate drops the cached listing so the next List rescans.
func (l *Lister) Invalidate() {
	l.snap.Store(nil)
}

// HealthCheck reports whether the theme directory can be listed.
func (l *Lister) HealthCheck(ctx context.Context) error {
	return CheckDir(ctx, l.dir)
}

func (l *Lister) cached() ([]model.ThemeFile, bool) {
	s := l.snap.Load()
	if s == nil || !l.now().Before(s.expiresAt) {
		return nil, false
	}
	return cloneFiles(s.files), true
}

func cloneFiles(files []model.ThemeFile) []model.ThemeFile {
	out := make([]model.ThemeFile, len(files))
	copy(out, files)
	return out
}
