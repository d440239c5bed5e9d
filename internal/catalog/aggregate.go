package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/model"
)

// DocumentValidator validates the text of one theme document.
// *theme.Validator satisfies it.
type DocumentValidator interface {
	Validate(text string) model.Report
}

// ValidationObserver receives the outcome of each document validation.
// *observability.Metrics satisfies it.
type ValidationObserver interface {
	RecordValidation(report model.Report, duration time.Duration)
}

// Aggregator validates many theme files concurrently and flags metadata ids
// shared between files.
type Aggregator struct {
	loader      *Loader
	validator   DocumentValidator
	parallelism int
	observer    ValidationObserver
	logger      *zap.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithValidationObserver sets the receiver of per-document outcomes.
func WithValidationObserver(o ValidationObserver) AggregatorOption {
	return func(a *Aggregator) {
		a.observer = o
	}
}

// WithAggregatorLogger sets the logger for unreadable documents.
func WithAggregatorLogger(logger *zap.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an Aggregator. parallelism below 1 is treated as 1.
func NewAggregator(loader *Loader, validator DocumentValidator, parallelism int, opts ...AggregatorOption) *Aggregator {
	if parallelism < 1 {
		parallelism = 1
	}
	a := &Aggregator{
		loader:      loader,
		validator:   validator,
		parallelism: parallelism,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateFiles reads and validates every file. A file that cannot be read
// yields a DocumentValidation carrying the read error. Output order follows
// input order. The only error returned is context cancellation.
func (a *Aggregator) ValidateFiles(ctx context.Context, files []model.ThemeFile) (model.CatalogValidation, error) {
	ctx, span := observability.StartSpan(ctx, "catalog.validate",
		observability.AttrThemeCount.Int(len(files)),
	)

	results := make([]model.DocumentValidation, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.validateFile(gctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.EndSpanWithError(span, err)
		return model.CatalogValidation{}, err
	}

	out := FlagDuplicateIDs(results)
	span.SetAttributes(
		observability.AttrErrorCount.Int(out.ErrorCount()),
		observability.AttrWarningCount.Int(out.WarningCount()),
	)
	observability.EndSpanWithError(span, nil)
	return out, nil
}

// ValidateDocuments validates documents whose text is already in memory.
func (a *Aggregator) ValidateDocuments(ctx context.Context, docs []Document) (model.CatalogValidation, error) {
	results := make([]model.DocumentValidation, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report := a.validate(gctx, d.Name, d.Text)
			results[i] = model.DocumentValidation{Name: d.Name, Report: &report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.CatalogValidation{}, err
	}
	return FlagDuplicateIDs(results), nil
}

func (a *Aggregator) validateFile(ctx context.Context, f model.ThemeFile) model.DocumentValidation {
	doc, err := a.loader.LoadFile(f.Path)
	if err != nil {
		a.logger.Warn("theme document unreadable", zap.String("name", f.Name), zap.Error(err))
		return model.DocumentValidation{
			Name:  f.Name,
			Error: fmt.Sprintf("Could not read file: %v", err),
		}
	}
	report := a.validate(ctx, f.Name, doc.Text)
	return model.DocumentValidation{Name: f.Name, Report: &report}
}

func (a *Aggregator) validate(ctx context.Context, name, text string) model.Report {
	_, span := observability.StartSpan(ctx, "theme.validate", observability.AttrThemeName.String(name))
	start := time.Now()
	report := a.validator.Validate(text)
	if a.observer != nil {
		a.observer.RecordValidation(report, time.Since(start))
	}
	span.SetAttributes(
		observability.AttrThemeID.String(report.Meta.ID()),
		observability.AttrErrorCount.Int(report.Summary.Errors),
		observability.AttrWarningCount.Int(report.Summary.Warnings),
	)
	span.End()
	return report
}

// FlagDuplicateIDs groups validated documents by metadata id. Every id used by
// more than one document produces a DuplicateID entry, sorted by id, and a
// DUPLICATE_THEME_ID warning on each affected report. Documents without an id
// or without a report are ignored. The input slice is not modified.
func FlagDuplicateIDs(results []model.DocumentValidation) model.CatalogValidation {
	byID := make(map[string][]string)
	for _, r := range results {
		if r.Report == nil {
			continue
		}
		if id := r.Report.Meta.ID(); id != "" {
			byID[id] = append(byID[id], r.Name)
		}
	}

	out := model.CatalogValidation{
		Validations:  make([]model.DocumentValidation, len(results)),
		DuplicateIDs: []model.DuplicateID{},
	}
	copy(out.Validations, results)

	for id, files := range byID {
		if len(files) > 1 {
			out.DuplicateIDs = append(out.DuplicateIDs, model.DuplicateID{ID: id, Files: files})
		}
	}
	sort.Slice(out.DuplicateIDs, func(i, j int) bool {
		return out.DuplicateIDs[i].ID < out.DuplicateIDs[j].ID
	})

	for i, v := range out.Validations {
		if v.Report == nil {
			continue
		}
		id := v.Report.Meta.ID()
		files := byID[id]
		if id == "" || len(files) < 2 {
			continue
		}
		flagged := v.Report.WithWarnings(model.Diagnostic{
			Code:    model.CodeDuplicateThemeID,
			Message: fmt.Sprintf("Theme id %s used by multiple files: %s", id, strings.Join(files, ", ")),
			Value:   id,
			Files:   append([]string(nil), files...),
		})
		out.Validations[i].Report = &flagged
	}
	return out
}
