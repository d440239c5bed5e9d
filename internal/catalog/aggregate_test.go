package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/obsthemes/internal/theme"
	"github.com/pitabwire/obsthemes/model"
)

type countingValidationObserver struct {
	mu      sync.Mutex
	reports int
}

func (o *countingValidationObserver) RecordValidation(model.Report, time.Duration) {
	o.mu.Lock()
	o.reports++
	o.mu.Unlock()
}

func duplicateWarnings(r *model.Report) []model.Diagnostic {
	var out []model.Diagnostic
	for _, d := range r.Warnings {
		if d.Code == model.CodeDuplicateThemeID {
			out = append(out, d)
		}
	}
	return out
}

func TestAggregator_ValidateFiles_duplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "one.ovt", themeText("shared.id"))
	writeTheme(t, dir, "two.ovt", themeText("shared.id"))
	writeTheme(t, dir, "three.ovt", themeText("unique.id"))

	loader := NewLoader()
	files, err := loader.Scan(context.Background(), dir)
	require.NoError(t, err)

	obs := &countingValidationObserver{}
	agg := NewAggregator(loader, theme.NewValidator(), 2, WithValidationObserver(obs))
	result, err := agg.ValidateFiles(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, result.Validations, 3)
	assert.Equal(t, "one.ovt", result.Validations[0].Name)
	assert.Equal(t, "three.ovt", result.Validations[1].Name)
	assert.Equal(t, "two.ovt", result.Validations[2].Name)

	require.Equal(t, []model.DuplicateID{
		{ID: "shared.id", Files: []string{"one.ovt", "two.ovt"}},
	}, result.DuplicateIDs)

	for _, i := range []int{0, 2} {
		warnings := duplicateWarnings(result.Validations[i].Report)
		require.Len(t, warnings, 1, result.Validations[i].Name)
		assert.Equal(t, "shared.id", warnings[0].Value)
		assert.Equal(t, []string{"one.ovt", "two.ovt"}, warnings[0].Files)
		assert.Contains(t, warnings[0].Message, "shared.id")
	}
	assert.Empty(t, duplicateWarnings(result.Validations[1].Report))

	assert.Equal(t, 3, obs.reports)
}

func TestAggregator_ValidateFiles_unreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "good.ovt", themeText("com.example.good"))

	files := []model.ThemeFile{
		{Name: "good.ovt", Path: filepath.Join(dir, "good.ovt")},
		{Name: "gone.ovt", Path: filepath.Join(dir, "gone.ovt")},
	}

	agg := NewAggregator(NewLoader(), theme.NewValidator(), 4)
	result, err := agg.ValidateFiles(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, result.Validations, 2)
	require.NotNil(t, result.Validations[0].Report)
	assert.True(t, result.Validations[0].Report.Valid(), "readable file should have no errors")
	assert.Nil(t, result.Validations[1].Report)
	assert.True(t, strings.HasPrefix(result.Validations[1].Error, "Could not read file:"), result.Validations[1].Error)
	assert.Empty(t, result.DuplicateIDs)
	assert.Equal(t, 1, result.ErrorCount())
}

func TestAggregator_ValidateFiles_cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "a.ovt", themeText("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(NewLoader(), theme.NewValidator(), 1)
	_, err := agg.ValidateFiles(ctx, []model.ThemeFile{{Name: "a.ovt", Path: filepath.Join(dir, "a.ovt")}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAggregator_ValidateFiles_empty(t *testing.T) {
	agg := NewAggregator(NewLoader(), theme.NewValidator(), 0)
	result, err := agg.ValidateFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Validations)
	assert.NotNil(t, result.DuplicateIDs)
	assert.Empty(t, result.Validations)
}

func TestAggregator_ValidateDocuments(t *testing.T) {
	docs := []Document{
		{ThemeFile: model.ThemeFile{Name: "x.ovt"}, Text: themeText("dup")},
		{ThemeFile: model.ThemeFile{Name: "y.ovt"}, Text: themeText("dup")},
		{ThemeFile: model.ThemeFile{Name: "z.ovt"}, Text: "no blocks here"},
	}

	result, err := NewAggregator(NewLoader(), theme.NewValidator(), 3).ValidateDocuments(context.Background(), docs)
	require.NoError(t, err)

	require.Len(t, result.DuplicateIDs, 1)
	assert.Equal(t, []string{"x.ovt", "y.ovt"}, result.DuplicateIDs[0].Files)
	assert.Equal(t, 2, result.Validations[2].Report.Summary.Errors)
}

func TestFlagDuplicateIDs_leavesInputUntouched(t *testing.T) {
	a := theme.Validate(themeText("same"))
	b := theme.Validate(themeText("same"))
	before := len(a.Warnings)

	in := []model.DocumentValidation{
		{Name: "a.ovt", Report: &a},
		{Name: "b.ovt", Report: &b},
	}
	out := FlagDuplicateIDs(in)

	assert.Len(t, a.Warnings, before)
	assert.Same(t, &a, in[0].Report)
	assert.Len(t, out.Validations[0].Report.Warnings, before+1)
	assert.Equal(t, out.Validations[0].Report.Summary.Warnings, before+1)
}

func TestFlagDuplicateIDs_ignoresMissingIDs(t *testing.T) {
	empty := theme.Validate("")
	alsoEmpty := theme.Validate("")

	out := FlagDuplicateIDs([]model.DocumentValidation{
		{Name: "a.ovt", Report: &empty},
		{Name: "b.ovt", Report: &alsoEmpty},
		{Name: "c.ovt", Error: "Could not read file: boom"},
	})
	assert.Empty(t, out.DuplicateIDs)
	assert.Empty(t, duplicateWarnings(out.Validations[0].Report))
}

func TestFlagDuplicateIDs_sortedByID(t *testing.T) {
	var in []model.DocumentValidation
	for _, pair := range [][2]string{{"1.ovt", "zz"}, {"2.ovt", "aa"}, {"3.ovt", "zz"}, {"4.ovt", "aa"}} {
		r := theme.Validate(themeText(pair[1]))
		in = append(in, model.DocumentValidation{Name: pair[0], Report: &r})
	}

	out := FlagDuplicateIDs(in)
	require.Len(t, out.DuplicateIDs, 2)
	assert.Equal(t, "aa", out.DuplicateIDs[0].ID)
	assert.Equal(t, []string{"2.ovt", "4.ovt"}, out.DuplicateIDs[0].Files)
	assert.Equal(t, "zz", out.DuplicateIDs[1].ID)
}
