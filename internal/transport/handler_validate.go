package transport

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/model"
)

func handleValidateCatalog(lister *catalog.Lister, agg *catalog.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.LoggerFrom(r.Context(), zap.NewNop())

		files, err := lister.List(r.Context())
		if err != nil {
			logger.Error("listing themes failed", zap.Error(err))
			WriteError(w, err)
			return
		}

		result, err := agg.ValidateFiles(r.Context(), files)
		if err != nil {
			logger.Warn("catalog validation aborted", zap.Error(err))
			WriteError(w, model.NewUnprocessableError("Validation aborted: "+err.Error()))
			return
		}

		logger.Info("catalog validated",
			zap.Int("themes", len(result.Validations)),
			zap.Int("errors", result.ErrorCount()),
			zap.Int("warnings", result.WarningCount()),
			zap.Int("duplicate_ids", len(result.DuplicateIDs)),
		)
		WriteJSON(w, http.StatusOK, result)
	}
}

// handleValidateDocument validates the raw request body as one theme document.
func handleValidateDocument(v catalog.DocumentValidator, obs catalog.ValidationObserver, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if maxBody > 0 {
			body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			WriteError(w, bodyError(err, maxBody))
			return
		}

		_, span := observability.StartSpan(r.Context(), "theme.validate",
			observability.AttrThemeName.String(r.URL.Query().Get("name")),
		)
		start := time.Now()
		report := v.Validate(string(data))
		if obs != nil {
			obs.RecordValidation(report, time.Since(start))
		}
		span.SetAttributes(
			observability.AttrThemeID.String(report.Meta.ID()),
			observability.AttrErrorCount.Int(report.Summary.Errors),
			observability.AttrWarningCount.Int(report.Summary.Warnings),
		)
		span.End()

		WriteJSON(w, http.StatusOK, report)
	}
}
