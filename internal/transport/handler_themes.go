package transport

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/model"
)

type themesResponse struct {
	Themes []model.ThemeFile `json:"themes"`
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

type duplicateRequest struct {
	NewName string `json:"new_name"`
}

type metaRequest struct {
	Meta map[string]any `json:"meta"`
}

func handleListThemes(lister *catalog.Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := lister.List(r.Context())
		if err != nil {
			observability.LoggerFrom(r.Context(), zap.NewNop()).Error("listing themes failed", zap.Error(err))
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, themesResponse{Themes: files})
	}
}

func handleDownloadTheme(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		doc, err := store.Read(r.Context(), name)
		if err != nil {
			writeCatalogError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeFor(doc.Name))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Text)))
		w.Header().Set("ETag", strconv.Quote(doc.Checksum))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(doc.Text))
	}
}

func handleDeleteTheme(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := store.Delete(r.Context(), name); err != nil {
			writeCatalogError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, mutationResponse{
			Success: true,
			Message: fmt.Sprintf("Theme '%s' deleted.", name),
		})
	}
}

func handleDuplicateTheme(store *catalog.Store, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req duplicateRequest
		if err := decodeJSON(w, r, maxBody, &req); err != nil {
			WriteError(w, err)
			return
		}
		if strings.TrimSpace(req.NewName) == "" {
			WriteBadRequest(w, "Missing new_name")
			return
		}

		target, err := store.Duplicate(r.Context(), name, req.NewName)
		if err != nil {
			writeCatalogError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, mutationResponse{
			Success: true,
			Message: fmt.Sprintf("Theme '%s' duplicated to '%s'.", name, target),
			Name:    target,
		})
	}
}

func handleGetMeta(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := store.Meta(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			writeCatalogError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, meta)
	}
}

func handleUpdateMeta(store *catalog.Store, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req metaRequest
		if err := decodeJSON(w, r, maxBody, &req); err != nil {
			WriteError(w, err)
			return
		}
		if len(req.Meta) == 0 {
			WriteBadRequest(w, "Missing meta")
			return
		}

		fields := make(map[string]string, len(req.Meta))
		for k, v := range req.Meta {
			fields[k] = metaString(v)
		}

		if err := store.UpdateMeta(r.Context(), chi.URLParam(r, "name"), fields); err != nil {
			writeCatalogError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, mutationResponse{
			Success: true,
			Message: "Theme metadata updated.",
		})
	}
}

// metaString renders a decoded JSON value as a metadata string.
func metaString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBody int64, dst any) error {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return bodyError(err, maxBody)
	}
	return nil
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := catalogError(err)
	if mapped == err {
		observability.LoggerFrom(r.Context(), zap.NewNop()).Error("theme operation failed", zap.Error(err))
	}
	WriteError(w, mapped)
}

func contentTypeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "application/json; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
