package api

import (
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/export"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
)

// maxSnapshotExport caps how many snapshots one export holds.
const maxSnapshotExport = 200

// ExportHandler renders analyses to CSV, stores them and serves them back.
type ExportHandler struct {
	exports         *export.Service
	snapshots       *snapshot.Service // nil when snapshots are disabled
	defaultCurrency currency.Code
	linkTTL         time.Duration
	logger          *slog.Logger
}

// NewExportHandler creates an export handler. Download links it hands out
// are valid for linkTTL on backends that sign them.
func NewExportHandler(
	exports *export.Service,
	snapshots *snapshot.Service,
	defaultCurrency currency.Code,
	linkTTL time.Duration,
	logger *slog.Logger,
) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		exports:         exports,
		snapshots:       snapshots,
		defaultCurrency: defaultCurrency,
		linkTTL:         linkTTL,
		logger:          logger,
	}
}

// RegisterRoutes registers the export routes on the given mux. The file
// route matches the URL prefix local storage hands out.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/exports/discounts", h.ExportDiscounts)
	mux.HandleFunc("POST /api/v1/exports/batch", h.ExportBatch)
	mux.HandleFunc("POST /api/v1/exports/snapshots", h.ExportSnapshots)
	mux.HandleFunc("GET /api/v1/exports/link", h.Link)
	mux.HandleFunc("GET /api/v1/files/{key...}", h.Download)
}

// ExportDiscounts stores a discount analysis as CSV.
func (h *ExportHandler) ExportDiscounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, a, err := req.analyze(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.exports.Discounts(r.Context(), userID, a, code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// ExportBatch stores a batch pricing report as CSV.
func (h *ExportHandler) ExportBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, rep, err := req.compute(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.exports.Batch(r.Context(), userID, rep, code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// ExportSnapshots stores the caller's most recent snapshots as CSV.
func (h *ExportHandler) ExportSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "saved calculations are disabled"})
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	snaps, err := h.snapshots.List(r.Context(), userID, maxSnapshotExport, 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.exports.Snapshots(r.Context(), userID, snaps)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Link returns a fresh download URL for the export named by ?key=.
func (h *ExportHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	url, err := h.exports.Link(r.Context(), userID, r.URL.Query().Get("key"), h.linkTTL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_at": time.Now().Add(h.linkTTL).UTC(),
	})
}

// Download streams one of the caller's exports.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	rc, err := h.exports.Open(r.Context(), userID, key)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("streaming export", "key", key, "error", err)
	}
}
