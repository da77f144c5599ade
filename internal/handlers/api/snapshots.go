package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
)

// SnapshotHandler serves saved calculations for the calling user.
type SnapshotHandler struct {
	snapshots       *snapshot.Service
	defaultCurrency currency.Code
	logger          *slog.Logger
}

// NewSnapshotHandler creates a snapshot handler. A nil service disables the
// endpoints; they answer 503.
func NewSnapshotHandler(snapshots *snapshot.Service, defaultCurrency currency.Code, logger *slog.Logger) *SnapshotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotHandler{snapshots: snapshots, defaultCurrency: defaultCurrency, logger: logger}
}

// RegisterRoutes registers the snapshot routes on the given mux.
func (h *SnapshotHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/snapshots", h.Create)
	mux.HandleFunc("GET /api/v1/snapshots", h.List)
	mux.HandleFunc("GET /api/v1/snapshots/{id}", h.Get)
	mux.HandleFunc("DELETE /api/v1/snapshots/{id}", h.Delete)
	mux.HandleFunc("POST /api/v1/snapshots/{id}/replay", h.Replay)
}

type createSnapshotRequest struct {
	Name string `json:"name"`
	pricingRequest
}

type snapshotJSON struct {
	snapshot.Snapshot
	ProfitDisplay string `json:"profit_display"`
}

func newSnapshotJSON(s snapshot.Snapshot) snapshotJSON {
	return snapshotJSON{Snapshot: s, ProfitDisplay: currency.Display(s.Result.Profit, s.Currency)}
}

// available writes a 503 when snapshots are disabled.
func (h *SnapshotHandler) available(w http.ResponseWriter) bool {
	if h.snapshots == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "saved calculations are disabled"})
		return false
	}
	return true
}

// snapshotID parses the {id} path value, writing a 400 when it is not a UUID.
func snapshotID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid snapshot ID"})
		return uuid.Nil, false
	}
	return id, true
}

// Create calculates and stores a named snapshot.
func (h *SnapshotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createSnapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, in, err := req.resolve(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.snapshots.Save(r.Context(), userID, req.Name, code, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSnapshotJSON(s))
}

// List returns the caller's snapshots, newest first.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, offset := parsePagination(r)
	snaps, err := h.snapshots.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data := make([]snapshotJSON, 0, len(snaps))
	for _, s := range snaps {
		data = append(data, newSnapshotJSON(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "offset": offset})
}

// Get returns one snapshot.
func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}

	s, err := h.snapshots.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotJSON(s))
}

// Delete removes one snapshot.
func (h *SnapshotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}

	if err := h.snapshots.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Replay recalculates a stored snapshot against the current fee tables.
func (h *SnapshotHandler) Replay(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}

	rep, err := h.snapshots.Replay(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":              newSnapshotJSON(rep.Snapshot),
		"current":               newCalculationJSON(rep.Snapshot.Currency, rep.Current),
		"profit_change":         rep.ProfitChange,
		"profit_change_display": currency.Display(rep.ProfitChange, rep.Snapshot.Currency),
	})
}
