// Package api provides the HTTP JSON API of the meal planner.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/household"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

// MaxRequestBodySize limits JSON request bodies.
const MaxRequestBodySize = 1 << 20

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	app    *app.App
	logger *zap.Logger
}

// New creates a new Handler.
func New(a *app.App, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{app: a, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/shopping", h.handleGetShopping)
	mux.HandleFunc("POST /api/shopping/items", h.handleAddItem)
	mux.HandleFunc("PATCH /api/shopping/items/{id}", h.handleUpdateItem)
	mux.HandleFunc("POST /api/shopping/items/{id}/check", h.handleCheckItem)
	mux.HandleFunc("POST /api/shopping/items/{id}/restore", h.handleRestoreItem)
	mux.HandleFunc("DELETE /api/shopping/items/{id}", h.handleDeleteItem)
	mux.HandleFunc("POST /api/shopping/carry-forward", h.handleCarryForward)
	mux.HandleFunc("DELETE /api/shopping/archive", h.handleClearArchive)
	mux.HandleFunc("POST /api/stores", h.handleAddStore)
	mux.HandleFunc("DELETE /api/stores/{name}", h.handleRemoveStore)

	mux.HandleFunc("GET /api/meals", h.handleListMeals)
	mux.HandleFunc("POST /api/meals", h.handleCreateMeal)
	mux.HandleFunc("PUT /api/meals/{id}", h.handleUpdateMeal)
	mux.HandleFunc("DELETE /api/meals/{id}", h.handleDeleteMeal)
	mux.HandleFunc("POST /api/recipes/fetch", h.handleFetchRecipe)

	mux.HandleFunc("GET /api/pantry", h.handleListPantry)
	mux.HandleFunc("POST /api/pantry", h.handleAddPantry)
	mux.HandleFunc("DELETE /api/pantry/{name}", h.handleRemovePantry)

	mux.HandleFunc("GET /api/plans", h.handleListPlans)
	mux.HandleFunc("POST /api/plans", h.handleSavePlan)
	mux.HandleFunc("POST /api/plans/{id}/load", h.handleLoadPlan)
	mux.HandleFunc("DELETE /api/plans/{id}", h.handleDeletePlan)

	mux.HandleFunc("GET /api/family", h.handleListFamily)
	mux.HandleFunc("POST /api/family", h.handleSaveFamily)
	mux.HandleFunc("DELETE /api/family/{id}", h.handleDeleteFamily)

	mux.HandleFunc("GET /api/notices", h.handleNotices)
	mux.HandleFunc("GET /health", h.handleHealth)
}

// === Response Helpers ===

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err onto a status code. Unexpected errors are logged and
// hidden from the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, app.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, shopping.ErrItemNotFound),
		errors.Is(err, planner.ErrMealNotFound),
		errors.Is(err, planner.ErrPlanNotFound),
		errors.Is(err, household.ErrPantryItemNotFound),
		errors.Is(err, household.ErrFamilyMemberNotFound):
		status, message = http.StatusNotFound, err.Error()
	default:
		h.logger.Error("internal error", zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func (h *Handler) handleNotices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.app.Notices(queryInt(r, "limit", 10)))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.app.Health()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"goroutines": health.Goroutines,
		"alloc_mb":   health.AllocMB,
		"uptime":     health.Uptime.String(),
		"disk_usage": health.DiskUsage,
	})
}
