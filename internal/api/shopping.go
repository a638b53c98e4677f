package api

import (
	"net/http"

	"meal-planner/internal/shopping"
)

// handleGetShopping returns the working list, archive and stores.
// GET /api/shopping
func (h *Handler) handleGetShopping(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.app.ShoppingList())
}

// POST /api/shopping/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req shopping.NewItem
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.app.AddItem(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

// PATCH /api/shopping/items/{id}
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch shopping.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeError(w, err)
		return
	}
	item, err := h.app.UpdateItem(r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// POST /api/shopping/items/{id}/check
func (h *Handler) handleCheckItem(w http.ResponseWriter, r *http.Request) {
	if err := h.app.CheckItem(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/shopping/items/{id}/restore
func (h *Handler) handleRestoreItem(w http.ResponseWriter, r *http.Request) {
	if err := h.app.RestoreItem(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/shopping/items/{id}
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteItem(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/shopping/carry-forward
func (h *Handler) handleCarryForward(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]int{"carried": h.app.CarryForward()})
}

// DELETE /api/shopping/archive
func (h *Handler) handleClearArchive(w http.ResponseWriter, r *http.Request) {
	h.app.ClearArchive()
	w.WriteHeader(http.StatusNoContent)
}

type storeRequest struct {
	Name string `json:"name"`
}

// POST /api/stores
func (h *Handler) handleAddStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	added := h.app.AddStore(req.Name)
	if added {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, map[string]interface{}{"added": added, "stores": h.app.ShoppingList().Stores})
}

// DELETE /api/stores/{name}
func (h *Handler) handleRemoveStore(w http.ResponseWriter, r *http.Request) {
	if !h.app.RemoveStore(r.PathValue("name")) {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "store not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
