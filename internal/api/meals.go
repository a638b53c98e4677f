package api

import (
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/household"
	"meal-planner/internal/planner"
)

// GET /api/meals
func (h *Handler) handleListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := h.app.Meals(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if meals == nil {
		meals = []planner.Meal{}
	}
	h.writeJSON(w, http.StatusOK, meals)
}

// POST /api/meals
func (h *Handler) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var meal planner.Meal
	if err := decodeJSON(w, r, &meal); err != nil {
		h.writeError(w, err)
		return
	}
	meal.ID = ""
	saved, err := h.app.SaveMeal(r.Context(), meal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, saved)
}

// PUT /api/meals/{id}
func (h *Handler) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	var meal planner.Meal
	if err := decodeJSON(w, r, &meal); err != nil {
		h.writeError(w, err)
		return
	}
	meal.ID = r.PathValue("id")
	saved, err := h.app.SaveMeal(r.Context(), meal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}

// DELETE /api/meals/{id}
func (h *Handler) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteMeal(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fetchRecipeRequest struct {
	URL string `json:"url"`
}

// handleFetchRecipe imports a recipe page as an unscheduled meal.
// POST /api/recipes/fetch
func (h *Handler) handleFetchRecipe(w http.ResponseWriter, r *http.Request) {
	var req fetchRecipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.URL == "" {
		h.writeError(w, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}
	meal, err := h.app.ImportRecipe(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, meal)
}

type pantryRequest struct {
	Name string `json:"name"`
}

// GET /api/pantry
func (h *Handler) handleListPantry(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Pantry(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	h.writeJSON(w, http.StatusOK, items)
}

// POST /api/pantry
func (h *Handler) handleAddPantry(w http.ResponseWriter, r *http.Request) {
	var req pantryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	added, err := h.app.AddPantryItem(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, map[string]bool{"added": added})
}

// DELETE /api/pantry/{name}
func (h *Handler) handleRemovePantry(w http.ResponseWriter, r *http.Request) {
	if err := h.app.RemovePantryItem(r.Context(), r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/plans
func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.app.Plans(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if plans == nil {
		plans = []planner.WeeklyMealPlan{}
	}
	h.writeJSON(w, http.StatusOK, plans)
}

type savePlanRequest struct {
	Name      string `json:"name"`
	WeekStart string `json:"week_start"`
}

// POST /api/plans
func (h *Handler) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var req savePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	var weekStart time.Time
	if req.WeekStart != "" {
		t, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: week_start must be YYYY-MM-DD", errBadRequest))
			return
		}
		weekStart = t
	}
	plan, err := h.app.SavePlan(r.Context(), req.Name, weekStart)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// POST /api/plans/{id}/load
func (h *Handler) handleLoadPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	meals, err := h.app.LoadPlan(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meals)
}

// DELETE /api/plans/{id}
func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.app.DeletePlan(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/family
func (h *Handler) handleListFamily(w http.ResponseWriter, r *http.Request) {
	members, err := h.app.FamilyMembers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	prefs, err := h.app.DietaryPreferences(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if members == nil {
		members = []household.FamilyMember{}
	}
	if prefs == nil {
		prefs = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"members":             members,
		"dietary_preferences": prefs,
	})
}

// POST /api/family
func (h *Handler) handleSaveFamily(w http.ResponseWriter, r *http.Request) {
	var member household.FamilyMember
	if err := decodeJSON(w, r, &member); err != nil {
		h.writeError(w, err)
		return
	}
	saved, err := h.app.SaveFamilyMember(r.Context(), member)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}

// DELETE /api/family/{id}
func (h *Handler) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.app.DeleteFamilyMember(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
