package household

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/household/household_db"
)

// ErrFamilyMemberNotFound is returned for an unknown member id.
var ErrFamilyMemberNotFound = errors.New("family member not found")

// FamilyMember is a person the household plans meals for.
type FamilyMember struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	DietaryPreferences []string  `json:"dietary_preferences"`
	CreatedAt          time.Time `json:"created_at"`
}

// FamilyRepository persists family members and their dietary preferences.
type FamilyRepository struct {
	queries *household_db.Queries
	db      *sql.DB
}

// NewFamilyRepository creates a new FamilyRepository.
func NewFamilyRepository(d *sql.DB) *FamilyRepository {
	return &FamilyRepository{
		queries: household_db.New(d),
		db:      d,
	}
}

// Save inserts a member when ID is zero and updates it otherwise.
func (r *FamilyRepository) Save(ctx context.Context, userID string, member FamilyMember) (FamilyMember, error) {
	if member.Name == "" {
		return FamilyMember{}, fmt.Errorf("family member name is required")
	}
	if member.DietaryPreferences == nil {
		member.DietaryPreferences = []string{}
	}
	prefs, err := json.Marshal(member.DietaryPreferences)
	if err != nil {
		return FamilyMember{}, fmt.Errorf("failed to marshal dietary preferences: %w", err)
	}

	if member.ID == 0 {
		member.CreatedAt = time.Now().UTC()
		id, err := r.queries.InsertFamilyMember(ctx, household_db.InsertFamilyMemberParams{
			UserID:             userID,
			Name:               member.Name,
			DietaryPreferences: string(prefs),
			CreatedAt:          member.CreatedAt.UnixMilli(),
		})
		if err != nil {
			return FamilyMember{}, fmt.Errorf("failed to insert family member: %w", err)
		}
		member.ID = id
		return member, nil
	}

	n, err := r.queries.UpdateFamilyMember(ctx, household_db.UpdateFamilyMemberParams{
		Name:               member.Name,
		DietaryPreferences: string(prefs),
		UserID:             userID,
		ID:                 member.ID,
	})
	if err != nil {
		return FamilyMember{}, fmt.Errorf("failed to update family member %d: %w", member.ID, err)
	}
	if n == 0 {
		return FamilyMember{}, ErrFamilyMemberNotFound
	}
	return member, nil
}

// List returns every family member of the household.
func (r *FamilyRepository) List(ctx context.Context, userID string) ([]FamilyMember, error) {
	rows, err := r.queries.ListFamilyMembers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}

	members := make([]FamilyMember, 0, len(rows))
	for _, row := range rows {
		var prefs []string
		if err := json.Unmarshal([]byte(row.DietaryPreferences), &prefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dietary preferences for member %d: %w", row.ID, err)
		}
		members = append(members, FamilyMember{
			ID:                 row.ID,
			Name:               row.Name,
			DietaryPreferences: prefs,
			CreatedAt:          time.UnixMilli(row.CreatedAt).UTC(),
		})
	}
	return members, nil
}

// Delete removes a family member.
func (r *FamilyRepository) Delete(ctx context.Context, userID string, id int64) error {
	n, err := r.queries.DeleteFamilyMember(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete family member %d: %w", id, err)
	}
	if n == 0 {
		return ErrFamilyMemberNotFound
	}
	return nil
}

// DietaryPreferences returns the union of every member's preferences,
// in first-seen order.
func DietaryPreferences(members []FamilyMember) []string {
	seen := make(map[string]struct{})
	var prefs []string
	for _, m := range members {
		for _, p := range m.DietaryPreferences {
			key := nameKey(p)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			prefs = append(prefs, p)
		}
	}
	return prefs
}
