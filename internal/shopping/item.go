package shopping

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	// Unassigned is the store of an item nobody has placed yet.
	Unassigned = "Unassigned"

	derivedPrefix = "meal-"
	manualPrefix  = "manual-"
)

// ErrItemNotFound is returned when an item id is in neither the working list
// nor the archive.
var ErrItemNotFound = errors.New("shopping item not found")

// ShoppingItem is one line of the shopping list.
type ShoppingItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Category   string `json:"category"`
	Store      string `json:"store"`
	Department string `json:"department,omitempty"`
	Meal       string `json:"meal,omitempty"`
	Checked    bool   `json:"checked"`
	Recurring  bool   `json:"recurring,omitempty"`
	IsManual   bool   `json:"is_manual,omitempty"`
	// UpdatedAt is a unix millisecond stamp used for last-write-wins only.
	UpdatedAt int64 `json:"updated_at"`
}

// IsDerived reports whether the item was generated from a meal.
func (i ShoppingItem) IsDerived() bool {
	return strings.HasPrefix(i.ID, derivedPrefix)
}

// NormalizeName lowercases s, trims it and collapses inner whitespace. All
// name comparisons go through it.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var derivedNamespace = uuid.MustParse("8d0f2a61-5c3e-4b7a-9e12-4f6d8c2b1a07")

// DerivedID builds the id of the line a meal contributes for an ingredient.
// It only changes when the meal id or the cleaned ingredient name changes,
// and distinct normalized names always give distinct ids: letters and digits
// of any script are kept and spaces become dashes; a name that loses any other
// character on the way gets a hash of the full name appended.
func DerivedID(mealID, name string) string {
	normalized := NormalizeName(name)
	var sb strings.Builder
	lossy := false
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('-')
		default:
			lossy = true
		}
	}
	slug := sb.String()
	if lossy || slug == "" {
		sum := uuid.NewSHA1(derivedNamespace, []byte(normalized)).String()[:8]
		if slug == "" {
			slug = "item"
		}
		slug += "-" + sum
	}
	return derivedPrefix + mealID + "-" + slug
}

// NewManualID returns a fresh id in the manual namespace.
func NewManualID() string {
	return manualPrefix + uuid.NewString()
}

// withDefaults fills in the values a malformed item may be missing.
func withDefaults(item ShoppingItem) ShoppingItem {
	item.Name = strings.TrimSpace(item.Name)
	item.Quantity = strings.TrimSpace(item.Quantity)
	if item.Category == "" {
		item.Category = CategoryOther
	}
	if strings.TrimSpace(item.Store) == "" {
		item.Store = Unassigned
	}
	return item
}

// archiveKey identifies an item for archive exclusion.
type archiveKey struct {
	name string
	meal string
}

func keyOf(item ShoppingItem) archiveKey {
	return archiveKey{name: NormalizeName(item.Name), meal: NormalizeName(item.Meal)}
}
