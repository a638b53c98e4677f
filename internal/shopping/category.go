package shopping

import (
	"sort"
	"strings"
)

const (
	CategoryProduce = "produce"
	CategoryDairy   = "dairy"
	CategoryMeat    = "meat"
	CategoryGrains  = "grains"
	CategoryFrozen  = "frozen"
	CategoryPantry  = "pantry"
	CategorySpices  = "spices"
	CategoryOther   = "other"
)

// Categories is the canonical display order of the built-in categories.
var Categories = []string{
	CategoryProduce,
	CategoryDairy,
	CategoryMeat,
	CategoryGrains,
	CategoryFrozen,
	CategoryPantry,
	CategorySpices,
	CategoryOther,
}

// exactCategories catches names whose keywords would otherwise land them in
// an earlier category ("chicken broth" is not meat).
var exactCategories = map[string]string{
	"chicken broth":   CategoryPantry,
	"chicken stock":   CategoryPantry,
	"beef broth":      CategoryPantry,
	"beef stock":      CategoryPantry,
	"vegetable broth": CategoryPantry,
	"vegetable stock": CategoryPantry,
	"vegetable oil":   CategoryPantry,
	"coconut milk":    CategoryPantry,
	"peanut butter":   CategoryPantry,
	"black pepper":    CategorySpices,
	"garlic powder":   CategorySpices,
	"onion powder":    CategorySpices,
	"chili powder":    CategorySpices,
	"cornstarch":      CategoryPantry,
	"tomato paste":    CategoryPantry,
	"tomato sauce":    CategoryPantry,
	"canned tomatoes": CategoryPantry,
	"ice cream":       CategoryFrozen,
}

var categoryKeywords = map[string][]string{
	CategoryProduce: {
		"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato", "potato",
		"onion", "shallot", "garlic", "lettuce", "spinach", "kale", "arugula", "cabbage",
		"broccoli", "cauliflower", "carrot", "celery", "cucumber", "bell pepper",
		"jalapeño", "jalapeno", "mushroom", "corn", "zucchini", "squash", "eggplant",
		"asparagus", "green bean", "peas", "berries", "strawberr", "blueberr", "grape",
		"mango", "pineapple", "peach", "pear", "cilantro", "parsley", "basil", "mint",
		"ginger", "scallion", "leek", "beet", "radish", "sweet potato", "herbs",
	},
	CategoryDairy: {
		"milk", "butter", "cheese", "cheddar", "mozzarella", "parmesan", "feta",
		"yogurt", "yoghurt", "cream", "egg", "ricotta", "buttermilk", "ghee",
	},
	CategoryMeat: {
		"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham", "steak",
		"lamb", "salmon", "shrimp", "prawn", "tuna", "cod", "tilapia", "fish",
		"crab", "lobster", "chorizo", "prosciutto", "mince",
	},
	CategoryGrains: {
		"rice", "pasta", "spaghetti", "penne", "noodle", "bread", "tortilla", "flour",
		"oats", "oatmeal", "quinoa", "couscous", "barley", "bun", "bagel", "pita",
		"cereal", "cracker", "breadcrumb", "panko",
	},
	CategoryFrozen: {
		"frozen", "ice cream", "popsicle",
	},
	CategoryPantry: {
		"oil", "vinegar", "sugar", "honey", "syrup", "broth", "stock", "sauce",
		"ketchup", "mustard", "mayonnaise", "mayo", "beans", "lentil", "chickpea",
		"canned", "nuts", "almond", "peanut", "walnut", "cashew", "jam", "baking soda",
		"baking powder", "yeast", "vanilla", "cocoa", "chocolate", "salsa", "paste",
	},
	CategorySpices: {
		"salt", "pepper", "cumin", "paprika", "oregano", "thyme", "rosemary", "cinnamon",
		"nutmeg", "turmeric", "curry", "chili", "cayenne", "bay lea", "clove", "coriander",
		"cardamom", "seasoning", "spice", "sage", "dill",
	},
}

// Categorize assigns a cleaned ingredient name to a built-in category. An
// exact entry wins, then anything marked frozen, then the first category in
// canonical order with a keyword contained in the name.
func Categorize(name string) string {
	key := NormalizeName(name)
	if key == "" {
		return CategoryOther
	}
	if cat, ok := exactCategories[key]; ok {
		return cat
	}
	if strings.HasPrefix(key, "frozen ") {
		return CategoryFrozen
	}
	for _, cat := range Categories {
		for _, keyword := range categoryKeywords[cat] {
			if strings.Contains(key, keyword) {
				return cat
			}
		}
	}
	return CategoryOther
}

// CategoryIndex gives the sort position of a category. Custom categories sort
// after every built-in one.
func CategoryIndex(category string) int {
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	return len(Categories)
}

// SortItems orders items for display: by store with Unassigned last, then by
// department with empty last, then by category in canonical order with
// custom categories alphabetically after it. The sort is stable.
func SortItems(items []ShoppingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		if a.Store != b.Store {
			if a.Store == Unassigned {
				return false
			}
			if b.Store == Unassigned {
				return true
			}
			return strings.ToLower(a.Store) < strings.ToLower(b.Store)
		}

		if a.Department != b.Department {
			if a.Department == "" {
				return false
			}
			if b.Department == "" {
				return true
			}
			return strings.ToLower(a.Department) < strings.ToLower(b.Department)
		}

		ai, bi := CategoryIndex(a.Category), CategoryIndex(b.Category)
		if ai != bi {
			return ai < bi
		}
		if ai == len(Categories) {
			return strings.ToLower(a.Category) < strings.ToLower(b.Category)
		}
		return false
	})
}
