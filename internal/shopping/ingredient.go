package shopping

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const amountPattern = `(?:\d+\s+\d+/\d+|\d+\s*[¼½¾⅓⅔⅛⅜⅝⅞]|\d+/\d+|\d+(?:\.\d+)?|[¼½¾⅓⅔⅛⅜⅝⅞])`

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	alternatives  = regexp.MustCompile(`(?i)\b(?:or|like|such as)\b`)
	leadingAmount = regexp.MustCompile(`^(` + amountPattern + `(?:\s*(?:-|–|to)\s*` + amountPattern + `)?)\s*`)
	firstAmount   = regexp.MustCompile(amountPattern)
	plainNumber   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	leadingUnit   = regexp.MustCompile(`(?i)^(?:cups?|c|tablespoons?|tbsps?|tbs|tbl|teaspoons?|tsps?|pounds?|lbs?|ounces?|oz|grams?|g|kilograms?|kgs?|milliliters?|millilitres?|ml|liters?|litres?|l|quarts?|qt|pints?|pt|gallons?|gal|cloves?|cans?|jars?|packages?|pkgs?|packets?|bunch(?:es)?|pinch(?:es)?|dash(?:es)?|slices?|sticks?|heads?|sprigs?|handfuls?|pieces?|bags?|bottles?|box(?:es)?|containers?)\.?(?:\s+|$)`)
	leadingOf     = regexp.MustCompile(`(?i)^of\s+`)
	preparation   = regexp.MustCompile(`(?i)\b(?:to taste|diced|chopped|minced|sliced|grated|shredded|peeled|crushed|freshly|fresh|finely|roughly|thinly|melted|softened|beaten|large|medium|small|boneless|skinless|cubed|halved|optional)\b`)
)

var vulgarFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75,
	'⅓': 1.0 / 3, '⅔': 2.0 / 3,
	'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
}

// ParseIngredient splits a recipe ingredient line into a cleaned item name and
// the leading amount, e.g. "2 cups finely chopped onion (about 1 large)" gives
// ("onion", "2"). When cleaning removes everything the trimmed line is used as
// the name. The unit is dropped with the rest of the text, so merged amounts
// are plain sums: "2 cups rice" and "200 g rice" add up to "202".
func ParseIngredient(raw string) (name, quantity string) {
	text := strings.Join(strings.Fields(raw), " ")
	fallback := text

	text = parenthetical.ReplaceAllString(text, " ")
	if loc := alternatives.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	text = strings.TrimSpace(strings.Join(strings.Fields(text), " "))

	if m := leadingAmount.FindStringSubmatch(text); m != nil {
		quantity = strings.Join(strings.Fields(m[1]), " ")
		text = text[len(m[0]):]
		text = leadingUnit.ReplaceAllString(text, "")
		text = leadingOf.ReplaceAllString(text, "")
	}

	if before, _, found := strings.Cut(text, ","); found {
		text = before
	}
	text = preparation.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, " ,.;:-–*")

	if text == "" {
		return fallback, quantity
	}
	return text, quantity
}

// MergeQuantity combines the quantities of two lines for the same item.
// Plain amounts are summed. Otherwise the first amount found in each side is
// summed and written back into a; failing that a is kept.
func MergeQuantity(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}

	x, okA := parseAmount(a)
	y, okB := parseAmount(b)
	if okA && okB {
		return formatAmount(x + y)
	}

	locA := firstAmount.FindStringIndex(a)
	numB := firstAmount.FindString(b)
	if locA == nil || numB == "" {
		return a
	}
	x, okA = parseAmount(a[locA[0]:locA[1]])
	y, okB = parseAmount(numB)
	if !okA || !okB {
		return a
	}
	return a[:locA[0]] + formatAmount(x+y) + a[locA[1]:]
}

// parseAmount reads an integer, decimal, fraction, mixed number or vulgar
// fraction. Anything else is not an amount.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if plainNumber.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}

	fields := strings.Fields(s)
	if len(fields) == 2 {
		whole, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0, false
		}
		return float64(whole) + frac, true
	}
	if len(fields) != 1 {
		return 0, false
	}

	if frac, ok := parseFraction(s); ok {
		return frac, true
	}

	// "1½"
	runes := []rune(s)
	last := runes[len(runes)-1]
	if v, ok := vulgarFractions[last]; ok {
		if len(runes) == 1 {
			return v, true
		}
		whole, err := strconv.Atoi(string(runes[:len(runes)-1]))
		if err != nil {
			return 0, false
		}
		return float64(whole) + v, true
	}
	return 0, false
}

func parseFraction(s string) (float64, bool) {
	if r := []rune(s); len(r) == 1 {
		v, ok := vulgarFractions[r[0]]
		return v, ok
	}
	num, den, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	d, err := strconv.Atoi(den)
	if err != nil || d == 0 {
		return 0, false
	}
	return float64(n) / float64(d), true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
