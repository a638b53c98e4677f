package clipper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"meal-planner/internal/shopping"
)

// maxPromptText caps the article text handed to the language model.
const maxPromptText = 20000

// ingredientSelectors are tried in order when a page has no structured data.
var ingredientSelectors = []string{
	`[itemprop="recipeIngredient"]`,
	`[itemprop="ingredients"]`,
	`.wprm-recipe-ingredient`,
	`.tasty-recipes-ingredients li`,
	`.mv-create-ingredients li`,
	`.ingredients li`,
	`.ingredient-list li`,
	`ul[class*="ingredient"] li`,
}

func (c *Clipper) extract(ctx context.Context, body []byte, u *url.URL) (*Result, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse recipe page: %w", err)
	}
	title := pageTitle(doc)

	if name, ingredients := fromJSONLD(doc); len(ingredients) > 0 {
		if name != "" {
			title = name
		}
		return &Result{Title: title, Ingredients: ingredients}, "json-ld", nil
	}
	if ingredients := fromSelectors(doc); len(ingredients) > 0 {
		return &Result{Title: title, Ingredients: ingredients}, "markup", nil
	}
	if c.textGen == nil {
		return nil, "", ErrNoIngredients
	}

	res, err := c.fromLLM(ctx, body, u)
	if err != nil {
		return nil, "", err
	}
	if res.Title == "" {
		res.Title = title
	}
	return res, "llm", nil
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return cleanLine(og)
	}
	return cleanLine(doc.Find("title").First().Text())
}

// fromJSONLD looks for a schema.org Recipe in the page's JSON-LD blocks.
func fromJSONLD(doc *goquery.Document) (string, []string) {
	var (
		name        string
		ingredients []string
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if recipe := findRecipe(data); recipe != nil {
			name, _ = recipe["name"].(string)
			ingredients = stringList(recipe["recipeIngredient"])
			if len(ingredients) == 0 {
				ingredients = stringList(recipe["ingredients"])
			}
		}
		return len(ingredients) == 0
	})
	return cleanLine(name), cleanLines(ingredients)
}

func findRecipe(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if r := findRecipe(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if isRecipe(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipe(graph)
		}
		if entity, ok := v["mainEntity"]; ok {
			return findRecipe(entity)
		}
	}
	return nil
}

func isRecipe(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func stringList(v any) []string {
	switch list := v.(type) {
	case string:
		return strings.Split(list, "\n")
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case map[string]any:
				if text, ok := s["text"].(string); ok {
					out = append(out, text)
				}
			}
		}
		return out
	}
	return nil
}

func fromSelectors(doc *goquery.Document) []string {
	for _, sel := range ingredientSelectors {
		var lines []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			lines = append(lines, s.Text())
		})
		if lines = cleanLines(lines); len(lines) > 0 {
			return lines
		}
	}
	return nil
}

func (c *Clipper) fromLLM(ctx context.Context, body []byte, u *url.URL) (*Result, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoIngredients, err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, ErrNoIngredients
	}
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the ingredient list from the following recipe text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["1 cup flour", "2 eggs", ...]
}
Return an empty ingredients array if the text is not a recipe.

Recipe text:
%s
`, text)

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted struct {
		Title       string   `json:"title"`
		Ingredients []string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	ingredients := cleanLines(extracted.Ingredients)
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	title := cleanLine(extracted.Title)
	if title == "" {
		title = cleanLine(article.Title)
	}
	return &Result{Title: title, Ingredients: ingredients}, nil
}

func cleanLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanLines collapses whitespace and drops blank and repeated lines.
func cleanLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// quantities maps each cleaned ingredient name to its leading amount.
func quantities(ingredients []string) map[string]string {
	out := make(map[string]string)
	for _, raw := range ingredients {
		name, qty := shopping.ParseIngredient(raw)
		if name != "" && qty != "" {
			out[name] = qty
		}
	}
	return out
}
