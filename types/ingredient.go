package types

import (
	"regexp"
	"strings"
	"unicode"
)

// Default quantity and unit given to ingredients entered without an amount.
// The nutrition service only understands "<quantity> <unit> <name>" lines.
const (
	DefaultQuantity = "1"
	DefaultUnit     = "unit"
)

var quantityPattern = regexp.MustCompile(`^\d+(?:[.,/-]\d+)?$`)

// Ingredient is one structured ingredient line of a recipe.
//
// Lines that contain a digit but do not start with a quantity (e.g. "salt to
// taste, about 2g") keep their text in Name with Quantity and Unit empty so
// they are reproduced verbatim.
type Ingredient struct {
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Name     string `json:"name"`
}

// String renders the ingredient as "<quantity> <unit> <name>", skipping
// empty parts.
func (i Ingredient) String() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{i.Quantity, i.Unit, i.Name} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// ParseIngredients splits comma-separated ingredient text into structured
// ingredients. Blank entries are dropped. An entry without any digit gets the
// default "1 unit" quantity.
func ParseIngredients(text string) []Ingredient {
	rawItems := strings.Split(text, ",")
	ingredients := make([]Ingredient, 0, len(rawItems))
	for _, raw := range rawItems {
		item := strings.Join(strings.Fields(raw), " ")
		if item == "" {
			continue
		}
		ingredients = append(ingredients, parseIngredient(item))
	}
	return ingredients
}

func parseIngredient(item string) Ingredient {
	if !strings.ContainsFunc(item, unicode.IsDigit) {
		return Ingredient{Quantity: DefaultQuantity, Unit: DefaultUnit, Name: item}
	}

	fields := strings.Fields(item)
	if !quantityPattern.MatchString(fields[0]) {
		return Ingredient{Name: item}
	}

	switch len(fields) {
	case 1:
		return Ingredient{Quantity: fields[0]}
	case 2:
		return Ingredient{Quantity: fields[0], Name: fields[1]}
	default:
		return Ingredient{
			Quantity: fields[0],
			Unit:     fields[1],
			Name:     strings.Join(fields[2:], " "),
		}
	}
}

// FormatIngredients renders each ingredient as a quantity+unit+name line.
func FormatIngredients(ingredients []Ingredient) []string {
	lines := make([]string, 0, len(ingredients))
	for _, ingredient := range ingredients {
		if line := ingredient.String(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// IngredientsText joins ingredients back into the comma-separated form used
// by the recipe edit form.
func IngredientsText(ingredients []Ingredient) string {
	return strings.Join(FormatIngredients(ingredients), ", ")
}
