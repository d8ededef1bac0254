package types

// Nutrition holds the nutrition facts computed by the external nutrition
// service for a whole recipe.
type Nutrition struct {
	// Calories is the total energy of the recipe in kcal.
	Calories float64 `json:"calories"`

	// TotalWeight is the total weight of all ingredients in grams.
	TotalWeight float64 `json:"total_weight"`

	// DietLabels are labels such as "LOW_CARB" or "BALANCED".
	DietLabels []string `json:"diet_labels,omitempty"`

	// HealthLabels are labels such as "VEGAN" or "PEANUT_FREE".
	HealthLabels []string `json:"health_labels,omitempty"`

	// Nutrients lists the total amount per nutrient, sorted by code.
	Nutrients []Nutrient `json:"nutrients,omitempty"`
}

// Nutrient is a single nutrient total, e.g. {"FAT", "Fat", 12.5, "g"}.
type Nutrient struct {
	Code     string  `json:"code"`
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}
