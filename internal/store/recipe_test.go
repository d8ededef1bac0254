package store

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/recipebox/webapp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	ingredients []byte
}

func (f fakeRow) Scan(dest ...any) error {
	*dest[0].(*int) = 7
	*dest[1].(*int) = 1
	*dest[2].(*string) = "alice"
	*dest[3].(*string) = "Soup"
	*dest[4].(*string) = ""
	*dest[5].(*[]byte) = f.ingredients
	*dest[6].(*string) = "Boil."
	*dest[7].(*sql.NullString) = sql.NullString{String: "uploads/a-soup.png", Valid: true}
	*dest[8].(*string) = "Dinner"
	*dest[9].(*string) = ""
	*dest[10].(*bool) = true
	*dest[11].(*time.Time) = time.Unix(0, 0)
	*dest[12].(*time.Time) = time.Unix(0, 0)
	return nil
}

func TestScanRecipeDecodesIngredients(t *testing.T) {
	raw, err := json.Marshal([]types.Ingredient{{Quantity: "2", Unit: "cups", Name: "water"}})
	require.NoError(t, err)

	recipe, err := scanRecipe(fakeRow{ingredients: raw})
	require.NoError(t, err)
	assert.Equal(t, []types.Ingredient{{Quantity: "2", Unit: "cups", Name: "water"}}, recipe.Ingredients)
	assert.Equal(t, "uploads/a-soup.png", recipe.ImagePath)
	assert.True(t, recipe.IsFavorite)
}

func TestScanRecipeRejectsCorruptIngredients(t *testing.T) {
	_, err := scanRecipe(fakeRow{ingredients: []byte(`{"not":"a list"}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode ingredients for recipe 7")
}
