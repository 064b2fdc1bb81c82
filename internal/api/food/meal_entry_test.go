package food

import (
	"context"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func TestNewMealID(t *testing.T) {
	id := NewMealID(fixedNow)
	assert.Regexp(t, regexp.MustCompile(`^meal_1748772000000_[0-9a-z]{9}$`), id)
	assert.NotEqual(t, id, NewMealID(fixedNow))
}

func TestMealTags(t *testing.T) {
	tests := []struct {
		name        string
		mealName    string
		mealType    string
		ingredients []string
		want        []string
	}{
		{"type only", "Mystery dish", "snack", nil, []string{"snack"}},
		{"families", "Breakfast bowl", "breakfast", []string{"Greek yogurt", "Blueberry", "Boiled egg"},
			[]string{"breakfast", "dairy", "fruits", "protein"}},
		{"duplicates collapse", "Baked salmon", "dinner", []string{"Salmon fillet", "Tuna", "Steamed broccoli"},
			[]string{"dinner", "protein", "vegetables", "baked"}},
		{"cooking methods from name only", "Fried rice", "lunch", []string{"Grilled tofu"},
			[]string{"lunch", "fried"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ings := make([]types.MealIngredient, 0, len(tt.ingredients))
			for _, n := range tt.ingredients {
				ings = append(ings, types.MealIngredient{Name: n})
			}
			assert.Equal(t, tt.want, MealTags(tt.mealName, tt.mealType, ings))
		})
	}
}

func TestSearchKeywords(t *testing.T) {
	got := SearchKeywords("Grilled Chicken  Wrap",
		[]types.MealIngredient{{Name: "chicken breast"}, {Name: "Tortilla wrap"}, {Name: "of"}},
		"Ate at my desk")
	assert.Equal(t, []string{"grilled", "chicken", "wrap", "breast", "tortilla", "ate", "desk"}, got)
	assert.Equal(t, []string{}, SearchKeywords("", nil, ""))
}

func TestAferoImageStore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/meals/a.webp", []byte("webp"), 0o644))
	store := NewAferoImageStore(fsys)

	data, err := store.Read(context.Background(), "meals/a.webp")
	require.NoError(t, err)
	assert.Equal(t, []byte("webp"), data)

	_, err = store.Read(context.Background(), "meals/missing.webp")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = store.Read(context.Background(), "../../meals/a.webp")
	require.NoError(t, err, "paths are confined to the store root")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Read(ctx, "meals/a.webp")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageMIMEType(t *testing.T) {
	for path, want := range map[string]string{
		"a.jpg":  "image/jpeg",
		"a.JPEG": "image/jpeg",
		"a.png":  "image/png",
		"a.webp": "image/webp",
	} {
		got, ok := imageMIMEType(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	for _, path := range []string{"a.gif", "a", "a.jpg.txt", "png"} {
		_, ok := imageMIMEType(path)
		assert.False(t, ok, path)
	}
}
