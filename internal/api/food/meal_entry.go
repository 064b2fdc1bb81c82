package food

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewMealID returns meal_<unix ms>_<9 base36 chars>.
func NewMealID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return "meal_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

var ingredientTags = []struct {
	tag   string
	words []string
}{
	{"protein", []string{"chicken", "beef", "fish", "salmon", "tuna", "egg"}},
	{"carbs", []string{"rice", "pasta", "bread", "potato", "quinoa"}},
	{"vegetables", []string{"vegetable", "carrot", "broccoli", "spinach", "tomato", "lettuce"}},
	{"fruits", []string{"apple", "banana", "berry", "orange", "fruit"}},
	{"dairy", []string{"milk", "cheese", "yogurt", "butter"}},
}

var cookingMethods = []string{"grilled", "fried", "baked", "steamed", "raw"}

// orderedSet keeps first-insertion order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// MealTags categorizes a meal by type, ingredient families and cooking method.
func MealTags(mealName, mealType string, ingredients []types.MealIngredient) []string {
	tags := newOrderedSet()
	tags.add(mealType)
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		for _, group := range ingredientTags {
			for _, w := range group.words {
				if strings.Contains(name, w) {
					tags.add(group.tag)
					break
				}
			}
		}
	}
	lower := strings.ToLower(mealName)
	for _, m := range cookingMethods {
		if strings.Contains(lower, m) {
			tags.add(m)
		}
	}
	return tags.items
}

// SearchKeywords collects the distinct words longer than two characters from
// the meal name, ingredient names and notes.
func SearchKeywords(mealName string, ingredients []types.MealIngredient, notes string) []string {
	keywords := newOrderedSet()
	addWords := func(s string) {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			if len([]rune(w)) > 2 {
				keywords.add(w)
			}
		}
	}
	addWords(mealName)
	for _, ing := range ingredients {
		addWords(ing.Name)
	}
	addWords(notes)
	return keywords.items
}
