// Package schemas holds the versioned structured-output descriptors sent to the model
// and the sanity checks applied to what comes back.
package schemas

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type Name string

const (
	Itinerary       Name = "itinerary"
	ActivityShuffle Name = "activity_shuffle"
	ActivityEdit    Name = "activity_edit"
	MealAnalysis    Name = "meal_analysis"
)

// DefaultVersion is served for unknown or missing versions.
const DefaultVersion = 1

// CheckFunc validates the parsed top level of a model response.
type CheckFunc func(doc map[string]any) error

// Entry is one immutable schema version. Schema must be treated as read-only.
type Entry struct {
	Name    Name
	Version int
	Schema  *genai.Schema
	Check   CheckFunc
}

var registry = map[Name]map[int]Entry{
	Itinerary: {
		1: {Name: Itinerary, Version: 1, Schema: itineraryV1(), Check: requireKeys("title", "destination", "days")},
		2: {Name: Itinerary, Version: 2, Schema: itineraryV2(), Check: requireKeys("title", "destination", "days")},
	},
	ActivityShuffle: {
		1: {Name: ActivityShuffle, Version: 1, Schema: shuffleV1(), Check: requireArray("activities")},
		2: {Name: ActivityShuffle, Version: 2, Schema: shuffleV2(), Check: requireArray("activities")},
	},
	ActivityEdit: {
		1: {Name: ActivityEdit, Version: 1, Schema: editV1(), Check: requireObjectKeys("activity", "id", "name")},
		2: {Name: ActivityEdit, Version: 2, Schema: editV2(), Check: requireObjectKeys("activity", "id", "name")},
	},
	MealAnalysis: {
		1: {Name: MealAnalysis, Version: 1, Schema: mealAnalysisMobile(), Check: requireKeys("mealName", "nutrition", "confidence", "foodValidity")},
	},
}

// Select returns the descriptor for name at version, falling back to DefaultVersion.
// An unregistered name is a programming error and panics.
func Select(name Name, version int) Entry {
	versions, ok := registry[name]
	if !ok {
		panic(fmt.Sprintf("schemas: unknown schema %q", name))
	}
	if e, ok := versions[version]; ok {
		return e
	}
	return versions[DefaultVersion]
}

// Versions lists the registered versions of name.
func Versions(name Name) []int {
	out := make([]int, 0, len(registry[name]))
	for v := range registry[name] {
		out = append(out, v)
	}
	return out
}

var errMissingKey = errors.New("missing required key")

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

func requireKeys(keys ...string) CheckFunc {
	return func(doc map[string]any) error {
		for _, k := range keys {
			if !present(doc[k]) {
				return fmt.Errorf("%w: %s", errMissingKey, k)
			}
		}
		return nil
	}
}

func requireArray(key string) CheckFunc {
	return func(doc map[string]any) error {
		if _, ok := doc[key].([]any); !ok {
			return fmt.Errorf("%w: %s must be an array", errMissingKey, key)
		}
		return nil
	}
}

func requireObjectKeys(key string, inner ...string) CheckFunc {
	return func(doc map[string]any) error {
		obj, ok := doc[key].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s", errMissingKey, key)
		}
		for _, k := range inner {
			if !present(obj[k]) {
				return fmt.Errorf("%w: %s.%s", errMissingKey, key, k)
			}
		}
		return nil
	}
}

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func strDesc(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func num() *genai.Schema     { return &genai.Schema{Type: genai.TypeNumber} }
func integer() *genai.Schema { return &genai.Schema{Type: genai.TypeInteger} }
func boolean() *genai.Schema { return &genai.Schema{Type: genai.TypeBoolean} }

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

func object(props map[string]*genai.Schema, ordering []string, required ...string) *genai.Schema {
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		PropertyOrdering: ordering,
		Required:         required,
	}
}
