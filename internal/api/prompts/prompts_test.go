package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func ptr[T any](v T) *T { return &v }

func parisRequest() types.ItineraryRequest {
	return types.ItineraryRequest{
		Destination:  "Paris, France",
		CheckInDate:  "2025-06-01",
		CheckOutDate: "2025-06-03",
		NumberOfDays: 3,
		PlanningMode: "quick",
		Language:     "English",
	}
}

func TestTemplatesCarryAnchorAndLanguageToken(t *testing.T) {
	for k, versions := range templates {
		for v, tmpl := range versions {
			assert.Regexp(t, currencyAnchor, tmpl, "kind %d v%d", k, v)
			assert.Contains(t, tmpl, languageToken, "kind %d v%d", k, v)
		}
	}
}

func TestBuildQuickItinerary(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		req := parisRequest()
		assert.Equal(t, BuildQuickItinerary(req), BuildQuickItinerary(req))
	})

	t.Run("trip details", func(t *testing.T) {
		req := parisRequest()
		req.AdditionalNotes = ptr("  love museums ")
		got := BuildQuickItinerary(req)
		assert.True(t, strings.HasSuffix(got, "\n\nTRIP DETAILS:\nDestination: Paris, France\nDates: 2025-06-01 to 2025-06-03 (3 days)\nNotes:   love museums"))
		assert.NotContains(t, got, languageToken)
		assert.Contains(t, got, "English")
	})

	t.Run("blank notes omitted", func(t *testing.T) {
		req := parisRequest()
		req.AdditionalNotes = ptr("   ")
		assert.True(t, strings.HasSuffix(BuildQuickItinerary(req), "(3 days)"))
	})

	t.Run("currency only on v2", func(t *testing.T) {
		req := parisRequest()
		req.PreferredCurrency = ptr("USD")
		v1 := BuildQuickItinerary(req)
		assert.Contains(t, v1, "3. CURRENCY: Use destination's local currency with realistic prices")
		assert.NotContains(t, v1, "Use USD")

		req.SchemaVersion = ptr(2)
		v2 := BuildQuickItinerary(req)
		assert.Contains(t, v2, "3. CURRENCY: Use USD for all prices and cost estimates")
		assert.NotContains(t, v2, "3. CURRENCY: Use destination's local currency with realistic prices")
	})

	t.Run("unknown version uses v1", func(t *testing.T) {
		req := parisRequest()
		v1 := BuildQuickItinerary(req)
		req.SchemaVersion = ptr(7)
		assert.Equal(t, v1, BuildQuickItinerary(req))
	})
}

func TestWithCurrencyWithoutAnchor(t *testing.T) {
	assert.Equal(t, "no rule here", withCurrency("no rule here", 2, "EUR"))
}

func TestBuildPersonalizedItinerary(t *testing.T) {
	prefs := types.QuestionnaireAnswers{
		TravelCompanion: ptr("friends"),
		GroupSize:       ptr(4),
		SchedulePreference: &types.SchedulePreference{
			Name: "Early Bird", Description: "Up with the sun", TimeRange: "7am-7pm",
		},
		BudgetPreference:   &types.BudgetPreference{Level: "Moderate", Description: "Mid range"},
		DietaryPreferences: []types.PreferenceOption{{Name: "Vegan", Description: "No animal products"}},
		TravelInterests: []types.PreferenceOption{
			{Name: "Art", Description: "Museums"},
			{Name: "Food", Description: "Markets"},
		},
		AdditionalDetails: ptr("Anniversary trip"),
	}
	got := BuildPersonalizedItinerary(parisRequest(), prefs)

	want := strings.Join([]string{
		"USER PREFERENCES:",
		"Travel Style: friends",
		"Group Size: 4 people",
		"CRITICAL: All activity suggestions must accommodate 4 people. Consider group booking requirements and group-friendly venues.",
		"Schedule Preference: Early Bird - Up with the sun",
		"Preferred Time Range: 7am-7pm",
		"CRITICAL: Optimize activity timing based on this schedule preference. Adjust start times and activity pacing to match the user's preferred 7am-7pm schedule.",
		"Budget Level: Moderate - Mid range",
		"CRITICAL: All activities and dining must match Moderate standards",
		"Meals: None selected - skip all dining activities",
		"Dietary Restrictions: Vegan (No animal products)",
		"CRITICAL: All restaurant recommendations and food activities must accommodate these dietary restrictions",
		"PRIMARY FOCUS AREAS (70%+ of activities):",
		"1. Art - Museums",
		"2. Food - Markets",
		"ENSURE: Maximum variety within each interest category - no repeated activities",
		"User Notes: Anniversary trip",
		"INTEGRATE: User's specific requests throughout the itinerary",
	}, "\n")
	assert.True(t, strings.HasSuffix(got, want))
	assert.Contains(t, got, "\n\nTRIP DETAILS:\nDestination: Paris, France")

	t.Run("solo travellers get no group size", func(t *testing.T) {
		solo := types.QuestionnaireAnswers{TravelCompanion: ptr("solo"), GroupSize: ptr(1), MealPreferences: []string{"breakfast", "dinner"}}
		got := BuildPersonalizedItinerary(parisRequest(), solo)
		assert.NotContains(t, got, "Group Size")
		assert.True(t, strings.HasSuffix(got, "USER PREFERENCES:\nTravel Style: solo\nRequired Meals: breakfast, dinner"))
	})
}

func TestBuildShuffle(t *testing.T) {
	existing := []types.ActivityRef{
		{ID: "a3", Name: "Seine Cruise", TimeSlot: "18:00", DayNumber: 2},
		{ID: "a1", Name: "Louvre", TimeSlot: "09:00", DayNumber: 1, IsLocked: true},
		{ID: "a2", Name: "Cafe de Flore", TimeSlot: "13:00", DayNumber: 1},
	}
	sel := types.ShuffleSelection{
		ReplaceNames: []string{"Cafe de Flore", "Seine Cruise"},
		LockedNames:  []string{"Louvre"},
		AllNames:     []string{"Louvre", "Cafe de Flore", "Seine Cruise"},
		ReplaceIDs:   []string{"a2", "a3"},
		Existing:     existing,
	}
	got := BuildShuffle(parisRequest(), sel)

	want := "\nTRIP: Paris, France, 3 days\n\n" +
		"TASK: Generate 2 COMPLETELY NEW activities to replace these old ones:\n1. Cafe de Flore\n2. Seine Cruise\n\n" +
		"CRITICAL: You must suggest ENTIRELY DIFFERENT activities. Do NOT return any of the activities listed above.\n\n" +
		"TIME SLOTS TO FILL:\nDay 1:\n  13:00 - [REPLACE: Cafe de Flore]\nDay 2:\n  18:00 - [REPLACE: Seine Cruise]\n\n" +
		"PRESERVE THESE LOCKED ACTIVITIES: Louvre\n\n" +
		"NEVER SUGGEST any of these existing activities: Louvre\n\n" +
		"CONTEXT - LOCKED ACTIVITIES TO COORDINATE WITH:\nDay 1:\n  Louvre (09:00) [LOCKED]"
	assert.True(t, strings.HasSuffix(got, "\n\n"+want))

	t.Run("missing activity list", func(t *testing.T) {
		sel := types.ShuffleSelection{ReplaceNames: []string{"X"}}
		got := BuildShuffle(parisRequest(), sel)
		assert.Contains(t, got, "TIME SLOTS TO FILL:\nNo replacement slots available")
		assert.Contains(t, got, "COORDINATE WITH:\nNo locked activities available")
	})

	t.Run("nothing locked", func(t *testing.T) {
		sel := types.ShuffleSelection{ReplaceNames: []string{"X"}, Existing: []types.ActivityRef{{ID: "1", Name: "X", DayNumber: 1}}}
		assert.True(t, strings.HasSuffix(BuildShuffle(parisRequest(), sel), "No locked activities to coordinate with"))
	})
}

func TestBuildEdit(t *testing.T) {
	req := types.EditActivityRequest{
		ItineraryRequest: parisRequest(),
		CurrentActivity:  types.ActivityRef{ID: "a1", Name: "Louvre", TimeSlot: "09:00"},
		UserRequest:      "something outdoors",
		DayContext:       []types.ActivityRef{{Name: "Louvre", TimeSlot: "09:00"}, {Name: "Lunch", TimeSlot: "13:00"}},
		AllActivities: []types.ActivityRef{
			{Name: "Eiffel Tower", TimeSlot: "10:00", DayNumber: 2},
			{Name: "Louvre", TimeSlot: "09:00", DayNumber: 1, IsLocked: true},
		},
	}
	got := BuildEdit(req)
	want := "\n\n\nTRIP: Paris, France\nCURRENT ACTIVITY: Louvre (09:00)\nUSER REQUEST: something outdoors\n\n" +
		"DAY CONTEXT: Louvre (09:00), Lunch (13:00)\n" +
		"ALL ACTIVITIES: Day 1:\n  Louvre (09:00) [LOCKED]\nDay 2:\n  Eiffel Tower (10:00)"
	assert.True(t, strings.HasSuffix(got, want))

	req.DayContext, req.AllActivities = nil, nil
	got = BuildEdit(req)
	assert.Contains(t, got, "DAY CONTEXT: No day context available")
	assert.Contains(t, got, "ALL ACTIVITIES: No activities context available")
}

func TestFoodPrompts(t *testing.T) {
	t.Run("meal image metric", func(t *testing.T) {
		got := MealImagePrompt("es", UnitMetric, "")
		assert.Contains(t, got, "Response language: Español (es)")
		assert.Contains(t, got, "• Protein: palm = 120g")
		assert.NotContains(t, got, "{{")
	})

	t.Run("meal image imperial with notes", func(t *testing.T) {
		got := MealImagePrompt("en", UnitImperial, "half portion")
		assert.Contains(t, got, "Context: \"half portion\" - adjust estimates accordingly.")
		assert.Contains(t, got, "• User specified: \"half portion\"")
		assert.Contains(t, got, "• Carbs: fist = 1 cup")
	})

	t.Run("label", func(t *testing.T) {
		got := LabelImagePrompt("de", UnitMetric, "two packages")
		assert.Contains(t, got, "Portion: \"two packages\" - adjust nutrition values accordingly.")
		assert.Contains(t, got, "• Product name (in Deutsch)")
	})

	t.Run("text input is not re-expanded", func(t *testing.T) {
		got := MealTextPrompt("{{LANG}} soup", "ja", UnitImperial, "")
		assert.Contains(t, got, "Extract from text: \"{{LANG}} soup\"")
		assert.Contains(t, got, "• Bread: 1 slice")
		assert.Contains(t, got, "descriptive meal name in 日本語")
	})
}

func TestFoodHelpers(t *testing.T) {
	assert.Equal(t, "ko", ValidateLanguage("ko"))
	assert.Equal(t, "en", ValidateLanguage("xx"))
	assert.Equal(t, UnitImperial, ValidateUnitSystem("imperial"))
	assert.Equal(t, UnitMetric, ValidateUnitSystem("stones"))

	id := NewSessionID()
	require.Regexp(t, `^food_\d{13}_[0-9a-z]{9}$`, id)
	assert.NotEqual(t, id, NewSessionID())

	assert.Equal(t, "Invalid or expired analysis session. Please start over.", ErrorMessage("invalid_session", "ko"))
	assert.Equal(t, "Sesión de análisis inválida o expirada. Por favor, comienza de nuevo.", ErrorMessage("invalid_session", "es"))
	assert.Equal(t, "An unexpected error occurred.", ErrorMessage("nope", "en"))
}
