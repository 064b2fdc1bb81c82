// Package prompts renders the deterministic text prompts sent to the model.
package prompts

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const languageToken = "{{LANGUAGE}}"

var currencyAnchor = regexp.MustCompile(`3\. CURRENCY: Use destination's local currency with realistic prices`)

type kind int

const (
	kindQuick kind = iota
	kindPersonalized
	kindShuffle
	kindEdit
)

var templates = map[kind]map[int]string{
	kindQuick:        {1: quickV1, 2: quickV2},
	kindPersonalized: {1: personalizedV1, 2: personalizedV2},
	kindShuffle:      {1: shuffleV1, 2: shuffleV2},
	kindEdit:         {1: editV1, 2: editV2},
}

// Template returns the versioned template with language and currency applied.
// Version 2 uses the V2 text; anything else uses V1.
func template(k kind, language string, version int, currency string) string {
	base, ok := templates[k][version]
	if !ok {
		base = templates[k][1]
	}
	return strings.ReplaceAll(withCurrency(base, version, currency), languageToken, language)
}

// withCurrency swaps the first currency rule for a preferred currency on version 2.
// Templates without the anchor are returned unchanged.
func withCurrency(base string, version int, currency string) string {
	if version != 2 || currency == "" {
		return base
	}
	loc := currencyAnchor.FindStringIndex(base)
	if loc == nil {
		return base
	}
	return base[:loc[0]] + "3. CURRENCY: Use " + currency + " for all prices and cost estimates" + base[loc[1]:]
}

func BuildQuickItinerary(req types.ItineraryRequest) string {
	prompt := template(kindQuick, req.Language, req.Version(), req.Currency())
	return prompt + "\n\nTRIP DETAILS:\n" + tripContext(req)
}

func BuildPersonalizedItinerary(req types.ItineraryRequest, prefs types.QuestionnaireAnswers) string {
	prompt := template(kindPersonalized, req.Language, req.Version(), req.Currency())
	return prompt + "\n\nTRIP DETAILS:\n" + tripContext(req) + "\n\nUSER PREFERENCES:\n" + preferences(prefs)
}

// BuildShuffle renders the replacement prompt from the canonical selection only.
func BuildShuffle(req types.ItineraryRequest, sel types.ShuffleSelection) string {
	prompt := template(kindShuffle, req.Language, req.Version(), req.Currency())
	return prompt + "\n\n" + shuffleContext(req, sel)
}

func BuildEdit(req types.EditActivityRequest) string {
	prompt := template(kindEdit, req.Language, req.Version(), req.Currency())
	return prompt + "\n\n" + editContext(req)
}

func tripContext(req types.ItineraryRequest) string {
	notes := ""
	if n := req.Notes(); strings.TrimSpace(n) != "" {
		notes = "Notes: " + n
	}
	ctx := fmt.Sprintf("\nDestination: %s\nDates: %s to %s (%d days)\n%s",
		req.Destination, req.CheckInDate, req.CheckOutDate, req.NumberOfDays, notes)
	return strings.TrimSpace(ctx)
}

func preferences(p types.QuestionnaireAnswers) string {
	var lines []string

	if p.TravelCompanion != nil && *p.TravelCompanion != "" {
		companion := *p.TravelCompanion
		lines = append(lines, "Travel Style: "+companion)
		if p.GroupSize != nil && *p.GroupSize != 0 && (companion == "friends" || companion == "family") {
			lines = append(lines,
				fmt.Sprintf("Group Size: %d people", *p.GroupSize),
				fmt.Sprintf("CRITICAL: All activity suggestions must accommodate %d people. Consider group booking requirements and group-friendly venues.", *p.GroupSize),
			)
		}
	}

	if s := p.SchedulePreference; s != nil {
		lines = append(lines,
			fmt.Sprintf("Schedule Preference: %s - %s", s.Name, s.Description),
			"Preferred Time Range: "+s.TimeRange,
			fmt.Sprintf("CRITICAL: Optimize activity timing based on this schedule preference. Adjust start times and activity pacing to match the user's preferred %s schedule.", s.TimeRange),
		)
	}

	if b := p.BudgetPreference; b != nil {
		lines = append(lines,
			fmt.Sprintf("Budget Level: %s - %s", b.Level, b.Description),
			fmt.Sprintf("CRITICAL: All activities and dining must match %s standards", b.Level),
		)
	}

	if len(p.MealPreferences) > 0 {
		lines = append(lines, "Required Meals: "+strings.Join(p.MealPreferences, ", "))
	} else {
		lines = append(lines, "Meals: None selected - skip all dining activities")
	}

	if len(p.DietaryPreferences) > 0 {
		diets := make([]string, 0, len(p.DietaryPreferences))
		for _, d := range p.DietaryPreferences {
			diets = append(diets, fmt.Sprintf("%s (%s)", d.Name, d.Description))
		}
		lines = append(lines,
			"Dietary Restrictions: "+strings.Join(diets, ", "),
			"CRITICAL: All restaurant recommendations and food activities must accommodate these dietary restrictions",
		)
	}

	if len(p.TravelInterests) > 0 {
		lines = append(lines, "PRIMARY FOCUS AREAS (70%+ of activities):")
		for i, interest := range p.TravelInterests {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, interest.Name, interest.Description))
		}
		lines = append(lines, "ENSURE: Maximum variety within each interest category - no repeated activities")
	}

	if p.AdditionalDetails != nil && *p.AdditionalDetails != "" {
		lines = append(lines,
			"User Notes: "+*p.AdditionalDetails,
			"INTEGRATE: User's specific requests throughout the itinerary",
		)
	}

	return strings.Join(lines, "\n")
}

func shuffleContext(req types.ItineraryRequest, sel types.ShuffleSelection) string {
	exclusions := make([]string, 0, len(sel.AllNames))
	for _, name := range sel.AllNames {
		if !slices.Contains(sel.ReplaceNames, name) {
			exclusions = append(exclusions, name)
		}
	}

	numbered := make([]string, 0, len(sel.ReplaceNames))
	for i, name := range sel.ReplaceNames {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nTRIP: %s, %d days\n\n", req.Destination, req.NumberOfDays)
	fmt.Fprintf(&sb, "TASK: Generate %d COMPLETELY NEW activities to replace these old ones:\n%s\n\n", len(sel.ReplaceNames), strings.Join(numbered, "\n"))
	sb.WriteString("CRITICAL: You must suggest ENTIRELY DIFFERENT activities. Do NOT return any of the activities listed above.\n\n")
	fmt.Fprintf(&sb, "TIME SLOTS TO FILL:\n%s\n\n", replacementSlots(sel.Existing, sel.ReplaceIDs))
	fmt.Fprintf(&sb, "PRESERVE THESE LOCKED ACTIVITIES: %s\n\n", strings.Join(sel.LockedNames, ", "))
	fmt.Fprintf(&sb, "NEVER SUGGEST any of these existing activities: %s\n\n", strings.Join(exclusions, ", "))
	fmt.Fprintf(&sb, "CONTEXT - LOCKED ACTIVITIES TO COORDINATE WITH:\n%s", lockedActivities(sel.Existing))
	return sb.String()
}

// byDay groups activities by day number in ascending day order, keeping input order within a day.
func byDay(activities []types.ActivityRef, keep func(types.ActivityRef) bool) ([]int, map[int][]types.ActivityRef) {
	grouped := make(map[int][]types.ActivityRef)
	for _, a := range activities {
		if keep(a) {
			grouped[a.DayNumber] = append(grouped[a.DayNumber], a)
		}
	}
	days := make([]int, 0, len(grouped))
	for d := range grouped {
		days = append(days, d)
	}
	slices.Sort(days)
	return days, grouped
}

func replacementSlots(activities []types.ActivityRef, replaceIDs []string) string {
	if activities == nil {
		return "No replacement slots available"
	}
	days, grouped := byDay(activities, func(a types.ActivityRef) bool { return slices.Contains(replaceIDs, a.ID) })
	var lines []string
	for _, d := range days {
		lines = append(lines, "Day "+strconv.Itoa(d)+":")
		for _, a := range grouped[d] {
			lines = append(lines, fmt.Sprintf("  %s - [REPLACE: %s]", a.TimeSlot, a.Name))
		}
	}
	return strings.Join(lines, "\n")
}

func lockedActivities(activities []types.ActivityRef) string {
	if activities == nil {
		return "No locked activities available"
	}
	days, grouped := byDay(activities, func(a types.ActivityRef) bool { return a.IsLocked })
	var lines []string
	for _, d := range days {
		lines = append(lines, "Day "+strconv.Itoa(d)+":")
		for _, a := range grouped[d] {
			lines = append(lines, fmt.Sprintf("  %s (%s) [LOCKED]", a.Name, a.TimeSlot))
		}
	}
	if len(lines) == 0 {
		return "No locked activities to coordinate with"
	}
	return strings.Join(lines, "\n")
}

func editContext(req types.EditActivityRequest) string {
	return fmt.Sprintf("\nTRIP: %s\nCURRENT ACTIVITY: %s (%s)\nUSER REQUEST: %s\n\nDAY CONTEXT: %s\nALL ACTIVITIES: %s",
		req.Destination,
		req.CurrentActivity.Name, req.CurrentActivity.TimeSlot,
		req.UserRequest,
		dayActivities(req.DayContext),
		allActivities(req.AllActivities),
	)
}

func dayActivities(activities []types.ActivityRef) string {
	if activities == nil {
		return "No day context available"
	}
	parts := make([]string, 0, len(activities))
	for _, a := range activities {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Name, a.TimeSlot))
	}
	return strings.Join(parts, ", ")
}

func allActivities(activities []types.ActivityRef) string {
	if activities == nil {
		return "No activities context available"
	}
	days, grouped := byDay(activities, func(types.ActivityRef) bool { return true })
	var lines []string
	for _, d := range days {
		lines = append(lines, "Day "+strconv.Itoa(d)+":")
		for _, a := range grouped[d] {
			lock := ""
			if a.IsLocked {
				lock = " [LOCKED]"
			}
			lines = append(lines, fmt.Sprintf("  %s (%s)%s", a.Name, a.TimeSlot, lock))
		}
	}
	return strings.Join(lines, "\n")
}
