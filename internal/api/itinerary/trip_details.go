package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	defaultBackgroundColor = "#8B5CF6"
	defaultShareBaseURL    = "https://flaia.app"
	defaultCurrency        = "USD"
)

// NormalizeTrip turns a stored itinerary document into the camelCase view the
// share page and app render, filling every field the renderers rely on.
func NormalizeTrip(trip types.StoredTrip, shareBaseURL string) types.TripDetails {
	doc := trip.Document
	weather := mapOf(doc["weather"])
	if shareBaseURL == "" {
		shareBaseURL = defaultShareBaseURL
	}

	rawDays := sliceOf(doc["days"])
	days := make([]map[string]any, 0, len(rawDays))
	for i, d := range rawDays {
		days = append(days, normalizeDay(mapOf(d), i))
	}

	createdAt := stringOf(doc["created_at"])
	if createdAt == "" && !trip.CreatedAt.IsZero() {
		createdAt = trip.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return types.TripDetails{
		ID:          trip.ID,
		Title:       stringOf(doc["title"]),
		Destination: stringOf(doc["destination"]),
		Summary:     stringOf(doc["summary"]),
		StartDate:   firstNonEmpty(stringOf(doc["start_date"]), trip.StartDate),
		EndDate:     firstNonEmpty(stringOf(doc["end_date"]), trip.EndDate),
		Weather: types.TripWeather{
			Condition:        stringOf(weather["condition"]),
			Emoji:            stringOf(weather["emoji"]),
			TemperatureRange: firstNonEmpty(stringOf(weather["temperature_range"]), stringOf(weather["temperatureRange"])),
		},
		Days:            days,
		CountryEmoji:    stringOf(doc["country_emoji"]),
		BackgroundColor: firstNonEmpty(stringOf(doc["background_color"]), defaultBackgroundColor),
		CreatedAt:       createdAt,
		ShareURL:        fmt.Sprintf("%s/trips/%s", strings.TrimRight(shareBaseURL, "/"), trip.ID),
	}
}

func normalizeDay(day map[string]any, index int) map[string]any {
	out := make(map[string]any, len(day)+2)
	for k, v := range day {
		out[k] = v
	}

	dayNumber := numberOf(day["dayNumber"])
	if dayNumber == 0 {
		dayNumber = numberOf(day["day_number"])
	}
	if dayNumber == 0 {
		dayNumber = float64(index + 1)
	}
	out["dayNumber"] = dayNumber
	out["date"] = stringOf(day["date"])

	rawActivities := sliceOf(day["activities"])
	activities := make([]map[string]any, 0, len(rawActivities))
	for _, a := range rawActivities {
		activities = append(activities, normalizeActivity(mapOf(a)))
	}
	out["activities"] = activities
	return out
}

func normalizeActivity(activity map[string]any) map[string]any {
	out := make(map[string]any, len(activity)+6)
	for k, v := range activity {
		out[k] = v
	}

	timing := mapOf(activity["timing"])
	normTiming := map[string]any{
		"startTime": firstNonEmpty(stringOf(timing["startTime"]), stringOf(timing["start_time"])),
		"endTime":   firstNonEmpty(stringOf(timing["endTime"]), stringOf(timing["end_time"])),
	}
	if display := firstNonEmpty(stringOf(timing["displayTime"]), stringOf(timing["display_time"])); display != "" {
		normTiming["displayTime"] = display
	}
	out["timing"] = normTiming

	price := mapOf(activity["price"])
	amount := numberOf(price["amount"])
	isFree, ok := price["isFree"].(bool)
	if !ok {
		isFree = amount == 0
	}
	out["price"] = map[string]any{
		"amount":   amount,
		"currency": firstNonEmpty(stringOf(price["currency"]), defaultCurrency),
		"isFree":   isFree,
	}

	booking := mapOf(activity["booking"])
	location := mapOf(activity["location"])
	requiresBooking, _ := booking["requires_booking"].(bool)
	out["requiresBooking"] = requiresBooking
	out["bookingUrl"] = stringOf(booking["booking_url"])
	out["mapUrl"] = stringOf(location["map_url"])
	out["detailsUrl"] = stringOf(booking["details_url"])
	return out
}

func mapOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func sliceOf(v any) []any {
	s, _ := v.([]any)
	return s
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func numberOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
