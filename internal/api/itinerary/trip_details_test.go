package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func TestNormalizeTrip(t *testing.T) {
	created := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	trip := types.StoredTrip{
		ID:        "trip-1",
		StartDate: "2025-06-01",
		CreatedAt: created,
		Document: map[string]any{
			"title":       "Kyoto",
			"destination": "Kyoto, Japan",
			"weather":     map[string]any{"condition": "Sunny", "emoji": "☀️", "temperature_range": "18-25°C"},
			"days": []any{
				map[string]any{
					"day_number": float64(1),
					"date":       "2025-06-01",
					"activities": []any{
						map[string]any{
							"name":     "Fushimi Inari",
							"timing":   map[string]any{"start_time": "08:00", "end_time": "10:00"},
							"price":    map[string]any{"amount": float64(0)},
							"booking":  map[string]any{"requires_booking": false},
							"location": map[string]any{"map_url": "https://maps.example/fi"},
						},
					},
				},
				map[string]any{
					"activities": []any{
						map[string]any{
							"name":    "Tea ceremony",
							"timing":  map[string]any{"startTime": "14:00", "endTime": "15:00", "displayTime": "2 PM"},
							"price":   map[string]any{"amount": float64(4000), "currency": "JPY"},
							"booking": map[string]any{"requires_booking": true, "booking_url": "https://book.example"},
						},
					},
				},
			},
		},
	}

	got := NormalizeTrip(trip, "https://share.example/")

	assert.Equal(t, "Kyoto", got.Title)
	assert.Equal(t, "2025-06-01", got.StartDate)
	assert.Equal(t, "18-25°C", got.Weather.TemperatureRange)
	assert.Equal(t, defaultBackgroundColor, got.BackgroundColor)
	assert.Equal(t, "https://share.example/trips/trip-1", got.ShareURL)
	assert.Equal(t, created.Format(time.RFC3339Nano), got.CreatedAt)
	require.Len(t, got.Days, 2)

	day1 := got.Days[0]
	assert.Equal(t, float64(1), day1["dayNumber"])
	first := day1["activities"].([]map[string]any)[0]
	assert.Equal(t, map[string]any{"startTime": "08:00", "endTime": "10:00"}, first["timing"])
	assert.Equal(t, map[string]any{"amount": float64(0), "currency": "USD", "isFree": true}, first["price"])
	assert.Equal(t, "https://maps.example/fi", first["mapUrl"])
	assert.Equal(t, false, first["requiresBooking"])

	day2 := got.Days[1]
	assert.Equal(t, float64(2), day2["dayNumber"])
	assert.Equal(t, "", day2["date"])
	second := day2["activities"].([]map[string]any)[0]
	assert.Equal(t, "2 PM", second["timing"].(map[string]any)["displayTime"])
	assert.Equal(t, map[string]any{"amount": float64(4000), "currency": "JPY", "isFree": false}, second["price"])
	assert.Equal(t, true, second["requiresBooking"])
	assert.Equal(t, "https://book.example", second["bookingUrl"])
}

func TestNormalizeTrip_EmptyDocument(t *testing.T) {
	got := NormalizeTrip(types.StoredTrip{ID: "t", Document: map[string]any{"created_at": "2025-01-01T00:00:00Z"}}, "")

	assert.Equal(t, "https://flaia.app/trips/t", got.ShareURL)
	assert.Equal(t, "2025-01-01T00:00:00Z", got.CreatedAt)
	assert.NotNil(t, got.Days)
	assert.Empty(t, got.Days)
}
