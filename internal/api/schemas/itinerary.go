package schemas

import "google.golang.org/genai"

var activityCategories = []string{
	"historic", "food", "culture", "entertainment", "nature",
	"shopping", "adventure", "sports", "wellness", "photography",
	"localExperience", "education", "scenic", "markets", "accommodation",
}

const (
	hhmm         = "return the value in 24 hour format (HH:MM)"
	exactName    = "Try to give the exact name of the venue or activity instead of using generic names."
	venueName    = "The name of the venue or activity without adding any other text"
	celsiusRange = "The temperature range for the destination in Celsius (e.g. '20-25°C')"
)

func category() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Enum: activityCategories}
}

func timing() *genai.Schema {
	return object(map[string]*genai.Schema{
		"start_time": strDesc(hhmm),
		"end_time":   strDesc(hhmm),
	}, []string{"start_time", "end_time"}, "start_time", "end_time")
}

func price() *genai.Schema {
	return object(map[string]*genai.Schema{
		"amount":   num(),
		"currency": str(),
		"is_free":  boolean(),
	}, []string{"amount", "currency", "is_free"}, "amount", "currency", "is_free")
}

func location() *genai.Schema {
	return object(map[string]*genai.Schema{
		"address": str(),
		"map_url": str(),
	}, []string{"address", "map_url"})
}

// activityV1 carries image, location and booking links.
func activityV1(name *genai.Schema) *genai.Schema {
	return object(map[string]*genai.Schema{
		"id":          str(),
		"name":        name,
		"description": str(),
		"category":    category(),
		"emoji":       str(),
		"image_url":   str(),
		"timing":      timing(),
		"price":       price(),
		"location":    location(),
		"booking": object(map[string]*genai.Schema{
			"requires_booking": boolean(),
			"booking_url":      str(),
			"details_url":      str(),
		}, []string{"requires_booking", "booking_url", "details_url"}, "requires_booking"),
	},
		[]string{"id", "name", "description", "category", "emoji", "image_url", "timing", "price", "location", "booking"},
		"id", "name", "description", "category", "emoji", "timing", "price",
	)
}

// activityV2 adds venue_name and trims booking to a flag.
func activityV2(name *genai.Schema) *genai.Schema {
	return object(map[string]*genai.Schema{
		"id":          str(),
		"name":        name,
		"venue_name":  strDesc(venueName),
		"description": str(),
		"category":    category(),
		"emoji":       str(),
		"timing":      timing(),
		"price":       price(),
		"booking": object(map[string]*genai.Schema{
			"requires_booking": boolean(),
		}, []string{"requires_booking"}, "requires_booking"),
	},
		[]string{"id", "name", "description", "category", "emoji", "timing", "price", "booking"},
		"id", "name", "description", "category", "emoji", "timing", "price", "booking",
	)
}

func itineraryV1() *genai.Schema {
	day := object(map[string]*genai.Schema{
		"theme":      str(),
		"activities": arrayOf(activityV1(strDesc(exactName))),
	}, []string{"theme", "activities"}, "activities")

	costLine := object(map[string]*genai.Schema{
		"category": str(),
		"amount":   num(),
	}, []string{"category", "amount"}, "category", "amount")

	dailyCost := object(map[string]*genai.Schema{
		"day":       integer(),
		"amount":    num(),
		"breakdown": arrayOf(costLine),
	}, []string{"day", "amount", "breakdown"}, "day", "amount", "breakdown")

	return object(map[string]*genai.Schema{
		"title":       str(),
		"destination": str(),
		"summary":     str(),
		"weather": object(map[string]*genai.Schema{
			"condition":         str(),
			"emoji":             str(),
			"temperature_range": strDesc(celsiusRange),
			"practical_tip":     str(),
		}, []string{"condition", "emoji", "temperature_range", "practical_tip"},
			"condition", "emoji", "temperature_range", "practical_tip"),
		"days": arrayOf(day),
		"cost_breakdown": object(map[string]*genai.Schema{
			"total_cost":  num(),
			"currency":    str(),
			"daily_costs": arrayOf(dailyCost),
		}, []string{"total_cost", "currency", "daily_costs"}, "total_cost", "currency", "daily_costs"),
		"country_emoji":    str(),
		"background_color": str(),
	},
		[]string{"title", "destination", "summary", "weather", "days", "cost_breakdown", "country_emoji", "background_color"},
		"title", "destination", "summary", "weather", "days",
	)
}

func itineraryV2() *genai.Schema {
	day := object(map[string]*genai.Schema{
		"activities": arrayOf(activityV2(strDesc(exactName))),
	}, []string{"activities"}, "activities")

	return object(map[string]*genai.Schema{
		"title":       str(),
		"destination": str(),
		"weather": object(map[string]*genai.Schema{
			"condition":         str(),
			"emoji":             str(),
			"temperature_range": strDesc(celsiusRange),
		}, []string{"condition", "emoji", "temperature_range"}, "condition", "emoji", "temperature_range"),
		"days":             arrayOf(day),
		"country_emoji":    str(),
		"background_color": str(),
	},
		[]string{"title", "destination", "weather", "days", "country_emoji", "background_color"},
		"title", "destination", "weather", "days", "country_emoji", "background_color",
	)
}

func shuffleV1() *genai.Schema {
	return object(map[string]*genai.Schema{
		"activities": arrayOf(activityV1(str())),
	}, []string{"activities"}, "activities")
}

func shuffleV2() *genai.Schema {
	return object(map[string]*genai.Schema{
		"activities": arrayOf(activityV2(str())),
	}, []string{"activities"}, "activities")
}

func editV1() *genai.Schema {
	return object(map[string]*genai.Schema{
		"activity": activityV1(str()),
	}, []string{"activity"}, "activity")
}

func editV2() *genai.Schema {
	return object(map[string]*genai.Schema{
		"activity": activityV2(str()),
	}, []string{"activity"}, "activity")
}
