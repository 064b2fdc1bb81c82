package types

import "time"

// ItineraryRequest holds the trip fields shared by every itinerary operation.
type ItineraryRequest struct {
	Destination       string  `json:"destination" validate:"required"`
	CheckInDate       string  `json:"check_in_date" validate:"required"`
	CheckOutDate      string  `json:"check_out_date" validate:"required"`
	NumberOfDays      int     `json:"number_of_days" validate:"gte=1"`
	PlanningMode      string  `json:"planning_mode" validate:"required"`
	AdditionalNotes   *string `json:"additional_notes,omitempty"`
	Language          string  `json:"language" validate:"required"`
	SchemaVersion     *int    `json:"schema_version,omitempty"`
	PreferredCurrency *string `json:"preferred_currency,omitempty"`
}

// Version returns the requested schema version, 1 when absent.
func (r ItineraryRequest) Version() int {
	if r.SchemaVersion == nil || *r.SchemaVersion == 0 {
		return 1
	}
	return *r.SchemaVersion
}

func (r ItineraryRequest) Currency() string {
	if r.PreferredCurrency == nil {
		return ""
	}
	return *r.PreferredCurrency
}

func (r ItineraryRequest) Notes() string {
	if r.AdditionalNotes == nil {
		return ""
	}
	return *r.AdditionalNotes
}

type SchedulePreference struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TimeRange   string `json:"time_range"`
}

type BudgetPreference struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

type PreferenceOption struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type QuestionnaireAnswers struct {
	TravelCompanion    *string             `json:"travel_companion,omitempty"`
	GroupSize          *int                `json:"group_size,omitempty"`
	SchedulePreference *SchedulePreference `json:"schedule_preference,omitempty"`
	BudgetPreference   *BudgetPreference   `json:"budget_preference,omitempty"`
	MealPreferences    []string            `json:"meal_preferences,omitempty"`
	DietaryPreferences []PreferenceOption  `json:"dietary_preferences,omitempty" validate:"dive"`
	TravelInterests    []PreferenceOption  `json:"travel_interests,omitempty" validate:"dive"`
	AdditionalDetails  *string             `json:"additional_details,omitempty"`
}

type AdvancedItineraryRequest struct {
	ItineraryRequest
	QuestionnaireAnswers *QuestionnaireAnswers `json:"questionnaire_answers" validate:"required"`
}

// ActivityRef is the compact activity description the app sends back for shuffle and edit.
type ActivityRef struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category"`
	TimeSlot  string `json:"time_slot"`
	DayNumber int    `json:"day_number"`
	IsLocked  bool   `json:"is_locked"`
}

type ShuffleActivitiesRequest struct {
	ItineraryRequest
	ExistingActivities  []ActivityRef `json:"existing_activities" validate:"dive"`
	ActivitiesToReplace []string      `json:"activities_to_replace" validate:"min=1,dive,required"`
	LockedActivityIDs   []string      `json:"locked_activity_ids"`

	// Name-based fields sent by newer app builds.
	ActivitiesToReplaceNames []string `json:"activities_to_replace_names,omitempty"`
	LockedActivityNames      []string `json:"locked_activity_names,omitempty"`
	AllActivityNames         []string `json:"all_activity_names,omitempty"`
}

// ShuffleSelection is the canonical view of a shuffle request. A nil Existing
// means the caller sent no activity list at all.
type ShuffleSelection struct {
	ReplaceNames []string
	LockedNames  []string
	AllNames     []string
	ReplaceIDs   []string
	Existing     []ActivityRef
}

type EditActivityRequest struct {
	ItineraryRequest
	CurrentActivity ActivityRef   `json:"current_activity"`
	UserRequest     string        `json:"user_request" validate:"required"`
	DayContext      []ActivityRef `json:"day_context" validate:"dive"`
	AllActivities   []ActivityRef `json:"all_activities" validate:"dive"`
}

// GenerationMetadata accompanies every generated itinerary payload.
type GenerationMetadata struct {
	Model          string    `json:"model"`
	Language       string    `json:"language"`
	SchemaVersion  int       `json:"schema_version"`
	GeneratedAt    time.Time `json:"generated_at"`
	UserID         string    `json:"user_id"`
	PromptLogDocID *string   `json:"prompt_log_doc_id"`
}

type GeneratedItinerary struct {
	Data     map[string]any     `json:"data"`
	Metadata GenerationMetadata `json:"metadata"`
}

type SaveTripRequest struct {
	Itinerary map[string]any `json:"itinerary" validate:"required"`
	StartDate string         `json:"start_date,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
}

// StoredTrip is a saved itinerary document.
type StoredTrip struct {
	ID        string
	UserID    string
	Document  map[string]any
	StartDate string
	EndDate   string
	CreatedAt time.Time
}

type TripWeather struct {
	Condition        string `json:"condition"`
	Emoji            string `json:"emoji"`
	TemperatureRange string `json:"temperatureRange"`
}

// TripDetails is the normalized trip view served to the share page and app.
type TripDetails struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Destination     string           `json:"destination"`
	Summary         string           `json:"summary"`
	StartDate       string           `json:"startDate"`
	EndDate         string           `json:"endDate"`
	Weather         TripWeather      `json:"weather"`
	Days            []map[string]any `json:"days"`
	CountryEmoji    string           `json:"countryEmoji"`
	BackgroundColor string           `json:"backgroundColor"`
	CreatedAt       string           `json:"createdAt"`
	ShareURL        string           `json:"shareUrl"`
}

type TripMetadata struct {
	FetchedAt time.Time `json:"fetched_at"`
	TripID    string    `json:"trip_id"`
	UserID    *string   `json:"user_id"`
}
