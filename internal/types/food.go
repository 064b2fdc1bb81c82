package types

import "time"

// FoodImageRequest is the payload of the meal and label image endpoints.
type FoodImageRequest struct {
	StoragePath string `json:"storagePath" validate:"required"`
	Language    string `json:"language,omitempty"`
	UnitSystem  string `json:"unitSystem,omitempty" validate:"omitempty,oneof=metric imperial"`
	Notes       string `json:"notes,omitempty" validate:"max=200"`
}

type FoodTextRequest struct {
	Text       string `json:"text" validate:"required,min=2,max=500"`
	Language   string `json:"language,omitempty"`
	UnitSystem string `json:"unitSystem,omitempty" validate:"omitempty,oneof=metric imperial"`
	Notes      string `json:"notes,omitempty" validate:"max=200"`
}

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type FoodValidity struct {
	Score          float64 `json:"score"`
	IsFood         bool    `json:"isFood"`
	Category       string  `json:"category"`
	WarningMessage string  `json:"warningMessage,omitempty"`
}

// FoodAnalysis is the model output for a meal, label or text analysis, enriched with session metadata.
type FoodAnalysis struct {
	Success              bool         `json:"success"`
	SessionID            string       `json:"sessionId"`
	Mode                 string       `json:"mode"`
	MealName             string       `json:"mealName"`
	Nutrition            Nutrition    `json:"nutrition"`
	Confidence           float64      `json:"confidence"`
	FoodValidity         FoodValidity `json:"foodValidity"`
	ServingSize          string       `json:"servingSize,omitempty"`
	ServingsAnalyzed     *float64     `json:"servingsAnalyzed,omitempty"`
	ServingsPerContainer *float64     `json:"servingsPerContainer,omitempty"`
	NutritionCalculation string       `json:"nutritionCalculation,omitempty"`
	ProcessingTime       int64        `json:"processingTime"`
	Model                string       `json:"model"`
	Language             string       `json:"language"`
	UnitSystem           string       `json:"unitSystem"`
	UserNotes            string       `json:"userNotes,omitempty"`
	TextInput            string       `json:"textInput,omitempty"`
	Warnings             []string     `json:"warnings,omitempty"`
	Suggestions          []string     `json:"suggestions,omitempty"`
}

type MealIngredient struct {
	Name     string   `json:"name" validate:"required"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
}

type MealNutrition struct {
	Calories      *float64 `json:"calories" validate:"required,gte=0"`
	Protein       *float64 `json:"protein" validate:"required,gte=0"`
	Carbohydrates *float64 `json:"carbohydrates" validate:"required,gte=0"`
	Fat           *float64 `json:"fat" validate:"required,gte=0"`
}

type SaveMealRequest struct {
	SessionID   string           `json:"sessionId,omitempty"`
	MealName    string           `json:"mealName" validate:"required"`
	MealType    string           `json:"mealType" validate:"required,oneof=breakfast lunch dinner snack"`
	Ingredients []MealIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Nutrition   *MealNutrition   `json:"nutrition" validate:"required"`
	Confidence  *float64         `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Notes       string           `json:"notes,omitempty"`
	StoragePath string           `json:"storagePath" validate:"required"`
	Timestamp   *time.Time       `json:"timestamp,omitempty"`
}

// MealEntry is a persisted meal.
type MealEntry struct {
	ID             string
	UserID         string
	MealName       string
	MealType       string
	Ingredients    []MealIngredient
	Nutrition      MealNutrition
	Confidence     float64
	StoragePath    string
	Notes          string
	SessionID      string
	Tags           []string
	SearchKeywords []string
	Timestamp      time.Time
}

type SavedMeal struct {
	ID            string    `json:"id"`
	MealName      string    `json:"mealName"`
	MealType      string    `json:"mealType"`
	TotalCalories float64   `json:"totalCalories"`
	Timestamp     time.Time `json:"timestamp"`
	Tags          []string  `json:"tags"`
}

type SaveMealResponse struct {
	Success  bool      `json:"success"`
	MealID   string    `json:"mealId"`
	Data     SavedMeal `json:"data"`
	Metadata struct {
		ProcessingTime int64 `json:"processingTime"`
		Saved          bool  `json:"saved"`
	} `json:"metadata"`
}

// AnalysisSession records one food analysis for later linking to a saved meal.
type AnalysisSession struct {
	ID             string
	UserID         string
	Mode           string
	StoragePath    string
	TextInput      string
	Result         *FoodAnalysis
	ProcessingTime int64
	Success        bool
}
