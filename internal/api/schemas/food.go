package schemas

import "google.golang.org/genai"

func foodValidity() *genai.Schema {
	return object(map[string]*genai.Schema{
		"score":          numDesc("Confidence score that this is food (0.0-1.0)"),
		"isFood":         {Type: genai.TypeBoolean, Description: "Boolean determination if this is food"},
		"warningMessage": strDesc("Warning message if food validity is low"),
		"category": {
			Type:        genai.TypeString,
			Description: "Category of the analyzed content",
			Enum:        []string{"meal", "packaged_food", "beverage", "non_food", "unclear"},
		},
	}, []string{"score", "isFood", "category", "warningMessage"}, "score", "isFood", "category")
}

func nutrition() *genai.Schema {
	return object(map[string]*genai.Schema{
		"calories": numDesc("Total calories (kcal)"),
		"protein":  numDesc("Total protein in grams"),
		"carbs":    numDesc("Total carbohydrates in grams"),
		"fat":      numDesc("Total fat in grams"),
	}, []string{"calories", "protein", "carbs", "fat"}, "calories", "protein", "carbs", "fat")
}

// mealAnalysisMobile is the essential-fields layout used for quick logging.
func mealAnalysisMobile() *genai.Schema {
	return object(map[string]*genai.Schema{
		"mealName":             strDesc("Name of the meal or food item"),
		"nutrition":            nutrition(),
		"confidence":           numDesc("Overall confidence score (0.0-1.0)"),
		"foodValidity":         foodValidity(),
		"servingSize":          strDesc("Detected or estimated serving size"),
		"servingsAnalyzed":     numDesc("Number of servings analyzed (default 1.0)"),
		"servingsPerContainer": numDesc("Number of servings per container/package from label"),
		"nutritionCalculation": strDesc("How nutrition was calculated (per_serving, package_total, etc.)"),
		"language":             strDesc("Language used for responses"),
		"unitSystem": {
			Type:        genai.TypeString,
			Description: "Unit system used",
			Enum:        []string{"metric", "imperial"},
		},
	},
		[]string{
			"mealName", "nutrition", "confidence", "foodValidity",
			"servingSize", "servingsAnalyzed", "servingsPerContainer", "nutritionCalculation",
			"language", "unitSystem",
		},
		"mealName", "nutrition", "confidence", "foodValidity",
	)
}

func numDesc(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}
