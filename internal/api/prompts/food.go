package prompts

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	UnitMetric   = "metric"
	UnitImperial = "imperial"
)

// SupportedLanguages maps food analysis language codes to their native names.
var SupportedLanguages = map[string]string{
	"en": "English",
	"ar": "العربية",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
	"pt": "Português",
	"ru": "Русский",
	"ja": "日本語",
	"ko": "한국어",
	"zh": "中文",
	"hi": "हिन्दी",
	"tr": "Türkçe",
	"nl": "Nederlands",
	"sv": "Svenska",
}

var portionRefs = map[string][]string{
	UnitMetric: {
		"{{PALM}}", "120g", "{{FIST}}", "150g", "{{THUMB}}", "15g",
		"{{MEAT}}", "120g (palm size)", "{{RICE}}", "150g (fist size)",
		"{{VEG}}", "80g (handful)", "{{BREAD}}", "30g (1 slice)",
	},
	UnitImperial: {
		"{{PALM}}", "4oz", "{{FIST}}", "1 cup", "{{THUMB}}", "1 tbsp",
		"{{MEAT}}", "4oz (palm size)", "{{RICE}}", "1 cup (fist size)",
		"{{VEG}}", "3oz (handful)", "{{BREAD}}", "1 slice",
	},
}

const mealImageTemplate = `Mobile food photo analysis for quick calorie logging.

Response language: {{NATIVE}} ({{LANG}})
{{NOTE}}

**STEP 1 - VALIDATE** (Critical - fail fast):
Food validity score 0.0-1.0:
• 0.0-0.25: Not food → STOP, warn user
• 0.25-0.75: Uncertain → proceed with caution  
• 0.75-1.0: Definitely food → full analysis

Categories: meal | packaged_food | beverage | non_food | unclear

**STEP 2 - IDENTIFY**:
• Meal name (specific, in {{NATIVE}})
• Serving size estimate
• Account for mobile photo limitations (angles, lighting, partial view)

**STEP 3 - CALCULATE**:
Total nutrition per visible serving:
• Calories: 50-2000 kcal
• Protein: 0-200g  
• Carbs: 0-300g
• Fat: 0-150g

Quick portion references ({{UNITS}}):
• Protein: palm = {{PALM}}
• Carbs: fist = {{FIST}}
• Fat: thumb = {{THUMB}}

Adjustments:
• Restaurant food: +25% calories
• Fried food: +15% calories  
• Poor lighting/angle: be conservative
• {{USER_NOTE}}

**OUTPUT** (JSON only):
{
  "mealName": "specific dish name",
  "nutrition": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0},
  "confidence": 0.0,
  "foodValidity": {"score": 0.0, "isFood": false, "category": "meal"},
  "servingSize": "estimated size",
  "language": "{{LANG}}",
  "unitSystem": "{{UNITS}}"
}

Analyze now.`

const labelImageTemplate = `Mobile nutrition label OCR for quick calorie logging.

Response language: {{NATIVE}} ({{LANG}})
{{NOTE}}

**STEP 1 - VALIDATE** (Critical):
Label readability score 0.0-1.0:
• 0.0-0.25: Not a nutrition label → STOP
• 0.25-0.75: Partially readable → estimate missing
• 0.75-1.0: Clear label → extract exact values

Categories: packaged_food | beverage | meal | unclear | non_food

**STEP 2 - EXTRACT**:
Read from nutrition facts panel:
• Product name (in {{NATIVE}})
• Serving size (e.g., "1 cup (40g)", "25 gm")
• Servings per container/package (CRITICAL - look for "0.5", "2.5", etc.)
• Calories per serving (from label)
• Total Fat per serving (g)
• Total Carbs per serving (g)  
• Protein per serving (g)

**STEP 2B - CALCULATE ACTUAL PACKAGE NUTRITION**:
Determine what user is consuming:
• If "servings per container" = 1.0 → return per-serving values
• If "servings per container" ≠ 1.0 → multiply all nutrition × servings per container
• This gives nutrition for the ENTIRE package (what user typically consumes)

Example calculation:
• Label: 134 calories per serving, 0.5 servings per container
• Package total: 134 × 0.5 = 67 calories
• Return: 67 calories (actual package content)

**STEP 3 - ADJUST FOR USER CONSUMPTION**:
After calculating package nutrition, apply any additional adjustments:
• "half package" → ×0.5
• "two packages" → ×2.0  
• "quarter package" → ×0.25
• {{USER_NOTE}}

Default behavior: Return nutrition for entire package (most common use case)

Mobile photo considerations:
• Blurry text: use context clues
• Partial visibility: estimate from visible
• Poor angle: read what's clear

**OUTPUT** (JSON only):
{
  "mealName": "product name from label",
  "nutrition": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0},
  "confidence": 0.0,
  "foodValidity": {"score": 0.0, "isFood": false, "category": "packaged_food"},
  "servingSize": "from label (e.g., 25 gm)",
  "servingsPerContainer": 0.0,
  "nutritionCalculation": "package_total",
  "servingsAnalyzed": 1.0,
  "language": "{{LANG}}",
  "unitSystem": "{{UNITS}}"
}

Read label now.`

const mealTextTemplate = `Text-based meal analysis for nutrition estimation.

Response language: {{NATIVE}} ({{LANG}})
{{NOTE}}

**STEP 1 - VALIDATE TEXT** (Critical):
Food relevance score 0.0-1.0:
• 0.8-1.0: Clear food description ("grilled chicken with rice", "2 apples")
• 0.5-0.7: Vague but food-related ("healthy lunch", "something sweet")  
• 0.2-0.4: Unclear food reference ("meal", "food")
• 0.0-0.1: Not food-related ("hello world", "my cat", "123")

Categories: meal | snack | beverage | non_food | unclear

**STEP 2 - PARSE MEAL DESCRIPTION**:
Extract from text: "{{TEXT}}"
• Identify specific foods mentioned
• Parse quantities when specified ("2 slices", "large portion", "cup of")
• Infer cooking methods ("grilled", "fried", "steamed", "raw")
• Estimate portions when not specified using common serving sizes

**STEP 3 - CALCULATE NUTRITION**:
Total nutrition for described meal:
• Calories: 20-2500 kcal (realistic range)
• Protein: 0-200g  
• Carbs: 0-300g
• Fat: 0-150g

Standard portion references ({{UNITS}}):
• Meat/Fish: {{MEAT}}
• Rice/Pasta: {{RICE}}
• Vegetables: {{VEG}}
• Bread: {{BREAD}}

Estimation strategies:
• Use USDA/nutrition database values
• Apply cooking method adjustments (fried +15% calories)
• Default to medium portions if size not specified
• Account for common preparation methods
• Be conservative but realistic with estimates

**STEP 4 - CONFIDENCE ASSESSMENT**:
Rate confidence based on:
• Text specificity (specific foods vs. vague terms)
• Quantity clarity (exact amounts vs. estimated)
• Cooking method clarity (specified vs. assumed)
• Overall completeness of description

**OUTPUT** (JSON only):
{
  "mealName": "descriptive meal name in {{NATIVE}}",
  "nutrition": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0},
  "confidence": 0.0,
  "foodValidity": {"score": 0.0, "isFood": false, "category": "meal"},
  "servingSize": "estimated from text",
  "servingsAnalyzed": 1.0,
  "nutritionCalculation": "text_estimation",
  "language": "{{LANG}}",
  "unitSystem": "{{UNITS}}"
}

Analyze text now.`

// ValidateLanguage returns language when supported, otherwise "en".
func ValidateLanguage(language string) string {
	if _, ok := SupportedLanguages[language]; ok {
		return language
	}
	return "en"
}

// ValidateUnitSystem returns unitSystem when it is metric or imperial, otherwise metric.
func ValidateUnitSystem(unitSystem string) string {
	if unitSystem == UnitImperial {
		return UnitImperial
	}
	return UnitMetric
}

func renderFood(tmpl, language, unitSystem, note, userNote, text string) string {
	native, ok := SupportedLanguages[language]
	if !ok {
		native = SupportedLanguages["en"]
	}
	refs, ok := portionRefs[unitSystem]
	if !ok {
		refs = portionRefs[UnitMetric]
	}
	pairs := append([]string{
		"{{NATIVE}}", native,
		"{{LANG}}", language,
		"{{UNITS}}", unitSystem,
		"{{NOTE}}", note,
		"{{USER_NOTE}}", userNote,
		"{{TEXT}}", text,
	}, refs...)
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// MealImagePrompt renders the quick meal photo analysis prompt.
func MealImagePrompt(language, unitSystem, userNotes string) string {
	note, userNote := "", ""
	if userNotes != "" {
		note = "Context: \"" + userNotes + "\" - adjust estimates accordingly."
		userNote = "User specified: \"" + userNotes + "\""
	}
	return renderFood(mealImageTemplate, language, unitSystem, note, userNote, "")
}

// LabelImagePrompt renders the nutrition label OCR prompt.
func LabelImagePrompt(language, unitSystem, userNotes string) string {
	note, userNote := "", ""
	if userNotes != "" {
		note = "Portion: \"" + userNotes + "\" - adjust nutrition values accordingly."
		userNote = "User note: \"" + userNotes + "\""
	}
	return renderFood(labelImageTemplate, language, unitSystem, note, userNote, "")
}

// MealTextPrompt renders the free-text meal analysis prompt.
func MealTextPrompt(text, language, unitSystem, userNotes string) string {
	note := ""
	if userNotes != "" {
		note = "Additional context: \"" + userNotes + "\" - adjust estimates accordingly."
	}
	return renderFood(mealTextTemplate, language, unitSystem, note, "", text)
}

// NewSessionID returns an analysis session id of the form food_<unix ms>_<9 base36 chars>.
func NewSessionID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "food_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + string(suffix)
}

var errorMessages = map[string]map[string]string{
	"image_analysis_failed": {
		"en": "Unable to analyze the food image. Please try with a clearer photo.",
		"ar": "تعذر تحليل صورة الطعام. يرجى المحاولة بصورة أوضح.",
		"es": "No se pudo analizar la imagen de comida. Intenta con una foto más clara.",
		"fr": "Impossible d'analyser l'image de nourriture. Essayez avec une photo plus claire.",
		"de": "Lebensmittelbild konnte nicht analysiert werden. Versuchen Sie es mit einem klareren Foto.",
	},
	"nutrition_calculation_failed": {
		"en": "Unable to calculate nutrition information. Please verify the ingredients.",
		"ar": "تعذر حساب المعلومات الغذائية. يرجى التحقق من المكونات.",
		"es": "No se pudo calcular la información nutricional. Verifica los ingredientes.",
		"fr": "Impossible de calculer les informations nutritionnelles. Vérifiez les ingrédients.",
		"de": "Nährwertinformationen konnten nicht berechnet werden. Überprüfen Sie die Zutaten.",
	},
	"invalid_session": {
		"en": "Invalid or expired analysis session. Please start over.",
		"ar": "جلسة تحليل غير صالحة أو منتهية الصلاحية. يرجى البدء من جديد.",
		"es": "Sesión de análisis inválida o expirada. Por favor, comienza de nuevo.",
		"fr": "Session d'analyse invalide ou expirée. Veuillez recommencer.",
		"de": "Ungültige oder abgelaufene Analysesitzung. Bitte beginnen Sie von vorne.",
	},
	"image_quality_poor": {
		"en": "Image quality is too poor for analysis. Please take a clearer photo.",
		"ar": "جودة الصورة ضعيفة جداً للتحليل. يرجى التقاط صورة أوضح.",
		"es": "La calidad de la imagen es muy pobre para el análisis. Toma una foto más clara.",
		"fr": "La qualité de l'image est trop faible pour l'analyse. Prenez une photo plus claire.",
		"de": "Die Bildqualität ist zu schlecht für die Analyse. Machen Sie ein klareres Foto.",
	},
}

// ErrorMessage returns the localized user message for a food error code.
func ErrorMessage(code, language string) string {
	messages, ok := errorMessages[code]
	if !ok {
		return "An unexpected error occurred."
	}
	if msg, ok := messages[language]; ok {
		return msg
	}
	return messages["en"]
}
