package notifications

import "github.com/FACorreiaa/flaia-functions/internal/types"

const (
	KindDay1          = "day1"
	KindDay2          = "day2"
	KindDay3          = "day3"
	KindTrialReminder = "trial_reminder"
)

var supportedLanguages = map[string]bool{"ar": true, "en": true, "ja": true, "ko": true}

var onboardingMessages = map[string]map[string]types.NotificationMessage{
	KindDay1: {
		"ar": {Title: "💪 هذه المرة مختلفة", Body: "واصل رحلتك الصحية اليوم. سجل وجباتك الآن"},
		"en": {Title: "💪 This time is different", Body: "Continue your healthy journey today. Track your meals now"},
		"ja": {Title: "💪 今回は違います", Body: "健康な生活を続けましょう。今日の食事を記録してください"},
		"ko": {Title: "💪 이번엔 다릅니다", Body: "건강한 여정을 계속하세요. 오늘 식사를 기록하세요"},
	},
	KindDay2: {
		"ar": {Title: "🌟 الخطوات الصغيرة تصنع التغيير الكبير", Body: "كل وجبة تسجلها تقربك من هدفك. استمر في التقدم"},
		"en": {Title: "🌟 Small steps lead to big changes", Body: "Every meal you track brings you closer to your goal. Keep moving forward"},
		"ja": {Title: "🌟 小さな一歩が大きな変化を生む", Body: "記録する食事一つ一つが目標に近づけます。前進を続けましょう"},
		"ko": {Title: "🌟 작은 발걸음이 큰 변화를 만듭니다", Body: "기록하는 모든 식사가 목표에 가까워지게 합니다. 계속 나아가세요"},
	},
	KindDay3: {
		"ar": {Title: "❤️ التغيير الحقيقي يبدأ هنا", Body: "أنت لست وحدك في هذه الرحلة. سجل وجباتك واستمر في بناء مستقبلك الصحي"},
		"en": {Title: "❤️ Real change starts here", Body: "You're not alone in this journey. Track your meals and keep building your healthy future"},
		"ja": {Title: "❤️ 本当の変化はここから始まります", Body: "この旅にあなたは一人ではありません。食事を記録して健康な未来を築き続けましょう"},
		"ko": {Title: "❤️ 진정한 변화는 여기서 시작됩니다", Body: "이 여정에서 당신은 혼자가 아닙니다. 식사를 기록하고 건강한 미래를 계속 만들어가세요"},
	},
}

// ValidateLanguage returns language when onboarding copy exists for it, otherwise "en".
func ValidateLanguage(language string) string {
	if supportedLanguages[language] {
		return language
	}
	return "en"
}

// MessageFor returns the onboarding copy for kind in language. The trial
// reminder reuses the day one copy.
func MessageFor(kind, language string) (types.NotificationMessage, bool) {
	if kind == KindTrialReminder {
		kind = KindDay1
	}
	byLang, ok := onboardingMessages[kind]
	if !ok {
		return types.NotificationMessage{}, false
	}
	return byLang[ValidateLanguage(language)], true
}
