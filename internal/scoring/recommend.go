package scoring

import "github.com/jonathan/readiness-quiz/internal/types"

var recommendations = map[types.TemperatureTier][]string{
	types.TierHot: {
		"Создавайте сложные AI-агенты и системы автоматизации",
		"Монетизируйте ваши AI-навыки через консалтинг или продукты",
		"Станьте AI-лидером в вашей команде или компании",
		"Делитесь опытом и обучайте других",
	},
	types.TierWarmHot: {
		"Внедряйте AI в свои ежедневные рабочие процессы",
		"Изучайте продвинутые техники промптинга и автоматизации",
		"Создавайте собственные воркфлоу для конкретных задач",
		"Измеряйте ROI от внедрения AI-инструментов",
	},
	types.TierWarm: {
		"Пробуйте разные AI-инструменты для ваших задач",
		"Начните с простых кейсов: резюме текстов, генерация идей",
		"Изучайте базовые концепции промптинга",
		"Найдите сообщество практиков для обмена опытом",
	},
	types.TierCold: {
		"Познакомьтесь с базовыми AI-инструментами (ChatGPT, Claude)",
		"Развейте мифы и страхи про AI через практику",
		"Найдите одну конкретную задачу для применения AI",
		"Пройдите короткий вводный курс по AI",
	},
}

// Recommendations returns the static next steps for a tier. Unknown tiers get
// the cold-tier list. The returned slice is a copy.
func Recommendations(tier types.TemperatureTier) []string {
	rec, ok := recommendations[tier]
	if !ok {
		rec = recommendations[types.TierCold]
	}
	return append([]string(nil), rec...)
}
