// Package gift selects and mails the gift bundle matching a respondent's
// temperature tier.
package gift

import "github.com/jonathan/readiness-quiz/internal/types"

// Bundle describes one gift.
type Bundle struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Materials   []string `json:"materials"`
}

var bundles = map[string]Bundle{
	"hot": {
		Key:         "hot",
		Title:       "AI-стратегия для профессионалов",
		Description: "Эксклюзивный гайд + персональная консультация на 30 минут",
		Materials: []string{
			`Гайд "AI-стратегия для профессионалов" (PDF)`,
			"Чек-лист из 100 AI-инструментов (PDF)",
			"Промокод на консультацию: EXPERT30",
			"Доступ к закрытому сообществу",
			"Бонус: Шаблоны промптов для вашей профессии",
		},
	},
	"warm": {
		Key:         "warm",
		Title:       "50 AI-инструментов для повышения продуктивности",
		Description: "Подробный чек-лист + доступ к закрытому сообществу",
		Materials: []string{
			`Чек-лист "50 AI-инструментов для повышения продуктивности" (PDF)`,
			`Видео-гайд: "Как выбрать свой первый AI-инструмент"`,
			"Доступ к закрытому Telegram-сообществу",
			"Шаблоны автоматизации для вашей сферы",
		},
	},
	"cold": {
		Key:         "cold",
		Title:       "Первые шаги в AI",
		Description: "Стартовый набор с пошаговым планом изучения",
		Materials: []string{
			`Гайд "Первые шаги в AI" (PDF)`,
			"Пошаговый план изучения на 30 дней",
			"10 простых AI-инструментов для начинающих",
			`Видео: "Основы работы с ChatGPT"`,
		},
	},
}

// Select returns the bundle for a tier. Warm-hot shares the warm bundle and
// anything unrecognized gets the cold one. The returned value is a copy.
func Select(tier types.TemperatureTier) Bundle {
	var key string
	switch tier {
	case types.TierHot:
		key = "hot"
	case types.TierWarmHot, types.TierWarm:
		key = "warm"
	default:
		key = "cold"
	}
	b := bundles[key]
	b.Materials = append([]string(nil), b.Materials...)
	return b
}
