package sweep

import "fmt"

func textPenaltyChoice(level, squats, fine int) string {
	return fmt.Sprintf(
		"Пропуск подъёма №%d. Выбирай: %d приседаний (видео куратору) или штраф %d ₽. Ответь «присед» или «штраф».",
		level, squats, fine,
	)
}

func textRenewReminder(days int) string {
	return fmt.Sprintf("Подписка заканчивается через %d дн. Продли, чтобы не выпасть из челленджа.", days)
}

const (
	textExpiryPrompt = "Подписка закончилась. Продли сегодня, чтобы остаться в челлендже."
	textExpiryKick   = "Подписка не продлена, доступ к группе закрыт. Возвращайся, когда будешь готов!"
	textFinePaid     = "Штраф оплачен, вопрос закрыт. Завтра новое утро!"
)
