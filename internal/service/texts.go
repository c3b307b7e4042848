package service

import "fmt"

// User-facing message templates. Russian is the product language.

func textTapRejected(reason string) string {
	switch reason {
	case "not_joined":
		return "Ты пока не участвуешь в челлендже. Напиши /join, чтобы присоединиться."
	case "missing_wake_time":
		return "Мы тебя записали! Осталось выбрать время подъёма (05:00–09:00), и плюсики начнут засчитываться."
	case "outside_window":
		return "Плюсик не засчитан: сейчас не твоё окно подъёма. Окно открыто с 55 минут до подъёма и 10 минут после."
	}
	return "Плюсик не засчитан."
}

func textReportAccepted(reply, question string) string {
	return fmt.Sprintf("%s\n\nПроверка: %s\nОтветь числом в течение 2 минут.", reply, question)
}

func textAnswerRetry(attemptsLeft int) string {
	return fmt.Sprintf("Неверно. Осталось попыток: %d.", attemptsLeft)
}

const (
	textAnswerPassed  = "Верно! Отчёт засчитан. Отличное утро 🌅"
	textAnswerFailed  = "Попытки закончились, отчёт не засчитан."
	textAnswerExpired = "Время на ответ вышло, отчёт не засчитан."
)

const (
	textKicked      = "Четвёртый пропуск — участие в челлендже остановлено. Ты можешь вернуться в следующем потоке."
	textBuddyKicked = "Твой напарник набрал четвёртый пропуск, поэтому пара выбывает вместе. Участие остановлено."

	textTrialOffer   = "Попробуй челлендж бесплатно: 7 дней пробного участия. Напиши /trial."
	textChatInvite   = "Оплата получена! Добро пожаловать в клуб ранних подъёмов 🌅"
	textRefundNotice = "Возврат оформлен. Если передумаешь — мы рядом."
	textRenewPrompt  = "Подписка закончилась. Продли, чтобы вернуться в челлендж."
)
