// Package render формирует тексты сообщений бота.
// Сообщения рассчитаны на разметку Telegram Markdown (legacy).
package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cloud-ru/loan-calculator-bot/internal/calculations"
	"github.com/cloud-ru/loan-calculator-bot/pkg/utils"
)

const (
	Welcome        = "Добро пожаловать! Давайте рассчитаем ваш кредит."
	AskAmount      = "Введите сумму кредита (например: 100000):"
	AskTerm        = "Введите срок кредита в месяцах (например: 12):"
	AskRate        = "Введите годовую процентную ставку (например: 5.5):"
	InvalidAmount  = "Пожалуйста, введите корректную сумму (например: 100000)."
	InvalidTerm    = "Пожалуйста, введите корректный срок (например: 12)."
	InvalidRate    = "Пожалуйста, введите корректную ставку (например: 5.5)."
	BackToStart    = "Вы вернулись на стартовый экран. Начнем заново!"
	StartHint      = "Напишите /start для начала заново."
	InternalError  = "Не удалось выполнить расчет. Попробуйте ещё раз: /start"
	dateLayout     = "02.01.2006"
	moneyFormat    = "# ###.##"
	scheduleHeader = "Расчёт. Список платежей"
)

// Money форматирует сумму с двумя знаками и пробелом между разрядами: 1 234 567.89
func Money(v float64) string {
	return humanize.FormatFloat(moneyFormat, utils.Round2(v))
}

// Greeting приветствует пользователя по имени, если оно известно
func Greeting(name string) string {
	if name == "" {
		return Welcome
	}
	return fmt.Sprintf("Здравствуйте, %s! Давайте рассчитаем ваш кредит.", name)
}

// Invalid дополняет повторный вопрос причиной отказа
func Invalid(prompt, reason string) string {
	if reason == "" {
		return prompt
	}
	return prompt + "\n" + reason
}

// Result форматирует итог расчета
func Result(result *calculations.AmortizationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Сумма кредита: *%s рублей.*\n", Money(result.Request.Amount))
	fmt.Fprintf(&b, "Срок кредита: *%d %s.*\n", result.Request.TermMonths, pluralMonths(result.Request.TermMonths))
	fmt.Fprintf(&b, "Процентная ставка: *%.2f %%.*\n", result.Request.AnnualRatePercent)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Ежемесячный платеж составит: `%s` рублей.\n", Money(result.MonthlyPayment))
	fmt.Fprintf(&b, "Переплата: `%s` рублей.\n", Money(result.Overpayment))
	fmt.Fprintf(&b, "Общая сумма выплат: `%s` рублей.\n", Money(result.TotalPaid))
	return b.String()
}

// SchedulePage форматирует страницу графика платежей в блоке кода
func SchedulePage(page Page) string {
	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%s (стр. %d из %d):\n\n", scheduleHeader, page.Number, page.Total)
	for _, r := range page.Records {
		fmt.Fprintf(&b, "%d) %s\n", r.Index, r.DueDate.Format(dateLayout))
		writeLine(&b, "Платёж:", r.Payment)
		writeLine(&b, "Проценты:", r.Interest)
		writeLine(&b, "Основной долг:", r.Principal)
		writeLine(&b, "Остаток долга:", r.RemainingBalance)
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

func writeLine(b *strings.Builder, label string, v float64) {
	fmt.Fprintf(b, "%-15s%14s руб.\n", label, Money(v))
}

func pluralMonths(n int) string {
	switch {
	case n%10 == 1 && n%100 != 11:
		return "месяц"
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
		return "месяца"
	default:
		return "месяцев"
	}
}
