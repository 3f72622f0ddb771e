package conversation

import "github.com/cloud-ru/loan-calculator-bot/internal/render"

const (
	labelRestart      = "Рассчитать новый кредит"
	labelShowPayments = "Получить список платежей"
	labelShowResults  = "Вернуться к результатам"
	labelPrevPage     = "« Назад"
	labelNextPage     = "Вперёд »"
)

func resultKeyboard() [][]Button {
	return [][]Button{
		{{Label: labelRestart, Data: CallbackRestart}},
		{{Label: labelShowPayments, Data: CallbackShowPayments}},
	}
}

func scheduleKeyboard(page render.Page) [][]Button {
	var rows [][]Button
	var nav []Button
	if page.HasPrev() {
		nav = append(nav, Button{Label: labelPrevPage, Data: CallbackPrevPage})
	}
	if page.HasNext() {
		nav = append(nav, Button{Label: labelNextPage, Data: CallbackNextPage})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows,
		[]Button{{Label: labelShowResults, Data: CallbackShowResults}},
		[]Button{{Label: labelRestart, Data: CallbackRestart}},
	)
}
