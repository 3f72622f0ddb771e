package render

import "github.com/cloud-ru/loan-calculator-bot/internal/calculations"

// Page - срез графика для одной страницы, номера с единицы
type Page struct {
	Number  int
	Total   int
	Records []calculations.PaymentRecord
}

// TotalPages возвращает число страниц для n записей
func TotalPages(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate вырезает страницу графика. Номер страницы прижимается к [1, Total].
func Paginate(records []calculations.PaymentRecord, number, size int) Page {
	if size < 1 {
		size = 1
	}
	total := TotalPages(len(records), size)
	if number < 1 {
		number = 1
	}
	if number > total {
		number = total
	}

	from := (number - 1) * size
	to := from + size
	if to > len(records) {
		to = len(records)
	}

	return Page{
		Number:  number,
		Total:   total,
		Records: records[from:to],
	}
}

// HasPrev сообщает, есть ли предыдущая страница
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext сообщает, есть ли следующая страница
func (p Page) HasNext() bool { return p.Number < p.Total }
