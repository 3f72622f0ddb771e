package calculations

import "time"

// LoanRequest описывает параметры аннуитетного кредита
type LoanRequest struct {
	Amount            float64 `json:"amount"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermMonths        int     `json:"term_months"`
}

// PaymentRecord представляет один платёж графика.
// Денежные поля округлены до копеек.
type PaymentRecord struct {
	Index            int       `json:"index"`
	DueDate          time.Time `json:"due_date"`
	Payment          float64   `json:"payment"`
	Interest         float64   `json:"interest"`
	Principal        float64   `json:"principal"`
	RemainingBalance float64   `json:"remaining_balance"`
}

// AmortizationResult представляет результат расчета графика.
// MonthlyPayment, TotalPaid и Overpayment не округляются.
type AmortizationResult struct {
	Request        LoanRequest     `json:"request"`
	MonthlyPayment float64         `json:"monthly_payment"`
	TotalPaid      float64         `json:"total_paid"`
	Overpayment    float64         `json:"overpayment"`
	Schedule       []PaymentRecord `json:"schedule"`
}
