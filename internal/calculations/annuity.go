package calculations

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cloud-ru/loan-calculator-bot/pkg/utils"
)

var (
	// ErrNonPositiveAmount возвращается, если сумма кредита не положительна
	ErrNonPositiveAmount = errors.New("сумма кредита должна быть положительной")
	// ErrNonPositiveTerm возвращается, если срок меньше одного месяца
	ErrNonPositiveTerm = errors.New("срок кредита должен быть не меньше одного месяца")
	// ErrNonPositiveRate возвращается, если ставка не положительна
	ErrNonPositiveRate = errors.New("процентная ставка должна быть положительной")
	// ErrNumeric возвращается, если остаток долга ушёл в минус сверх погрешности
	ErrNumeric = errors.New("численная ошибка: остаток кредита стал отрицательным")
)

// MonthlyRate переводит годовую ставку в процентах в месячную долю
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12.0 / 100.0
}

// MonthlyPayment рассчитывает фиксированный ежемесячный аннуитетный платёж.
// Результат не округляется.
func MonthlyPayment(amount, annualRatePercent float64, months int) (float64, error) {
	if err := checkRequest(amount, annualRatePercent, months); err != nil {
		return 0, err
	}

	r := MonthlyRate(annualRatePercent)
	factor := math.Pow(1.0+r, float64(months))
	payment := amount * r * factor / (factor - 1.0)
	if !utils.IsFinite(payment) {
		return 0, fmt.Errorf("платёж не является конечным числом: %w", ErrNumeric)
	}

	return payment, nil
}

// AnnuitySchedule рассчитывает график аннуитетного кредита.
// Первый платёж приходится на start, следующие сдвигаются на календарный месяц.
func AnnuitySchedule(req LoanRequest, start time.Time) (*AmortizationResult, error) {
	monthlyPayment, err := MonthlyPayment(req.Amount, req.AnnualRatePercent, req.TermMonths)
	if err != nil {
		return nil, err
	}

	r := MonthlyRate(req.AnnualRatePercent)
	growth := math.Pow(1.0+r, float64(req.TermMonths))
	remaining := req.Amount
	totalPaid := 0.0
	schedule := make([]PaymentRecord, 0, req.TermMonths)

	for m := 1; m <= req.TermMonths; m++ {
		interest := remaining * r
		principal := monthlyPayment - interest
		// То же, что remaining + interest - payment, но в замкнутой форме:
		// рекуррентная формула усиливает ошибку округления в (1+r)^n раз.
		remaining = req.Amount * (growth - math.Pow(1.0+r, float64(m))) / (growth - 1.0)

		if remaining < -0.01 {
			return nil, fmt.Errorf("месяц %d: %w", m, ErrNumeric)
		}

		schedule = append(schedule, PaymentRecord{
			Index:            m,
			DueDate:          AddMonths(start, m-1),
			Payment:          utils.Round2(monthlyPayment),
			Interest:         utils.Round2(interest),
			Principal:        utils.Round2(principal),
			RemainingBalance: utils.Round2(remaining),
		})

		totalPaid += monthlyPayment
	}

	return &AmortizationResult{
		Request:        req,
		MonthlyPayment: monthlyPayment,
		TotalPaid:      totalPaid,
		Overpayment:    totalPaid - req.Amount,
		Schedule:       schedule,
	}, nil
}

func checkRequest(amount, annualRatePercent float64, months int) error {
	if !utils.IsFinite(amount) || amount <= 0 {
		return ErrNonPositiveAmount
	}
	if months < 1 {
		return ErrNonPositiveTerm
	}
	if !utils.IsFinite(annualRatePercent) || annualRatePercent <= 0 {
		return ErrNonPositiveRate
	}
	return nil
}
