package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloud-ru/loan-calculator-bot/internal/calculations"
	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/internal/metrics"
	"github.com/cloud-ru/loan-calculator-bot/internal/render"
	"github.com/cloud-ru/loan-calculator-bot/internal/validators"
	"github.com/cloud-ru/loan-calculator-bot/pkg/utils"
)

const (
	ToolLoanScheduleAnnuity = "loan_schedule_annuity"
	ToolLoanMonthlyPayment  = "loan_monthly_payment"

	dateLayout = "2006-01-02"
)

// ToolHandler представляет обработчик инструмента расчета
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// LoanSummary представляет сводку по кредиту, денежные поля округлены
type LoanSummary struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	Months            int     `json:"months"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalPaid         float64 `json:"total_paid,omitempty"`
	Overpayment       float64 `json:"overpayment,omitempty"`
}

// PageInfo описывает страницу графика в ответе
type PageInfo struct {
	Number   int `json:"number"`
	Total    int `json:"total"`
	PageSize int `json:"page_size"`
}

// ScheduleResult представляет ответ инструмента графика платежей
type ScheduleResult struct {
	Summary  LoanSummary                  `json:"summary"`
	Page     *PageInfo                    `json:"page,omitempty"`
	Schedule []calculations.PaymentRecord `json:"schedule"`
}

// Registry возвращает инструменты по именам
func Registry(cfg *config.Config, tracer trace.Tracer) map[string]ToolHandler {
	return map[string]ToolHandler{
		ToolLoanScheduleAnnuity: LoanScheduleAnnuityHandler(cfg, tracer),
		ToolLoanMonthlyPayment:  LoanMonthlyPaymentHandler(cfg, tracer),
	}
}

// Names возвращает отсортированные имена инструментов
func Names(registry map[string]ToolHandler) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoanScheduleAnnuityHandler обрабатывает запрос на расчет аннуитетного кредита.
// Необязательные параметры: start_date (YYYY-MM-DD), page.
func LoanScheduleAnnuityHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolLoanScheduleAnnuity

		ctx, span := tracer.Start(ctx, toolName)
		defer span.End()

		metrics.ToolCalls.WithLabelValues(toolName, "started").Inc()

		req, err := loanRequest(cfg, params)
		if err != nil {
			return nil, validationFailed(span, toolName, err)
		}
		span.SetAttributes(loanAttributes(req)...)

		start, err := startDate(cfg, params)
		if err != nil {
			return nil, validationFailed(span, toolName, err)
		}

		result, err := calculations.AnnuitySchedule(req, start)
		if err != nil {
			span.SetAttributes(attribute.String("error", "calculation_error"))
			metrics.ToolCalls.WithLabelValues(toolName, "error").Inc()
			metrics.CalculationErrors.WithLabelValues(toolName, "calculation").Inc()
			return nil, fmt.Errorf("ошибка при выполнении расчета: %w", err)
		}

		out := &ScheduleResult{
			Summary: LoanSummary{
				Principal:         utils.Round2(req.Amount),
				AnnualRatePercent: utils.Round2(req.AnnualRatePercent),
				Months:            req.TermMonths,
				MonthlyPayment:    utils.Round2(result.MonthlyPayment),
				TotalPaid:         utils.Round2(result.TotalPaid),
				Overpayment:       utils.Round2(result.Overpayment),
			},
			Schedule: result.Schedule,
		}

		if raw, ok := params["page"]; ok {
			number, ok := raw.(float64)
			if !ok {
				return nil, validationFailed(span, toolName, &validators.ValidationError{Field: "page", Reason: "ожидается число"})
			}
			page := render.Paginate(result.Schedule, int(number), cfg.SchedulePageSize)
			out.Page = &PageInfo{Number: page.Number, Total: page.Total, PageSize: cfg.SchedulePageSize}
			out.Schedule = page.Records
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("monthly_payment", result.MonthlyPayment),
			attribute.Float64("total_paid", result.TotalPaid),
		)
		metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()

		return out, nil
	}
}

// LoanMonthlyPaymentHandler обрабатывает запрос на расчет ежемесячного платежа
func LoanMonthlyPaymentHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolLoanMonthlyPayment

		_, span := tracer.Start(ctx, toolName)
		defer span.End()

		metrics.ToolCalls.WithLabelValues(toolName, "started").Inc()

		req, err := loanRequest(cfg, params)
		if err != nil {
			return nil, validationFailed(span, toolName, err)
		}
		span.SetAttributes(loanAttributes(req)...)

		payment, err := calculations.MonthlyPayment(req.Amount, req.AnnualRatePercent, req.TermMonths)
		if err != nil {
			span.SetAttributes(attribute.String("error", "calculation_error"))
			metrics.ToolCalls.WithLabelValues(toolName, "error").Inc()
			metrics.CalculationErrors.WithLabelValues(toolName, "calculation").Inc()
			return nil, fmt.Errorf("ошибка при выполнении расчета: %w", err)
		}

		span.SetAttributes(attribute.Bool("success", true), attribute.Float64("monthly_payment", payment))
		metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()

		return &LoanSummary{
			Principal:         utils.Round2(req.Amount),
			AnnualRatePercent: utils.Round2(req.AnnualRatePercent),
			Months:            req.TermMonths,
			MonthlyPayment:    utils.Round2(payment),
		}, nil
	}
}

func loanRequest(cfg *config.Config, params map[string]interface{}) (calculations.LoanRequest, error) {
	principal, err := number(params, "principal")
	if err != nil {
		return calculations.LoanRequest{}, err
	}
	annualRatePercent, err := number(params, "annual_rate_percent")
	if err != nil {
		return calculations.LoanRequest{}, err
	}
	monthsFloat, err := number(params, "months")
	if err != nil {
		return calculations.LoanRequest{}, err
	}
	months := int(monthsFloat)
	if float64(months) != monthsFloat {
		return calculations.LoanRequest{}, &validators.ValidationError{Field: "months", Reason: "срок указывается целым числом месяцев"}
	}

	if err := validators.CheckPrincipal(cfg, principal); err != nil {
		return calculations.LoanRequest{}, err
	}
	if err := validators.CheckRate(cfg, annualRatePercent); err != nil {
		return calculations.LoanRequest{}, err
	}
	if err := validators.CheckMonths(cfg, months); err != nil {
		return calculations.LoanRequest{}, err
	}

	return calculations.LoanRequest{
		Amount:            principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        months,
	}, nil
}

func number(params map[string]interface{}, name string) (float64, error) {
	v, ok := params[name].(float64)
	if !ok {
		return 0, &validators.ValidationError{Field: name, Reason: "ожидается число"}
	}
	return v, nil
}

func startDate(cfg *config.Config, params map[string]interface{}) (time.Time, error) {
	loc := cfg.Location()
	raw, ok := params["start_date"]
	if !ok {
		y, m, d := time.Now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, &validators.ValidationError{Field: "start_date", Reason: "ожидается строка YYYY-MM-DD"}
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, &validators.ValidationError{Field: "start_date", Reason: "ожидается дата в формате YYYY-MM-DD"}
	}
	return t, nil
}

func loanAttributes(req calculations.LoanRequest) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("principal", req.Amount),
		attribute.Float64("annual_rate_percent", req.AnnualRatePercent),
		attribute.Int("months", req.TermMonths),
	}
}

func validationFailed(span trace.Span, toolName string, err error) error {
	span.SetAttributes(attribute.String("error", "validation_error"))
	metrics.ToolCalls.WithLabelValues(toolName, "validation_error").Inc()
	metrics.CalculationErrors.WithLabelValues(toolName, "validation").Inc()
	return fmt.Errorf("неверные параметры: %w", err)
}
