package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/internal/validators"
)

func testConfig() *config.Config {
	return &config.Config{
		MinPrincipal:     1,
		MaxPrincipal:     1e9,
		MaxMonths:        360,
		MinRate:          1,
		MaxRate:          100,
		SchedulePageSize: 5,
		Timezone:         "UTC",
	}
}

func TestLoanScheduleAnnuityHandler(t *testing.T) {
	handler := LoanScheduleAnnuityHandler(testConfig(), noop.NewTracerProvider().Tracer("test"))

	tests := []struct {
		name      string
		params    map[string]interface{}
		wantError bool
		check     func(*testing.T, *ScheduleResult)
	}{
		{
			name: "basic annuity",
			params: map[string]interface{}{
				"principal":           100000.0,
				"annual_rate_percent": 12.0,
				"months":              12.0,
				"start_date":          "2026-01-31",
			},
			check: func(t *testing.T, result *ScheduleResult) {
				assert.Equal(t, 8884.88, result.Summary.MonthlyPayment)
				assert.Equal(t, 6618.55, result.Summary.Overpayment)
				assert.Equal(t, 106618.55, result.Summary.TotalPaid)
				require.Len(t, result.Schedule, 12)
				assert.Nil(t, result.Page)
				assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), result.Schedule[1].DueDate.UTC())
				assert.Equal(t, 0.0, result.Schedule[11].RemainingBalance)
			},
		},
		{
			name: "paginated",
			params: map[string]interface{}{
				"principal":           100000.0,
				"annual_rate_percent": 12.0,
				"months":              12.0,
				"page":                3.0,
			},
			check: func(t *testing.T, result *ScheduleResult) {
				require.NotNil(t, result.Page)
				assert.Equal(t, PageInfo{Number: 3, Total: 3, PageSize: 5}, *result.Page)
				require.Len(t, result.Schedule, 2)
				assert.Equal(t, 11, result.Schedule[0].Index)
			},
		},
		{
			name:      "missing principal",
			params:    map[string]interface{}{"annual_rate_percent": 12.0, "months": 12.0},
			wantError: true,
		},
		{
			name:      "zero rate",
			params:    map[string]interface{}{"principal": 1000.0, "annual_rate_percent": 0.0, "months": 12.0},
			wantError: true,
		},
		{
			name:      "fractional months",
			params:    map[string]interface{}{"principal": 1000.0, "annual_rate_percent": 10.0, "months": 12.5},
			wantError: true,
		},
		{
			name:      "term too long",
			params:    map[string]interface{}{"principal": 1000.0, "annual_rate_percent": 10.0, "months": 361.0},
			wantError: true,
		},
		{
			name: "bad start date",
			params: map[string]interface{}{
				"principal":           1000.0,
				"annual_rate_percent": 10.0,
				"months":              12.0,
				"start_date":          "31.01.2026",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := handler(context.Background(), tt.params)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, validators.IsValidationError(err), "expected validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			result, ok := out.(*ScheduleResult)
			require.True(t, ok)
			tt.check(t, result)
		})
	}
}

func TestLoanMonthlyPaymentHandler(t *testing.T) {
	handler := LoanMonthlyPaymentHandler(testConfig(), noop.NewTracerProvider().Tracer("test"))

	out, err := handler(context.Background(), map[string]interface{}{
		"principal":           100000.0,
		"annual_rate_percent": 12.0,
		"months":              12.0,
	})
	require.NoError(t, err)
	summary, ok := out.(*LoanSummary)
	require.True(t, ok)
	assert.Equal(t, 8884.88, summary.MonthlyPayment)
	assert.Equal(t, 12, summary.Months)

	_, err = handler(context.Background(), map[string]interface{}{"principal": "много"})
	assert.True(t, validators.IsValidationError(err))
}

func TestRegistry(t *testing.T) {
	registry := Registry(testConfig(), noop.NewTracerProvider().Tracer("test"))
	assert.Equal(t, []string{ToolLoanMonthlyPayment, ToolLoanScheduleAnnuity}, Names(registry))
}
