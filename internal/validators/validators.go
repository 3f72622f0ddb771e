package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/pkg/utils"
)

// ValidationError описывает отклонённое значение параметра
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsValidationError сообщает, вызвана ли ошибка неверным значением параметра
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	numberCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "_", "", ",", ".")
	spaceCleaner  = strings.NewReplacer(" ", "", "\u00a0", "", "_", "")

	// Запятая перед ровно тремя цифрами похожа на разделитель разрядов: 100,000
	groupingComma = regexp.MustCompile(`,\d{3}(\D|$)`)
)

// ParseNumber разбирает число, введённое пользователем.
// Пробелы и подчёркивания внутри числа игнорируются, запятая считается десятичным разделителем.
func ParseNumber(name, text string) (decimal.Decimal, error) {
	cleaned := numberCleaner.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Zero, &ValidationError{Field: name, Reason: "значение не указано"}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: name, Reason: "значение не является числом"}
	}
	return d, nil
}

// ValidatePositiveNumber проверяет, что число положительное и в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return &ValidationError{Field: name, Reason: "значение не является конечным числом"}
	}
	if value < minInclusive {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("значение должно быть ≥ %s", formatBound(minInclusive))}
	}
	if value > maxInclusive {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("значение слишком велико (>%s)", formatBound(maxInclusive))}
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("значение должно быть в диапазоне [%d; %d]", minInclusive, maxInclusive)}
	}
	return nil
}

// CheckPrincipal проверяет сумму кредита
func CheckPrincipal(cfg *config.Config, principal float64) error {
	return ValidatePositiveNumber("amount", principal, cfg.MinPrincipal, cfg.MaxPrincipal)
}

// CheckRate проверяет процентную ставку
func CheckRate(cfg *config.Config, rate float64) error {
	return ValidatePositiveNumber("annual_rate_percent", rate, cfg.MinRate, cfg.MaxRate)
}

// CheckMonths проверяет срок в месяцах
func CheckMonths(cfg *config.Config, months int) error {
	return ValidateIntRange("months", months, 1, cfg.MaxMonths)
}

// ParseAmount разбирает и проверяет сумму кредита
func ParseAmount(cfg *config.Config, text string) (float64, error) {
	if groupingComma.MatchString(spaceCleaner.Replace(text)) {
		return 0, &ValidationError{Field: "amount", Reason: "разряды разделяются пробелом, дробная часть - запятой или точкой"}
	}
	d, err := ParseNumber("amount", text)
	if err != nil {
		return 0, err
	}
	amount := d.InexactFloat64()
	if err := CheckPrincipal(cfg, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ParseMonths разбирает и проверяет срок кредита в целых месяцах
func ParseMonths(cfg *config.Config, text string) (int, error) {
	d, err := ParseNumber("months", text)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, &ValidationError{Field: "months", Reason: "срок указывается целым числом месяцев"}
	}
	// Значения вне диапазона отсекаются до IntPart, иначе int64 переполнится.
	switch {
	case d.GreaterThan(decimal.NewFromInt(int64(cfg.MaxMonths))):
		d = decimal.NewFromInt(int64(cfg.MaxMonths) + 1)
	case d.Sign() <= 0:
		d = decimal.Zero
	}
	months := int(d.IntPart())
	if err := CheckMonths(cfg, months); err != nil {
		return 0, err
	}
	return months, nil
}

// ParseRate разбирает и проверяет годовую процентную ставку
func ParseRate(cfg *config.Config, text string) (float64, error) {
	d, err := ParseNumber("annual_rate_percent", strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if err != nil {
		return 0, err
	}
	rate := d.InexactFloat64()
	if err := CheckRate(cfg, rate); err != nil {
		return 0, err
	}
	return rate, nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
