package utils

import "math"

// Round2 округляет число до 2 знаков после запятой.
// Отрицательный ноль приводится к нулю, чтобы не печатать "-0.00".
func Round2(value float64) float64 {
	rounded := math.Round(value*100) / 100
	if rounded == 0 {
		return 0
	}
	return rounded
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}
