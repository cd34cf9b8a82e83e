package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a report cell value to a float64. Empty strings and
// anything unparseable coerce to 0.0 rather than failing, since report cells
// routinely carry "" for absent values and thousands separators for large ones
// (e.g. "12,345.67").
func ParseAmount(valueStr string) float64 {
	if valueStr == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(valueStr, ",", ""), 64)
	if err != nil {
		return 0.0
	}
	return v
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
