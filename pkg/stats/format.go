package stats

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCount truncates v to an integer and prints it with English thousands
// separators, e.g. 1,234,567.
func FormatCount(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", int64(v))
}

// FormatPercent prints a fraction as a percentage, FormatPercent(0.1234, 2)
// is "12.34%".
func FormatPercent(v float64, decimals int) string {
	return strconv.FormatFloat(RoundHalfEven(v*100, decimals), 'f', decimals, 64) + "%"
}

// RoundHalfEven rounds to the given number of decimals, ties to even.
func RoundHalfEven(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*pow) / pow
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
