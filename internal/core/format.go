package core

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultPrecision is the number of decimal places shown for results.
const DefaultPrecision = 4

// FormatValue renders v with a fixed number of decimals. Negative precision
// falls back to DefaultPrecision.
func FormatValue(v float64, precision int) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// Format renders the conversion as "10 ft = 3.0480 m". The input value is
// shown as given; only the result is rounded.
func (r Result) Format(precision int) string {
	return fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(r.Value, 'g', -1, 64), r.From,
		FormatValue(r.Result, precision), r.To)
}
