package columns

import (
	"fmt"
	"math"
	"strings"
)

// FormatFloat formats v with fixed decimals and comma thousand separators.
// NaN and infinities render empty.
func FormatFloat(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := fmt.Sprintf("%.*f", decimals, v)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	if sign == "-" && strings.Trim(intPart+frac, "0.") == "" {
		sign = ""
	}
	return sign + group(intPart) + frac
}

func group(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out := make([]byte, 0, n+n/3)
	out = append(out, digits[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// FormatPct renders a ratio as a percentage with one decimal.
func FormatPct(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return ""
	}
	return FormatFloat(ratio*100, 1) + "%"
}

// FormatCompact abbreviates large amounts: 1.23B, 456.7M, 12.3K.
func FormatCompact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return FormatFloat(v/1e12, 2) + "T"
	case abs >= 1e9:
		return FormatFloat(v/1e9, 2) + "B"
	case abs >= 1e6:
		return FormatFloat(v/1e6, 1) + "M"
	case abs >= 1e4:
		return FormatFloat(v/1e3, 1) + "K"
	}
	return FormatFloat(v, 0)
}

func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
