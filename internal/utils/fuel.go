package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var fuelWords = map[string]float64{
	"empty":          0,
	"0":              0,
	"0%":             0,
	"quarter":        0.25,
	"a quarter":      0.25,
	"one quarter":    0.25,
	"1/4":            0.25,
	"25%":            0.25,
	"half":           0.5,
	"a half":         0.5,
	"one half":       0.5,
	"1/2":            0.5,
	"50%":            0.5,
	"three quarters": 0.75,
	"three quarter":  0.75,
	"three fourths":  0.75,
	"three fourth":   0.75,
	"3/4":            0.75,
	"75%":            0.75,
	"full":           1,
	"1":              1,
	"100%":           1,
}

var fuelFraction = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)

// ParseFuelFraction turns a free-text fuel gauge reading such as "half tank",
// "3/4" or "60%" into a fraction between 0 and 1. A missing or unreadable
// reading is treated as a full tank so that no fuel fee is charged.
func ParseFuelFraction(level *string) float64 {
	if level == nil {
		return 1
	}

	s := strings.ToLower(strings.TrimSpace(*level))
	if s == "" {
		return 1
	}
	for _, w := range []string{"tank", "level", "fuel"} {
		s = strings.ReplaceAll(s, w, "")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "-", " "))

	if v, ok := fuelWords[s]; ok {
		return v
	}

	if m := fuelFraction.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den > 0 {
			return clamp01(num / den)
		}
	}

	if strings.HasSuffix(s, "%") {
		v, err := parseNumber(strings.TrimSuffix(s, "%"))
		if err != nil {
			return 1
		}
		return clamp01(v / 100)
	}

	v, err := parseNumber(s)
	if err != nil {
		return 1
	}
	if v > 1 {
		if v > 100 {
			return 1
		}
		v = v / 100
	}
	return clamp01(v)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
