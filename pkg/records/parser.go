package records

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric head of an OCR'd value string, tolerating
// a trailing unit ("7.2 mg/dL", "140mmHg").
var leadingNumber = regexp.MustCompile(`^[-+]?[0-9]+(?:\.[0-9]+)?`)

// ParseValues coerces raw OCR extraction output into numeric values keyed by
// metric name. Entries that cannot be read as a number are dropped: OCR text
// is noisy and a non-numeric field is simply not a measurement.
func ParseValues(raw map[string]interface{}) map[string]interface{} {
	parsed := make(map[string]interface{}, len(raw))
	for name, value := range raw {
		metric := strings.TrimSpace(name)
		if metric == "" {
			continue
		}
		if f, ok := Coerce(value); ok {
			parsed[metric] = f
		}
	}
	return parsed
}

// Coerce reads one raw OCR value as a float64.
func Coerce(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return coerceString(v)
	default:
		return 0, false
	}
}

func coerceString(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	// Lab counts arrive with separators ("1,50,000 /cumm").
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	match := leadingNumber.FindString(trimmed)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	return f, err == nil
}
