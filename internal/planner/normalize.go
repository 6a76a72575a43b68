package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Outcome string

const (
	OutcomeAdvice       Outcome = "advice"
	OutcomePlan         Outcome = "plan"
	OutcomePlanFallback Outcome = "plan_fallback"
)

var errSpotsShape = errors.New("spots is not a list of objects")

// Normalize turns generated text into the response body. Planning answers
// become the parsed plan with the parking policy applied; anything that
// cannot be parsed or enforced degrades to {"response": text}.
func Normalize(text string, mode Mode) (map[string]any, Outcome) {
	if !mode.Planning {
		return textResponse(text), OutcomeAdvice
	}
	plan, err := ParsePlan(text)
	if err != nil {
		return textResponse(text), OutcomePlanFallback
	}
	if err := EnforceParkingPolicy(plan, mode.CarTrip); err != nil {
		return textResponse(text), OutcomePlanFallback
	}
	return plan, OutcomePlan
}

func textResponse(text string) map[string]any {
	return map[string]any{"response": text}
}

// ParsePlan decodes the first JSON object embedded in text. Numbers are kept
// as json.Number so they re-encode unchanged.
func ParsePlan(text string) (map[string]any, error) {
	candidate, ok := ExtractJSONObject(text)
	if !ok {
		return nil, errors.New("no json object in text")
	}
	decoder := json.NewDecoder(strings.NewReader(stripControlChars(candidate)))
	decoder.UseNumber()
	var plan map[string]any
	if err := decoder.Decode(&plan); err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.New("json object is null")
	}
	return plan, nil
}

// ExtractJSONObject returns the first balanced {...} in text, skipping braces
// inside string literals. When no object closes, it falls back to the span
// from the first '{' to the last '}'.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	end := strings.LastIndexByte(text, '}')
	if end > start {
		return text[start : end+1], true
	}
	return "", false
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x1F || r == 0x7F {
			return -1
		}
		return r
	}, s)
}

// EnforceParkingPolicy rewrites parking_info on every spot. Without a car
// trip the field is always "". With one, non-string values are stringified so
// clients never receive an object there. A plan without spots, or with an
// empty spots object, is left alone.
func EnforceParkingPolicy(plan map[string]any, carTrip bool) error {
	raw, ok := plan["spots"]
	if !ok {
		return nil
	}
	if obj, isObject := raw.(map[string]any); isObject && len(obj) == 0 {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return errSpotsShape
	}
	spots := make([]map[string]any, 0, len(items))
	for _, item := range items {
		spot, ok := item.(map[string]any)
		if !ok {
			return errSpotsShape
		}
		spots = append(spots, spot)
	}

	for _, spot := range spots {
		if !carTrip {
			spot["parking_info"] = ""
			continue
		}
		value, present := spot["parking_info"]
		if !present || value == nil {
			continue
		}
		if _, isString := value.(string); isString {
			continue
		}
		spot["parking_info"] = stringifyValue(value)
	}
	return nil
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}
