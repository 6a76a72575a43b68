package planner

import "strings"

type DurationRule struct {
	Marker      string
	Instruction string
}

// Keywords drives mode detection. The table is a product heuristic and is
// matched by plain substring search.
type Keywords struct {
	PlanningNouns []string
	PlanningVerbs []string
	CarMarker     string
	// First matching rule wins.
	Durations []DurationRule
}

type Mode struct {
	Planning bool
	CarTrip  bool
}

func DefaultKeywords() Keywords {
	return Keywords{
		PlanningNouns: []string{"プラン", "コース", "ルート", "日程"},
		PlanningVerbs: []string{"作って", "提案"},
		CarMarker:     "移動手段：車",
		Durations: []DurationRule{
			{Marker: "1日", Instruction: "所要時間1日(3-4箇所,食事を含めたフルコース)"},
			{Marker: "半日", Instruction: "所要時間半日(2-3箇所)"},
			{Marker: "2時間", Instruction: "所要時間2時間(1-2箇所,散歩主体)"},
		},
	}
}

// WithOverrides replaces the noun, verb and car marker entries that are set.
func (k Keywords) WithOverrides(nouns, verbs []string, carMarker string) Keywords {
	if len(nouns) > 0 {
		k.PlanningNouns = append([]string(nil), nouns...)
	}
	if len(verbs) > 0 {
		k.PlanningVerbs = append([]string(nil), verbs...)
	}
	if strings.TrimSpace(carMarker) != "" {
		k.CarMarker = carMarker
	}
	return k
}

func DetectMode(message string, kw Keywords) Mode {
	return Mode{
		Planning: containsAnyKeyword(message, kw.PlanningNouns) && containsAnyKeyword(message, kw.PlanningVerbs),
		CarTrip:  kw.CarMarker != "" && strings.Contains(message, kw.CarMarker),
	}
}

func (k Keywords) durationInstruction(message string) (string, bool) {
	for _, rule := range k.Durations {
		if rule.Marker != "" && strings.Contains(message, rule.Marker) {
			return rule.Instruction, true
		}
	}
	return "", false
}

func containsAnyKeyword(text string, candidates []string) bool {
	for _, candidate := range candidates {
		if candidate != "" && strings.Contains(text, candidate) {
			return true
		}
	}
	return false
}
