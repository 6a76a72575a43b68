package planner

import (
	"encoding/json"
	"strconv"
	"strings"
)

const historyTurnLimit = 8

type PetProfile map[string]any

type ChatTurn struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Profile PetProfile `json:"petInfo"`
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

type profileField struct {
	Key   string
	Label string
}

// profileFields is the render order of the profile block. Keys outside this
// list are ignored.
var profileFields = []profileField{
	{Key: "dog_name", Label: "名前"},
	{Key: "breed", Label: "犬種"},
	{Key: "gender", Label: "性別"},
	{Key: "age", Label: "年齢"},
	{Key: "weight", Label: "体重"},
	{Key: "coat_type", Label: "毛の長さ"},
	{Key: "coat_color", Label: "毛色"},
	{Key: "personality", Label: "性格"},
	{Key: "owner_residence", Label: "居住地"},
	{Key: "dog_interaction", Label: "他の犬との交流"},
	{Key: "human_interaction", Label: "人との交流"},
	{Key: "medical_history", Label: "持病"},
	{Key: "allergies", Label: "アレルギー"},
	{Key: "exercise_level", Label: "運動量"},
	{Key: "car_sickness", Label: "車酔い"},
	{Key: "barking_tendency", Label: "吠え癖"},
	{Key: "biting_habit", Label: "噛み癖"},
	{Key: "walk_frequency_time", Label: "散歩の頻度"},
	{Key: "likes_water_play", Label: "水遊びの好き嫌い"},
	{Key: "training_status", Label: "しつけ状況"},
}

func (r ChatRequest) HasMessage() bool {
	return strings.TrimSpace(r.Message) != ""
}

// RecentHistory returns at most the last eight turns in their original order.
func (r ChatRequest) RecentHistory() []ChatTurn {
	if len(r.History) <= historyTurnLimit {
		return r.History
	}
	return r.History[len(r.History)-historyTurnLimit:]
}

func profileValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "true"
		}
		return ""
	case []string:
		return joinProfileValues(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, profileValue(item))
		}
		return joinProfileValues(items)
	default:
		return ""
	}
}

// Multi-select answers are joined with the Japanese list comma.
func joinProfileValues(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "、")
}

func roleLabel(sender string) string {
	if strings.EqualFold(strings.TrimSpace(sender), "user") {
		return "ユーザー"
	}
	return "AI"
}
