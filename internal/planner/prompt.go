package planner

import "strings"

const (
	rolePreamble  = "役割:犬の専門家。以下のプロファイルと履歴を把握し、犬種特性・性格・健康状態・ユーザーの今日の気分を考慮して回答せよ。挨拶不要。\n"
	profileHeader = "【愛犬の詳細プロファイル】\n"
	historyHeader = "【これまでの会話履歴】\n"
	historyFooter = "--- 履歴ここまで ---\n\n"
	messageHeader = "【今回の依頼・今日の気分・要望】\n"

	planningHeader     = "\n※お出かけプラン作成指示:\n"
	carParkingRule     = "- 追加条件: 移動手段が「車」のため、各スポットについて「最も近い駐車場の名称と料金目安」を必ず調査し、parking_infoに記述してください。\n"
	noCarParkingRule   = "- 追加条件: 移動手段が車ではないため、parking_infoは必ず空文字(\"\")にしてください。駐車場情報は一切不要です。\n"
	groundingRule      = "\nGoogle検索で現在実在する場所のみを確認して提案してください。JSON形式のみで出力してください:\n"
	adviceInstructions = "回答はテキストのみ。400~600文字程度で愛犬専用のアドバイスをプロとして行ってください。"
)

// PlanSkeleton is the JSON shape the model is asked to fill in planning mode.
const PlanSkeleton = `{"plan_title":"","greeting_message":"","spots":[{"name":"","address":"","pet_condition":"","description":"","parking_info":""}]}`

// BuildPrompt renders the full prompt for one request. It is deterministic
// and never fails; unknown or empty profile entries are skipped.
func BuildPrompt(req ChatRequest, mode Mode, kw Keywords) string {
	var b strings.Builder
	b.WriteString(rolePreamble)
	b.WriteString(RenderProfile(req.Profile))
	b.WriteString("\n")
	b.WriteString(RenderHistory(req.RecentHistory()))
	b.WriteString(messageHeader)
	b.WriteString(req.Message)
	b.WriteString("\n")

	if !mode.Planning {
		b.WriteString(adviceInstructions)
		return b.String()
	}

	b.WriteString(planningHeader)
	if instruction, ok := kw.durationInstruction(req.Message); ok {
		b.WriteString("- 条件:")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	if mode.CarTrip {
		b.WriteString(carParkingRule)
	} else {
		b.WriteString(noCarParkingRule)
	}
	b.WriteString(groundingRule)
	b.WriteString(PlanSkeleton)
	return b.String()
}

func RenderProfile(profile PetProfile) string {
	var b strings.Builder
	b.WriteString(profileHeader)
	for _, field := range profileFields {
		value := profileValue(profile[field.Key])
		if value == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(field.Label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHistory returns "" for an empty history so the prompt carries no
// empty section.
func RenderHistory(turns []ChatTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(historyHeader)
	for _, turn := range turns {
		b.WriteString(roleLabel(turn.Sender))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString(historyFooter)
	return b.String()
}
