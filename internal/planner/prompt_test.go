package planner

import (
	"fmt"
	"strings"
	"testing"
)

func TestDetectMode(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	cases := []struct {
		name     string
		message  string
		planning bool
		carTrip  bool
	}{
		{name: "plan with verb", message: "半日のお出かけプランを作って", planning: true},
		{name: "course proposal by car", message: "1日コースを提案して。移動手段：車", planning: true, carTrip: true},
		{name: "noun without verb", message: "このルートはどう思う？"},
		{name: "verb without noun", message: "ご飯のレシピを提案して"},
		{name: "advice question", message: "今日はどれくらい散歩すればいい？"},
		{name: "car marker without planning", message: "移動手段：車 で酔わないコツは？", carTrip: true},
		{name: "half-width colon is not the marker", message: "プランを作って 移動手段:車", planning: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectMode(tc.message, kw)
			if got.Planning != tc.planning || got.CarTrip != tc.carTrip {
				t.Fatalf("DetectMode(%q) = %+v, want planning=%v carTrip=%v", tc.message, got, tc.planning, tc.carTrip)
			}
		})
	}
}

func TestKeywordsWithOverrides(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords().WithOverrides([]string{"plan"}, nil, "")
	if !DetectMode("please make a plan, 作って", kw).Planning {
		t.Fatalf("expected overridden noun to be used")
	}
	if DetectMode("コースを作って", kw).Planning {
		t.Fatalf("expected default nouns to be replaced")
	}
	if kw.CarMarker != "移動手段：車" {
		t.Fatalf("expected default car marker to remain, got %q", kw.CarMarker)
	}
}

func TestRenderProfileUsesCanonicalOrder(t *testing.T) {
	t.Parallel()

	profile := PetProfile{
		"training_status": "お座りできる",
		"unknown_key":     "ignored",
		"dog_name":        "ポチ",
		"age":             float64(3),
		"allergies":       "  ",
		"breed":           nil,
		"car_sickness":    false,
	}
	got := RenderProfile(profile)
	want := "【愛犬の詳細プロファイル】\n- 名前: ポチ\n- 年齢: 3\n- しつけ状況: お座りできる\n"
	if got != want {
		t.Fatalf("unexpected profile block:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderProfileJoinsMultiSelectValues(t *testing.T) {
	t.Parallel()

	profile := PetProfile{
		"dog_name":        "ポチ",
		"personality":     []any{"shy", " calm ", "", float64(2)},
		"medical_history": []string{"皮膚炎", "外耳炎"},
		"allergies":       []any{},
	}
	got := RenderProfile(profile)
	if !strings.Contains(got, "- 性格: shy、calm、2\n") {
		t.Fatalf("expected personality values joined, got:\n%s", got)
	}
	if !strings.Contains(got, "- 持病: 皮膚炎、外耳炎\n") {
		t.Fatalf("expected string slice joined, got:\n%s", got)
	}
	if strings.Contains(got, "アレルギー") {
		t.Fatalf("expected empty list to be skipped, got:\n%s", got)
	}
}

func TestRenderHistoryKeepsLastEightTurns(t *testing.T) {
	t.Parallel()

	req := ChatRequest{Message: "x"}
	for i := 0; i < 10; i++ {
		sender := "user"
		if i%2 == 1 {
			sender = "assistant"
		}
		req.History = append(req.History, ChatTurn{Sender: sender, Content: fmt.Sprintf("turn-%d", i)})
	}

	got := RenderHistory(req.RecentHistory())
	if strings.Contains(got, "turn-0\n") || strings.Contains(got, "turn-1\n") {
		t.Fatalf("expected the two oldest turns to be dropped:\n%s", got)
	}
	if !strings.HasPrefix(got, "【これまでの会話履歴】\nユーザー: turn-2\nAI: turn-3\n") {
		t.Fatalf("unexpected history head:\n%s", got)
	}
	if !strings.HasSuffix(got, "AI: turn-9\n--- 履歴ここまで ---\n\n") {
		t.Fatalf("unexpected history tail:\n%s", got)
	}
	if RenderHistory(nil) != "" {
		t.Fatalf("expected empty history to render nothing")
	}
}

func TestBuildPromptAdviceMode(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	req := ChatRequest{
		Profile: PetProfile{"dog_name": "ハナ"},
		Message: "今日はどれくらい散歩すればいい？",
	}
	prompt := BuildPrompt(req, DetectMode(req.Message, kw), kw)

	if !strings.HasPrefix(prompt, rolePreamble) {
		t.Fatalf("expected role preamble first")
	}
	if !strings.Contains(prompt, "【今回の依頼・今日の気分・要望】\n今日はどれくらい散歩すればいい？\n") {
		t.Fatalf("expected message restatement in prompt:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, adviceInstructions) {
		t.Fatalf("expected advice instructions at the end:\n%s", prompt)
	}
	if strings.Contains(prompt, "parking_info") || strings.Contains(prompt, historyHeader) {
		t.Fatalf("advice prompt must not carry planning or empty history sections:\n%s", prompt)
	}
}

func TestBuildPromptPlanningWithoutCar(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	req := ChatRequest{Message: "半日のお出かけプランを作って。移動手段：電車"}
	prompt := BuildPrompt(req, DetectMode(req.Message, kw), kw)

	if !strings.Contains(prompt, "- 条件:所要時間半日(2-3箇所)\n") {
		t.Fatalf("expected half-day condition:\n%s", prompt)
	}
	if !strings.Contains(prompt, noCarParkingRule) || strings.Contains(prompt, carParkingRule) {
		t.Fatalf("expected the non-car parking rule only:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, groundingRule+PlanSkeleton) {
		t.Fatalf("expected grounding rule and plan skeleton at the end:\n%s", prompt)
	}
}

func TestBuildPromptPlanningByCarPrefersFirstDuration(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	req := ChatRequest{Message: "1日コースを提案して。2時間ごとに休憩。移動手段：車"}
	prompt := BuildPrompt(req, DetectMode(req.Message, kw), kw)

	if !strings.Contains(prompt, "所要時間1日(3-4箇所,食事を含めたフルコース)") {
		t.Fatalf("expected full-day condition:\n%s", prompt)
	}
	if strings.Contains(prompt, "所要時間2時間") {
		t.Fatalf("expected only the first matching duration rule:\n%s", prompt)
	}
	if !strings.Contains(prompt, carParkingRule) || strings.Contains(prompt, noCarParkingRule) {
		t.Fatalf("expected the car parking rule only:\n%s", prompt)
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	req := ChatRequest{
		Profile: PetProfile{"breed": "柴犬", "dog_name": "コロ", "weight": "8kg"},
		Message: "ルートを提案して",
		History: []ChatTurn{{Sender: "user", Content: "こんにちは"}},
	}
	first := BuildPrompt(req, DetectMode(req.Message, kw), kw)
	for i := 0; i < 5; i++ {
		if got := BuildPrompt(req, DetectMode(req.Message, kw), kw); got != first {
			t.Fatalf("expected identical prompt on every call")
		}
	}
}
