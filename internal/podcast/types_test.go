package podcast

import (
	"encoding/json"
	"testing"
)

func samplePlan() []EpisodePlanEntry {
	return []EpisodePlanEntry{
		{Sequence: 1, Title: "Origins", Focus: "New Orleans roots", KeyPoints: []string{"blues", "ragtime", "brass bands"}},
		{Sequence: 2, Title: "Swing Era", Focus: "Big bands", KeyPoints: []string{"Ellington", "Basie", "dance halls"}},
		{Sequence: 3, Title: "Bebop", Focus: "Small combos", KeyPoints: []string{"Parker", "Gillespie", "Minton's"}},
	}
}

func TestGenerationParamsCloneIsDeep(t *testing.T) {
	outline := SeriesOutline{Title: "History of Jazz", Episodes: samplePlan()}
	params := GenerationParams{Topic: "History of Jazz", IsSeries: true, Plan: samplePlan(), ApprovedOutline: &outline}

	clone := params.Clone()
	clone.Plan[0].KeyPoints[0] = "changed"
	clone.ApprovedOutline.Episodes[1].Title = "changed"

	if params.Plan[0].KeyPoints[0] != "blues" {
		t.Fatalf("clone shared plan key points with original")
	}
	if outline.Episodes[1].Title != "Swing Era" {
		t.Fatalf("clone shared approved outline with original")
	}
}

func TestGenerationParamsNormalized(t *testing.T) {
	got := GenerationParams{Topic: "  Quantum computing "}.Normalized()
	if got.Topic != "Quantum computing" {
		t.Fatalf("topic = %q", got.Topic)
	}
	if got.Depth != DepthStandard || got.Tone != ToneConversational {
		t.Fatalf("unexpected defaults depth=%q tone=%q", got.Depth, got.Tone)
	}
	if got.Style != "explainer" || got.Voice != DefaultVoice {
		t.Fatalf("unexpected defaults style=%q voice=%q", got.Style, got.Voice)
	}

	deep := GenerationParams{Topic: "x", Depth: DepthDeep, Voice: "nova"}.Normalized()
	if deep.Style != "deep-dive" || deep.Voice != "nova" {
		t.Fatalf("unexpected style=%q voice=%q", deep.Style, deep.Voice)
	}
}

func TestGenerationParamsIsSeriesRoundTrip(t *testing.T) {
	for _, isSeries := range []bool{true, false} {
		data, err := json.Marshal(GenerationParams{Topic: "t", IsSeries: isSeries})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded GenerationParams
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded.IsSeries != isSeries {
			t.Fatalf("is_series = %v after round trip, want %v", decoded.IsSeries, isSeries)
		}
	}
}

func TestRenumberAssignsContiguousSequence(t *testing.T) {
	plan := samplePlan()
	plan = append(plan[:1], plan[2:]...)
	Renumber(plan)
	for i, entry := range plan {
		if entry.Sequence != i+1 {
			t.Fatalf("entry %d has sequence %d", i, entry.Sequence)
		}
	}
	if plan[1].Title != "Bebop" {
		t.Fatalf("unexpected order %+v", plan)
	}
}

func TestStageTerminal(t *testing.T) {
	for _, stage := range []Stage{StageDone, StageCancelled, StageFailed} {
		if !stage.Terminal() {
			t.Fatalf("%s should be terminal", stage)
		}
	}
	for _, stage := range []Stage{StageSearching, StageAnalyzing, StageGenerating, StageCreatingAudio, StagePlanning} {
		if stage.Terminal() {
			t.Fatalf("%s should not be terminal", stage)
		}
	}
}

func TestProgressJSONUsesProgressKey(t *testing.T) {
	data, err := json.Marshal(Progress{Stage: StageSearching, Message: "Researching", Fraction: 0.1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["progress"] != 0.1 {
		t.Fatalf("expected progress key, got %s", data)
	}
	if _, ok := raw["episode_number"]; ok {
		t.Fatalf("single-episode progress should omit episode_number: %s", data)
	}
}
