package domain

import (
	"encoding/json"
	"testing"
)

func TestOptionSetDecodesList(t *testing.T) {
	var q RawQuestion
	if err := json.Unmarshal([]byte(`{"questionText":"Capital of France?","options":["Paris","Rome","Berlin","Madrid"],"correctOptionIndex":0}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"Paris", "Rome", "Berlin", "Madrid"}
	for i, w := range want {
		if q.Options[i] != w {
			t.Fatalf("option %d: expected %q, got %q", i, w, q.Options[i])
		}
	}
	if q.CorrectIndex == nil || *q.CorrectIndex != 0 {
		t.Fatalf("expected explicit correct index 0, got %v", q.CorrectIndex)
	}
}

func TestOptionSetDecodesKeyedMapInKeyOrder(t *testing.T) {
	var opts OptionSet
	if err := json.Unmarshal([]byte(`{"3":"d","1":"b","0":"a","2":"c"}`), &opts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(opts) != OptionsPerQuestion {
		t.Fatalf("expected %d options, got %d", OptionsPerQuestion, len(opts))
	}
	for i, w := range []string{"a", "b", "c", "d"} {
		if opts[i] != w {
			t.Fatalf("option %d: expected %q, got %q", i, w, opts[i])
		}
	}
}

func TestOptionSetLeavesPlaceholdersForMissingKeys(t *testing.T) {
	var opts OptionSet
	if err := json.Unmarshal([]byte(`{"0":"a","2":"c"}`), &opts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if opts[1] != "" || opts[3] != "" {
		t.Fatalf("expected empty placeholders, got %q", []string(opts))
	}
	if opts[2] != "c" {
		t.Fatalf("expected key 2 in position 2, got %q", opts[2])
	}
}

func TestOptionSetRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"too many":     `["a","b","c","d","e"]`,
		"bad key":      `{"x":"a"}`,
		"out of range": `{"4":"a"}`,
		"wrong type":   `42`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var opts OptionSet
			if err := json.Unmarshal([]byte(raw), &opts); err == nil {
				t.Fatalf("expected error for %s", raw)
			}
		})
	}
}

func TestMilestoneQueries(t *testing.T) {
	earned := EarnedMilestones(52)
	if len(earned) != 4 || earned[3].ID != "geo_geek" {
		t.Fatalf("expected four earned ending with geo_geek, got %+v", earned)
	}
	if locked := LockedMilestones(52); len(locked) != 4 {
		t.Fatalf("expected four locked, got %d", len(locked))
	}
	next, ok := NextMilestone(52)
	if !ok || next.ID != "here_to_stay" {
		t.Fatalf("expected here_to_stay next, got %+v ok=%v", next, ok)
	}
	if _, ok := NextMilestone(5000); ok {
		t.Fatalf("expected no next milestone once all are earned")
	}
}

func TestParseWindow(t *testing.T) {
	for raw, want := range map[string]Window{"": WindowAll, "all": WindowAll, "daily": WindowDaily, "weekly": WindowWeekly} {
		got, err := ParseWindow(raw)
		if err != nil || got != want {
			t.Fatalf("ParseWindow(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseWindow("monthly"); err != ErrUnknownWindow {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}
