package model

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestDecodeFoldsLegacyNestedCardData(t *testing.T) {
	raw := `{
		"completedTopics": {"a": {"name": "Kinematics", "progress": 100, "priority": "low", "hardness": "easy"}},
		"tableData": {
			"table1": {"t1": {"Phy": ["b"]}},
			"table2": {"15/10/2026": {"Exam": ["a"]}},
			"targetCards": [
				{"id": "t1", "title": "Boards", "startDate": "2026-10-01", "endDate": "2026-12-01", "data": {"Phy": ["a", "b"]}},
				{"id": "t2", "title": "Mock", "startDate": "2026-10-01", "endDate": "2026-10-31"}
			]
		}
	}`
	var doc DataDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := doc.Placements.Target["t1"]["Phy"]; !slices.Equal(got, []string{"b", "a"}) {
		t.Fatalf("expected merged deduplicated column, got %v", got)
	}
	if _, ok := doc.Placements.Target["t2"]; !ok {
		t.Fatal("expected empty container for card without data")
	}
	if len(doc.Cards) != 2 || doc.Cards[0].Title != "Boards" {
		t.Fatalf("unexpected cards: %#v", doc.Cards)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		t.Fatalf("decode generic: %v", err)
	}
	cards := generic["tableData"].(map[string]any)["targetCards"].([]any)
	if _, nested := cards[0].(map[string]any)["data"]; nested {
		t.Fatal("encoded card must not carry nested data")
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	var doc DataDocument
	if err := json.Unmarshal([]byte(`{}`), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Topics == nil || doc.Placements.Target == nil || doc.Placements.Daily == nil {
		t.Fatalf("expected initialised maps, got %#v", doc)
	}
}

func TestDecodeSettingsFillsDefaults(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"customSubjects": ["Math"]}`))
	if err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if len(s.StudyTypes) != len(DefaultStudyTypes) {
		t.Fatalf("expected default study types, got %d", len(s.StudyTypes))
	}
	if s.Countdown.Title != "Countdown to Goal" {
		t.Fatalf("expected default countdown, got %#v", s.Countdown)
	}
	if cols := s.Columns(KindTarget); !slices.Equal(cols, []string{"Math"}) {
		t.Fatalf("expected custom subjects as target columns, got %v", cols)
	}
	if cols := s.Columns(KindDaily); len(cols) != 4 {
		t.Fatalf("unexpected daily columns: %v", cols)
	}
}

func TestTargetCardValidate(t *testing.T) {
	card := TargetCard{ID: "t1", Title: "Finals", StartDate: "2026-10-01", EndDate: "2026-11-01"}
	if err := card.Validate(); err != nil {
		t.Fatalf("expected valid card: %v", err)
	}
	card.EndDate = "01/11/2026"
	if err := card.Validate(); err == nil || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseDailyKey(t *testing.T) {
	d, err := ParseDailyKey("15/10/2026")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if DailyKey(d) != "15/10/2026" {
		t.Fatalf("round trip mismatch: %s", DailyKey(d))
	}
	if _, err := ParseDailyKey("2026-10-15"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
