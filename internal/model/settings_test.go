package model

import (
	"errors"
	"testing"
)

func TestStudyTypeEditsKeepKeys(t *testing.T) {
	base := DefaultSettings()

	added, err := base.AddStudyType(" lab ", "Lab Work")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(base.StudyTypes) != len(DefaultStudyTypes) {
		t.Fatalf("add mutated the receiver")
	}
	if got := added.StudyTypeName("lab"); got != "Lab Work" {
		t.Fatalf("name = %q", got)
	}
	if _, err := added.AddStudyType("lab", "Other"); !errors.Is(err, ErrStudyTypeExists) {
		t.Fatalf("expected ErrStudyTypeExists, got %v", err)
	}
	if _, err := added.AddStudyType("x", "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	renamed, err := added.RenameStudyType("lab", "Practical")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	last := renamed.StudyTypes[len(renamed.StudyTypes)-1]
	if last.Key != "lab" || last.Name != "Practical" {
		t.Fatalf("rename changed the key or order: %+v", last)
	}
	if added.StudyTypeName("lab") != "Lab Work" {
		t.Fatalf("rename mutated the receiver")
	}

	removed, err := renamed.RemoveStudyType("mqb")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.StudyTypeName("mqb") != "mqb" || len(removed.StudyTypes) != len(renamed.StudyTypes)-1 {
		t.Fatalf("mqb still present: %+v", removed.StudyTypes)
	}
	if _, err := removed.RemoveStudyType("mqb"); !errors.Is(err, ErrStudyTypeMissing) {
		t.Fatalf("expected ErrStudyTypeMissing, got %v", err)
	}
}

func TestRemovingEveryStudyTypeSurvivesEncoding(t *testing.T) {
	s := DefaultSettings()
	for _, st := range DefaultStudyTypes {
		var err error
		if s, err = s.RemoveStudyType(st.Key); err != nil {
			t.Fatalf("remove %s: %v", st.Key, err)
		}
	}
	body, err := EncodeSettings(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeSettings(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.StudyTypes) != 0 {
		t.Fatalf("an emptied list must not fall back to defaults, got %d", len(decoded.StudyTypes))
	}
}

func TestWithSubjects(t *testing.T) {
	s, err := DefaultSettings().WithSubjects([]string{" Math ", "", "Art"})
	if err != nil {
		t.Fatalf("with subjects: %v", err)
	}
	if cols := s.Columns(KindTarget); len(cols) != 2 || cols[0] != "Math" || cols[1] != "Art" {
		t.Fatalf("columns = %v", cols)
	}
	if _, err := s.WithSubjects([]string{"Math", "math"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	reset, err := s.WithSubjects(nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Subjects != nil || len(reset.Columns(KindTarget)) != len(DefaultTargetColumns) {
		t.Fatalf("reset did not restore defaults: %+v", reset.Subjects)
	}
}
