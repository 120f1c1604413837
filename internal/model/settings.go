package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var DefaultTargetColumns = []string{"Phy", "Chem", "Bio", "GK", "English"}

var DailyColumns = []string{"Morning Session", "Noon Session", "Night Session", "Exam"}

type StudyType struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

var DefaultStudyTypes = []StudyType{
	{Key: "mqb", Name: "MQB"},
	{Key: "ret", Name: "Retina QB"},
	{Key: "med", Name: "Meditrics"},
	{Key: "camp", Name: "Campus Exam"},
	{Key: "week", Name: "Weekly Exam"},
	{Key: "rev", Name: "Revision Class"},
	{Key: "new", Name: "Lecture"},
	{Key: "secret", Name: "Secret Files"},
}

type CountdownSettings struct {
	Title      string `json:"title"`
	TargetDate string `json:"targetDate"`
	TargetTime string `json:"targetTime"`
}

type Settings struct {
	StudyTypes []StudyType       `json:"customStudyTypes"`
	Countdown  CountdownSettings `json:"countdownSettings"`
	Subjects   []string          `json:"customSubjects,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		StudyTypes: slices.Clone(DefaultStudyTypes),
		Countdown: CountdownSettings{
			Title:      "Countdown to Goal",
			TargetDate: "2025-12-31",
			TargetTime: "00:00",
		},
	}
}

func (s Settings) Clone() Settings {
	out := s
	out.StudyTypes = slices.Clone(s.StudyTypes)
	out.Subjects = slices.Clone(s.Subjects)
	return out
}

// Columns returns the column labels offered for a container kind.
func (s Settings) Columns(kind ContainerKind) []string {
	if kind == KindDaily {
		return slices.Clone(DailyColumns)
	}
	if len(s.Subjects) > 0 {
		return slices.Clone(s.Subjects)
	}
	return slices.Clone(DefaultTargetColumns)
}

// StudyTypeName resolves a study status key; unknown keys are shown as-is.
func (s Settings) StudyTypeName(key string) string {
	for _, st := range s.StudyTypes {
		if st.Key == key {
			return st.Name
		}
	}
	return key
}

var (
	ErrStudyTypeExists  = errors.New("model: study type key already exists")
	ErrStudyTypeMissing = errors.New("model: study type not found")
)

func (s Settings) studyTypeIndex(key string) int {
	return slices.IndexFunc(s.StudyTypes, func(st StudyType) bool { return st.Key == key })
}

// AddStudyType appends a study type. Keys are fixed once added; topics refer
// to them by key.
func (s Settings) AddStudyType(key, name string) (Settings, error) {
	key, name = strings.TrimSpace(key), strings.TrimSpace(name)
	if key == "" {
		return s, NewValidationError("key", "study type key is required")
	}
	if name == "" {
		return s, NewValidationError("name", "study type name is required")
	}
	if s.studyTypeIndex(key) >= 0 {
		return s, fmt.Errorf("%w: %s", ErrStudyTypeExists, key)
	}
	out := s.Clone()
	out.StudyTypes = append(out.StudyTypes, StudyType{Key: key, Name: name})
	return out, nil
}

func (s Settings) RenameStudyType(key, name string) (Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, NewValidationError("name", "study type name is required")
	}
	i := s.studyTypeIndex(key)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrStudyTypeMissing, key)
	}
	out := s.Clone()
	out.StudyTypes[i].Name = name
	return out, nil
}

// RemoveStudyType drops a study type. Topics keep the key and show it raw.
func (s Settings) RemoveStudyType(key string) (Settings, error) {
	i := s.studyTypeIndex(key)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrStudyTypeMissing, key)
	}
	out := s.Clone()
	out.StudyTypes = slices.Delete(out.StudyTypes, i, i+1)
	return out, nil
}

// WithSubjects replaces the Target column labels. An empty list restores
// the defaults.
func (s Settings) WithSubjects(subjects []string) (Settings, error) {
	out := s.Clone()
	out.Subjects = nil
	seen := make(map[string]bool, len(subjects))
	for _, raw := range subjects {
		subject := strings.TrimSpace(raw)
		if subject == "" {
			continue
		}
		if seen[strings.ToLower(subject)] {
			return s, NewValidationError("subjects", fmt.Sprintf("duplicate subject %q", subject))
		}
		seen[strings.ToLower(subject)] = true
		out.Subjects = append(out.Subjects, subject)
	}
	return out, nil
}

// withDefaults fills the sections a stored document left out.
func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.StudyTypes == nil {
		s.StudyTypes = def.StudyTypes
	}
	if s.Countdown == (CountdownSettings{}) {
		s.Countdown = def.Countdown
	}
	return s
}
