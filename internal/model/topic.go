package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("model: validation failed")
	ErrInvalidPriority = errors.New("model: invalid topic priority")
	ErrInvalidHardness = errors.New("model: invalid topic hardness")
	ErrInvalidProgress = errors.New("model: invalid topic progress")
)

type FieldError struct {
	Field   string
	Message string
}

type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("model: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("model: %d validation errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type Hardness string

const (
	HardnessEasy   Hardness = "easy"
	HardnessMedium Hardness = "medium"
	HardnessHard   Hardness = "hard"
)

func (h Hardness) IsValid() bool {
	switch h {
	case HardnessEasy, HardnessMedium, HardnessHard:
		return true
	default:
		return false
	}
}

// Short returns the single-letter badge shown next to a topic.
func (h Hardness) Short() string {
	switch h {
	case HardnessEasy:
		return "E"
	case HardnessMedium:
		return "M"
	case HardnessHard:
		return "H"
	default:
		return "?"
	}
}

// ProgressSteps is the only sequence of values a topic's progress can take.
var ProgressSteps = []int{0, 20, 40, 60, 80, 100}

const ProgressComplete = 100

func IsProgressStep(p int) bool {
	return progressIndex(p) >= 0
}

// NextProgress returns the step after p, wrapping 100 back to 0.
// A value outside the step set snaps to 0.
func NextProgress(p int) int {
	i := progressIndex(p)
	if i < 0 {
		return ProgressSteps[0]
	}
	return ProgressSteps[(i+1)%len(ProgressSteps)]
}

// PrevProgress is the inverse of NextProgress; 0 wraps to 100.
func PrevProgress(p int) int {
	i := progressIndex(p)
	if i < 0 {
		return ProgressSteps[0]
	}
	return ProgressSteps[(i-1+len(ProgressSteps))%len(ProgressSteps)]
}

func progressIndex(p int) int {
	for i, step := range ProgressSteps {
		if step == p {
			return i
		}
	}
	return -1
}

type Topic struct {
	Name          string   `json:"name"`
	Note          string   `json:"note"`
	TimedNote     string   `json:"timedNote"`
	EstimatedTime string   `json:"estimatedTime,omitempty"`
	Progress      int      `json:"progress"`
	Priority      Priority `json:"priority"`
	Hardness      Hardness `json:"hardness"`
	StudyStatus   string   `json:"studyStatus"`
}

// NewTopic returns a topic carrying the add-topic form defaults.
func NewTopic(name string) Topic {
	return Topic{
		Name:     strings.TrimSpace(name),
		Progress: 0,
		Priority: PriorityLow,
		Hardness: HardnessMedium,
	}
}

func (t Topic) IsComplete() bool {
	return t.Progress == ProgressComplete
}

func (t Topic) Validate() error {
	var errs []FieldError
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "topic name is required"})
	}
	if !IsProgressStep(t.Progress) {
		errs = append(errs, FieldError{Field: "progress", Message: fmt.Sprintf("%d is not a progress step", t.Progress)})
	}
	if !t.Priority.IsValid() {
		errs = append(errs, FieldError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", t.Priority)})
	}
	if !t.Hardness.IsValid() {
		errs = append(errs, FieldError{Field: "hardness", Message: fmt.Sprintf("unknown hardness %q", t.Hardness)})
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// TopicPatch carries the fields of a partial update. Nil fields are left alone.
type TopicPatch struct {
	Name          *string
	Note          *string
	TimedNote     *string
	EstimatedTime *string
	Progress      *int
	Priority      *Priority
	Hardness      *Hardness
	StudyStatus   *string
}

func (p TopicPatch) Apply(t Topic) Topic {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.TimedNote != nil {
		t.TimedNote = *p.TimedNote
	}
	if p.EstimatedTime != nil {
		t.EstimatedTime = *p.EstimatedTime
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Hardness != nil {
		t.Hardness = *p.Hardness
	}
	if p.StudyStatus != nil {
		t.StudyStatus = *p.StudyStatus
	}
	return t
}

func (p TopicPatch) IsEmpty() bool {
	return p.Name == nil && p.Note == nil && p.TimedNote == nil && p.EstimatedTime == nil &&
		p.Progress == nil && p.Priority == nil && p.Hardness == nil && p.StudyStatus == nil
}

func Ptr[T any](v T) *T { return &v }
