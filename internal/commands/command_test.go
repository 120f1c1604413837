package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/studyd/internal/model"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Type
	}{
		{name: "add daily", input: `add daily 01/02/2026 "Morning Session" Organic chemistry`, want: TypeAdd},
		{name: "slash prefix", input: `/progress selected next`, want: TypeProgress},
		{name: "edit", input: `edit selected priority=high "name=Wave optics"`, want: TypeEdit},
		{name: "delete", input: `delete topic_1`, want: TypeDelete},
		{name: "move", input: `move selected target t1 Chem`, want: TypeMove},
		{name: "pull", input: `pull topic_1 02/02/2026 Exam`, want: TypePull},
		{name: "card", input: `card add daily 03/02/2026`, want: TypeCard},
		{name: "target", input: `target add "Block 1" 2026-02-01 2026-02-10`, want: TypeTarget},
		{name: "rename", input: `rename 01/02/2026 04/02/2026`, want: TypeRename},
		{name: "note", input: `note selected see chapter 4`, want: TypeNote},
		{name: "countdown", input: `countdown "Finals" 2026-06-01 09:30`, want: TypeCountdown},
		{name: "study type", input: `type add lab Lab Work`, want: TypeStudyType},
		{name: "subjects", input: `subjects Math, Art`, want: TypeSubjects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if cmd.Type != tt.want {
				t.Fatalf("type = %s, want %s", cmd.Type, tt.want)
			}
		})
	}
}

func TestParseAddKeepsQuotedColumnAndJoinsName(t *testing.T) {
	cmd, err := Parse(`add daily 01/02/2026 "Morning Session" Organic chemistry --link`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := cmd.Add
	if got.Kind != model.KindDaily || got.Container != "01/02/2026" || got.Column != "Morning Session" {
		t.Fatalf("unexpected add args: %+v", got)
	}
	if got.Name != "Organic chemistry" || !got.Link {
		t.Fatalf("unexpected name/link: %q %v", got.Name, got.Link)
	}
}

func TestParseAddLinkSubject(t *testing.T) {
	cmd, err := Parse(`add d today Exam "Past paper 3" --link=Chem`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cmd.Add.Link || cmd.Add.LinkColumn != "Chem" || cmd.Add.Name != "Past paper 3" {
		t.Fatalf("unexpected add args: %+v", cmd.Add)
	}
}

func TestParseAddRejectsLinkOnTargetCard(t *testing.T) {
	_, err := Parse(`add target t1 Phy Optics --link`)
	assertCode(t, err, ErrCodeInvalidArgument)
}

func TestParseEditBuildsPatch(t *testing.T) {
	cmd, err := Parse(`edit selected priority=HIGH hardness=hard progress=40 "note=read \"ch 3\""`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := cmd.Edit.Patch
	if cmd.Edit.Topic != Selected {
		t.Fatalf("topic = %q", cmd.Edit.Topic)
	}
	if p.Priority == nil || *p.Priority != model.PriorityHigh {
		t.Fatalf("priority = %v", p.Priority)
	}
	if p.Hardness == nil || *p.Hardness != model.HardnessHard {
		t.Fatalf("hardness = %v", p.Hardness)
	}
	if p.Progress == nil || *p.Progress != 40 {
		t.Fatalf("progress = %v", p.Progress)
	}
	if p.Note == nil || *p.Note != `read "ch 3"` {
		t.Fatalf("note = %v", p.Note)
	}
	if p.Name != nil {
		t.Fatalf("name should be untouched")
	}
}

func TestParseEditRejectsOffStepProgress(t *testing.T) {
	_, err := Parse(`edit selected progress=50`)
	assertCode(t, err, ErrCodeInvalidArgument)
}

func TestParseProgressForms(t *testing.T) {
	cmd, err := Parse(`progress selected`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Progress.Step != 1 || cmd.Progress.Value != nil {
		t.Fatalf("default should advance: %+v", cmd.Progress)
	}

	cmd, err = Parse(`progress selected prev`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Progress.Step != -1 {
		t.Fatalf("step = %d, want -1", cmd.Progress.Step)
	}

	cmd, err = Parse(`progress selected 80%`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Progress.Value == nil || *cmd.Progress.Value != 80 || cmd.Progress.Step != 0 {
		t.Fatalf("unexpected progress args: %+v", cmd.Progress)
	}
}

func TestParseMoveAndTarget(t *testing.T) {
	cmd, err := Parse(`move topic_1 d 05/02/2026 Exam`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := model.Location{Kind: model.KindDaily, Container: "05/02/2026", Column: "Exam"}
	if cmd.Move.To != want {
		t.Fatalf("to = %+v, want %+v", cmd.Move.To, want)
	}

	cmd, err = Parse(`target edit target_1 "Block 2" 2026-03-01 2026-03-09`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Target.Action != TargetEdit || cmd.Target.ID != "target_1" || cmd.Target.Title != "Block 2" {
		t.Fatalf("unexpected target args: %+v", cmd.Target)
	}
}

func TestParseCountdownDefaultsTime(t *testing.T) {
	cmd, err := Parse(`countdown Finals 2026-06-01`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Countdown.Time != "00:00" {
		t.Fatalf("time = %q", cmd.Countdown.Time)
	}
}

func TestParseStudyTypeAndSubjects(t *testing.T) {
	cmd, err := Parse(`type rename rev "Revision Class 2"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a := cmd.StudyType; a.Action != StudyTypeRename || a.Key != "rev" || a.Name != "Revision Class 2" {
		t.Fatalf("unexpected args: %+v", a)
	}

	cmd, err = Parse(`type rm secret`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.StudyType.Action != StudyTypeDelete {
		t.Fatalf("rm should map to delete, got %s", cmd.StudyType.Action)
	}

	cmd, err = Parse(`subjects Phy, "Organic Chem",Bio,`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"Phy", "Organic Chem", "Bio"}
	if got := cmd.Subjects.Subjects; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("subjects = %q, want %q", got, want)
	}

	cmd, err = Parse(`subjects DEFAULT`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cmd.Subjects.Reset {
		t.Fatalf("expected reset")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  ErrorCode
	}{
		{input: "   ", code: ErrCodeEmptyInput},
		{input: "/", code: ErrCodeEmptyInput},
		{input: "snooze 1 10m", code: ErrCodeUnknownCommand},
		{input: `add daily "01/02/2026`, code: ErrCodeUnbalancedQuote},
		{input: "add weekly x y z", code: ErrCodeInvalidArgument},
		{input: "delete", code: ErrCodeInvalidArgument},
		{input: "card remove daily 01/02/2026", code: ErrCodeInvalidArgument},
		{input: "rename 01/02/2026", code: ErrCodeInvalidArgument},
		{input: "edit selected colour=red", code: ErrCodeInvalidArgument},
		{input: "type add lab", code: ErrCodeInvalidArgument},
		{input: "type delete lab extra", code: ErrCodeInvalidArgument},
		{input: "type swap lab x", code: ErrCodeInvalidArgument},
		{input: "subjects", code: ErrCodeInvalidArgument},
		{input: "subjects , ,", code: ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		assertCode(t, err, tt.code)
	}
}

func TestExecuteDispatch(t *testing.T) {
	var seen []Type
	handlers := Handlers{
		Delete: func(a DeleteArgs) (Result, error) {
			seen = append(seen, TypeDelete)
			if a.Topic != "topic_9" {
				t.Fatalf("topic = %q", a.Topic)
			}
			return Result{Message: "deleted"}, nil
		},
		Rename: func(a RenameArgs) (Result, error) {
			seen = append(seen, TypeRename)
			return Result{Message: a.From + "->" + a.To}, nil
		},
	}

	for _, input := range []string{"delete topic_9", "rename 01/02/2026 02/02/2026"} {
		cmd, err := Parse(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if _, err := Execute(cmd, handlers); err != nil {
			t.Fatalf("execute %q: %v", input, err)
		}
	}
	if len(seen) != 2 || seen[0] != TypeDelete || seen[1] != TypeRename {
		t.Fatalf("unexpected dispatch order: %v", seen)
	}

	cmd, err := Parse("note selected hi")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Execute(cmd, handlers)
	assertCode(t, err, ErrCodeHandlerMissing)

	var gotType StudyTypeArgs
	handlers.StudyType = func(a StudyTypeArgs) (Result, error) {
		gotType = a
		return Result{}, nil
	}
	cmd, err = Parse("type delete camp")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Execute(cmd, handlers); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotType.Action != StudyTypeDelete || gotType.Key != "camp" {
		t.Fatalf("unexpected study type args: %+v", gotType)
	}
}

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError(%s), got %v", code, err)
	}
	if cmdErr.Code != code {
		t.Fatalf("code = %s, want %s", cmdErr.Code, code)
	}
}
