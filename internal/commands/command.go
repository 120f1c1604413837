package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/studyd/internal/model"
)

type Type string

const (
	TypeAdd       Type = "add"
	TypeEdit      Type = "edit"
	TypeProgress  Type = "progress"
	TypeDelete    Type = "delete"
	TypeMove      Type = "move"
	TypePull      Type = "pull"
	TypeCard      Type = "card"
	TypeTarget    Type = "target"
	TypeRename    Type = "rename"
	TypeNote      Type = "note"
	TypeCountdown Type = "countdown"
	TypeStudyType Type = "type"
	TypeSubjects  Type = "subjects"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeUnbalancedQuote ErrorCode = "unbalanced_quote"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Selected refers to the topic under the dashboard cursor.
const Selected = "selected"

type AddArgs struct {
	Kind      model.ContainerKind
	Container string
	Column    string
	Name      string
	// Link also files the topic under the Target card covering the day,
	// in LinkColumn when set.
	Link       bool
	LinkColumn string
}

type EditArgs struct {
	Topic string
	Patch model.TopicPatch
}

type ProgressArgs struct {
	Topic string
	// Step is +1, -1, or 0 when Value is set.
	Step  int
	Value *int
}

type DeleteArgs struct {
	Topic string
}

type MoveArgs struct {
	Topic string
	To    model.Location
}

type PullArgs struct {
	Topic  string
	Date   string
	Column string
}

type CardArgs struct {
	Delete bool
	Kind   model.ContainerKind
	ID     string
}

type TargetAction string

const (
	TargetAdd    TargetAction = "add"
	TargetEdit   TargetAction = "edit"
	TargetDelete TargetAction = "delete"
)

type TargetArgs struct {
	Action TargetAction
	ID     string
	Title  string
	Start  string
	End    string
}

type RenameArgs struct {
	From string
	To   string
}

type NoteArgs struct {
	Topic string
	Text  string
}

type CountdownArgs struct {
	Title string
	Date  string
	Time  string
}

type StudyTypeAction string

const (
	StudyTypeAdd    StudyTypeAction = "add"
	StudyTypeRename StudyTypeAction = "rename"
	StudyTypeDelete StudyTypeAction = "delete"
)

type StudyTypeArgs struct {
	Action StudyTypeAction
	Key    string
	Name   string
}

// SubjectsArgs replaces the Target columns; Reset restores the defaults.
type SubjectsArgs struct {
	Subjects []string
	Reset    bool
}

type Command struct {
	Type      Type
	Raw       string
	Add       *AddArgs
	Edit      *EditArgs
	Progress  *ProgressArgs
	Delete    *DeleteArgs
	Move      *MoveArgs
	Pull      *PullArgs
	Card      *CardArgs
	Target    *TargetArgs
	Rename    *RenameArgs
	Note      *NoteArgs
	Countdown *CountdownArgs
	StudyType *StudyTypeArgs
	Subjects  *SubjectsArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts, err := tokenize(raw)
	if err != nil {
		return Command{}, err
	}
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeProgress:
		return parseProgress(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypePull:
		return parsePull(input, args)
	case TypeCard:
		return parseCard(input, args)
	case TypeTarget:
		return parseTarget(input, args)
	case TypeRename:
		return parseRename(input, args)
	case TypeNote:
		return parseNote(input, args)
	case TypeCountdown:
		return parseCountdown(input, args)
	case TypeStudyType:
		return parseStudyType(input, args)
	case TypeSubjects:
		return parseSubjects(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// tokenize splits on whitespace; double quotes group words and a backslash
// escapes the next character inside them.
func tokenize(raw string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		started bool
	)
	for _, r := range raw {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, &CommandError{Code: ErrCodeUnbalancedQuote, Message: "missing closing quote"}
	}
	if started {
		out = append(out, cur.String())
	}
	if len(out) == 0 {
		return nil, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	return out, nil
}

func topicRef(args []string, verb string) (string, []string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", nil, invalid("%s requires a topic (id or %q)", verb, Selected)
	}
	return args[0], args[1:], nil
}

func parseKind(raw string) (model.ContainerKind, error) {
	kind, err := model.ParseKind(strings.ToLower(raw))
	if err != nil {
		return "", invalid("unknown card kind %q (use target or daily)", raw)
	}
	return kind, nil
}

// parseAdd: add <kind> <container> <column> <name...> [--link[=<subject>]]
func parseAdd(raw string, args []string) (Command, error) {
	link := false
	linkColumn := ""
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--link" {
			link = true
			continue
		}
		if col, ok := strings.CutPrefix(a, "--link="); ok {
			link = true
			linkColumn = strings.TrimSpace(col)
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) < 4 {
		return Command{}, invalid("add requires kind, card, column and topic name")
	}
	kind, err := parseKind(rest[0])
	if err != nil {
		return Command{}, err
	}
	name := strings.TrimSpace(strings.Join(rest[3:], " "))
	if name == "" {
		return Command{}, invalid("add requires a topic name")
	}
	if link && kind != model.KindDaily {
		return Command{}, invalid("--link only applies to daily cards")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{
		Kind:       kind,
		Container:  rest[1],
		Column:     rest[2],
		Name:       name,
		Link:       link,
		LinkColumn: linkColumn,
	}}, nil
}

// parseEdit: edit <topic> field=value...
func parseEdit(raw string, args []string) (Command, error) {
	topic, rest, err := topicRef(args, "edit")
	if err != nil {
		return Command{}, err
	}
	if len(rest) == 0 {
		return Command{}, invalid("edit requires at least one field=value")
	}
	var patch model.TopicPatch
	for _, pair := range rest {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Command{}, invalid("expected field=value, got %q", pair)
		}
		if err := setField(&patch, strings.ToLower(strings.TrimSpace(field)), value); err != nil {
			return Command{}, err
		}
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Topic: topic, Patch: patch}}, nil
}

func setField(p *model.TopicPatch, field, value string) error {
	switch field {
	case "name":
		if strings.TrimSpace(value) == "" {
			return invalid("name cannot be empty")
		}
		p.Name = model.Ptr(strings.TrimSpace(value))
	case "note":
		p.Note = model.Ptr(value)
	case "timed", "timednote":
		p.TimedNote = model.Ptr(value)
	case "est", "estimate", "estimatedtime":
		p.EstimatedTime = model.Ptr(value)
	case "status", "studystatus":
		p.StudyStatus = model.Ptr(value)
	case "priority":
		pr := model.Priority(strings.ToLower(value))
		if !pr.IsValid() {
			return invalid("priority must be high, medium or low")
		}
		p.Priority = &pr
	case "hardness":
		h := model.Hardness(strings.ToLower(value))
		if !h.IsValid() {
			return invalid("hardness must be easy, medium or hard")
		}
		p.Hardness = &h
	case "progress":
		v, err := strconv.Atoi(value)
		if err != nil || !model.IsProgressStep(v) {
			return invalid("progress must be one of %v", model.ProgressSteps)
		}
		p.Progress = &v
	default:
		return invalid("unknown field %q", field)
	}
	return nil
}

// parseProgress: progress <topic> [next|prev|<step>]
func parseProgress(raw string, args []string) (Command, error) {
	topic, rest, err := topicRef(args, "progress")
	if err != nil {
		return Command{}, err
	}
	out := ProgressArgs{Topic: topic, Step: 1}
	if len(rest) > 0 {
		switch strings.ToLower(rest[0]) {
		case "next", "+":
		case "prev", "-":
			out.Step = -1
		default:
			v, err := strconv.Atoi(strings.TrimSuffix(rest[0], "%"))
			if err != nil || !model.IsProgressStep(v) {
				return Command{}, invalid("progress must be next, prev or one of %v", model.ProgressSteps)
			}
			out.Step = 0
			out.Value = &v
		}
	}
	return Command{Type: TypeProgress, Raw: raw, Progress: &out}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	topic, _, err := topicRef(args, "delete")
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Topic: topic}}, nil
}

// parseMove: move <topic> <kind> <container> <column>
func parseMove(raw string, args []string) (Command, error) {
	topic, rest, err := topicRef(args, "move")
	if err != nil {
		return Command{}, err
	}
	if len(rest) != 3 {
		return Command{}, invalid("move requires kind, card and column")
	}
	kind, err := parseKind(rest[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{
		Topic: topic,
		To:    model.Location{Kind: kind, Container: rest[1], Column: rest[2]},
	}}, nil
}

// parsePull: pull <topic> <date> <column>
func parsePull(raw string, args []string) (Command, error) {
	topic, rest, err := topicRef(args, "pull")
	if err != nil {
		return Command{}, err
	}
	if len(rest) != 2 {
		return Command{}, invalid("pull requires a date and a column")
	}
	return Command{Type: TypePull, Raw: raw, Pull: &PullArgs{Topic: topic, Date: rest[0], Column: rest[1]}}, nil
}

// parseCard: card add|delete <kind> <id>
func parseCard(raw string, args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, invalid("card requires add|delete, kind and id")
	}
	var del bool
	switch strings.ToLower(args[0]) {
	case "add", "new":
	case "delete", "rm":
		del = true
	default:
		return Command{}, invalid("card action must be add or delete")
	}
	kind, err := parseKind(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeCard, Raw: raw, Card: &CardArgs{Delete: del, Kind: kind, ID: args[2]}}, nil
}

// parseTarget: target add <title> <start> <end> | target edit <id> <title>
// <start> <end> | target delete <id>
func parseTarget(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("target requires add, edit or delete")
	}
	action := TargetAction(strings.ToLower(args[0]))
	rest := args[1:]
	switch action {
	case TargetAdd:
		if len(rest) != 3 {
			return Command{}, invalid("target add requires title, start and end dates")
		}
		return Command{Type: TypeTarget, Raw: raw, Target: &TargetArgs{Action: action, Title: rest[0], Start: rest[1], End: rest[2]}}, nil
	case TargetEdit:
		if len(rest) != 4 {
			return Command{}, invalid("target edit requires id, title, start and end dates")
		}
		return Command{Type: TypeTarget, Raw: raw, Target: &TargetArgs{Action: action, ID: rest[0], Title: rest[1], Start: rest[2], End: rest[3]}}, nil
	case TargetDelete:
		if len(rest) != 1 {
			return Command{}, invalid("target delete requires an id")
		}
		return Command{Type: TypeTarget, Raw: raw, Target: &TargetArgs{Action: action, ID: rest[0]}}, nil
	default:
		return Command{}, invalid("target action must be add, edit or delete")
	}
}

func parseRename(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("rename requires the old and new date")
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{From: args[0], To: args[1]}}, nil
}

func parseNote(raw string, args []string) (Command, error) {
	topic, rest, err := topicRef(args, "note")
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeNote, Raw: raw, Note: &NoteArgs{Topic: topic, Text: strings.Join(rest, " ")}}, nil
}

// parseCountdown: countdown <title> <YYYY-MM-DD> [HH:MM]
func parseCountdown(raw string, args []string) (Command, error) {
	if len(args) < 2 || len(args) > 3 {
		return Command{}, invalid("countdown requires a title, a date and an optional time")
	}
	out := CountdownArgs{Title: args[0], Date: args[1], Time: "00:00"}
	if len(args) == 3 {
		out.Time = args[2]
	}
	return Command{Type: TypeCountdown, Raw: raw, Countdown: &out}, nil
}

// parseStudyType: type add <key> <name...> | type rename <key> <name...> |
// type delete <key>
func parseStudyType(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("type requires add, rename or delete and a key")
	}
	action := StudyTypeAction(strings.ToLower(args[0]))
	key := strings.TrimSpace(args[1])
	name := strings.TrimSpace(strings.Join(args[2:], " "))
	if key == "" {
		return Command{}, invalid("type requires a key")
	}
	switch action {
	case StudyTypeAdd, StudyTypeRename:
		if name == "" {
			return Command{}, invalid("type %s requires a name", action)
		}
	case StudyTypeDelete, "rm":
		if name != "" {
			return Command{}, invalid("type delete takes only a key")
		}
		action = StudyTypeDelete
	default:
		return Command{}, invalid("type action must be add, rename or delete")
	}
	return Command{Type: TypeStudyType, Raw: raw, StudyType: &StudyTypeArgs{Action: action, Key: key, Name: name}}, nil
}

// parseSubjects: subjects <a,b,...> | subjects default
func parseSubjects(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("subjects requires a comma-separated list or default")
	}
	if len(args) == 1 && strings.EqualFold(args[0], "default") {
		return Command{Type: TypeSubjects, Raw: raw, Subjects: &SubjectsArgs{Reset: true}}, nil
	}
	var subjects []string
	for _, part := range strings.Split(strings.Join(args, " "), ",") {
		if part = strings.TrimSpace(part); part != "" {
			subjects = append(subjects, part)
		}
	}
	if len(subjects) == 0 {
		return Command{}, invalid("subjects requires at least one name")
	}
	return Command{Type: TypeSubjects, Raw: raw, Subjects: &SubjectsArgs{Subjects: subjects}}, nil
}
