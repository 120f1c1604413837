package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add       func(AddArgs) (Result, error)
	Edit      func(EditArgs) (Result, error)
	Progress  func(ProgressArgs) (Result, error)
	Delete    func(DeleteArgs) (Result, error)
	Move      func(MoveArgs) (Result, error)
	Pull      func(PullArgs) (Result, error)
	Card      func(CardArgs) (Result, error)
	Target    func(TargetArgs) (Result, error)
	Rename    func(RenameArgs) (Result, error)
	Note      func(NoteArgs) (Result, error)
	Countdown func(CountdownArgs) (Result, error)
	StudyType func(StudyTypeArgs) (Result, error)
	Subjects  func(SubjectsArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return run(handlers.Add, cmd.Add, cmd.Type)
	case TypeEdit:
		return run(handlers.Edit, cmd.Edit, cmd.Type)
	case TypeProgress:
		return run(handlers.Progress, cmd.Progress, cmd.Type)
	case TypeDelete:
		return run(handlers.Delete, cmd.Delete, cmd.Type)
	case TypeMove:
		return run(handlers.Move, cmd.Move, cmd.Type)
	case TypePull:
		return run(handlers.Pull, cmd.Pull, cmd.Type)
	case TypeCard:
		return run(handlers.Card, cmd.Card, cmd.Type)
	case TypeTarget:
		return run(handlers.Target, cmd.Target, cmd.Type)
	case TypeRename:
		return run(handlers.Rename, cmd.Rename, cmd.Type)
	case TypeNote:
		return run(handlers.Note, cmd.Note, cmd.Type)
	case TypeCountdown:
		return run(handlers.Countdown, cmd.Countdown, cmd.Type)
	case TypeStudyType:
		return run(handlers.StudyType, cmd.StudyType, cmd.Type)
	case TypeSubjects:
		return run(handlers.Subjects, cmd.Subjects, cmd.Type)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func run[A any](fn func(A) (Result, error), args *A, typ Type) (Result, error) {
	if fn == nil {
		return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", typ)}
	}
	if args == nil {
		return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s command has no arguments", typ)}
	}
	return fn(*args)
}
