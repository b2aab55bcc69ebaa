package fetcher

import (
	"errors"
	"fmt"
)

// Stage names the step of a fetch that failed
type Stage int

const (
	StageConnect Stage = iota + 1
	StageLogin
	StageSelect
	StageSearch
	StageFetch
	StageParse
	StageDisconnect
)

var (
	ErrConnect    = errors.New("imap connect failed")
	ErrAuth       = errors.New("imap authentication failed")
	ErrSelect     = errors.New("imap mailbox selection failed")
	ErrSearch     = errors.New("imap search failed")
	ErrFetch      = errors.New("imap fetch failed")
	ErrParse      = errors.New("message parse failed")
	ErrDisconnect = errors.New("imap disconnect failed")
)

func (s Stage) String() string {
	switch s {
	case StageConnect:
		return "connect"
	case StageLogin:
		return "login"
	case StageSelect:
		return "select"
	case StageSearch:
		return "search"
	case StageFetch:
		return "fetch"
	case StageParse:
		return "parse"
	case StageDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) sentinel() error {
	switch s {
	case StageConnect:
		return ErrConnect
	case StageLogin:
		return ErrAuth
	case StageSelect:
		return ErrSelect
	case StageSearch:
		return ErrSearch
	case StageFetch:
		return ErrFetch
	case StageParse:
		return ErrParse
	case StageDisconnect:
		return ErrDisconnect
	default:
		return nil
	}
}

// StageError reports which step of a fetch failed. It matches the stage's sentinel with errors.Is.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage.sentinel(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target != nil && target == e.Stage.sentinel()
}

// ExitCode is the process exit status the command line reports for this failure:
// -1 connect, -2 login, -3 select, -4 fetch, -5 disconnect, and 1 for anything else.
func (e *StageError) ExitCode() int {
	switch e.Stage {
	case StageConnect:
		return -1
	case StageLogin:
		return -2
	case StageSelect:
		return -3
	case StageFetch:
		return -4
	case StageDisconnect:
		return -5
	default:
		return 1
	}
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// ExitCode returns the exit status for err: 0 for nil, the stage code for a StageError, 1 otherwise
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return 1
}
