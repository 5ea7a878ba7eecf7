package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDelete Type = "delete"
	TypeHelp   Type = "help"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	When  string
	DueAt time.Time
	Text  string
}

// DeleteArgs targets either a 1-based list row or a reminder id.
type DeleteArgs struct {
	Row int
	ID  string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Delete *DeleteArgs
}

var aliases = map[string]Type{
	"add":    TypeAdd,
	"new":    TypeAdd,
	"delete": TypeDelete,
	"del":    TypeDelete,
	"rm":     TypeDelete,
	"help":   TypeHelp,
	"?":      TypeHelp,
}

// Parse reads one input line. now anchors relative due times.
func Parse(input string, now time.Time) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	typ, ok := aliases[head]
	if !ok {
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
	switch typ {
	case TypeAdd:
		return parseAdd(input, args, now)
	case TypeDelete:
		return parseDelete(input, args)
	default:
		return Command{Type: TypeHelp, Raw: input}, nil
	}
}

func parseAdd(raw string, args []string, now time.Time) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a time and a text"}
	}
	dueAt, err := ParseWhen(args[0], now)
	if err != nil {
		return Command{}, err
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{When: args[0], DueAt: dueAt, Text: text}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "delete requires a row number or reminder id"}
	}
	if row, err := strconv.Atoi(args[0]); err == nil {
		if row <= 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "row numbers start at 1"}
		}
		return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Row: row}}, nil
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{ID: args[0]}}, nil
}
