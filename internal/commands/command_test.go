package commands

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add 10m take medicine", TypeAdd},
		{"new 08:30 vitamin D", TypeAdd},
		{"delete 2", TypeDelete},
		{"rm 9b2f1c1e-0000-4000-8000-000000000000", TypeDelete},
		{"help", TypeHelp},
		{"?", TypeHelp},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in, now)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAdd(t *testing.T) {
	cmd, err := Parse("add +1h30m  Take   medicine ", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.Text != "Take medicine" {
		t.Fatalf("text = %q", cmd.Add.Text)
	}
	if want := now.Add(90 * time.Minute); !cmd.Add.DueAt.Equal(want) {
		t.Fatalf("due = %s, want %s", cmd.Add.DueAt, want)
	}
}

func TestParseDeleteTargets(t *testing.T) {
	cmd, err := Parse("delete 3", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Delete.Row != 3 || cmd.Delete.ID != "" {
		t.Fatalf("unexpected target: %+v", cmd.Delete)
	}

	cmd, err = Parse("delete rem-1", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Delete.ID != "rem-1" || cmd.Delete.Row != 0 {
		t.Fatalf("unexpected target: %+v", cmd.Delete)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{"add", "add 10m", "add soon take pills", "add -5m pills", "delete", "delete 0", "delete 1 2"} {
		_, err := Parse(in, now)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	var ce *CommandError
	_, err := Parse("  / ", now)
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
	_, err = Parse("/unknown do x", now)
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add 10m write docs", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Text != "write docs" {
				t.Fatalf("unexpected text: %q", a.Text)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("delete 1", now)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
