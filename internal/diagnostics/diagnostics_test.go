package diagnostics_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

func TestStagesAndSentinels(t *testing.T) {
	tests := []struct {
		code     diagnostics.ErrorCode
		stage    diagnostics.Stage
		sentinel error
	}{
		{diagnostics.ErrL001, diagnostics.StageLexer, diagnostics.ErrTokenization},
		{diagnostics.ErrP004, diagnostics.StageParser, diagnostics.ErrParse},
		{diagnostics.ErrT012, diagnostics.StageTypecheck, diagnostics.ErrIllTyped},
		{diagnostics.ErrG001, diagnostics.StageCodegen, diagnostics.ErrCodeGen},
		{diagnostics.ErrG002, diagnostics.StageCodegen, diagnostics.ErrCodeGen},
		{diagnostics.ErrR001, diagnostics.StageRuntime, diagnostics.ErrRuntime},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := diagnostics.NewError(tt.code, token.Token{}, "boom")
			if err.Stage != tt.stage {
				t.Errorf("stage = %s, want %s", err.Stage, tt.stage)
			}
			wrapped := fmt.Errorf("compiling: %w", err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			de, ok := diagnostics.As(wrapped)
			if !ok || de != err {
				t.Errorf("As did not recover the diagnostic")
			}
			if de.IsInternalFault() != (tt.code == diagnostics.ErrG002) {
				t.Errorf("IsInternalFault() = %v", de.IsInternalFault())
			}
		})
	}
	if _, ok := diagnostics.As(errors.New("plain")); ok {
		t.Error("As accepted a plain error")
	}
}

func TestErrorString(t *testing.T) {
	located := diagnostics.NewErrorf(diagnostics.ErrT001, token.Token{Line: 2, Column: 5}, "undeclared variable '%s'", "x")
	located.File = "a.kt"
	if got, want := located.Error(), "a.kt:2:5: ill-typed program [T001]: undeclared variable 'x'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := diagnostics.NewError(diagnostics.ErrP002, token.Token{}, "unexpected end of input")
	if got, want := bare.Error(), "parse error [P002]: unexpected end of input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	fileOnly := diagnostics.NewError(diagnostics.ErrR001, token.Token{}, "boom")
	fileOnly.File = "b.kt"
	if got, want := fileOnly.Error(), "b.kt: runtime error [R001]: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewExpected(t *testing.T) {
	err := diagnostics.NewExpected(diagnostics.ErrP001, token.Token{Line: 1, Column: 3}, "')'", "'}'")
	if err.Expected != "')'" || err.Received != "'}'" {
		t.Errorf("expected/received = %q/%q", err.Expected, err.Received)
	}
	if err.Message != "expected ')', received '}'" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestFormatter(t *testing.T) {
	source := "val a = 1\nprintln(b)"
	err := diagnostics.NewError(diagnostics.ErrT001, token.Token{Line: 2, Column: 9}, "undeclared variable 'b'")
	err.File = "x.kt"

	plain := (&diagnostics.Formatter{Source: source}).Format(err)
	want := "x.kt:2:9: typecheck[T001]: undeclared variable 'b'\n" +
		"   2 | println(b)\n" +
		"               ^"
	if plain != want {
		t.Errorf("plain format:\n%s\nwant:\n%s", plain, want)
	}

	colored := (&diagnostics.Formatter{Color: true, Source: source}).Format(err)
	if !strings.Contains(colored, "\033[") {
		t.Error("colour requested but no escape codes written")
	}

	other := (&diagnostics.Formatter{}).Format(errors.New("disk full"))
	if other != "error: disk full" {
		t.Errorf("non-diagnostic format = %q", other)
	}
}
