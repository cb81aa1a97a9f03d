package parser_test

import (
	"testing"

	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
)

// FuzzParser feeds arbitrary text to the front end. It must either succeed
// or fail with a lexer or parser diagnostic, never panic.
func FuzzParser(f *testing.F) {
	f.Add("println(\"Hello\")")
	f.Add("var x = 1 + 2\nx += 3")
	f.Add("if (a < b) { println(a) } else if (b) { } else { return }")
	f.Add("fun f(a: Int, g: (Int) -> Int): Array<Int> { return Array(a) { i -> g(i) } }")
	f.Add("val s = \"${ \"${x}\" } $y \\$\"")
	f.Add("for (i in 1..10 step -2) { break }")

	f.Fuzz(func(t *testing.T, input string) {
		if len(input) > 4096 {
			return
		}
		tokens, err := lexer.Tokenize(input)
		if err != nil {
			if _, ok := diagnostics.As(err); !ok {
				t.Fatalf("tokenize returned a non-diagnostic error: %v", err)
			}
			return
		}
		prog, err := parser.ParseProgram(tokens)
		if err != nil {
			de, ok := diagnostics.As(err)
			if !ok {
				t.Fatalf("parse returned a non-diagnostic error: %v", err)
			}
			if de.Stage != diagnostics.StageParser && de.Stage != diagnostics.StageLexer {
				t.Fatalf("parse failed in stage %s: %v", de.Stage, err)
			}
			return
		}
		if prog == nil {
			t.Fatal("nil program without an error")
		}
	})
}
