package evaluator_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/conformance"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/evaluator"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
	"github.com/funvibe/ktjvm/internal/pipeline"
)

// run interprets input and returns what it printed.
func run(t *testing.T, input string) (string, error) {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	info, err := analyzer.Typecheck(prog)
	if err != nil {
		t.Fatalf("typecheck: %v\ninput: %s", err, input)
	}
	var out bytes.Buffer
	e := evaluator.New(info)
	e.Out = &out
	err = e.Run(prog)
	return out.String(), err
}

func TestOutput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"int_wraps", "val m = 2147483647\nprintln(m + 1)", "-2147483648\n"},
		{"min_div_minus_one", "val m = -2147483648\nprintln(m / -1)\nprintln(m % -1)", "-2147483648\n0\n"},
		{"multiplication_wraps", "println(65536 * 65536)", "0\n"},
		{"remainder_sign", "println(7 % -3)", "1\n"},
		{"string_ordering_utf16", "println(\"～\" < \"😀\")", "false\n"},
		{"string_prefix_order", "println(\"ab\" < \"abc\")", "true\n"},
		{"print_without_newline", "print(1)\nprint(true)\nprint(\"x\")", "1truex"},
		{"range_to_max", "var n = 0\nfor (i in 2147483646..2147483647) {\n    n++\n}\nprintln(n)", "2\n"},
		{"range_step_overshoots_max", "var n = 0\nfor (i in 2147483640..2147483647 step 5) {\n    n++\n}\nprintln(n)", "2\n"},
		{"default_values", "var a: Int\nvar b: Boolean\nvar s: String\nprintln(\"$a $b [$s]\")", "0 false []\n"},
		{"unassigned_list_prints_null", "var l: MutableList<Int>\nprintln(l)", "null\n"},
		{"foreach_sees_updates", "val a = arrayOf(1, 2, 3)\nfor (x in a) {\n    a[2] = 9\n    print(x)\n}\nprintln()", "129\n"},
		{"nested_break", "for (i in 1..3) {\n    for (j in 1..3) {\n        if (j == 2) {\n            break\n        }\n        print(\"$i$j \")\n    }\n}\nprintln()", "11 21 31 \n"},
		{"continue_in_range", "for (i in 1..5) {\n    if (i % 2 == 0) {\n        continue\n    }\n    print(i)\n}\nprintln()", "135\n"},
		{"element_postfix", "val a = arrayOf(5)\nprintln(a[0]++)\nprintln(a[0])\nprintln(--a[0])", "5\n6\n5\n"},
		{"closure_sees_snapshot_of_array_reference", "val a = arrayOf(1)\nval f = { -> a[0] }\na[0] = 7\nprintln(f())", "7\n"},
		{"top_level_return_stops", "println(1)\nreturn\nprintln(2)", "1\n"},
		{"unit_lambda", "fun show(s: String) {\n    println(s)\n}\nval g = { s: String -> show(s) }\ng(\"hi\")", "hi\n"},
		{"boolean_equality", "println(true == false)\nprintln(false != true)", "false\ntrue\n"},
		{"lambda_in_any_list", "val xs: MutableList<Any> = MutableList(3) { i -> \"$i!\" }\nprintln(xs)", "[0!, 1!, 2!]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != tt.expected {
				t.Errorf("output mismatch:\n  got:  %q\n  want: %q", out, tt.expected)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		printed  string
		contains string
		line     int
	}{
		{"division_by_zero", "val z = 0\nprintln(1)\nprintln(5 / z)", "1\n", "/ by zero", 3},
		{"remainder_by_zero", "val z = 0\nprintln(5 % z)", "", "/ by zero", 2},
		{"index_out_of_bounds", "val a = arrayOf(1, 2)\nprintln(a[2])", "", "Index 2 out of bounds for length 2", 2},
		{"index_store_past_end", "val l = mutableListOf(1)\nl[1] = 3", "", "Index 1 out of bounds for length 1", 2},
		{"non_positive_step", "var s = 0\nfor (i in 1..3 step s) {\n    println(i)\n}", "", "Step must be positive", 2},
		{"negative_size", "val n = -1\nval a = Array(n) { i -> i }", "", "Negative size", 2},
		{"deep_recursion", "fun f(n: Int): Int {\n    return f(n + 1)\n}\nprintln(f(0))", "", "stack overflow", 2},
		{"error_inside_lambda", "val d = 0\nval f = { x: Int -> x / d }\nprintln(f(1))", "", "/ by zero", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input)
			if err == nil {
				t.Fatalf("expected a runtime error, got output %q", out)
			}
			if !errors.Is(err, diagnostics.ErrRuntime) {
				t.Errorf("expected a runtime error, got %v", err)
			}
			de, ok := diagnostics.As(err)
			if !ok || de.Code != diagnostics.ErrR001 {
				t.Fatalf("expected R001, got %v", err)
			}
			if !strings.Contains(de.Message, tt.contains) {
				t.Errorf("message %q does not contain %q", de.Message, tt.contains)
			}
			if de.Token.Line != tt.line {
				t.Errorf("error line = %d, want %d", de.Token.Line, tt.line)
			}
			if out != tt.printed {
				t.Errorf("printed %q before failing, want %q", out, tt.printed)
			}
		})
	}
}

func TestStackTraceInMessage(t *testing.T) {
	_, err := run(t, "fun inner(x: Int): Int {\n    return 10 / x\n}\nfun outer(x: Int): Int {\n    return inner(x)\n}\nprintln(outer(0))")
	de, ok := diagnostics.As(err)
	if !ok {
		t.Fatalf("expected a diagnostic, got %v", err)
	}
	inner := strings.Index(de.Message, "at inner")
	outer := strings.Index(de.Message, "at outer")
	if inner < 0 || outer < 0 || inner > outer {
		t.Errorf("expected innermost call first, got %q", de.Message)
	}
}

func TestCancellation(t *testing.T) {
	tokens, _ := lexer.Tokenize("while (true) {\n}")
	prog, err := parser.ParseProgram(tokens)
	if err != nil {
		t.Fatal(err)
	}
	info, err := analyzer.Typecheck(prog)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := evaluator.New(info)
	e.Context = ctx
	if err := e.Run(prog); err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestProcessor(t *testing.T) {
	var out bytes.Buffer
	ctx := pipeline.NewPipelineContext("val x = 6\nprintln(x * 7)")
	ctx.FilePath = "answer.kt"
	p := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
		&evaluator.EvaluatorProcessor{Out: &out},
	)
	result := p.Run(ctx)
	if result.Failed() {
		t.Fatalf("pipeline failed: %v", result.Err())
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	failing := pipeline.NewPipelineContext("val z = 0\nprintln(1 / z)")
	failing.FilePath = "zero.kt"
	result = p.Run(failing)
	if !result.Failed() {
		t.Fatal("expected the pipeline to fail")
	}
	if msg := result.Err().Error(); !strings.HasPrefix(msg, "zero.kt:2:") {
		t.Errorf("error %q is not located in zero.kt line 2", msg)
	}
}

func TestConformancePrograms(t *testing.T) {
	tests, err := conformance.LoadAllTests()
	if err != nil {
		t.Fatalf("loading conformance suites: %v", err)
	}
	for _, lt := range tests {
		lt := lt
		if !lt.Test.Compiles() || lt.Test.Expect.Output == nil {
			continue
		}
		t.Run(lt.FullName(), func(t *testing.T) {
			if skip, reason := lt.Test.IsSkipped(); skip {
				t.Skip(reason)
			}
			out, err := run(t, lt.Test.Source)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != *lt.Test.Expect.Output {
				t.Errorf("output mismatch:\n  got:  %q\n  want: %q", out, *lt.Test.Expect.Output)
			}
		})
	}
}
