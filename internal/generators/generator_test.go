package generators_test

import (
	"testing"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/generators"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
)

func TestGeneratedProgramsTypecheck(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		code := generators.New(seed).GenerateProgram()
		tokens, err := lexer.Tokenize(code)
		if err != nil {
			t.Fatalf("seed %d: tokenize: %v\n%s", seed, err, code)
		}
		prog, err := parser.ParseProgram(tokens)
		if err != nil {
			t.Fatalf("seed %d: parse: %v\n%s", seed, err, code)
		}
		if _, err := analyzer.Typecheck(prog); err != nil {
			t.Fatalf("seed %d: typecheck: %v\n%s", seed, err, code)
		}
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	if generators.New(12345).GenerateProgram() != generators.New(12345).GenerateProgram() {
		t.Error("Generator is not deterministic with same seed")
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if generators.NewFromData(data).GenerateProgram() != generators.NewFromData(data).GenerateProgram() {
		t.Error("Generator is not deterministic with same data")
	}
}

func TestExhaustedDataStillTerminates(t *testing.T) {
	code := generators.NewFromData(nil).GenerateProgram()
	if code == "" {
		t.Fatal("Generated code is empty")
	}
	tokens, err := lexer.Tokenize(code)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.ParseProgram(tokens); err != nil {
		t.Errorf("parse: %v\n%s", err, code)
	}
}
