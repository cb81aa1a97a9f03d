package codegen_test

import (
	"testing"

	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/codegen"
	"github.com/funvibe/ktjvm/internal/generators"
)

// checkGenerated compiles a generated program, which is always well-typed,
// and requires a class that serializes and decodes.
func checkGenerated(t *testing.T, code string) {
	t.Helper()
	cf, err := codegen.Generate(parse(t, code), "Fuzz")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, code)
	}
	data, err := cf.Bytes()
	if err != nil {
		t.Fatalf("serialize: %v\n%s", err, code)
	}
	if _, err := classfile.Disassemble(data); err != nil {
		t.Fatalf("disassemble: %v\n%s", err, code)
	}
}

func TestGeneratedPrograms(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		checkGenerated(t, generators.New(seed).GenerateProgram())
	}
}

func FuzzCompiler(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{9, 9, 9, 1, 2, 3, 4, 5, 6, 7, 8})
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1000 {
			return
		}
		checkGenerated(t, generators.NewFromData(data).GenerateProgram())
	})
}
