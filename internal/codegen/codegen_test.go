package codegen_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/codegen"
	"github.com/funvibe/ktjvm/internal/conformance"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
	"github.com/funvibe/ktjvm/internal/pipeline"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.ParseProgram(tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func compile(t *testing.T, input string) *classfile.ParsedClass {
	t.Helper()
	cf, err := codegen.Generate(parse(t, input), "Test")
	if err != nil {
		t.Fatalf("generate: %v\ninput: %s", err, input)
	}
	data, err := cf.Bytes()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	pc, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("parse class: %v", err)
	}
	return pc
}

// instructions renders a method body one instruction per element, without
// branch targets when mnemonicsOnly is set.
func instructions(t *testing.T, pc *classfile.ParsedClass, method string, mnemonicsOnly bool) []string {
	t.Helper()
	m := pc.Method(method)
	if m == nil || m.Code == nil {
		t.Fatalf("method %s not found", method)
	}
	ins, err := pc.Instructions(m.Code.Code)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(ins))
	for i, in := range ins {
		if mnemonicsOnly {
			out[i] = in.Op.String()
		} else {
			out[i] = in.String()
		}
	}
	return out
}

func expectOps(t *testing.T, got []string, expected ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(expected, "\n") {
		t.Errorf("unexpected instructions:\n  got:  %s\n  want: %s", strings.Join(got, " "), strings.Join(expected, " "))
	}
}

func contains(ops []string, want string) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func TestUnitLayout(t *testing.T) {
	pc := compile(t, "fun main(): Int {\n    return 1\n}\nprintln(main())")
	if pc.ThisClass != "Test" || pc.SuperClass != "java/lang/Object" {
		t.Errorf("unexpected class %s extends %s", pc.ThisClass, pc.SuperClass)
	}
	if pc.MajorVersion != 49 || pc.MinorVersion != 0 {
		t.Errorf("expected version 49.0, got %d.%d", pc.MajorVersion, pc.MinorVersion)
	}

	var names []string
	for _, m := range pc.Methods {
		names = append(names, m.Name+m.Descriptor)
	}
	expected := []string{"<init>()V", "main([Ljava/lang/String;)V", "runScript()V", "main$()I"}
	if strings.Join(names, " ") != strings.Join(expected, " ") {
		t.Errorf("unexpected methods %v", names)
	}

	entry := pc.Methods[1]
	if entry.AccessFlags != classfile.AccPublic|classfile.AccStatic {
		t.Errorf("unexpected main flags %#x", entry.AccessFlags)
	}
	if pc.Method("runScript").AccessFlags != classfile.AccPrivate|classfile.AccStatic {
		t.Errorf("runScript must be private static")
	}
	expectOps(t, instructions(t, pc, "main", false), "invokestatic Test.runScript:()V", "return")
	expectOps(t, instructions(t, pc, "<init>", false),
		"aload_0", "invokespecial java/lang/Object.<init>:()V", "return")
	expectOps(t, instructions(t, pc, "runScript", false),
		"getstatic java/lang/System.out:Ljava/io/PrintStream;",
		"invokestatic Test.main$:()I",
		"invokevirtual java/io/PrintStream.println:(I)V",
		"return")
}

func TestSourceFileAttribute(t *testing.T) {
	prog := parse(t, "println(1)")
	prog.File = "/tmp/scripts/hello.kt"
	info, err := analyzer.Typecheck(prog)
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		sourceFile string
		want       string
	}{
		{"", "hello.kt"},
		{"Other.kt", "Other.kt"},
		{"-", ""},
	}
	for _, tc := range testCases {
		gen := codegen.New("Hello", info)
		gen.SourceFile = tc.sourceFile
		cf, err := gen.Generate(prog)
		if err != nil {
			t.Fatal(err)
		}
		data, err := cf.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		pc, err := classfile.Parse(data)
		if err != nil {
			t.Fatal(err)
		}
		if pc.SourceFile != tc.want {
			t.Errorf("SourceFile %q: expected attribute %q, got %q", tc.sourceFile, tc.want, pc.SourceFile)
		}
	}
}

func TestExpressionLowering(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"arithmetic",
			"println(1 + 2 * 3)",
			[]string{"getstatic", "iconst_1", "iconst_2", "iconst_3", "imul", "iadd", "invokevirtual", "return"},
		},
		{
			"large_constant",
			"val a = 1000",
			[]string{"ldc", "istore_0", "return"},
		},
		{
			"statement_increments",
			"var x = 5\nx++\nx--\nx += 3",
			[]string{"iconst_5", "istore_0", "iinc", "iinc", "iinc", "return"},
		},
		{
			"prefix_and_postfix",
			"var x = 5\nval a = x++\nval b = ++x",
			[]string{"iconst_5", "istore_0", "iload_0", "iinc", "istore_1", "iinc", "iload_0", "istore_2", "return"},
		},
		{
			"compound_assign",
			"var x = 5\nx *= 2",
			[]string{"iconst_5", "istore_0", "iload_0", "iconst_2", "imul", "istore_0", "return"},
		},
		{
			"if_comparison",
			"val a = 1\nif (a < 2) {\n    println(a)\n}",
			[]string{"iconst_1", "istore_0", "iload_0", "iconst_2", "if_icmpge", "getstatic", "iload_0", "invokevirtual", "return"},
		},
		{
			"compare_with_zero",
			"val a = 1\nif (a == 0) {\n    println(a)\n}",
			[]string{"iconst_1", "istore_0", "iload_0", "ifne", "getstatic", "iload_0", "invokevirtual", "return"},
		},
		{
			"materialized_comparison",
			"val b = 1 < 2",
			[]string{"iconst_1", "iconst_2", "if_icmplt", "iconst_0", "goto", "iconst_1", "istore_0", "return"},
		},
		{
			"not",
			"val b = true\nval c = !b",
			[]string{"iconst_1", "istore_0", "iload_0", "iconst_1", "ixor", "istore_1", "return"},
		},
		{
			"short_circuit",
			"val a = true\nval b = false\nif (a && b) {\n    println(1)\n}",
			[]string{"iconst_1", "istore_0", "iconst_0", "istore_1", "iload_0", "ifeq", "iload_1", "ifeq", "getstatic", "iconst_1", "invokevirtual", "return"},
		},
		{
			"default_values",
			"var a: Int\nvar s: String\nvar l: MutableList<Int>\na = 1",
			[]string{"iconst_0", "istore_0", "ldc", "astore_1", "aconst_null", "astore_2", "iconst_1", "istore_0", "return"},
		},
		{
			"array_literal",
			"val a = arrayOf(1, 2)\nprintln(a[1])",
			[]string{"iconst_2", "newarray", "dup", "iconst_0", "iconst_1", "iastore", "dup", "iconst_1", "iconst_2", "iastore", "astore_0",
				"getstatic", "aload_0", "iconst_1", "iaload", "invokevirtual", "return"},
		},
		{
			"array_element_increment",
			"val a = arrayOf(1)\nval b = a[0]++",
			[]string{"iconst_1", "newarray", "dup", "iconst_0", "iconst_1", "iastore", "astore_0",
				"aload_0", "iconst_0", "dup2", "iaload", "dup_x2", "iconst_1", "iadd", "iastore", "istore_1", "return"},
		},
		{
			"dead_code",
			"println(1)\nreturn\nprintln(2)",
			[]string{"getstatic", "iconst_1", "invokevirtual", "return"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pc := compile(t, tc.input)
			expectOps(t, instructions(t, pc, "runScript", true), tc.expected...)
		})
	}
}

func TestIncrementOperands(t *testing.T) {
	pc := compile(t, "var x = 5\nx++\nx -= 2\nx += 40000")
	expectOps(t, instructions(t, pc, "runScript", false),
		"iconst_5", "istore_0", "iinc 0 1", "iinc 0 -2",
		"iload_0", "ldc 40000", "iadd", "istore_0", "return")
}

func TestStringOperations(t *testing.T) {
	pc := compile(t, "val s = \"b\"\nval n = 3\nprintln(\"s=$s, n=${n + 1}!\")\nprintln(s == \"b\")\nprintln(s < \"c\")")
	ops := instructions(t, pc, "runScript", false)
	for _, want := range []string{
		"new java/lang/StringBuilder",
		`ldc "s="`,
		"invokevirtual java/lang/StringBuilder.append:(Ljava/lang/String;)Ljava/lang/StringBuilder;",
		`ldc ", n="`,
		"invokevirtual java/lang/StringBuilder.append:(I)Ljava/lang/StringBuilder;",
		`ldc "!"`,
		"invokevirtual java/lang/StringBuilder.toString:()Ljava/lang/String;",
		"invokevirtual java/lang/String.equals:(Ljava/lang/Object;)Z",
		"invokevirtual java/lang/String.compareTo:(Ljava/lang/String;)I",
	} {
		if !contains(ops, want) {
			t.Errorf("missing %q in:\n%s", want, strings.Join(ops, "\n"))
		}
	}
}

func TestPrintOverloads(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"println(1)", "invokevirtual java/io/PrintStream.println:(I)V"},
		{"print(true)", "invokevirtual java/io/PrintStream.print:(Z)V"},
		{"println(\"x\")", "invokevirtual java/io/PrintStream.println:(Ljava/lang/String;)V"},
		{"println()", "invokevirtual java/io/PrintStream.println:()V"},
		{"println(mutableListOf(1))", "invokevirtual java/io/PrintStream.println:(Ljava/lang/Object;)V"},
		{"val a: Any = 1\nprintln(a)", "invokestatic Test.show$:(Ljava/lang/Object;)Ljava/lang/String;"},
		{"val a: Any = arrayOf(1, 2)\nprintln(a)", "invokevirtual java/io/PrintStream.println:(Ljava/lang/String;)V"},
		{"println(arrayOf(true))", "invokestatic java/util/Arrays.toString:([Z)Ljava/lang/String;"},
		{"println(arrayOf(\"a\"))", "invokestatic java/util/Arrays.toString:([Ljava/lang/Object;)Ljava/lang/String;"},
	}
	for _, tc := range testCases {
		ops := instructions(t, compile(t, tc.input), "runScript", false)
		if !contains(ops, tc.want) {
			t.Errorf("%q: missing %q in:\n%s", tc.input, tc.want, strings.Join(ops, "\n"))
		}
	}
}

// Values whose static type involves Any may hold arrays at run time, so
// their string form is built by the show$ helper instead of Object.toString.
func TestAnyValuesPrintThroughShow(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		show  bool
	}{
		{"any_holding_array", "val a: Any = arrayOf(1, 2)\nprintln(a)", true},
		{"array_of_any", "val a: Array<Any> = arrayOf(1, \"x\")\na[0] = arrayOf(true)\nprintln(a)", true},
		{"list_of_any", "val l: MutableList<Any> = mutableListOf(1)\nprint(l)", true},
		{"interpolated_any", "val a: Any = arrayOf(1)\nprintln(\"a=$a\")", true},
		{"int_array", "println(arrayOf(1, 2))", false},
		{"int_list", "println(mutableListOf(1))", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pc := compile(t, tc.input)
			ops := instructions(t, pc, "runScript", false)
			call := "invokestatic Test.show$:(Ljava/lang/Object;)Ljava/lang/String;"
			if contains(ops, call) != tc.show {
				t.Errorf("show$ call present = %v, want %v:\n%s", !tc.show, tc.show, strings.Join(ops, "\n"))
			}
			if (pc.Method("show$") != nil) != tc.show {
				t.Errorf("show$ method present = %v, want %v", !tc.show, tc.show)
			}
		})
	}

	pc := compile(t, "val a: Any = arrayOf(1, 2)\nprintln(a)")
	show := pc.Method("show$")
	if show.Descriptor != "(Ljava/lang/Object;)Ljava/lang/String;" ||
		show.AccessFlags != classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic {
		t.Errorf("unexpected show$ %s flags %#x", show.Descriptor, show.AccessFlags)
	}
	ops := instructions(t, pc, "show$", false)
	for _, want := range []string{
		"instanceof [I",
		"invokestatic java/util/Arrays.toString:([I)Ljava/lang/String;",
		"instanceof [Z",
		"invokeinterface java/util/List.toArray:()[Ljava/lang/Object;",
		"instanceof [Ljava/lang/Object;",
		"invokestatic Test.show$:(Ljava/lang/Object;)Ljava/lang/String;",
		"invokestatic java/lang/String.valueOf:(Ljava/lang/Object;)Ljava/lang/String;",
	} {
		if !contains(ops, want) {
			t.Errorf("show$ lacks %q:\n%s", want, strings.Join(ops, "\n"))
		}
	}
}

func TestMutableList(t *testing.T) {
	pc := compile(t, "val l = mutableListOf(1)\nl[0] = 2\nl[0] += 3\nprintln(l[0])")
	ops := instructions(t, pc, "runScript", false)
	for _, want := range []string{
		"new java/util/ArrayList",
		"invokespecial java/util/ArrayList.<init>:(I)V",
		"invokestatic java/lang/Integer.valueOf:(I)Ljava/lang/Integer;",
		"invokeinterface java/util/List.add:(Ljava/lang/Object;)Z",
		"invokeinterface java/util/List.set:(ILjava/lang/Object;)Ljava/lang/Object;",
		"invokeinterface java/util/List.get:(I)Ljava/lang/Object;",
		"checkcast java/lang/Integer",
		"invokevirtual java/lang/Integer.intValue:()I",
	} {
		if !contains(ops, want) {
			t.Errorf("missing %q in:\n%s", want, strings.Join(ops, "\n"))
		}
	}
}

func TestFunctions(t *testing.T) {
	pc := compile(t, "fun add(a: Int, b: Int): Int {\n    return a + b\n}\nfun greet(name: String) {\n    println(name)\n}\ngreet(\"x\")\nval s = add(1, 2)")
	add := pc.Method("add")
	if add.Descriptor != "(II)I" || add.AccessFlags != classfile.AccPublic|classfile.AccStatic {
		t.Errorf("unexpected add %s flags %#x", add.Descriptor, add.AccessFlags)
	}
	expectOps(t, instructions(t, pc, "add", true), "iload_0", "iload_1", "iadd", "ireturn")
	if add.Code.MaxLocals != 2 || add.Code.MaxStack != 2 {
		t.Errorf("expected stack=2 locals=2, got stack=%d locals=%d", add.Code.MaxStack, add.Code.MaxLocals)
	}
	if d := pc.Method("greet").Descriptor; d != "(Ljava/lang/String;)V" {
		t.Errorf("unexpected greet descriptor %s", d)
	}
	expectOps(t, instructions(t, pc, "runScript", false),
		`ldc "x"`, "invokestatic Test.greet:(Ljava/lang/String;)V",
		"iconst_1", "iconst_2", "invokestatic Test.add:(II)I", "istore_0", "return")
}

func TestLambdas(t *testing.T) {
	pc := compile(t, "fun show(s: String) {\n    println(s)\n}\nval base = 10\nval f = { x: Int -> x + base }\nval g = { s: String -> show(s) }\nprintln(f(2))")

	l0 := pc.Method("lambda$0")
	if l0 == nil {
		t.Fatal("lambda$0 not emitted")
	}
	if l0.Descriptor != "(II)I" {
		t.Errorf("expected capture appended to the parameters, got %s", l0.Descriptor)
	}
	if l0.AccessFlags != classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic {
		t.Errorf("unexpected lambda flags %#x", l0.AccessFlags)
	}
	expectOps(t, instructions(t, pc, "lambda$0", true), "iload_0", "iload_1", "iadd", "ireturn")

	l1 := pc.Method("lambda$1")
	if l1 == nil || l1.Descriptor != "(Ljava/lang/String;)V" {
		t.Fatalf("unexpected lambda$1 %+v", l1)
	}

	ops := instructions(t, pc, "runScript", false)
	for _, want := range []string{
		"invokestatic java/lang/invoke/MethodHandles.lookup:()Ljava/lang/invoke/MethodHandles$Lookup;",
		"ldc Test",
		`ldc "lambda$0"`,
		`ldc "(II)I"`,
		"invokevirtual java/lang/invoke/MethodHandles$Lookup.findStatic:(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;",
		"invokestatic java/lang/invoke/MethodHandles.insertArguments:(Ljava/lang/invoke/MethodHandle;I[Ljava/lang/Object;)Ljava/lang/invoke/MethodHandle;",
		"invokevirtual java/lang/invoke/MethodHandle.invokeWithArguments:([Ljava/lang/Object;)Ljava/lang/Object;",
	} {
		if !contains(ops, want) {
			t.Errorf("missing %q in:\n%s", want, strings.Join(ops, "\n"))
		}
	}
}

func TestLoops(t *testing.T) {
	pc := compile(t, "for (i in 1..3) {\n    println(i)\n}")
	expectOps(t, instructions(t, pc, "runScript", false),
		"iconst_1", "istore_0", "iconst_3", "istore_1",
		"iload_0", "iload_1", "if_icmpgt 27",
		"getstatic java/lang/System.out:Ljava/io/PrintStream;", "iload_0", "invokevirtual java/io/PrintStream.println:(I)V",
		"iload_0", "iload_1", "if_icmpeq 27", "iinc 0 1", "goto 4",
		"return")

	pc = compile(t, "var s = 2\nfor (i in 1..10 step s) {\n    if (i > 5) {\n        break\n    }\n}")
	ops := instructions(t, pc, "runScript", false)
	for _, want := range []string{"new java/lang/IllegalArgumentException", "i2l", "ladd", "lcmp", "athrow"} {
		if !contains(ops, want) {
			t.Errorf("missing %q in:\n%s", want, strings.Join(ops, "\n"))
		}
	}

	pc = compile(t, "val a = arrayOf(1, 2)\nfor (x in a) {\n    println(x)\n}\nval l = mutableListOf(\"a\")\nfor (s in l) {\n    println(s)\n}")
	ops = instructions(t, pc, "runScript", false)
	for _, want := range []string{"arraylength", "invokeinterface java/util/List.size:()I", "checkcast java/lang/String"} {
		if !contains(ops, want) {
			t.Errorf("missing %q in:\n%s", want, strings.Join(ops, "\n"))
		}
	}
}

func TestSizedConstructorIsInlined(t *testing.T) {
	pc := compile(t, "val a = Array(3) { i -> i * i }")
	for _, m := range pc.Methods {
		if strings.HasPrefix(m.Name, "lambda$") {
			t.Errorf("generator emitted as method %s", m.Name)
		}
	}
	ops := instructions(t, pc, "runScript", true)
	if !contains(ops, "newarray") || !contains(ops, "iastore") || !contains(ops, "if_icmpge") {
		t.Errorf("unexpected instructions %v", ops)
	}
}

func TestUnsupportedParameterCount(t *testing.T) {
	params := make([]string, 256)
	for i := range params {
		params[i] = fmt.Sprintf("p%d: Int", i)
	}
	input := fmt.Sprintf("fun wide(%s) {\n}", strings.Join(params, ", "))
	_, err := codegen.Generate(parse(t, input), "Test")
	de, ok := diagnostics.As(err)
	if !ok || de.Code != diagnostics.ErrG001 {
		t.Fatalf("expected G001, got %v", err)
	}
	if !errors.Is(err, diagnostics.ErrCodeGen) {
		t.Errorf("expected a code generation error, got %v", err)
	}
}

func TestInternalFaultOnMissingTypes(t *testing.T) {
	prog := parse(t, "println(1 + 2)")
	_, err := codegen.New("Test", &analyzer.Info{}).Generate(prog)
	de, ok := diagnostics.As(err)
	if !ok || de.Code != diagnostics.ErrG002 {
		t.Fatalf("expected G002, got %v", err)
	}
	if !de.IsInternalFault() {
		t.Error("G002 must be an internal fault")
	}
}

func TestIllTypedProgramIsRejected(t *testing.T) {
	_, err := codegen.Generate(parse(t, "val a = 1 + true"), "Test")
	if !errors.Is(err, diagnostics.ErrIllTyped) {
		t.Fatalf("expected an ill-typed program error, got %v", err)
	}
}

func TestGeneratorIsSingleUse(t *testing.T) {
	prog := parse(t, "println(1)")
	info, err := analyzer.Typecheck(prog)
	if err != nil {
		t.Fatal(err)
	}
	gen := codegen.New("Test", info)
	if _, err := gen.Generate(prog); err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Generate(prog); err == nil {
		t.Error("expected an error on reuse")
	}
}

func TestProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext("println(1)")
	ctx.FilePath = "dir/hello-world.kt"
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
		&codegen.CodegenProcessor{},
	).Run(ctx)
	if ctx.Failed() {
		t.Fatal(ctx.Err())
	}
	cf, ok := ctx.ClassFile.(*classfile.ClassFile)
	if !ok {
		t.Fatalf("expected a class file, got %T", ctx.ClassFile)
	}
	if cf.ThisClass != "hello_world" || cf.SourceFile != "hello-world.kt" {
		t.Errorf("unexpected unit %s from %s", cf.ThisClass, cf.SourceFile)
	}
}

// Every conformance program that typechecks must also produce a class that
// serializes and reads back.
func TestConformancePrograms(t *testing.T) {
	tests, err := conformance.LoadAllTests()
	if err != nil {
		t.Fatalf("loading conformance suites: %v", err)
	}
	for _, lt := range tests {
		lt := lt
		if !lt.Test.Compiles() {
			continue
		}
		t.Run(lt.FullName(), func(t *testing.T) {
			if skip, reason := lt.Test.IsSkipped(); skip {
				t.Skip(reason)
			}
			pc := compile(t, lt.Test.Source)
			for _, m := range pc.Methods {
				if m.Code == nil || len(m.Code.Code) == 0 {
					t.Errorf("method %s has no code", m.Name)
				}
				if _, err := pc.Instructions(m.Code.Code); err != nil {
					t.Errorf("method %s: %v", m.Name, err)
				}
			}
		})
	}
}
