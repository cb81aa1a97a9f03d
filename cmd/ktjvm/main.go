// Command ktjvm compiles script files to JVM class files.
//
//	ktjvm build <file.kt> [-o dir] [-v]
//	ktjvm run <file.kt> [--interp] [-v]
//	ktjvm check <file.kt>
//	ktjvm ast <file.kt> [--source]
//	ktjvm disasm <file.class>
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/backend"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/codegen"
	"github.com/funvibe/ktjvm/internal/config"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
	"github.com/funvibe/ktjvm/internal/pipeline"
	"github.com/funvibe/ktjvm/internal/prettyprinter"
)

const usage = `Usage: ktjvm <command> [arguments]

Commands:
  build <file>   compile to <Unit>.class   (-o dir, -v)
  run <file>     compile and run on java   (--interp to use the interpreter, -v)
  check <file>   typecheck only
  ast <file>     print the syntax tree      (--source for canonical source)
  disasm <file>  disassemble a class file
`

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// command is one invocation: the source being worked on and where output
// and diagnostics go.
type command struct {
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger

	path    string
	source  string
	cfg     *config.Config
	flags   map[string]bool
	output  string // -o
	verbose bool
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	switch args[0] {
	case "help", "-help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return 0
	}

	c := &command{stdout: stdout, stderr: stderr, flags: make(map[string]bool)}
	c.log = log.New(io.Discard, "", 0)
	if err := c.parseArgs(args[1:]); err != nil {
		fmt.Fprintf(stderr, "ktjvm %s: %v\n", args[0], err)
		return 1
	}

	switch args[0] {
	case "build":
		return c.build()
	case "run":
		return c.runProgram()
	case "check":
		return c.check()
	case "ast":
		return c.ast()
	case "disasm":
		return c.disasm()
	}
	fmt.Fprintf(stderr, "ktjvm: unknown command %q\n\n%s", args[0], usage)
	return 1
}

func (c *command) parseArgs(args []string) error {
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-o":
			if i+1 >= len(args) {
				return fmt.Errorf("-o needs a directory")
			}
			i++
			c.output = args[i]
		case "-v", "--verbose":
			c.verbose = true
		case "--interp", "--source":
			c.flags[arg] = true
		default:
			if len(arg) > 1 && arg[0] == '-' {
				return fmt.Errorf("unknown flag %s", arg)
			}
			if c.path != "" {
				return fmt.Errorf("more than one input file")
			}
			c.path = arg
		}
	}
	if c.path == "" {
		return fmt.Errorf("missing input file")
	}
	return nil
}

// load reads the source file and the ktjvm.yaml next to it.
func (c *command) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	c.source = config.NormalizeSource(string(data))
	if c.cfg, err = config.ForSource(c.path); err != nil {
		return err
	}
	if c.verbose || c.cfg.Verbose {
		c.log.SetOutput(c.stderr)
	}
	if !config.IsSourceFile(c.path) {
		c.log.Printf("warning: %s does not have a %s extension", c.path, config.SourceFileExt)
	}
	return nil
}

// compile runs the front end followed by the given stages. The source and
// configuration must already be loaded.
func (c *command) compile(stages ...pipeline.Processor) (*pipeline.PipelineContext, bool) {
	ctx := pipeline.NewPipelineContext(c.source)
	ctx.FilePath = c.path
	ctx.UnitName = config.UnitName(c.path)

	processors := append([]pipeline.Processor{
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
	}, stages...)
	c.log.Printf("compiling %s as %s", c.path, ctx.UnitName)
	ctx = pipeline.New(processors...).Run(ctx)
	if ctx.Failed() {
		c.report(ctx.Err())
		return ctx, false
	}
	return ctx, true
}

func (c *command) codegen() *codegen.CodegenProcessor {
	return &codegen.CodegenProcessor{
		ClassVersion:   c.cfg.ClassVersion,
		OmitSourceFile: !c.cfg.EmitSourceFile(),
	}
}

func (c *command) report(err error) {
	var f *diagnostics.Formatter
	if file, ok := c.stderr.(*os.File); ok {
		f = diagnostics.NewTerminalFormatter(file, c.source)
	} else {
		f = &diagnostics.Formatter{Source: c.source}
	}
	fmt.Fprintln(c.stderr, f.Format(err))
}

func (c *command) build() int {
	if err := c.load(); err != nil {
		c.report(err)
		return 1
	}
	ctx, ok := c.compile(c.codegen())
	if !ok {
		return 1
	}
	dir := c.output
	if dir == "" {
		dir = c.cfg.OutputDir(c.path)
	}
	path, err := backend.WriteClass(ctx.ClassFile.(*classfile.ClassFile), dir)
	if err != nil {
		c.report(err)
		return 1
	}
	c.log.Printf("wrote %s", path)
	return 0
}

func (c *command) runProgram() int {
	if err := c.load(); err != nil {
		c.report(err)
		return 1
	}
	var stages []pipeline.Processor
	var b backend.Backend
	if c.flags["--interp"] {
		b = backend.NewTreeWalk(c.stdout)
	} else {
		jvm := backend.NewJVM(c.cfg, c.stdout)
		jvm.Log = c.log
		if !jvm.Available() {
			fmt.Fprintf(c.stderr, "ktjvm: %s not found; use --interp to run without a JVM\n", jvm.Java)
			return 1
		}
		stages = append(stages, c.codegen())
		b = jvm
	}
	c.log.Printf("running on %s backend", b.Name())
	stages = append(stages, backend.NewExecutionProcessor(b))
	if _, ok := c.compile(stages...); !ok {
		return 1
	}
	return 0
}

func (c *command) check() int {
	if err := c.load(); err != nil {
		c.report(err)
		return 1
	}
	if _, ok := c.compile(); !ok {
		return 1
	}
	c.log.Printf("%s: ok", c.path)
	return 0
}

func (c *command) ast() int {
	if err := c.load(); err != nil {
		c.report(err)
		return 1
	}
	ctx := pipeline.NewPipelineContext(c.source)
	ctx.FilePath = c.path
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		c.report(ctx.Err())
		return 1
	}
	if c.flags["--source"] {
		fmt.Fprint(c.stdout, prettyprinter.Format(ctx.AstRoot))
	} else {
		fmt.Fprintln(c.stdout, prettyprinter.Tree(ctx.AstRoot))
	}
	return 0
}

func (c *command) disasm() int {
	data, err := os.ReadFile(c.path)
	if err != nil {
		c.report(err)
		return 1
	}
	text, err := classfile.Disassemble(data)
	if err != nil {
		c.report(fmt.Errorf("%s: %w", c.path, err))
		return 1
	}
	fmt.Fprint(c.stdout, text)
	return 0
}
