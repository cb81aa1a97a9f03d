package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/codegen"
	"github.com/funvibe/ktjvm/internal/config"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/pipeline"
	"github.com/funvibe/ktjvm/internal/token"
)

// ErrNoJava is returned when the configured java launcher cannot be found.
var ErrNoJava = errors.New("java launcher not found")

// JVMBackend writes the unit's class file and runs it with a java launcher.
type JVMBackend struct {
	Java     string   // launcher; "java" when empty
	JavaArgs []string // extra JVM options placed before -cp
	// Dir receives the class file. When empty each run uses a fresh
	// directory under os.TempDir that is removed afterwards.
	Dir string

	Out     io.Writer // os.Stdout when nil
	Context context.Context
	Log     *log.Logger // progress messages; silent when nil
}

// NewJVM creates a JVM backend from a project configuration.
func NewJVM(cfg *config.Config, out io.Writer) *JVMBackend {
	return &JVMBackend{Java: cfg.Java, JavaArgs: cfg.JavaArgs, Out: out}
}

func (b *JVMBackend) Name() string { return "jvm" }

// Available reports whether the java launcher can be found.
func (b *JVMBackend) Available() bool {
	_, err := exec.LookPath(b.java())
	return err == nil
}

func (b *JVMBackend) java() string {
	if b.Java == "" {
		return "java"
	}
	return b.Java
}

// Run generates the class if no earlier stage did, writes it and runs it.
// An uncaught exception in the program becomes an R001 diagnostic carrying
// the exception line java printed.
func (b *JVMBackend) Run(ctx *pipeline.PipelineContext) error {
	if ctx.AstRoot == nil {
		return fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return ctx.Errors[0]
	}
	cf, ok := ctx.ClassFile.(*classfile.ClassFile)
	if !ok {
		ctx = (&codegen.CodegenProcessor{}).Process(ctx)
		if ctx.Failed() {
			return ctx.Err()
		}
		cf = ctx.ClassFile.(*classfile.ClassFile)
	}
	java, err := exec.LookPath(b.java())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoJava, b.java())
	}

	runID := uuid.NewString()
	dir := b.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ktjvm-"+runID)
		defer os.RemoveAll(dir)
	}
	if _, err := WriteClass(cf, dir); err != nil {
		return err
	}

	runCtx := b.Context
	if runCtx == nil {
		runCtx = context.Background()
	}
	args := append(append([]string{}, b.JavaArgs...), "-cp", dir, cf.ThisClass)
	if b.Log != nil {
		b.Log.Printf("run %s: %s %s", runID, java, strings.Join(args, " "))
	}
	cmd := exec.CommandContext(runCtx, java, args...)
	cmd.Stdout = b.Out
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("running %s: %w", java, err)
		}
		de := diagnostics.NewError(diagnostics.ErrR001, token.Token{}, uncaughtException(stderr.String(), exitErr))
		de.File = ctx.FilePath
		return de
	}
	return nil
}

// WriteClass serializes cf into dir as <ThisClass>.class and returns the
// path written.
func WriteClass(cf *classfile.ClassFile, dir string) (string, error) {
	data, err := cf.Bytes()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, cf.ThisClass+config.ClassFileExt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing class file: %w", err)
	}
	return path, nil
}

// uncaughtException extracts the exception description from the JVM's
// stderr, for example "java.lang.ArithmeticException: / by zero".
func uncaughtException(stderr string, exitErr *exec.ExitError) string {
	const prefix = "Exception in thread \"main\" "
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return msg
	}
	return exitErr.Error()
}
