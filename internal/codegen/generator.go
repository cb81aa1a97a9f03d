// Package codegen translates a typechecked program into a single JVM class.
//
// Top-level statements become the body of a private static runScript
// method, which the public static main entry point calls. Every top-level
// function becomes a public static method and every lambda a private
// synthetic static method whose extra trailing parameters carry the values
// it captured. Function values are java.lang.invoke.MethodHandle instances.
package codegen

import (
	"errors"
	"path/filepath"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/config"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// maxParameterSlots is the JVM limit on the argument slots of a static method.
const maxParameterSlots = 255

// Generator emits one class. A Generator is used once.
type Generator struct {
	// ClassVersion is the major class file version written.
	ClassVersion uint16
	// SourceFile is written as the SourceFile attribute; empty derives it
	// from the program's file name, and "-" omits the attribute.
	SourceFile string

	unit string
	info *analyzer.Info
	cf   *classfile.ClassFile

	fn          *funcContext
	methodNames map[string]string
	lambdas     int
	usesShow    bool
}

// Generate typechecks prog and emits it as the class unitName.
func Generate(prog *ast.Program, unitName string) (*classfile.ClassFile, error) {
	info, err := analyzer.Typecheck(prog)
	if err != nil {
		return nil, err
	}
	return New(unitName, info).Generate(prog)
}

// New returns a generator for a program already checked into info.
func New(unitName string, info *analyzer.Info) *Generator {
	return &Generator{
		ClassVersion: config.ClassVersionMajor,
		unit:         unitName,
		info:         info,
		methodNames:  make(map[string]string),
	}
}

func (g *Generator) Generate(prog *ast.Program) (*classfile.ClassFile, error) {
	if g.cf != nil {
		return nil, diagnostics.NewError(diagnostics.ErrG002, token.Token{}, "generator already used")
	}
	g.cf = classfile.New(g.unit, objectClass, g.ClassVersion)
	g.cf.MinorVersion = config.ClassVersionMinor
	switch {
	case g.SourceFile == "-":
	case g.SourceFile != "":
		g.cf.SourceFile = g.SourceFile
	case prog.File != "":
		g.cf.SourceFile = filepath.Base(prog.File)
	}

	var functions []*ast.FunctionStatement
	var script []ast.Statement
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FunctionStatement); ok {
			functions = append(functions, fn)
			g.methodNames[fn.Name.Value] = methodName(fn.Name.Value)
			continue
		}
		script = append(script, s)
	}

	if err := g.constructor(); err != nil {
		return nil, err
	}
	if err := g.entryPoint(); err != nil {
		return nil, err
	}
	if err := g.scriptMethod(prog, script); err != nil {
		return nil, err
	}
	for _, fn := range functions {
		if err := g.function(fn); err != nil {
			return nil, err
		}
	}
	if g.usesShow {
		if err := g.showMethod(); err != nil {
			return nil, err
		}
	}
	if err := g.cf.Pool.Err(); err != nil {
		return nil, g.classfileError(token.Token{}, err)
	}
	return g.cf, nil
}

// methodName keeps user functions clear of the generated methods' names.
func methodName(name string) string {
	if name == config.EntryMethodName || name == config.ScriptMethodName {
		return name + "$"
	}
	return name
}

func (g *Generator) constructor() error {
	m, err := g.cf.AddMethod(classfile.AccPublic, "<init>", "()V")
	if err != nil {
		return g.classfileError(token.Token{}, err)
	}
	c := m.Code
	c.Load(classfile.RefLocal, 0)
	c.Invoke(classfile.OP_INVOKESPECIAL, objectClass, "<init>", "()V")
	c.Emit(classfile.OP_RETURN)
	return g.finish(c, token.Token{})
}

func (g *Generator) entryPoint() error {
	m, err := g.cf.AddMethod(classfile.AccPublic|classfile.AccStatic, config.EntryMethodName, "([L"+stringClass+";)V")
	if err != nil {
		return g.classfileError(token.Token{}, err)
	}
	c := m.Code
	c.Invoke(classfile.OP_INVOKESTATIC, g.unit, config.ScriptMethodName, "()V")
	c.Emit(classfile.OP_RETURN)
	return g.finish(c, token.Token{})
}

func (g *Generator) scriptMethod(prog *ast.Program, stmts []ast.Statement) error {
	m, err := g.cf.AddMethod(classfile.AccPrivate|classfile.AccStatic, config.ScriptMethodName, "()V")
	if err != nil {
		return g.classfileError(prog.GetToken(), err)
	}
	return g.withFunction(m, typesystem.Unit, nil, func() error {
		return g.statements(stmts)
	}, prog.GetToken())
}

func (g *Generator) function(fn *ast.FunctionStatement) error {
	sig := fn.Signature()
	params := make([]*symbols.Symbol, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = g.info.SymbolOf(p.Name)
	}
	m, err := g.addMethod(classfile.AccPublic|classfile.AccStatic, g.methodNames[fn.Name.Value], sig.Params, sig.Return, fn.Token)
	if err != nil {
		return err
	}
	return g.withFunction(m, sig.Return, params, func() error {
		return g.statements(fn.Body.Statements)
	}, fn.Body.RBraceToken)
}

func (g *Generator) addMethod(flags uint16, name string, params []typesystem.Type, ret typesystem.Type, tok token.Token) (*classfile.Method, error) {
	if len(params) > maxParameterSlots {
		return nil, diagnostics.NewErrorf(diagnostics.ErrG001, tok, "method %s has %d parameters, the limit is %d", name, len(params), maxParameterSlots)
	}
	m, err := g.cf.AddMethod(flags, name, methodDescriptor(params, ret))
	if err != nil {
		return nil, g.classfileError(tok, err)
	}
	return m, nil
}

// withFunction opens a fresh function context for m, binds params to the
// first slots, runs body and closes the method. end is the token reported
// for faults found when the method is closed.
func (g *Generator) withFunction(m *classfile.Method, ret typesystem.Type, params []*symbols.Symbol, body func() error, end token.Token) error {
	outer := g.fn
	g.fn = newFuncContext(m.Code, ret)
	defer func() { g.fn = outer }()

	for _, p := range params {
		if p == nil {
			return diagnostics.NewError(diagnostics.ErrG002, end, "parameter without a symbol")
		}
		if _, err := g.fn.declare(p, end); err != nil {
			return err
		}
	}
	if err := body(); err != nil {
		return err
	}

	c := g.fn.code
	if c.Reachable() {
		if isUnit(ret) {
			c.Emit(classfile.OP_RETURN)
		} else {
			g.throwNew(illegalStateClass, "missing return")
		}
	}
	return g.finish(c, end, g.fn.labels...)
}

func (g *Generator) finish(c *classfile.Code, tok token.Token, labels ...*classfile.Label) error {
	if err := c.Finish(labels...); err != nil {
		return g.classfileError(tok, err)
	}
	return nil
}

// classfileError reports a class file builder failure: a format limit is an
// unsupported program, anything else a fault in the generator.
func (g *Generator) classfileError(tok token.Token, err error) error {
	if errors.Is(err, classfile.ErrLimit) {
		return diagnostics.NewError(diagnostics.ErrG001, tok, err.Error())
	}
	return diagnostics.NewError(diagnostics.ErrG002, tok, err.Error())
}

func (g *Generator) code() *classfile.Code {
	return g.fn.code
}

// throwNew emits `throw new cls(msg)`.
func (g *Generator) throwNew(cls, msg string) {
	c := g.code()
	c.TypeOp(classfile.OP_NEW, cls)
	c.Emit(classfile.OP_DUP)
	c.PushString(msg)
	c.Invoke(classfile.OP_INVOKESPECIAL, cls, "<init>", "(L"+stringClass+";)V")
	c.Emit(classfile.OP_ATHROW)
}

func (g *Generator) typeOf(e ast.Expression) (typesystem.Type, error) {
	t := g.info.TypeOf(e)
	if t == nil {
		return nil, diagnostics.NewErrorf(diagnostics.ErrG002, e.GetToken(), "no type recorded for %T", e)
	}
	return t, nil
}

func (g *Generator) symbolOf(id *ast.Identifier) (*symbols.Symbol, error) {
	sym := g.info.SymbolOf(id)
	if sym == nil {
		return nil, diagnostics.NewErrorf(diagnostics.ErrG002, id.Token, "'%s' was not resolved", id.Value)
	}
	return sym, nil
}
