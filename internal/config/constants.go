package config

import (
	"path/filepath"
	"strings"
	"unicode"
)

const SourceFileExt = ".kt"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".kt", ".kts"}

// ClassFileExt is the extension of generated units.
const ClassFileExt = ".class"

// Class file format. Version 49 predates stack map frames, so generated
// methods are verified by type inference.
const (
	ClassVersionMajor uint16 = 49
	ClassVersionMinor uint16 = 0
)

// Names of the generated unit's methods.
const (
	EntryMethodName  = "main"
	ScriptMethodName = "runScript"
	LambdaPrefix     = "lambda$"
	DefaultUnitName  = "Main"
)

// Built-in statement and constructor names
const (
	PrintFuncName         = "print"
	PrintlnFuncName       = "println"
	ArrayOfFuncName       = "arrayOf"
	MutableListOfFuncName = "mutableListOf"
)

// Built-in type names
const (
	IntTypeName         = "Int"
	BooleanTypeName     = "Boolean"
	StringTypeName      = "String"
	UnitTypeName        = "Unit"
	AnyTypeName         = "Any"
	ArrayTypeName       = "Array"
	MutableListTypeName = "MutableList"
)

// IsSourceFile reports whether path has a recognized source extension.
func IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// NormalizeSource converts CRLF line endings to LF and strips a single
// trailing newline.
func NormalizeSource(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.TrimSuffix(src, "\n")
}

// UnitName derives the generated class name from a source path: the base
// name without extension, with characters that are not valid in a Java
// identifier replaced by '_'.
func UnitName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return DefaultUnitName
	}
	var sb strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r) && i > 0:
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			sb.WriteRune('_')
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
