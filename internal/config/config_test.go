package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeSource(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"a\r\nb\r\n", "a\nb"},
		{"a\nb\n\n", "a\nb\n"},
		{"a", "a"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := NormalizeSource(tc.in); got != tc.want {
			t.Errorf("NormalizeSource(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnitName(t *testing.T) {
	testCases := []struct {
		path, want string
	}{
		{"hello.kt", "hello"},
		{"/tmp/dir/Fib.kt", "Fib"},
		{"my-script.kt", "my_script"},
		{"2fast.kt", "_2fast"},
		{"noext", "noext"},
		{"", "Main"},
	}
	for _, tc := range testCases {
		if got := UnitName(tc.path); got != tc.want {
			t.Errorf("UnitName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
output: build/classes
java: /opt/jdk/bin/java
java_args: ["-Xss4m"]
source_file: false
verbose: true
`), "ktjvm.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output != "build/classes" || cfg.Java != "/opt/jdk/bin/java" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.JavaArgs) != 1 || cfg.JavaArgs[0] != "-Xss4m" {
		t.Errorf("unexpected java_args %v", cfg.JavaArgs)
	}
	if cfg.EmitSourceFile() {
		t.Error("source_file: false should disable the attribute")
	}
	if cfg.ClassVersion != ClassVersionMajor {
		t.Errorf("expected default class version %d, got %d", ClassVersionMajor, cfg.ClassVersion)
	}
	if !cfg.Verbose {
		t.Error("expected verbose")
	}
}

func TestParseConfigErrors(t *testing.T) {
	testCases := []struct {
		name, input, want string
	}{
		{"bad_yaml", "output: [", "parsing"},
		{"new_class_version", "class_version: 52", "not supported"},
		{"old_class_version", "class_version: 30", "not supported"},
		{"empty_java_arg", "java_args: [\"\"]", "java_args[0]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.input), "ktjvm.yaml")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestForSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.kt")

	cfg, err := ForSource(src)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Java != "java" || !cfg.EmitSourceFile() || cfg.OutputDir(src) != dir {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("output: out\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = ForSource(src)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.OutputDir(src), filepath.Join(dir, "out"); got != want {
		t.Errorf("expected output dir %s, got %s", want, got)
	}
}

func TestIsSourceFile(t *testing.T) {
	if !IsSourceFile("a.kt") || !IsSourceFile("dir/b.kts") || IsSourceFile("c.java") {
		t.Error("unexpected source file classification")
	}
}
