package conformance

import (
	"testing"
)

func TestParseSuite(t *testing.T) {
	doc := []byte(`
name: sample
tests:
  - name: prints
    source: println(1)
    expect:
      output: "1\n"
  - name: rejected
    skip: not yet
    source: println(x)
    expect:
      error: T001
      contains: undeclared
`)
	tests, err := ParseSuite(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 2 {
		t.Fatalf("got %d tests", len(tests))
	}
	first, second := tests[0].Test, tests[1].Test
	if !first.Compiles() || first.Expect.Output == nil || *first.Expect.Output != "1\n" {
		t.Errorf("first = %+v", first)
	}
	if skipped, _ := first.IsSkipped(); skipped {
		t.Error("first test reported as skipped")
	}
	if second.Compiles() || second.Expect.Error != "T001" {
		t.Errorf("second = %+v", second)
	}
	if skipped, reason := second.IsSkipped(); !skipped || reason != "not yet" {
		t.Errorf("IsSkipped() = %v, %q", skipped, reason)
	}
	if tests[1].Suite.Name != "sample" {
		t.Errorf("suite name = %q", tests[1].Suite.Name)
	}
}

func TestParseSuiteRejectsEmptySource(t *testing.T) {
	if _, err := ParseSuite([]byte("name: x\ntests:\n  - name: empty\n")); err == nil {
		t.Error("test without source accepted")
	}
}

func TestLoadAllTests(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]bool{}
	names := map[string]bool{}
	for _, lt := range tests {
		files[lt.File] = true
		if names[lt.FullName()] {
			t.Errorf("duplicate test name %s", lt.FullName())
		}
		names[lt.FullName()] = true
	}
	for _, want := range []string{"programs.yaml", "typecheck.yaml"} {
		if !files[want] {
			t.Errorf("suite %s not loaded", want)
		}
	}
}
