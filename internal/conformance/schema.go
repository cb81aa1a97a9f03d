package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase is one program together with what compiling and running it
// must produce.
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Source      string      `yaml:"source"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test. With no Error the
// program must compile; Output, when set, is its exact standard output.
type Expectation struct {
	Error    string  `yaml:"error,omitempty"`    // diagnostic code, e.g. T001
	Contains string  `yaml:"contains,omitempty"` // substring of the error message
	Output   *string `yaml:"output,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}

// Compiles reports whether the program is expected to compile.
func (tc *TestCase) Compiles() bool {
	return tc.Expect.Error == ""
}
