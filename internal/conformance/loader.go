// Package conformance loads the YAML program suites under testdata/conformance
// that the compiler stages are checked against.
package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// TestPath is the suite directory relative to the repository root.
const TestPath = "testdata/conformance"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// FullName is a stable subtest name: file/suite test.
func (lt LoadedTest) FullName() string {
	return lt.File + "/" + lt.Test.Name
}

// FindTestDir walks up from the working directory until it finds TestPath.
func FindTestDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, TestPath)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find %s above the working directory", TestPath)
		}
		dir = parent
	}
}

// LoadAllTests loads every suite in the conformance directory, in file
// name order.
func LoadAllTests() ([]LoadedTest, error) {
	testDir, err := FindTestDir()
	if err != nil {
		return nil, err
	}
	return LoadDir(testDir)
}

// LoadDir loads every .yaml suite under dir.
func LoadDir(testDir string) ([]LoadedTest, error) {
	var paths []string
	err := filepath.Walk(testDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var loaded []LoadedTest
	for _, path := range paths {
		tests, err := loadTestFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		relPath, _ := filepath.Rel(testDir, path)
		for _, test := range tests {
			test.File = relPath
			loaded = append(loaded, test)
		}
	}
	return loaded, nil
}

// loadTestFile parses a single YAML file and returns all test cases
func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSuite(data)
}

// ParseSuite decodes one suite document.
func ParseSuite(data []byte) ([]LoadedTest, error) {
	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	var tests []LoadedTest
	for _, test := range suite.Tests {
		if test.Source == "" {
			return nil, fmt.Errorf("test %q has no source", test.Name)
		}
		tests = append(tests, LoadedTest{Suite: suite, Test: test})
	}
	return tests, nil
}
