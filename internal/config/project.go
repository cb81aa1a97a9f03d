package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the optional per-directory configuration file.
const ProjectFileName = "ktjvm.yaml"

// Config represents a ktjvm.yaml file. Every field is optional.
type Config struct {
	// Output is the directory generated classes are written to, relative
	// to the config file. Defaults to the source file's directory.
	Output string `yaml:"output,omitempty"`

	// Java is the launcher used by `ktjvm run`. Defaults to "java".
	Java string `yaml:"java,omitempty"`

	// JavaArgs are passed to the launcher before the class path.
	JavaArgs []string `yaml:"java_args,omitempty"`

	// ClassVersion is the class file major version. Only versions without
	// mandatory stack map frames (45 to 49) are accepted.
	ClassVersion uint16 `yaml:"class_version,omitempty"`

	// SourceFile controls the SourceFile attribute. Defaults to true.
	SourceFile *bool `yaml:"source_file,omitempty"`

	// Verbose logs pipeline progress.
	Verbose bool `yaml:"verbose,omitempty"`

	dir string
}

// Default returns the configuration used when no ktjvm.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a ktjvm.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig parses ktjvm.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// ForSource loads the ktjvm.yaml next to a source file, or the defaults
// when there is none.
func ForSource(sourcePath string) (*Config, error) {
	dir := filepath.Dir(sourcePath)
	candidate := filepath.Join(dir, ProjectFileName)
	if _, err := os.Stat(candidate); err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.dir = dir
			return cfg, nil
		}
		return nil, err
	}
	return LoadConfig(candidate)
}

func (c *Config) validate(path string) error {
	if c.ClassVersion != 0 && (c.ClassVersion < 45 || c.ClassVersion > ClassVersionMajor) {
		return fmt.Errorf("%s: class_version %d is not supported (45 to %d)", path, c.ClassVersion, ClassVersionMajor)
	}
	for i, arg := range c.JavaArgs {
		if arg == "" {
			return fmt.Errorf("%s: java_args[%d] is empty", path, i)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Java == "" {
		c.Java = "java"
	}
	if c.ClassVersion == 0 {
		c.ClassVersion = ClassVersionMajor
	}
	if c.SourceFile == nil {
		on := true
		c.SourceFile = &on
	}
}

// OutputDir resolves the output directory for a source file.
func (c *Config) OutputDir(sourcePath string) string {
	switch {
	case c.Output == "":
		return filepath.Dir(sourcePath)
	case filepath.IsAbs(c.Output) || c.dir == "":
		return c.Output
	default:
		return filepath.Join(c.dir, c.Output)
	}
}

// EmitSourceFile reports whether the SourceFile attribute is written.
func (c *Config) EmitSourceFile() bool {
	return c.SourceFile == nil || *c.SourceFile
}
