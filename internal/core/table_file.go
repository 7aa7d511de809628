package core

// table_file.go loads table definitions from YAML or TOML files so new
// tables can be added without recompiling. The format is picked from the
// file extension.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk shape: one or more tables per file.
type tableFile struct {
	Tables []TableDefinition `yaml:"tables" toml:"tables"`
}

// ParseTableFile decodes table definitions from data. format is "yaml",
// "yml" or "toml".
func ParseTableFile(data []byte, format string) ([]TableDefinition, error) {
	var file tableFile

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported table file format %q", format)
	}

	if len(file.Tables) == 0 {
		return nil, fmt.Errorf("no tables defined")
	}
	return file.Tables, nil
}

// LoadTableFile reads and decodes a single table file.
func LoadTableFile(path string) ([]TableDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := ParseTableFile(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadTablesDir registers every table defined in *.yaml, *.yml and *.toml
// files under dir. Files are processed in name order. Returns the number
// of tables registered.
func LoadTablesDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read tables dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	count := 0
	for _, path := range paths {
		defs, err := LoadTableFile(path)
		if err != nil {
			return count, err
		}
		for _, def := range defs {
			if err := TryRegister(def); err != nil {
				return count, fmt.Errorf("%s: %w", path, err)
			}
			count++
		}
	}
	return count, nil
}
