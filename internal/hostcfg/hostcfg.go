// Package hostcfg defines the read-only configuration contract the host
// application supplies to the embedded kernel, plus a TOML file-backed
// implementation for hosts that keep their add-in settings on disk.
package hostcfg

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Reader is the host configuration contract: a read-only key lookup
// scoped by section. The boolean reports whether the key was present.
type Reader interface {
	Lookup(section, key string) (string, bool)
}

// Static is a map-backed Reader keyed by "section.key". Used in tests and
// by hosts with in-memory settings.
type Static map[string]string

// Lookup implements Reader.
func (s Static) Lookup(section, key string) (string, bool) {
	v, ok := s[section+"."+key]
	return v, ok
}

// Empty is a Reader with no keys.
var Empty Reader = Static(nil)

// File is a Reader backed by a TOML document of string-valued tables:
//
//	[jupyter]
//	runtime_dir = "runtime"
type File struct {
	sections map[string]map[string]string
}

// LoadFile parses a TOML host configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host config: %w", err)
	}
	return Parse(data)
}

// Parse parses TOML host configuration bytes.
func Parse(data []byte) (*File, error) {
	var raw map[string]map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse host config: %w", err)
	}

	sections := make(map[string]map[string]string, len(raw))
	for section, values := range raw {
		flat := make(map[string]string, len(values))
		for key, value := range values {
			flat[key] = fmt.Sprintf("%v", value)
		}
		sections[section] = flat
	}

	return &File{sections: sections}, nil
}

// Lookup implements Reader.
func (f *File) Lookup(section, key string) (string, bool) {
	values, ok := f.sections[section]
	if !ok {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}
