package backend

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a backend configuration file.
type File struct {
	Backends []FileEntry `yaml:"backends"`
}

// FileEntry describes one backend in a configuration file.
type FileEntry struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind,omitempty"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
}

// Descriptor converts the entry, parsing its timeout.
func (e FileEntry) Descriptor() (Descriptor, error) {
	d := Descriptor{
		Name:    e.Name,
		Kind:    e.Kind,
		Command: e.Command,
		Args:    e.Args,
		Env:     e.Env,
		Dir:     e.Dir,
	}
	if e.Timeout != "" {
		timeout, err := time.ParseDuration(e.Timeout)
		if err != nil {
			return Descriptor{}, fmt.Errorf("backend %s: invalid timeout %q: %w", e.Name, e.Timeout, err)
		}
		d.Timeout = timeout
	}
	return d, nil
}

// Decode reads a YAML backend file and registers every entry into r.
// A duplicate name aborts decoding with ErrDuplicateBackend.
func Decode(r io.Reader, reg *Registry) error {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return fmt.Errorf("decode backends: %w", err)
	}
	for _, entry := range f.Backends {
		d, err := entry.Descriptor()
		if err != nil {
			return err
		}
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a YAML backend file into a new registry.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reg := NewRegistry()
	if err := Decode(f, reg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// DefaultDescriptors returns the backends used when no file is configured:
// the Google Docs reader and the web search server.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "docs", Command: "docs-server"},
		{Name: "search", Command: "search-server"},
	}
}
