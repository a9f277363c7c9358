// Package manifest reads the YAML files that describe a compilation: the
// pools, the functions compiled against them and optional initial values
// for the pool variables.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/parser"
)

// Manifest is a decoded manifest file.
type Manifest struct {
	Pools     []Pool             `yaml:"pools"`
	Functions []Function         `yaml:"functions"`
	Values    map[string]float64 `yaml:"values,omitempty"`

	// BaseDir resolves relative function files.
	BaseDir string `yaml:"-"`
}

// Pool declares a named group of host variables.
type Pool struct {
	Name string   `yaml:"name"`
	Vars []string `yaml:"vars,omitempty"`
}

// Function is one EEL function. Its body comes from Source or from File,
// never both.
type Function struct {
	Name   string `yaml:"name"`
	Pool   string `yaml:"pool"`
	Source string `yaml:"source,omitempty"`
	File   string `yaml:"file,omitempty"`

	loaded string
}

// Body returns the function's EEL text.
func (f Function) Body() string {
	if f.File != "" {
		return f.loaded
	}
	return f.Source
}

// Value is an initial value for one pool variable.
type Value struct {
	Pool  string
	Name  string
	Value float64
}

// Load reads and validates the manifest at path. Function files are
// resolved relative to the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	m, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected. Every
// problem found is reported, combined into a single error.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	m := &Manifest{BaseDir: baseDir}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode manifest")
	}

	var result *multierror.Error
	for i := range m.Functions {
		fn := &m.Functions[i]
		if fn.File == "" {
			continue
		}
		text, err := os.ReadFile(m.path(fn.File))
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "function %q", fn.Name))
			continue
		}
		fn.loaded = string(text)
	}
	if err := m.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) path(file string) string {
	if filepath.IsAbs(file) || m.BaseDir == "" {
		return file
	}
	return filepath.Join(m.BaseDir, file)
}

// Validate checks names and cross references and returns every problem it
// finds.
func (m *Manifest) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	pools := make(map[string]map[string]bool, len(m.Pools))
	for i, pool := range m.Pools {
		switch {
		case pool.Name == "":
			add("pool #%d has no name", i+1)
			continue
		case pool.Name == compiler.ShimModule:
			add("pool name %q is reserved", pool.Name)
		case strings.Contains(pool.Name, "."):
			add("pool name %q must not contain '.'", pool.Name)
		}
		if _, dup := pools[pool.Name]; dup {
			add("pool %q is declared more than once", pool.Name)
			continue
		}
		vars := make(map[string]bool, len(pool.Vars))
		for _, v := range pool.Vars {
			key := parser.Normalize(v)
			switch {
			case !parser.IsIdentifier(v):
				add("pool %q: %q is not a valid variable name", pool.Name, v)
			case parser.IsBufferName(key):
				add("pool %q: %q names a buffer", pool.Name, v)
			case vars[key]:
				add("pool %q: variable %q is declared more than once", pool.Name, v)
			}
			vars[key] = true
		}
		pools[pool.Name] = vars
	}

	funcs := make(map[string]bool, len(m.Functions))
	for i, fn := range m.Functions {
		name := fn.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			add("function #%d has no name", i+1)
		} else if funcs[name] {
			add("function %q is declared more than once", name)
		}
		funcs[name] = true
		if _, ok := pools[fn.Pool]; !ok {
			add("function %q uses undeclared pool %q", name, fn.Pool)
		}
		switch {
		case fn.Source != "" && fn.File != "":
			add("function %q sets both source and file", name)
		case fn.Source == "" && fn.File == "":
			add("function %q has neither source nor file", name)
		}
	}

	keys := make([]string, 0, len(m.Values))
	for key := range m.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pool, name, ok := strings.Cut(key, ".")
		if !ok {
			add("value %q is not of the form pool.variable", key)
			continue
		}
		vars, ok := pools[pool]
		if !ok {
			add("value %q refers to undeclared pool %q", key, pool)
			continue
		}
		if !vars[parser.Normalize(name)] {
			add("value %q refers to unknown variable %q of pool %q", key, name, pool)
		}
	}

	return result.ErrorOrNil()
}

// CompileOptions converts the manifest into compiler input.
func (m *Manifest) CompileOptions() compiler.Options {
	opts := compiler.Options{
		Pools:     make([]compiler.Pool, len(m.Pools)),
		Functions: make([]compiler.Function, len(m.Functions)),
	}
	for i, pool := range m.Pools {
		opts.Pools[i] = compiler.Pool{Name: pool.Name, Vars: pool.Vars}
	}
	for i, fn := range m.Functions {
		opts.Functions[i] = compiler.Function{Name: fn.Name, Pool: fn.Pool, Source: fn.Body()}
	}
	return opts
}

// InitialValues returns the values section sorted by pool and variable.
func (m *Manifest) InitialValues() []Value {
	values := make([]Value, 0, len(m.Values))
	for key, v := range m.Values {
		pool, name, _ := strings.Cut(key, ".")
		values = append(values, Value{Pool: pool, Name: name, Value: v})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Pool != values[j].Pool {
			return values[i].Pool < values[j].Pool
		}
		return values[i].Name < values[j].Name
	})
	return values
}
