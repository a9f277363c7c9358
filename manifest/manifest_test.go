package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/sergev/eelwasm/compiler"
)

const sample = `
pools:
  - name: frame
    vars: [time, bass]
  - name: pixel
    vars: [x, y]
functions:
  - name: init
    pool: frame
    source: "time = 0;"
  - name: perFrame
    pool: frame
    file: frame.eel
values:
  frame.time: 1.5
  frame.BASS: 0.25
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frame.eel", "time += 1 / 60;\n")
	path := writeFile(t, dir, "preset.yaml", sample)

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Pools, 2)
	require.Equal(t, "time += 1 / 60;\n", m.Functions[1].Body())
	require.Equal(t, "time = 0;", m.Functions[0].Body())

	opts := m.CompileOptions()
	require.Equal(t, []compiler.Pool{
		{Name: "frame", Vars: []string{"time", "bass"}},
		{Name: "pixel", Vars: []string{"x", "y"}},
	}, opts.Pools)
	require.Equal(t, compiler.Function{Name: "perFrame", Pool: "frame", Source: "time += 1 / 60;\n"}, opts.Functions[1])

	require.Equal(t, []Value{
		{Pool: "frame", Name: "BASS", Value: 0.25},
		{Pool: "frame", Name: "time", Value: 1.5},
	}, m.InitialValues())

	_, err = compiler.Compile(opts)
	require.NoError(t, err)
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "read manifest")

	dir := t.TempDir()
	path := writeFile(t, dir, "preset.yaml", sample)
	_, err = Load(path)
	require.ErrorContains(t, err, `function "perFrame"`)
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse(nil, "")
	require.NoError(t, err)
	require.Empty(t, m.Pools)
	require.Empty(t, m.InitialValues())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("pools: []\nfunctons: []\n"), "")
	require.ErrorContains(t, err, "decode manifest")
	require.ErrorContains(t, err, "functons")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	src := `
pools:
  - name: frame
    vars: [time, Time, "1bad", megabuf]
  - name: frame
  - name: shims
  - name: ""
functions:
  - name: f
    pool: pixel
    source: "x = 1;"
  - name: f
    pool: frame
  - name: g
    pool: frame
    source: "y = 2;"
    file: g.eel
values:
  frame.nope: 1
  nodot: 2
  other.x: 3
`
	_, err := Parse([]byte(src), t.TempDir())
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	var messages []string
	for _, e := range merr.Errors {
		messages = append(messages, e.Error())
	}
	want := []string{
		`pool "frame": variable "Time" is declared more than once`,
		`pool "frame": "1bad" is not a valid variable name`,
		`pool "frame": "megabuf" names a buffer`,
		`pool "frame" is declared more than once`,
		`pool name "shims" is reserved`,
		`pool #4 has no name`,
		`function "f" uses undeclared pool "pixel"`,
		`function "f" is declared more than once`,
		`function "f" has neither source nor file`,
		`function "g" sets both source and file`,
		`value "frame.nope" refers to unknown variable "nope" of pool "frame"`,
		`value "nodot" is not of the form pool.variable`,
		`value "other.x" refers to undeclared pool "other"`,
	}
	for _, msg := range want {
		require.Contains(t, messages, msg)
	}
	// The remaining error is the unreadable g.eel.
	require.Len(t, messages, len(want)+1)
	require.Contains(t, err.Error(), `function "g": open `)
}
