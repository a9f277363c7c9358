package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionKeepsVariables(t *testing.T) {
	ctx := context.Background()
	s := newSession(0)
	defer s.close(ctx)

	steps := []struct {
		src  string
		want string
	}{
		{"a = 2;", "a = 2"},
		{"a * 3", "6"},
		{"b = a + 1; b * 10", "30"},
		{"// nothing here", ""},
		{"megabuf(0) = 4", "4"},
		{"c += a; c += a;", "c = 4"},
		{"B", "3"},
	}
	for _, step := range steps {
		got, err := s.eval(ctx, step.src)
		require.NoError(t, err, step.src)
		require.Equal(t, step.want, got, step.src)
	}
	require.Equal(t, []string{"a", "_", "b", "c"}, s.vars)
}

func TestSessionErrors(t *testing.T) {
	ctx := context.Background()
	s := newSession(0)
	defer s.close(ctx)

	_, err := s.eval(ctx, "x = 1 +;")
	require.Error(t, err)
	_, err = s.eval(ctx, "x = sin(1, 2);")
	require.ErrorContains(t, err, `function "sin" expects 1 argument but got 2`)

	got, err := s.eval(ctx, "x = 5;")
	require.NoError(t, err)
	require.Equal(t, "x = 5", got)
}

func TestBufferedREPL(t *testing.T) {
	ctx := context.Background()
	s := newSession(0)
	defer s.close(ctx)

	input := "x = 1;\ny = sin(\n0) + x;\nfoo(1);\nx + y"
	var out, errOut bytes.Buffer
	runBufferedREPL(ctx, s, bufio.NewReader(strings.NewReader(input)), &out, &errOut)
	require.Equal(t, "x = 1\ny = 1\n2\n", out.String())
	require.Contains(t, errOut.String(), `unknown function "foo"`)
}

func TestBufferedREPLContinuesComment(t *testing.T) {
	ctx := context.Background()
	s := newSession(0)
	defer s.close(ctx)

	input := "a = 1 /* start\nstill comment */ + 2;\nb = a /* never closed"
	var out, errOut bytes.Buffer
	runBufferedREPL(ctx, s, bufio.NewReader(strings.NewReader(input)), &out, &errOut)
	require.Empty(t, errOut.String())
	require.Equal(t, "a = 3\nb = 3\n", out.String())
}

func TestInitLogging(t *testing.T) {
	v := flag.Lookup("v")
	require.NotNil(t, v)
	old := v.Value.String()
	defer func() { require.NoError(t, flag.Set("v", old)) }()

	require.NoError(t, initLogging(false, 3))
	require.Equal(t, "3", v.Value.String())
	require.NoError(t, initLogging(false, 0))
	require.Equal(t, "3", v.Value.String())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const testManifest = `
pools:
  - name: frame
    vars: [time, count]
functions:
  - name: init
    pool: frame
    source: "count = 0;"
  - name: perFrame
    pool: frame
    file: frame.eel
  - name: unused
    pool: frame
    source: "// nothing"
values:
  frame.time: 10
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame.eel"), []byte("time += 1;\ncount += 1;\n"), 0o600))
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o600))
	return path
}

func TestCompileCommand(t *testing.T) {
	path := writeManifest(t)
	out := filepath.Join(filepath.Dir(path), "out.wasm")
	_, err := execute(t, "compile", path, "-o", out)
	require.NoError(t, err)
	bin, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(bin, []byte("\x00asm")))

	_, err = execute(t, "compile", path, "--parallel")
	require.NoError(t, err)
	_, err = os.Stat(strings.TrimSuffix(path, ".yaml") + ".wasm")
	require.NoError(t, err)

	listing, err := execute(t, "inspect", out)
	require.NoError(t, err)
	require.Contains(t, listing, "import frame.time global f64 mut")
	require.Contains(t, listing, "import shims.sin func type 0")
	require.Contains(t, listing, "export perFrame func")
	require.NotContains(t, listing, "export unused")
}

func TestRunCommand(t *testing.T) {
	path := writeManifest(t)
	out, err := execute(t, "run", path, "--frames", "3")
	require.NoError(t, err)
	require.Equal(t, "frame.time = 13\nframe.count = 1\n", out)

	out, err = execute(t, "run", path, "--call", "perFrame", "--call", "init")
	require.NoError(t, err)
	require.Equal(t, "frame.time = 11\nframe.count = 0\n", out)

	_, err = execute(t, "run", path, "--call", "unused")
	require.Error(t, err)
}

func TestFmtCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.eel")
	require.NoError(t, os.WriteFile(src, []byte("/* c */ A = 1 + 2 * 3;\nb = a / 0;"), 0o600))

	out, err := execute(t, "fmt", src)
	require.NoError(t, err)
	require.Equal(t, "a = 1 + (2 * 3);\nb = a / 0;\n", out)

	out, err = execute(t, "fmt", "--optimize", src)
	require.NoError(t, err)
	require.Equal(t, "a = 7;\nb = 0;\n", out)

	require.NoError(t, os.WriteFile(src, []byte("/* c\n */ a = (1 + ;"), 0o600))
	_, err = execute(t, "fmt", src)
	require.Error(t, err)
	var report bytes.Buffer
	reportError(&report, err)
	require.Contains(t, report.String(), "at 2:14")
	require.Contains(t, report.String(), "   2 |  */ a = (1 + ;\n")
	require.Contains(t, report.String(), "     |              ^\n")
}
