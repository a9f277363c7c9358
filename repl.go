package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/runtime"
)

const (
	replPool     = "repl"
	replFunction = "input"
	// resultVar receives the value of an input that does not end in an
	// assignment.
	resultVar = "_"
)

func newReplCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate EEL interactively",
		Long: "Evaluate EEL interactively. Variables keep their values between inputs;\n" +
			"input that ends inside an unclosed call or comment continues on the next line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := newSession(seed)
			defer s.close(ctx)
			if !isInteractive() {
				runBufferedREPL(ctx, s, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), cmd.ErrOrStderr())
				return nil
			}
			runInteractiveREPL(ctx, s)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for rand()")

	return cmd
}

// session compiles each input as a function of a single pool. Every
// variable an input mentions becomes a pool variable, so values survive
// from one input to the next. The pool grows as new names appear; the
// runtime is then rebuilt and the old values copied over.
type session struct {
	seed   uint64
	vars   []string
	known  map[string]bool
	values map[string]float64
	rt     *runtime.Runtime
}

func newSession(seed uint64) *session {
	return &session{seed: seed, known: make(map[string]bool), values: make(map[string]float64)}
}

// eval runs one complete input and returns the line to print.
func (s *session) eval(ctx context.Context, src string) (string, error) {
	parsed, err := parser.ParseSource(src)
	if err != nil {
		return "", sourceError(replFunction, src, err)
	}
	if parsed.IsEmpty() {
		return "", nil
	}
	script, shown := withResult(parsed.Script)
	if err := s.grow(ctx, parser.VariableNames(script)); err != nil {
		return "", err
	}

	// Inputs that were not rewritten compile from the original text so
	// that error positions match what was typed.
	text := src
	if script != parsed.Script {
		text = parser.Print(script)
	}
	bin, err := compiler.Compile(compiler.Options{
		Pools:     []compiler.Pool{{Name: replPool, Vars: s.vars}},
		Functions: []compiler.Function{{Name: replFunction, Pool: replPool, Source: text}},
	})
	if err != nil {
		return "", err
	}
	inst, err := s.rt.Load(ctx, bin)
	if err != nil {
		return "", err
	}
	defer inst.Close(ctx)
	if err := inst.Call(ctx, replFunction); err != nil {
		return "", err
	}

	value, err := s.rt.Get(replPool, shown)
	if err != nil {
		return "", err
	}
	if shown == resultVar {
		return parser.FormatNumber(value), nil
	}
	return fmt.Sprintf("%s = %s", shown, parser.FormatNumber(value)), nil
}

// withResult returns script with its last statement stored in resultVar,
// unless that statement already assigns a variable, and the name whose
// value should be shown.
func withResult(script *parser.Script) (*parser.Script, string) {
	last := script.Body[len(script.Body)-1]
	if assign, ok := last.(*parser.AssignmentExpression); ok {
		if ident, ok := assign.Left.(*parser.Identifier); ok {
			return script, ident.Name
		}
	}
	body := append([]parser.Node(nil), script.Body[:len(script.Body)-1]...)
	body = append(body, &parser.AssignmentExpression{
		Operator: "=",
		Left:     &parser.Identifier{Name: resultVar},
		Right:    last,
	})
	return &parser.Script{Body: body, Loc: script.Loc}, resultVar
}

// grow makes sure every name is a pool variable.
func (s *session) grow(ctx context.Context, names []string) error {
	added := false
	for _, name := range names {
		if !s.known[name] {
			s.known[name] = true
			s.vars = append(s.vars, name)
			added = true
		}
	}
	if s.rt != nil && !added {
		return nil
	}
	if s.rt != nil {
		vars, err := s.rt.Vars(replPool)
		if err != nil {
			return err
		}
		for _, v := range vars {
			s.values[v.Name] = v.Value
		}
		_ = s.rt.Close(ctx)
		s.rt = nil
	}
	rt, err := runtime.New(ctx, []compiler.Pool{{Name: replPool, Vars: s.vars}}, runtime.WithSeed(s.seed))
	if err != nil {
		return err
	}
	for name, v := range s.values {
		if err := rt.Set(replPool, name, v); err != nil {
			_ = rt.Close(ctx)
			return err
		}
	}
	s.rt = rt
	glog.V(3).Infof("repl pool now has %d variables", len(s.vars))
	return nil
}

func (s *session) close(ctx context.Context) {
	if s.rt != nil {
		_ = s.rt.Close(ctx)
	}
}

func runBufferedREPL(ctx context.Context, s *session, reader *bufio.Reader, out, errOut io.Writer) {
	var buffer strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(errOut, "read error: %v\n", err)
			return
		}
		if errors.Is(err, io.EOF) && buffer.Len() == 0 && line == "" {
			return
		}
		buffer.WriteString(line)
		src := buffer.String()
		if needsMore(src) && !errors.Is(err, io.EOF) {
			continue
		}
		buffer.Reset()
		result, evalErr := s.eval(ctx, src)
		switch {
		case evalErr != nil:
			reportError(errOut, evalErr)
		case result != "":
			fmt.Fprintln(out, result)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func runInteractiveREPL(ctx context.Context, s *session) {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	var buffer strings.Builder

	for {
		prompt := "eel> "
		if buffer.Len() > 0 {
			prompt = ".... "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Println()
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Println()
				return
			default:
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
				return
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if needsMore(src) {
			continue
		}

		buffer.Reset()
		if trimmed := strings.TrimSpace(src); trimmed != "" {
			state.AppendHistory(trimmed)
		}
		result, evalErr := s.eval(ctx, src)
		switch {
		case evalErr != nil:
			reportError(os.Stderr, evalErr)
		case result != "":
			fmt.Println(result)
		}
	}
}

// needsMore reports whether src stops inside an unclosed call or comment.
func needsMore(src string) bool {
	if parser.OpenComment(src) {
		return true
	}
	_, err := parser.ParseSource(src)
	return err != nil && parser.IsIncomplete(err)
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".eelwasm_history")
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
