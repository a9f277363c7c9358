// Package compiler turns EEL functions into a WebAssembly module.
//
// Each function runs against one pool: a named set of f64 variables owned
// by the host and imported as mutable globals. Other free variables become
// module globals private to the pool. Math functions that have no
// instruction are imported from the "shims" module.
package compiler

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/sergev/eelwasm/optimize"
	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/wasm"
)

// Pool declares the host-owned variables a function may use.
type Pool struct {
	Name string
	Vars []string
}

// Function is one EEL function to compile and export under Name.
type Function struct {
	Name   string
	Pool   string
	Source string
}

// Options configures a compilation.
type Options struct {
	Pools     []Pool
	Functions []Function

	// Parallel parses and optimizes functions concurrently. The output
	// is identical either way.
	Parallel bool
	// DisableOptimizer skips constant folding and propagation.
	DisableOptimizer bool
	// MaxOptimizerRounds bounds the optimizer; zero selects the default.
	MaxOptimizerRounds int
}

// function is the per-function state carried through the pipeline.
type function struct {
	name   string
	pool   string
	src    *parser.Source
	script *parser.Script
	rounds int
	locals []wasm.ValType
	code   []byte
}

// Compile builds a module exporting every non-empty function in opts.
// Failures are returned as *Error.
func Compile(opts Options) ([]byte, error) {
	if err := validateDeclarations(opts); err != nil {
		return nil, err
	}
	funcs, err := frontEnd(opts)
	if err != nil {
		return nil, err
	}

	var live []*function
	for _, fn := range funcs {
		if fn.src.IsEmpty() {
			glog.V(5).Infof("function %q: empty body, not exported", fn.name)
			continue
		}
		live = append(live, fn)
	}

	mod := newModule(opts.Pools)
	mod.collectExternals(live)
	mod.registerFunctions(live)
	for _, fn := range live {
		e := newEmitter(mod, fn)
		if err := e.emitScript(fn.script); err != nil {
			return nil, err
		}
		fn.locals = e.locals
		fn.code = e.code.Bytes()
		glog.V(5).Infof("function %q: %d optimizer rounds, %d locals, %d code bytes",
			fn.name, fn.rounds, len(fn.locals), len(fn.code))
	}
	bin := mod.assemble(live)
	glog.V(3).Infof("compiled %d of %d functions into %d bytes", len(live), len(funcs), len(bin))
	return bin, nil
}

// validateDeclarations checks pool and function declarations in order.
func validateDeclarations(opts Options) error {
	pools := make(map[string]bool, len(opts.Pools))
	for _, pool := range opts.Pools {
		if pool.Name == "" {
			return userErrorf("pool with an empty name")
		}
		if pool.Name == ShimModule {
			return userErrorf("pool name %q is reserved", pool.Name)
		}
		if pools[pool.Name] {
			return userErrorf("pool %q is declared more than once", pool.Name)
		}
		pools[pool.Name] = true
		vars := make(map[string]bool, len(pool.Vars))
		for _, v := range pool.Vars {
			key := parser.Normalize(v)
			if vars[key] {
				return userErrorf("pool %q declares %q more than once", pool.Name, v)
			}
			vars[key] = true
		}
	}
	names := make(map[string]bool, len(opts.Functions))
	for _, fn := range opts.Functions {
		if fn.Name == "" {
			return userErrorf("function with an empty name")
		}
		if names[fn.Name] {
			return userErrorf("function %q is declared more than once", fn.Name)
		}
		names[fn.Name] = true
		if !pools[fn.Pool] {
			return userErrorf("function %q uses undeclared pool %q; %s", fn.Name, fn.Pool, describePools(opts.Pools))
		}
	}
	return nil
}

func describePools(pools []Pool) string {
	if len(pools) == 0 {
		return "no pools are declared"
	}
	names := make([]string, len(pools))
	for i, pool := range pools {
		names[i] = fmt.Sprintf("%q", pool.Name)
	}
	sort.Strings(names)
	return "declared pools are " + strings.Join(names, ", ")
}

// frontEnd parses and optimizes every function. Functions are independent
// here, so with opts.Parallel they are processed concurrently. The error
// reported is always that of the first failing function in declaration
// order.
func frontEnd(opts Options) ([]*function, error) {
	funcs := make([]*function, len(opts.Functions))
	errs := make([]error, len(opts.Functions))
	process := func(i int) {
		funcs[i], errs[i] = parseFunction(opts.Functions[i], opts)
	}

	if opts.Parallel && len(opts.Functions) > 1 {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range opts.Functions {
			g.Go(func() error {
				process(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range opts.Functions {
			process(i)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return funcs, nil
}

func parseFunction(decl Function, opts Options) (*function, error) {
	src, err := parser.ParseSource(decl.Source)
	if err != nil {
		cerr := &Error{Kind: UserError, Function: decl.Name, Source: decl.Source, Err: err}
		var perr *parser.Error
		if errors.As(err, &perr) {
			cerr.Loc = Loc{
				Line:      perr.Pos.Line,
				Column:    perr.Pos.Column,
				EndLine:   perr.End.Line,
				EndColumn: perr.End.Column,
			}
		}
		return nil, cerr
	}
	fn := &function{name: decl.Name, pool: decl.Pool, src: src, script: src.Script}
	if !opts.DisableOptimizer {
		optimized, rounds := optimize.Run(src.Script, optimize.Options{
			MaxRounds:     opts.MaxOptimizerRounds,
			ClampDivision: true,
		})
		script, ok := optimized.(*parser.Script)
		if !ok {
			return nil, &Error{
				Kind:     CompilerError,
				Function: decl.Name,
				Err:      fmt.Errorf("optimizer returned %T for a script", optimized),
			}
		}
		fn.script = script
		fn.rounds = rounds
	}
	return fn, nil
}
