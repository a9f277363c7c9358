// Package runtime hosts compiled EEL modules on wazero. A Runtime owns the
// shims host module and one module per pool holding the pool's variables;
// every module loaded into it imports from those.
package runtime

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/wasm"
)

// Runtime is a wazero runtime prepared for compiled EEL modules. It is not
// safe for concurrent use.
type Runtime struct {
	wr     wazero.Runtime
	pools  map[string]*pool
	order  []string
	loaded int
}

// Var is the current value of one pool variable.
type Var struct {
	Name  string
	Value float64
}

// New creates a runtime with the shims and the given pools instantiated.
// Pool variables start at zero.
func New(ctx context.Context, pools []compiler.Pool, opts ...Option) (*Runtime, error) {
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	wr := wazero.NewRuntime(ctx)
	rt := &Runtime{wr: wr, pools: make(map[string]*pool, len(pools))}
	if err := instantiateShims(ctx, wr, cfg); err != nil {
		_ = wr.Close(ctx)
		return nil, err
	}
	for _, decl := range pools {
		if decl.Name == compiler.ShimModule {
			_ = wr.Close(ctx)
			return nil, errors.Errorf("pool name %q is reserved", decl.Name)
		}
		if _, dup := rt.pools[decl.Name]; dup {
			_ = wr.Close(ctx)
			return nil, errors.Errorf("pool %q is declared more than once", decl.Name)
		}
		p, err := instantiatePool(ctx, wr, decl)
		if err != nil {
			_ = wr.Close(ctx)
			return nil, err
		}
		rt.pools[decl.Name] = p
		rt.order = append(rt.order, decl.Name)
	}
	glog.V(2).Infof("runtime ready: %d pools, seed %d", len(pools), cfg.Seed)
	return rt, nil
}

func (rt *Runtime) pool(name string) (*pool, error) {
	p, ok := rt.pools[name]
	if !ok {
		return nil, errors.Errorf("unknown pool %q", name)
	}
	return p, nil
}

// Get returns the value of a pool variable. Names are case-insensitive.
func (rt *Runtime) Get(poolName, name string) (float64, error) {
	p, err := rt.pool(poolName)
	if err != nil {
		return 0, err
	}
	g, err := p.global(name)
	if err != nil {
		return 0, err
	}
	return api.DecodeF64(g.Get()), nil
}

// Set assigns a pool variable.
func (rt *Runtime) Set(poolName, name string, value float64) error {
	p, err := rt.pool(poolName)
	if err != nil {
		return err
	}
	g, err := p.global(name)
	if err != nil {
		return err
	}
	g.Set(api.EncodeF64(value))
	return nil
}

// Vars returns every variable of a pool in declaration order.
func (rt *Runtime) Vars(poolName string) ([]Var, error) {
	p, err := rt.pool(poolName)
	if err != nil {
		return nil, err
	}
	vars := make([]Var, len(p.vars))
	for i, name := range p.vars {
		vars[i] = Var{Name: name, Value: api.DecodeF64(p.globals[name].Get())}
	}
	return vars, nil
}

// Pools returns the pool names in declaration order.
func (rt *Runtime) Pools() []string {
	return append([]string(nil), rt.order...)
}

// Load instantiates a compiled module. Its pool imports bind to this
// runtime's pools, so writes made by its functions are visible through Get
// and to every other loaded module.
func (rt *Runtime) Load(ctx context.Context, bin []byte) (*Instance, error) {
	exports, err := wasm.Exports(bin)
	if err != nil {
		return nil, errors.Wrap(err, "decode exports")
	}
	compiled, err := rt.wr.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(err, "compile module")
	}
	rt.loaded++
	name := fmt.Sprintf("eel.%d", rt.loaded)
	mod, err := rt.wr.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Wrap(err, "instantiate module")
	}
	inst := &Instance{module: mod, compiled: compiled}
	for _, exp := range exports {
		if exp.Kind == wasm.ExternFunc {
			inst.functions = append(inst.functions, exp.Name)
		}
	}
	glog.V(2).Infof("loaded %s: %d bytes, functions %v", name, len(bin), inst.functions)
	return inst, nil
}

// Close releases every module and the underlying wazero runtime.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.wr.Close(ctx)
}
