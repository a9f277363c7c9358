package runtime

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/wasm"
)

// pool is an instantiated module that owns the globals of one compiler
// pool and exports each of them under its declared name.
type pool struct {
	name    string
	vars    []string          // declared names, in declaration order
	byName  map[string]string // normalized name -> declared name
	module  api.Module
	globals map[string]api.MutableGlobal
}

// poolModule builds a module that defines and exports one mutable f64
// global per variable.
func poolModule(vars []string) []byte {
	m := wasm.NewModule()
	for _, name := range vars {
		idx := m.AddGlobal(wasm.Global{Mutable: true})
		m.AddExport(name, wasm.ExternGlobal, idx)
	}
	return m.Encode()
}

func instantiatePool(ctx context.Context, r wazero.Runtime, decl compiler.Pool) (*pool, error) {
	p := &pool{
		name:    decl.Name,
		byName:  make(map[string]string, len(decl.Vars)),
		globals: make(map[string]api.MutableGlobal, len(decl.Vars)),
	}
	for _, v := range decl.Vars {
		key := parser.Normalize(v)
		if _, dup := p.byName[key]; dup {
			return nil, errors.Errorf("pool %q declares %q more than once", decl.Name, v)
		}
		p.byName[key] = v
		p.vars = append(p.vars, v)
	}
	mod, err := r.InstantiateWithConfig(ctx, poolModule(p.vars), wazero.NewModuleConfig().WithName(decl.Name))
	if err != nil {
		return nil, errors.Wrapf(err, "instantiate pool %q", decl.Name)
	}
	p.module = mod
	for _, v := range p.vars {
		g, ok := mod.ExportedGlobal(v).(api.MutableGlobal)
		if !ok {
			return nil, errors.Errorf("pool %q: global %q is not mutable", decl.Name, v)
		}
		p.globals[v] = g
	}
	return p, nil
}

func (p *pool) global(name string) (api.MutableGlobal, error) {
	declared, ok := p.byName[parser.Normalize(name)]
	if !ok {
		return nil, errors.Errorf("pool %q has no variable %q", p.name, name)
	}
	return p.globals[declared], nil
}
