package compiler

import (
	"strings"

	"github.com/golang/glog"

	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/wasm"
)

// module holds the namespaces shared by every function of one compilation.
//
// Function indices: the shim imports come first, then the exported
// functions in declaration order, then helpers in first-use order. Global
// indices: imported pool variables first, then pool-private user variables.
type module struct {
	pools      map[string]map[string]string // pool -> lower-cased var -> declared name
	externals  *Resolver                    // externalKey(pool, declared name)
	userVars   *Resolver                    // externalKey(pool, name)
	funcs      *Resolver
	helpers    []helper
	usesMemory bool
}

func newModule(pools []Pool) *module {
	m := &module{
		pools:     make(map[string]map[string]string, len(pools)),
		externals: NewResolver("external"),
		userVars:  NewResolver("global"),
	}
	for _, pool := range pools {
		vars := make(map[string]string, len(pool.Vars))
		for _, v := range pool.Vars {
			vars[parser.Normalize(v)] = v
		}
		m.pools[pool.Name] = vars
	}
	return m
}

// collectExternals assigns import indices to every pool variable the
// functions mention, in declaration order. It must run before emission so
// that user globals can be numbered after the imports.
func (m *module) collectExternals(funcs []*function) {
	for _, fn := range funcs {
		vars := m.pools[fn.pool]
		parser.Variables(fn.script, func(ident *parser.Identifier) {
			if declared, ok := vars[ident.Name]; ok {
				m.externals.Resolve(externalKey(fn.pool, declared))
			}
		})
	}
}

// registerFunctions seeds the function namespace with the shims and the
// exported functions.
func (m *module) registerFunctions(funcs []*function) {
	seed := make([]string, 0, len(Shims)+len(funcs))
	for _, s := range Shims {
		seed = append(seed, ShimModule+"."+s.Name())
	}
	for _, fn := range funcs {
		seed = append(seed, "export."+fn.name)
	}
	m.funcs = NewResolver("function", seed...)
}

func (m *module) shimIndex(s Shim) uint32 {
	idx, _ := m.funcs.Lookup(ShimModule + "." + s.Name())
	return idx
}

func (m *module) helperIndex(h helper) uint32 {
	name := h.name()
	if idx, ok := m.funcs.Lookup(name); ok {
		return idx
	}
	m.helpers = append(m.helpers, h)
	return m.funcs.Resolve(name)
}

// assemble encodes the module. Functions are added in index order: the
// exported functions, then the helpers.
func (m *module) assemble(funcs []*function) []byte {
	out := wasm.NewModule()
	poolGlobal := wasm.GlobalType{Type: wasm.F64, Mutable: true}
	for _, key := range m.externals.Names() {
		pool, name := splitExternalKey(key)
		out.ImportGlobal(pool, name, poolGlobal)
	}
	for _, s := range Shims {
		params := make([]wasm.ValType, s.Arity())
		for i := range params {
			params[i] = wasm.F64
		}
		out.ImportFunc(ShimModule, s.Name(), params, f64x1)
	}
	if m.usesMemory {
		out.AddMemory(wasm.Limits{Min: memoryPages, Max: memoryPages, HasMax: true})
	}
	for range m.userVars.Names() {
		out.AddGlobal(wasm.Global{Mutable: true})
	}
	void := out.TypeIndex(nil, nil)
	for _, fn := range funcs {
		idx := out.AddFunction(wasm.Function{Type: void, Locals: fn.locals, Body: fn.code})
		out.AddExport(fn.name, wasm.ExternFunc, idx)
	}
	for _, h := range m.helpers {
		params, results := h.signature()
		locals, code := h.function()
		out.AddFunction(wasm.Function{
			Type:   out.TypeIndex(params, results),
			Locals: locals,
			Body:   code.Bytes(),
		})
	}
	bin := out.Encode()
	if glog.V(3) {
		glog.Infof("assembled module: %d functions, %d helpers, %d pool globals, %d user globals, memory=%v, %d bytes",
			len(funcs), len(m.helpers), m.externals.Len(), m.userVars.Len(), m.usesMemory, len(bin))
	}
	return bin
}

func splitExternalKey(key string) (pool, name string) {
	pool, name, _ = strings.Cut(key, "\x00")
	return pool, name
}
