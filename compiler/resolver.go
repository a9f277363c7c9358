package compiler

import "github.com/golang/glog"

// Resolver assigns dense indices to names in first-seen order. Indices are
// never reassigned. A Resolver belongs to a single compilation.
type Resolver struct {
	label   string
	indices map[string]uint32
	names   []string
}

// NewResolver returns a resolver whose first indices go to seed, in order.
func NewResolver(label string, seed ...string) *Resolver {
	r := &Resolver{label: label, indices: make(map[string]uint32)}
	for _, name := range seed {
		r.Resolve(name)
	}
	return r
}

// Resolve returns the index of name, assigning the next free one if name
// has not been seen.
func (r *Resolver) Resolve(name string) uint32 {
	if idx, ok := r.indices[name]; ok {
		return idx
	}
	idx := uint32(len(r.names))
	r.indices[name] = idx
	r.names = append(r.names, name)
	if glog.V(7) {
		glog.Infof("%s: %q -> %d", r.label, name, idx)
	}
	return idx
}

// Lookup returns the index of name without assigning one.
func (r *Resolver) Lookup(name string) (uint32, bool) {
	idx, ok := r.indices[name]
	return idx, ok
}

// Len reports how many names have indices.
func (r *Resolver) Len() int { return len(r.names) }

// Names returns the resolved names in index order.
func (r *Resolver) Names() []string {
	return append([]string(nil), r.names...)
}
