package runtime

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Instance is a loaded compiled module.
type Instance struct {
	module    api.Module
	compiled  wazero.CompiledModule
	functions []string
}

// Functions returns the exported function names in declaration order.
func (i *Instance) Functions() []string {
	return append([]string(nil), i.functions...)
}

// Call runs one exported function.
func (i *Instance) Call(ctx context.Context, name string) error {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return errors.Errorf("module exports no function %q", name)
	}
	if glog.V(4) {
		glog.Infof("call %s", name)
	}
	if _, err := fn.Call(ctx); err != nil {
		return errors.Wrapf(err, "call %q", name)
	}
	return nil
}

// Close releases the instance. The runtime's pools are unaffected.
func (i *Instance) Close(ctx context.Context) error {
	if err := i.module.Close(ctx); err != nil {
		return err
	}
	return i.compiled.Close(ctx)
}
