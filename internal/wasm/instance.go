package wasm

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/edgespell/spellbridge/internal/memory"
)

// Instance is one instantiated guest module, exposing the contract's entry
// points as typed calls over its own linear memory.
//
// An Instance is owned by a single caller; the guest is single-threaded and
// reentrant calls are not permitted while one is in flight. The result
// callback the guest invokes runs synchronously inside Lookup and
// LookupCompound, never after they return.
type Instance struct {
	runtime *Runtime
	module  api.Module
	mem     *memory.WazeroMemory

	ID        string
	Name      string
	CreatedAt int64

	initFn     api.Function
	writeFn    api.Function
	lookupFn   api.Function
	compoundFn api.Function

	logger *zap.Logger
}

// Instantiate creates a new instance from a compiled guest module.
func (r *Runtime) Instantiate(ctx context.Context, compiled *CompiledModule) (*Instance, error) {
	instanceID := fmt.Sprintf("inst-%d", time.Now().UnixNano())

	r.logger.Info("Instantiating guest module",
		zap.String("module", compiled.Name),
		zap.String("instance_id", instanceID),
	)

	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions() // no _start; the guest is a reactor

	module, err := r.runtime.InstantiateModule(ctx, compiled.compiled, moduleConfig)
	if err != nil {
		return nil, &InstantiateError{
			ModuleName: compiled.Name,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	inst := &Instance{
		runtime:   r,
		module:    module,
		ID:        instanceID,
		Name:      compiled.Name,
		CreatedAt: time.Now().Unix(),
		logger:    r.logger.With(zap.String("instance_id", instanceID)),
	}

	ex := r.contract.Exports
	for _, want := range []struct {
		name string
		dst  *api.Function
	}{
		{ex.Initialize, &inst.initFn},
		{ex.Write, &inst.writeFn},
		{ex.Lookup, &inst.lookupFn},
		{ex.LookupCompound, &inst.compoundFn},
	} {
		fn := module.ExportedFunction(want.name)
		if fn == nil {
			_ = module.Close(ctx)
			return nil, &ExportNotFoundError{ModuleName: compiled.Name, ExportName: want.name}
		}
		*want.dst = fn
	}

	if module.Memory() == nil {
		_ = module.Close(ctx)
		return nil, &ExportNotFoundError{ModuleName: compiled.Name, ExportName: "memory"}
	}
	inst.mem = memory.NewWazeroMemory(module.Memory())

	r.instances.Store(instanceID, module)

	r.logger.Info("Guest module instantiated",
		zap.String("instance_id", instanceID),
		zap.Uint32("memory_bytes", inst.mem.Size()),
	)

	return inst, nil
}

// Memory returns the instance's linear memory.
func (i *Instance) Memory() memory.GuestMemory {
	return i.mem
}

// SetResultHandler arms the callback the guest invokes with each result
// window. The handler runs on the guest's call stack and must consume the
// window before returning; the backing memory is not guaranteed to survive
// the guest's next action.
func (i *Instance) SetResultHandler(h func(offset, length uint32)) {
	if h == nil {
		i.runtime.disarmHandler(i.ID)
		return
	}
	i.runtime.armHandler(i.ID, h)
}

// Initialize performs the guest's one-time configuration call.
func (i *Instance) Initialize(ctx context.Context, maxDictionaryEditDistance, countThreshold uint32) error {
	_, err := i.initFn.Call(ctx, uint64(maxDictionaryEditDistance), uint64(countThreshold))
	if err != nil {
		return fmt.Errorf("guest initialize failed: %w", err)
	}
	return nil
}

// WriteToDictionary tells the guest to consume dictionary bytes
// [offset, offset+length) previously staged in its memory.
func (i *Instance) WriteToDictionary(ctx context.Context, offset, length uint32, bigram bool) error {
	_, err := i.writeFn.Call(ctx, uint64(offset), uint64(length), wasmBool(bigram))
	if err != nil {
		return fmt.Errorf("guest dictionary write failed: %w", err)
	}
	return nil
}

// Lookup invokes the single-term lookup entry point. The guest calls the
// armed result handler exactly once before this returns.
func (i *Instance) Lookup(ctx context.Context, offset, length uint32, verbosity uint8, maxEditDistance uint32, includeUnknown, includeSelf bool) error {
	_, err := i.lookupFn.Call(ctx,
		uint64(offset),
		uint64(length),
		uint64(verbosity),
		uint64(maxEditDistance),
		wasmBool(includeUnknown),
		wasmBool(includeSelf),
	)
	if err != nil {
		return fmt.Errorf("guest lookup failed: %w", err)
	}
	return nil
}

// LookupCompound invokes the multi-word lookup entry point.
func (i *Instance) LookupCompound(ctx context.Context, offset, length, maxEditDistance uint32) error {
	_, err := i.compoundFn.Call(ctx, uint64(offset), uint64(length), uint64(maxEditDistance))
	if err != nil {
		return fmt.Errorf("guest compound lookup failed: %w", err)
	}
	return nil
}

// Close releases the instance and its handler registration.
func (i *Instance) Close(ctx context.Context) error {
	i.runtime.disarmHandler(i.ID)
	i.runtime.instances.Delete(i.ID)
	return i.module.Close(ctx)
}

// wasmBool encodes a bool as the guest's i32 representation.
func wasmBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
