package wasm

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/edgespell/spellbridge/internal/contract"
)

// Runtime manages the wazero runtime lifecycle for one guest contract.
//
// It owns a single wazero.Runtime, a compile cache keyed by module name, and
// the host import module carrying the guest's result callback. All instances
// created from a Runtime share its contract (export names, result import).
type Runtime struct {
	runtime  wazero.Runtime
	contract *contract.Contract

	// Compiled module cache (key: module name -> *CompiledModule).
	// Avoids recompiling the same Wasm binary multiple times.
	modules sync.Map

	// Active instances (key: instance ID -> api.Module), for shutdown cleanup.
	instances sync.Map

	// Armed result handlers (key: instance ID -> func(offset, length uint32)).
	// The host import dispatches on the calling module's name.
	handlers sync.Map

	config *Config
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Config holds runtime configuration.
type Config struct {
	// Memory limit for guest modules (in pages, 64KB each).
	// Default: 256 pages = 16MB.
	MemoryPages uint32

	// Enable debug logging for guest calls.
	Debug bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MemoryPages: 256,
		Debug:       false,
	}
}

// NewRuntime creates a wazero runtime bound to one guest contract and
// instantiates the host import module the guest links against.
func NewRuntime(ctx context.Context, logger *zap.Logger, ct *contract.Contract, config *Config) (*Runtime, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if ct == nil {
		ct = contract.Default()
	}

	rc := wazero.NewRuntimeConfig().WithMemoryLimitPages(config.MemoryPages)
	r := wazero.NewRuntimeWithConfig(ctx, rc)

	runtime := &Runtime{
		runtime:  r,
		contract: ct,
		config:   config,
		logger:   logger.With(zap.String("component", "wasm-runtime")),
		closed:   make(chan struct{}),
	}

	// The guest imports its result callback from "env". One host module
	// serves every instance; dispatch is by the calling module's name.
	builder := r.NewHostModuleBuilder("env")
	builder.NewFunctionBuilder().
		WithFunc(runtime.onResult).
		WithParameterNames("ptr", "len").
		Export(ct.ResultImport)

	if _, err := builder.Instantiate(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, &InstantiateError{ModuleName: "env", Err: err}
	}

	runtime.logger.Info("Wasm runtime initialized",
		zap.Uint32("memory_pages", config.MemoryPages),
		zap.String("contract_module", ct.Module),
		zap.String("result_import", ct.ResultImport),
		zap.String("framing", ct.TermLenFraming),
	)

	return runtime, nil
}

// Contract returns the guest contract this runtime serves.
func (r *Runtime) Contract() *contract.Contract {
	return r.contract
}

// onResult is the host function the guest invokes to hand back a result
// window. It runs synchronously inside the guest call; the armed handler
// must fully consume the window before returning.
func (r *Runtime) onResult(_ context.Context, mod api.Module, ptr, length uint32) {
	val, ok := r.handlers.Load(mod.Name())
	if !ok {
		r.logger.Error("result callback with no armed handler",
			zap.String("instance_id", mod.Name()),
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}
	val.(func(offset, length uint32))(ptr, length)
}

// armHandler registers the result handler for an instance.
func (r *Runtime) armHandler(instanceID string, h func(offset, length uint32)) {
	r.handlers.Store(instanceID, h)
}

// disarmHandler removes an instance's result handler.
func (r *Runtime) disarmHandler(instanceID string) {
	r.handlers.Delete(instanceID)
}

// Close gracefully shuts down the runtime. Safe to call multiple times.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.logger.Info("Shutting down Wasm runtime")

		r.instances.Range(func(key, value interface{}) bool {
			if mod, ok := value.(api.Module); ok {
				if closeErr := mod.Close(ctx); closeErr != nil {
					r.logger.Warn("Failed to close instance",
						zap.String("instance_id", key.(string)),
						zap.Error(closeErr),
					)
				}
			}
			return true
		})

		err = r.runtime.Close(ctx)

		close(r.closed)
		r.logger.Info("Wasm runtime shutdown complete")
	})

	return err
}

// GetCompiledModule retrieves a compiled module from cache.
func (r *Runtime) GetCompiledModule(name string) (*CompiledModule, bool) {
	if val, ok := r.modules.Load(name); ok {
		if mod, ok := val.(*CompiledModule); ok {
			return mod, true
		}
	}
	return nil, false
}

// StoreCompiledModule stores a compiled module in cache.
func (r *Runtime) StoreCompiledModule(module *CompiledModule) {
	r.modules.Store(module.Name, module)
}

// IsClosed returns whether the runtime has been closed.
func (r *Runtime) IsClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}
