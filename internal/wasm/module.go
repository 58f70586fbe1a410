package wasm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Loader handles loading and compiling guest module binaries.
type Loader struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewLoader creates a new module loader.
func NewLoader(runtime *Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-loader")),
	}
}

// CompiledModule wraps a wazero compiled module with metadata.
type CompiledModule struct {
	compiled wazero.CompiledModule

	Name       string
	SizeBytes  int64
	CompiledAt int64
}

// ModuleSource represents a source for guest bytecode.
type ModuleSource interface {
	// Bytes returns the Wasm bytecode.
	Bytes() ([]byte, error)

	// Name returns a name/identifier for this module.
	Name() string

	// Size returns the size in bytes.
	Size() int64
}

// FileSource loads a guest binary from a file.
type FileSource struct {
	Path string
}

// Bytes reads the Wasm file.
func (f *FileSource) Bytes() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// Name returns the file path as the module name.
func (f *FileSource) Name() string {
	return f.Path
}

// Size returns the file size.
func (f *FileSource) Size() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// BytesSource loads a guest binary from memory.
type BytesSource struct {
	ModuleName string
	Data       []byte
}

// Bytes returns the Wasm bytecode.
func (b *BytesSource) Bytes() ([]byte, error) {
	return b.Data, nil
}

// Name returns the module name.
func (b *BytesSource) Name() string {
	return b.ModuleName
}

// Size returns the data size.
func (b *BytesSource) Size() int64 {
	return int64(len(b.Data))
}

// Load compiles a guest binary, reusing the runtime's compile cache.
func (l *Loader) Load(ctx context.Context, source ModuleSource) (*CompiledModule, error) {
	if cached, ok := l.runtime.GetCompiledModule(source.Name()); ok {
		l.logger.Debug("Module cache hit", zap.String("module", source.Name()))
		return cached, nil
	}

	wasmBytes, err := source.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", source.Name(), err)
	}

	l.logger.Info("Compiling guest module",
		zap.String("module", source.Name()),
		zap.Int64("size_bytes", source.Size()),
	)

	startTime := time.Now()

	// wazero.CompileModule decodes and validates the Wasm binary.
	// CPU-intensive, but only done once per module.
	compiled, err := l.runtime.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, &CompileError{ModuleName: source.Name(), Err: err}
	}

	compiledModule := &CompiledModule{
		compiled:   compiled,
		Name:       source.Name(),
		SizeBytes:  source.Size(),
		CompiledAt: time.Now().Unix(),
	}

	l.runtime.StoreCompiledModule(compiledModule)

	l.logger.Info("Module compiled successfully",
		zap.String("module", source.Name()),
		zap.Duration("duration", time.Since(startTime)),
	)

	return compiledModule, nil
}

// LoadFile is a convenience function for loading from a file path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*CompiledModule, error) {
	return l.Load(ctx, &FileSource{Path: path})
}

// LoadBytes loads from a byte slice.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*CompiledModule, error) {
	return l.Load(ctx, &BytesSource{ModuleName: name, Data: data})
}
