// Package kernel implements the Cuda algorithm's kernel contract (spec
// §4.6): offloading the inner event-sampling loop to a compiled kernel
// module. Since no CUDA toolchain is available here, the kernel is run
// through wasmer-go instead — the contract (bytes in, bytes out, one
// exported entry point) is identical, only the execution backend
// differs, grounded on this codebase's existing wasm executor.
package kernel

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/nmxmxh/necsim/internal/errs"
)

// Kernel is the engine's pluggable compute-kernel contract: given an
// encoded batch of active lineages and the habitat slice they occupy,
// produce an encoded batch of sampled events. Encoding is left to the
// caller (internal/partition's wire helpers, or a dedicated kernel
// codec) so this package stays backend-agnostic.
type Kernel interface {
	// Run invokes the kernel's single exported entry point with input
	// and returns its output.
	Run(input []byte) ([]byte, error)
	Close()
}

// WasmKernel runs a precompiled WebAssembly module through wasmer-go.
// One WasmKernel owns one wasmer.Instance; callers needing concurrent
// kernel invocations should construct one WasmKernel per worker rather
// than sharing an instance, since wasmer instances are not safe for
// concurrent calls.
type WasmKernel struct {
	engine   *wasmer.Engine
	store    *wasmer.Store
	module   *wasmer.Module
	instance *wasmer.Instance
	entry    string
}

var _ Kernel = (*WasmKernel)(nil)

// NewWasmKernel compiles and instantiates wasmBytes, resolving entry as
// the kernel's single exported function.
func NewWasmKernel(wasmBytes []byte, entry string) (*WasmKernel, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)

	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "compiling kernel module")
	}
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "instantiating kernel module")
	}
	if _, err := instance.Exports.GetFunction(entry); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, fmt.Sprintf("kernel module has no export %q", entry))
	}

	return &WasmKernel{engine: engine, store: store, module: module, instance: instance, entry: entry}, nil
}

func (k *WasmKernel) Run(input []byte) ([]byte, error) {
	fn, err := k.instance.Exports.GetFunction(k.entry)
	if err != nil {
		return nil, errs.Wrap(errs.Simulation, err, "resolving kernel entry point")
	}
	result, err := fn(input)
	if err != nil {
		return nil, errs.Wrap(errs.Simulation, err, "invoking kernel")
	}
	out, ok := result.([]byte)
	if !ok {
		return nil, errs.New(errs.Simulation, "kernel did not return a byte buffer")
	}
	return out, nil
}

func (k *WasmKernel) Close() {
	k.instance.Close()
	k.module.Close()
	k.store.Close()
	k.engine.Close()
}
