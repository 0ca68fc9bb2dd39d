package webgpu

import "github.com/cogentcore/webgpu/wgpu"

// BackendBuilderOption is a functional option for configuring the WebGPU backend.
type BackendBuilderOption func(b *wgpuBackend)

// WithVSync selects FIFO presentation when enabled and immediate presentation otherwise.
//
// Parameters:
//   - enabled: whether presentation waits for vertical blank
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithVSync(enabled bool) BackendBuilderOption {
	return func(b *wgpuBackend) {
		if enabled {
			b.presentMode = wgpu.PresentModeFifo
		} else {
			b.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithFallbackAdapter forces the software adapter.
//
// Parameters:
//   - force: whether to request the fallback adapter
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.forceFallback = force
	}
}

// WithParamArenaSize sets the per-frame byte budget for DrawParams blocks. Each draw of a program
// with loose uniforms consumes one aligned slot.
//
// Parameters:
//   - size: the arena size in bytes
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithParamArenaSize(size int) BackendBuilderOption {
	return func(b *wgpuBackend) {
		if size > 0 {
			b.arenaSize = size
		}
	}
}
