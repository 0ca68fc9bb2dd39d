// Package webgpu implements backend.Backend on WebGPU through wgpu-native. Programs are WGSL
// modules following a fixed bind group convention:
//
//   - @group(0) and @group(1) are uniform binding points 0 and 1, bound with dynamic offsets
//   - @group(2) holds textures, unit k at @binding(2k) with its sampler at @binding(2k+1)
//   - @group(3) @binding(0) is a DrawParams struct whose fields are the program's loose uniforms
//
// Render pipelines are compiled lazily per program, vertex layout and pass configuration.
package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

const defaultParamArenaSize = 256 * 1024

// wgpuBackend is the implementation of backend.Backend on WebGPU. It is not safe for concurrent use.
type wgpuBackend struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	forceFallback bool
	arenaSize     int

	limits backend.Limits

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	width        int
	height       int

	next         uint32
	buffers      map[backend.BufferHandle]*bufferState
	textures     map[backend.TextureHandle]*textureState
	framebuffers map[backend.FramebufferHandle]*framebufferState
	programs     map[backend.ProgramHandle]*programState
	vertexArrays map[backend.VertexArrayHandle]*vertexArrayState
	pipelines    *pipeline.Cache

	emptyLayout *wgpu.BindGroupLayout
	emptyGroup  *wgpu.BindGroup

	arena       *paramArena
	arenaBuffer *wgpu.Buffer

	frame *frameState
	pass  *passState
	draw  drawState
}

// frameState holds the swapchain image and encoder of the frame being recorded.
type frameState struct {
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView
	encoder        *wgpu.CommandEncoder
}

var _ backend.Backend = &wgpuBackend{}

// NewBackend creates the WebGPU instance, device and surface and configures the surface for the
// initial size. Every later call must come from the thread that created the window.
//
// Parameters:
//   - surfaceDescriptor: the platform surface of the window
//   - width: initial back buffer width in pixels
//   - height: initial back buffer height in pixels
//   - options: functional options
//
// Returns:
//   - backend.Backend: the WebGPU backend
//   - error: error if no adapter or device is available or the surface cannot be configured
func NewBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (backend.Backend, error) {
	b := &wgpuBackend{
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeFifo,
		arenaSize:    defaultParamArenaSize,
		buffers:      make(map[backend.BufferHandle]*bufferState),
		textures:     make(map[backend.TextureHandle]*textureState),
		framebuffers: make(map[backend.FramebufferHandle]*framebufferState),
		programs:     make(map[backend.ProgramHandle]*programState),
		vertexArrays: make(map[backend.VertexArrayHandle]*vertexArrayState),
		pipelines:    pipeline.NewCache(),
	}
	for _, opt := range options {
		opt(b)
	}

	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = max(limits.MaxBindGroups, maxGroups)
	// wgpu-native falls back to 32 bytes per sample, too small for the G-buffer.
	limits.MaxColorAttachmentBytesPerSample = a.GetLimits().Limits.MaxColorAttachmentBytesPerSample
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	b.limits = backend.Limits{
		MaxUniformBlockSize:              int(limits.MaxUniformBufferBindingSize),
		UniformOffsetAlignment:           int(limits.MinUniformBufferOffsetAlignment),
		MaxColorAttachments:              int(limits.MaxColorAttachments),
		MaxColorAttachmentBytesPerSample: int(limits.MaxColorAttachmentBytesPerSample),
		DepthZeroToOne:                   true,
	}

	if err := b.initShared(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.configureSurface(width, height); err != nil {
		b.Release()
		return nil, err
	}

	common.Logger().Info("webgpu backend ready",
		"surface_format", b.surfaceFormat,
		"max_uniform_block", b.limits.MaxUniformBlockSize,
		"uniform_alignment", b.limits.UniformOffsetAlignment,
		"color_attachments", b.limits.MaxColorAttachments,
	)
	return b, nil
}

// initShared creates the objects every program shares: the empty bind group filling unused
// group slots and the per-frame DrawParams arena.
func (b *wgpuBackend) initShared() error {
	var err error
	b.emptyLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: "Empty Layout"})
	if err != nil {
		return fmt.Errorf("empty layout: %w", err)
	}
	b.emptyGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: "Empty Group", Layout: b.emptyLayout})
	if err != nil {
		return fmt.Errorf("empty group: %w", err)
	}

	b.arena = newParamArena(b.arenaSize, b.limits.UniformOffsetAlignment)
	b.arenaBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "DrawParams Arena",
		Size:  uint64(b.arenaSize),
		Usage: bufferUsage(backend.BufferUsageUniform),
	})
	if err != nil {
		return fmt.Errorf("params arena: %w", err)
	}
	return nil
}

// configureSurface sizes the swapchain and recreates the back buffer depth texture.
func (b *wgpuBackend) configureSurface(width, height int) error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("configure surface: no supported formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseDepth()
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("depth view: %w", err)
	}
	b.depthTexture, b.depthView = depthTexture, view
	b.width, b.height = width, height
	return nil
}

func (b *wgpuBackend) releaseDepth() {
	if b.depthView != nil {
		b.depthView.Release()
		b.depthView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuBackend) Type() backend.BackendType {
	return backend.BackendTypeWGPU
}

func (b *wgpuBackend) Limits() backend.Limits {
	return b.limits
}

// handle issues the next object name. Names are shared across object kinds and never reused.
func (b *wgpuBackend) handle() uint32 {
	b.next++
	return b.next
}

func (b *wgpuBackend) BeginFrame() error {
	if b.frame != nil {
		return fmt.Errorf("begin frame: previous frame not ended")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("begin frame: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("begin frame: %w", err)
	}

	b.frame = &frameState{surfaceTexture: surfaceTexture, surfaceView: view, encoder: encoder}
	b.arena.reset()
	return nil
}

func (b *wgpuBackend) EndFrame() error {
	if b.frame == nil {
		return nil
	}
	b.EndPass()
	f := b.frame
	b.frame = nil
	defer func() {
		f.surfaceView.Release()
		f.surfaceTexture.Release()
		f.encoder.Release()
	}()

	if used := b.arena.used(); len(used) > 0 {
		b.queue.WriteBuffer(b.arenaBuffer, 0, used)
	}

	commandBuffer, err := f.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()
	return nil
}

func (b *wgpuBackend) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := b.configureSurface(width, height); err != nil {
		common.Logger().Error("webgpu resize failed", "width", width, "height", height, "error", err)
	}
}

func (b *wgpuBackend) Release() {
	if b.frame != nil {
		b.frame.surfaceView.Release()
		b.frame.surfaceTexture.Release()
		b.frame.encoder.Release()
		b.frame = nil
	}
	b.pipelines.Release()
	for h := range b.vertexArrays {
		b.DestroyVertexArray(h)
	}
	for h := range b.programs {
		b.DestroyProgram(h)
	}
	for h := range b.framebuffers {
		b.DestroyFramebuffer(h)
	}
	for h := range b.textures {
		b.DestroyTexture(h)
	}
	for h := range b.buffers {
		b.DestroyBuffer(h)
	}
	b.releaseDepth()
	if b.arenaBuffer != nil {
		b.arenaBuffer.Release()
		b.arenaBuffer = nil
	}
	if b.emptyGroup != nil {
		b.emptyGroup.Release()
		b.emptyGroup = nil
	}
	if b.emptyLayout != nil {
		b.emptyLayout.Release()
		b.emptyLayout = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
