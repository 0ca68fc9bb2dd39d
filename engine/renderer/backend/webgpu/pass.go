package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// uniformRange is the buffer range bound to one uniform binding point.
type uniformRange struct {
	buffer backend.BufferHandle
	offset int
}

// drawState mirrors the bind state of the GL backend. It survives pass boundaries.
type drawState struct {
	program     backend.ProgramHandle
	vertexArray backend.VertexArrayHandle
	uniforms    [groupTextures]uniformRange
	textures    [maxTextureUnits]textureBinding
}

type passState struct {
	encoder  *wgpu.RenderPassEncoder
	desc     backend.PassDescriptor
	targets  string
	formats  []wgpu.TextureFormat
	depth    bool
	pipeline *wgpu.RenderPipeline
}

func (b *wgpuBackend) BeginPass(desc backend.PassDescriptor) {
	if b.frame == nil {
		return
	}
	b.EndPass()

	var (
		views   []*wgpu.TextureView
		formats []wgpu.TextureFormat
		depth   *wgpu.TextureView
		width   = b.width
		height  = b.height
	)
	if desc.Target == backend.DefaultFramebuffer {
		views = []*wgpu.TextureView{b.frame.surfaceView}
		formats = []wgpu.TextureFormat{b.surfaceFormat}
		depth = b.depthView
	} else {
		fb, ok := b.framebuffers[desc.Target]
		if !ok {
			common.Logger().Warn("pass target is not a framebuffer", "pass", desc.Label, "target", desc.Target)
			return
		}
		slots := desc.DrawBuffers
		if len(slots) == 0 {
			slots = fb.drawBuffers
		}
		for _, slot := range slots {
			if slot < 0 || slot >= len(fb.colors) {
				continue
			}
			views = append(views, fb.colors[slot].view)
			formats = append(formats, fb.colors[slot].format)
			width, height = fb.colors[slot].width, fb.colors[slot].height
		}
		if fb.depth != nil {
			depth = fb.depth.view
			width, height = fb.depth.width, fb.depth.height
		}
	}

	colors := make([]wgpu.RenderPassColorAttachment, len(views))
	for i, v := range views {
		colors[i] = wgpu.RenderPassColorAttachment{
			View:    v,
			LoadOp:  loadOp(desc.ClearColor),
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(desc.Color[0]),
				G: float64(desc.Color[1]),
				B: float64(desc.Color[2]),
				A: float64(desc.Color[3]),
			},
		}
	}
	rp := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if depth != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     loadOp(desc.ClearDepth),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	encoder := b.frame.encoder.BeginRenderPass(rp)
	vp := desc.Viewport
	if vp.Width == 0 || vp.Height == 0 {
		vp = backend.Viewport{Width: width, Height: height}
	}
	encoder.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)

	b.pass = &passState{
		encoder: encoder,
		desc:    desc,
		targets: pipeline.TargetSignature(formats),
		formats: formats,
		depth:   depth != nil,
	}
}

func loadOp(clear bool) wgpu.LoadOp {
	if clear {
		return wgpu.LoadOpClear
	}
	return wgpu.LoadOpLoad
}

func (b *wgpuBackend) UseProgram(h backend.ProgramHandle) {
	b.draw.program = h
}

func (b *wgpuBackend) BindUniformRange(binding int, buf backend.BufferHandle, offset, size int) {
	if binding < 0 || binding >= len(b.draw.uniforms) {
		common.Logger().Warn("uniform binding out of range", "binding", binding)
		return
	}
	b.draw.uniforms[binding] = uniformRange{buffer: buf, offset: offset}
}

func (b *wgpuBackend) BindTexture(unit int, tex backend.TextureHandle, mips backend.MipRange) {
	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	b.draw.textures[unit] = textureBinding{texture: tex, mips: mips}
}

// paramSlot returns the DrawParams bytes at a location, nil when the write would not fit.
func (b *wgpuBackend) paramSlot(loc backend.UniformLocation, size int) []byte {
	p, ok := b.programs[b.draw.program]
	if !ok || !loc.Valid() || int(loc)+size > len(p.params) {
		return nil
	}
	return p.params[int(loc) : int(loc)+size]
}

func (b *wgpuBackend) SetUniformInt(loc backend.UniformLocation, v int32) {
	if dst := b.paramSlot(loc, 4); dst != nil {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}

func (b *wgpuBackend) SetUniformFloat(loc backend.UniformLocation, v float32) {
	if dst := b.paramSlot(loc, 4); dst != nil {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	}
}

func (b *wgpuBackend) SetUniformVec3(loc backend.UniformLocation, v mgl32.Vec3) {
	if dst := b.paramSlot(loc, 12); dst != nil {
		common.PutVec3(dst, v)
	}
}

func (b *wgpuBackend) BindVertexArray(h backend.VertexArrayHandle) {
	b.draw.vertexArray = h
}

func (b *wgpuBackend) DrawIndexed(count int, format backend.IndexFormat, byteOffset int) {
	if b.pass == nil || count <= 0 {
		return
	}
	p, va, vb, ib, err := b.drawInputs()
	if err != nil {
		common.Logger().Warn("draw skipped", "pass", b.pass.desc.Label, "error", err)
		return
	}

	rp, err := b.renderPipeline(b.draw.program, p, va)
	if err != nil {
		common.Logger().Error("render pipeline", "program", p.name, "pass", b.pass.desc.Label, "error", err)
		return
	}
	if rp != b.pass.pipeline {
		b.pass.encoder.SetPipeline(rp)
		b.pass.pipeline = rp
	}

	for g := range p.groupCount {
		bg, offsets, ok := b.bindGroup(p, g)
		if !ok {
			return
		}
		b.pass.encoder.SetBindGroup(uint32(g), bg, offsets)
	}

	b.pass.encoder.SetVertexBuffer(0, vb.buf, va.baseOffset, wgpu.WholeSize)
	b.pass.encoder.SetIndexBuffer(ib.buf, indexFormat(format), 0, wgpu.WholeSize)
	b.pass.encoder.DrawIndexed(uint32(count), 1, uint32(byteOffset/format.Size()), 0, 0)
}

// drawInputs resolves the bound program, vertex array and its buffers for a draw.
func (b *wgpuBackend) drawInputs() (*programState, *vertexArrayState, *bufferState, *bufferState, error) {
	p, ok := b.programs[b.draw.program]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("program %d: %w", b.draw.program, backend.ErrUnknownHandle)
	}
	va, ok := b.vertexArrays[b.draw.vertexArray]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("vertex array %d: %w", b.draw.vertexArray, backend.ErrUnknownHandle)
	}
	vb, ok := b.buffers[va.vertex]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("vertex buffer %d: %w", va.vertex, backend.ErrUnknownHandle)
	}
	ib, ok := b.buffers[va.index]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("index buffer %d: %w", va.index, backend.ErrUnknownHandle)
	}
	return p, va, vb, ib, nil
}

// renderPipeline returns the compiled pipeline for the current program, vertex layout and pass.
func (b *wgpuBackend) renderPipeline(h backend.ProgramHandle, p *programState, va *vertexArrayState) (*wgpu.RenderPipeline, error) {
	key := pipeline.Key{
		Program:   h,
		Vertex:    va.signature,
		Targets:   b.pass.targets,
		Depth:     b.pass.depth,
		DepthTest: b.pass.desc.DepthTest,
		Blend:     b.pass.desc.Blend,
	}
	if cached, ok := b.pipelines.Get(key); ok {
		return cached.RenderPipeline(), nil
	}

	pl := pipeline.NewPipeline(key)
	targets := make([]wgpu.ColorTargetState, len(b.pass.formats))
	for i, f := range b.pass.formats {
		targets[i] = wgpu.ColorTargetState{
			Format:    f,
			WriteMask: pl.WriteMask(),
		}
		if pl.BlendEnabled() {
			targets[i].Blend = pl.BlendState()
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key.String(),
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: p.reflection.VertexEntry,
			Buffers:    []wgpu.VertexBufferLayout{va.layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: p.reflection.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  pl.Topology(),
			FrontFace: pl.FrontFace(),
			CullMode:  pl.CullMode(),
		},
		DepthStencil: pl.DepthStencilState(),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	pl.SetRenderPipeline(created)
	b.pipelines.Add(pl)
	common.Logger().Debug("render pipeline compiled", "program", p.name, "pass", b.pass.desc.Label)
	return created, nil
}

// bindGroup resolves the bind group and dynamic offsets for one group of the current draw.
func (b *wgpuBackend) bindGroup(p *programState, g int) (*wgpu.BindGroup, []uint32, bool) {
	if p.groups[g] == nil {
		return b.emptyGroup, nil, true
	}

	switch g {
	case groupGlobal, groupEntity:
		u := b.draw.uniforms[g]
		buf, ok := b.buffers[u.buffer]
		size := p.uniformSizes[g]
		if !ok || u.offset+size > buf.alloc {
			common.Logger().Warn("uniform range not bound", "program", p.name, "group", g, "buffer", u.buffer, "offset", u.offset)
			return nil, nil, false
		}
		bg, ok := b.cachedBindGroup(p, bindGroupKey{group: g, buffer: u.buffer}, func() []wgpu.BindGroupEntry {
			return []wgpu.BindGroupEntry{{Binding: 0, Buffer: buf.buf, Offset: 0, Size: uint64(size)}}
		})
		return bg, []uint32{uint32(u.offset)}, ok

	case groupParams:
		off, fits := b.arena.push(p.params)
		if !fits {
			common.Logger().Error("draw params arena exhausted", "program", p.name, "size", len(b.arena.data))
			return nil, nil, false
		}
		bg, ok := b.cachedBindGroup(p, bindGroupKey{group: g}, func() []wgpu.BindGroupEntry {
			return []wgpu.BindGroupEntry{{Binding: 0, Buffer: b.arenaBuffer, Offset: 0, Size: uint64(len(p.params))}}
		})
		return bg, []uint32{uint32(off)}, ok

	default:
		key := bindGroupKey{group: g}
		for _, bd := range p.textures {
			unit := textureUnit(bd)
			key.units[unit] = b.draw.textures[unit]
		}
		if bg, ok := p.bindGroups[key]; ok {
			return bg, nil, true
		}
		var entries []wgpu.BindGroupEntry
		for _, bd := range p.textures {
			tb := key.units[textureUnit(bd)]
			st, ok := b.textures[tb.texture]
			if !ok || st.sampler == nil {
				common.Logger().Warn("texture unit not bound", "program", p.name, "binding", bd.Name, "texture", tb.texture)
				return nil, nil, false
			}
			if bd.Binding%2 == 1 {
				entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(bd.Binding), Sampler: st.sampler})
				continue
			}
			view, err := st.view(tb.mips)
			if err != nil {
				common.Logger().Error("texture view", "texture", tb.texture, "error", err)
				return nil, nil, false
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(bd.Binding), TextureView: view})
		}
		bg, ok := b.cachedBindGroup(p, key, func() []wgpu.BindGroupEntry { return entries })
		return bg, nil, ok
	}
}

func (b *wgpuBackend) cachedBindGroup(p *programState, key bindGroupKey, entries func() []wgpu.BindGroupEntry) (*wgpu.BindGroup, bool) {
	if bg, ok := p.bindGroups[key]; ok {
		return bg, true
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name,
		Layout:  p.groups[key.group],
		Entries: entries(),
	})
	if err != nil {
		common.Logger().Error("bind group", "program", p.name, "group", key.group, "error", err)
		return nil, false
	}
	p.bindGroups[key] = bg
	return bg, true
}

func (b *wgpuBackend) EndPass() {
	if b.pass == nil {
		return
	}
	b.pass.encoder.End()
	b.pass.encoder.Release()
	b.pass = nil
}
