package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// textureBinding is the texture and mip range bound to one unit.
type textureBinding struct {
	texture backend.TextureHandle
	mips    backend.MipRange
}

// bindGroupKey identifies one bind group of a program by the resources it references.
type bindGroupKey struct {
	group  int
	buffer backend.BufferHandle
	units  [maxTextureUnits]textureBinding
}

type programState struct {
	name       string
	module     *wgpu.ShaderModule
	reflection *shader.Reflection

	groupCount int
	groups     [maxGroups]*wgpu.BindGroupLayout
	layout     *wgpu.PipelineLayout

	// uniformSizes holds the bound size of the uniform buffer in groups 0 and 1, keyed by group.
	uniformSizes map[int]int
	textures     []shader.Binding

	// params is the DrawParams shadow written by SetUniform*, nil when the program declares none.
	params []byte

	bindGroups map[bindGroupKey]*wgpu.BindGroup
}

func (p *programState) dropBindGroups() {
	for k, bg := range p.bindGroups {
		bg.Release()
		delete(p.bindGroups, k)
	}
}

func (p *programState) release() {
	p.dropBindGroups()
	if p.layout != nil {
		p.layout.Release()
	}
	for _, l := range p.groups {
		if l != nil {
			l.Release()
		}
	}
	if p.module != nil {
		p.module.Release()
	}
}

func (b *wgpuBackend) CreateProgram(desc backend.ProgramDescriptor) (backend.ProgramInfo, error) {
	r, err := shader.Reflect(desc.Source)
	if err != nil {
		return backend.ProgramInfo{}, fmt.Errorf("%s: %v: %w", desc.Name, err, backend.ErrProgramCompile)
	}
	if err := checkBindings(r); err != nil {
		return backend.ProgramInfo{}, fmt.Errorf("%s: %v: %w", desc.Name, err, backend.ErrProgramCompile)
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return backend.ProgramInfo{}, fmt.Errorf("%s: %v: %w", desc.Name, err, backend.ErrProgramCompile)
	}

	p := &programState{
		name:         desc.Name,
		module:       module,
		reflection:   r,
		groupCount:   r.MaxGroup() + 1,
		uniformSizes: make(map[int]int),
		textures:     r.Group(groupTextures),
		bindGroups:   make(map[bindGroupKey]*wgpu.BindGroup),
	}
	if err := b.buildLayouts(p); err != nil {
		p.release()
		return backend.ProgramInfo{}, fmt.Errorf("%s: %v: %w", desc.Name, err, backend.ErrProgramCompile)
	}

	info := backend.ProgramInfo{
		Handle:     backend.ProgramHandle(b.handle()),
		Attributes: make([]backend.AttributeInfo, 0, len(r.VertexInputs)),
		Uniforms:   make(map[string]backend.UniformLocation),
	}
	for _, in := range r.VertexInputs {
		info.Attributes = append(info.Attributes, backend.AttributeInfo{Name: in.Name, Location: in.Location, Components: in.Components})
	}
	if pb, ok := paramsBinding(r); ok {
		p.params = make([]byte, bindSize(pb))
		for _, f := range r.Structs[pb.TypeName].Fields {
			info.Uniforms[f.Name] = backend.UniformLocation(f.Offset)
		}
	}

	names := samplerNames(p.textures)
	for sampler, unit := range desc.Samplers {
		if got, ok := names[sampler]; ok && got != unit {
			common.Logger().Warn("texture binding disagrees with sampler table", "program", desc.Name, "sampler", sampler, "unit", unit, "binding_unit", got)
		}
	}

	b.programs[info.Handle] = p
	common.Logger().Debug("program compiled", "program", desc.Name, "groups", p.groupCount, "attributes", len(info.Attributes), "uniforms", len(info.Uniforms))
	return info, nil
}

// checkBindings rejects modules that do not fit the fixed group convention.
func checkBindings(r *shader.Reflection) error {
	if r.MaxGroup() >= maxGroups {
		return fmt.Errorf("@group(%d) exceeds %d bind groups", r.MaxGroup(), maxGroups)
	}
	for _, bd := range r.Bindings {
		switch bd.Group {
		case groupGlobal, groupEntity, groupParams:
			if bd.Kind != shader.BindingUniform || bd.Binding != 0 {
				return fmt.Errorf("@group(%d) @binding(%d) %s: expected a single uniform buffer", bd.Group, bd.Binding, bd.Name)
			}
		case groupTextures:
			if textureUnit(bd) >= maxTextureUnits {
				return fmt.Errorf("@group(2) @binding(%d) %s: texture unit out of range", bd.Binding, bd.Name)
			}
			wantSampler := bd.Binding%2 == 1
			isSampler := bd.Kind == shader.BindingSampler || bd.Kind == shader.BindingComparisonSampler
			if wantSampler != isSampler {
				return fmt.Errorf("@group(2) @binding(%d) %s: textures use even bindings and samplers odd", bd.Binding, bd.Name)
			}
		}
	}
	return nil
}

// paramsBinding returns the DrawParams uniform of a module.
func paramsBinding(r *shader.Reflection) (shader.Binding, bool) {
	for _, bd := range r.Group(groupParams) {
		if bd.TypeName == paramsBlockName {
			if _, ok := r.Structs[bd.TypeName]; ok {
				return bd, true
			}
		}
	}
	return shader.Binding{}, false
}

// buildLayouts creates one bind group layout per declared group and the pipeline layout joining
// them. Unused group slots below the highest declared group take the shared empty layout.
func (b *wgpuBackend) buildLayouts(p *programState) error {
	layouts := make([]*wgpu.BindGroupLayout, p.groupCount)
	for g := range p.groupCount {
		bindings := p.reflection.Group(g)
		if len(bindings) == 0 {
			layouts[g] = b.emptyLayout
			continue
		}
		entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		for i, bd := range bindings {
			entries[i] = layoutEntry(bd)
			if bd.Kind == shader.BindingUniform && g != groupParams {
				p.uniformSizes[g] = bindSize(bd)
			}
		}
		l, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", p.name, g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("group %d layout: %w", g, err)
		}
		p.groups[g] = l
		layouts[g] = l
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.name + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}
	p.layout = layout
	return nil
}

func (b *wgpuBackend) DestroyProgram(h backend.ProgramHandle) {
	p, ok := b.programs[h]
	if !ok {
		return
	}
	if b.draw.program == h {
		b.draw.program = backend.InvalidProgram
	}
	b.pipelines.EvictProgram(h)
	p.release()
	delete(b.programs, h)
}

// dropBindGroups releases every cached bind group. Called when a referenced resource goes away.
func (b *wgpuBackend) dropBindGroups() {
	for _, p := range b.programs {
		p.dropBindGroups()
	}
}
