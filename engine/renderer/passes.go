package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/staging"
)

// BloomThreshold is the luminance above which the bright pass keeps a pixel.
const BloomThreshold float32 = 1.0

// Post-process uniform names.
const (
	uniformThreshold  = "threshold"
	uniformHorizontal = "horizontal"
	uniformMaxLod     = "maxLod"
)

var (
	forwardClear  = [4]float32{0, 0, 0, 1}
	deferredClear = [4]float32{0.1, 0.1, 0.1, 1}
)

// Composite texture units, matching the sampler table of the composite program.
const (
	unitAlbedo = iota
	unitNormals
	unitPosition
	unitViewDir
)

func (r *renderer) fullViewport() backend.Viewport {
	return backend.Viewport{Width: r.width, Height: r.height}
}

// renderForward shades every entity straight into the back buffer.
func (r *renderer) renderForward(sc Scene, global staging.Range) error {
	r.backend.BeginPass(backend.PassDescriptor{
		Label:      "forward",
		Target:     backend.DefaultFramebuffer,
		Viewport:   r.fullViewport(),
		ClearColor: true,
		Color:      forwardClear,
		ClearDepth: true,
		DepthTest:  true,
	})
	err := r.geometryPass(sc, global, r.ctx.Programs.Get(shader.ProgramForward))
	r.backend.EndPass()
	return err
}

// renderDeferred fills the G-buffer, then lights it onto the back buffer with one fullscreen quad.
func (r *renderer) renderDeferred(sc Scene, global staging.Range) error {
	gbuf := r.targets.Target(render_target.GBufferLabel)
	if gbuf == nil {
		return fmt.Errorf("render target %q not configured", render_target.GBufferLabel)
	}

	r.backend.BeginPass(backend.PassDescriptor{
		Label:      "deferred/geometry",
		Target:     gbuf.Framebuffer,
		Viewport:   r.fullViewport(),
		ClearColor: true,
		Color:      deferredClear,
		ClearDepth: true,
		DepthTest:  true,
	})
	err := r.geometryPass(sc, global, r.ctx.Programs.Get(shader.ProgramDeferredGeometry))
	r.backend.EndPass()
	if err != nil {
		return err
	}

	r.backend.BeginPass(backend.PassDescriptor{
		Label:      "deferred/composite",
		Target:     backend.DefaultFramebuffer,
		Viewport:   r.fullViewport(),
		ClearColor: true,
		Color:      deferredClear,
		ClearDepth: true,
	})
	defer r.backend.EndPass()

	p := r.ctx.Programs.Get(shader.ProgramDeferredComposite)
	if !r.use(p) {
		return nil
	}
	r.backend.BindUniformRange(shader.GlobalParamsBinding, r.staging.Handle(), global.Offset, global.Size)
	r.backend.BindTexture(unitAlbedo, gbuf.Attachment(render_target.GBufferAlbedo), backend.AllMips)
	r.backend.BindTexture(unitNormals, gbuf.Attachment(render_target.GBufferNormals), backend.AllMips)
	r.backend.BindTexture(unitPosition, gbuf.Attachment(render_target.GBufferPosition), backend.AllMips)
	r.backend.BindTexture(unitViewDir, gbuf.Attachment(render_target.GBufferViewDir), backend.AllMips)
	return r.drawQuad(p)
}

// renderBloom shades forward into the HDR target, extracts and blurs its bright parts down the bloom
// chain, then presents the HDR image with the chain added on top.
func (r *renderer) renderBloom(sc Scene, global staging.Range) error {
	hdr := r.targets.Target(render_target.HDRLabel)
	bloom := r.targets.Bloom()
	if hdr == nil || bloom == nil {
		return fmt.Errorf("render target %q or bloom chain not configured", render_target.HDRLabel)
	}
	scene := hdr.Attachment(render_target.HDRColor)

	r.backend.BeginPass(backend.PassDescriptor{
		Label:      "bloom/scene",
		Target:     hdr.Framebuffer,
		Viewport:   r.fullViewport(),
		ClearColor: true,
		Color:      forwardClear,
		ClearDepth: true,
		DepthTest:  true,
	})
	err := r.geometryPass(sc, global, r.ctx.Programs.Get(shader.ProgramForward))
	r.backend.EndPass()
	if err != nil {
		return err
	}

	bright := r.ctx.Programs.Get(shader.ProgramBrightPass)
	err = r.postPass(backend.PassDescriptor{
		Label:      "bloom/bright",
		Target:     bloom.BrightLevels[0],
		Viewport:   bloom.LevelViewport(0),
		ClearColor: true,
		Color:      forwardClear,
	}, bright, func() {
		r.backend.SetUniformFloat(bright.Uniform(uniformThreshold), BloomThreshold)
		r.backend.BindTexture(0, scene, backend.AllMips)
	})
	if err != nil {
		return err
	}

	blur := r.ctx.Programs.Get(shader.ProgramBlur)
	for level := range render_target.BloomMipLevels {
		src := max(level-1, 0)
		err = r.postPass(backend.PassDescriptor{
			Label:    fmt.Sprintf("bloom/blur_h/%d", level),
			Target:   bloom.BlurHLevels[level],
			Viewport: bloom.LevelViewport(level),
		}, blur, func() {
			r.backend.SetUniformInt(blur.Uniform(uniformHorizontal), 1)
			r.backend.BindTexture(0, bloom.Bright, backend.SingleMip(src))
		})
		if err != nil {
			return err
		}

		err = r.postPass(backend.PassDescriptor{
			Label:    fmt.Sprintf("bloom/blur_v/%d", level),
			Target:   bloom.BrightLevels[level],
			Viewport: bloom.LevelViewport(level),
		}, blur, func() {
			r.backend.SetUniformInt(blur.Uniform(uniformHorizontal), 0)
			r.backend.BindTexture(0, bloom.BlurH, backend.SingleMip(level))
		})
		if err != nil {
			return err
		}
	}

	err = r.postPass(backend.PassDescriptor{
		Label:      "bloom/present",
		Target:     backend.DefaultFramebuffer,
		Viewport:   r.fullViewport(),
		ClearColor: true,
		Color:      forwardClear,
		ClearDepth: true,
	}, r.ctx.Programs.Get(shader.ProgramPassthrough), func() {
		r.backend.BindTexture(0, scene, backend.AllMips)
	})
	if err != nil {
		return err
	}

	composite := r.ctx.Programs.Get(shader.ProgramBloomComposite)
	return r.postPass(backend.PassDescriptor{
		Label:    "bloom/composite",
		Target:   backend.DefaultFramebuffer,
		Viewport: r.fullViewport(),
		Blend:    backend.BlendAdditive,
	}, composite, func() {
		r.backend.SetUniformInt(composite.Uniform(uniformMaxLod), render_target.BloomMipLevels-1)
		r.backend.BindTexture(0, bloom.Bright, backend.AllMips)
	})
}

// geometryPass draws every enabled entity with p into the current pass. Each entity binds its own
// block of the staging buffer, and each submesh binds its material and vertex array.
//
// Parameters:
//   - sc: the scene
//   - global: the range of the global block
//   - p: the program to draw with, skipped when invalid
//
// Returns:
//   - error: a vertex array error, fatal for the frame
func (r *renderer) geometryPass(sc Scene, global staging.Range, p *program.Program) error {
	if !r.use(p) {
		return nil
	}
	buf := r.staging.Handle()
	r.backend.BindUniformRange(shader.GlobalParamsBinding, buf, global.Offset, global.Size)

	textures := r.ctx.Textures.Handles()
	for _, e := range sc.Entities() {
		if !e.Enabled() {
			continue
		}
		m, ok := r.ctx.Model(e.Model())
		if !ok {
			common.Logger().Warn("entity references unknown model", "entity", e.ID(), "model", e.Model())
			continue
		}
		mesh := r.ctx.Mesh(m.Mesh)

		ur := e.UniformRange()
		r.backend.BindUniformRange(shader.EntityParamsBinding, buf, ur.Offset, ur.Size)

		for i, sm := range mesh.SubMeshes {
			vao, err := r.vaos.FindOrCreate(mesh, sm, p)
			if err != nil {
				return err
			}
			mat := DefaultMaterial
			if i < len(m.Materials) {
				mat = m.Materials[i]
			}
			r.ctx.Material(mat).Bind(r.backend, p, textures)
			r.backend.BindVertexArray(vao)
			r.backend.DrawIndexed(sm.IndexCount, mesh.IndexFormat, sm.IndexOffset)
		}
	}
	return nil
}

// postPass runs one fullscreen-quad pass: bind is called after the program is selected to set its
// uniforms and textures.
func (r *renderer) postPass(desc backend.PassDescriptor, p *program.Program, bind func()) error {
	r.backend.BeginPass(desc)
	defer r.backend.EndPass()

	if !r.use(p) {
		return nil
	}
	bind()
	return r.drawQuad(p)
}

// use selects p, reporting false when it has no valid handle so the caller skips its draws.
func (r *renderer) use(p *program.Program) bool {
	if !p.Valid() {
		return false
	}
	r.backend.UseProgram(p.Handle)
	return true
}

func (r *renderer) drawQuad(p *program.Program) error {
	sm := r.quad.SubMeshes[0]
	vao, err := r.vaos.FindOrCreate(r.quad, sm, p)
	if err != nil {
		return err
	}
	r.backend.BindVertexArray(vao)
	r.backend.DrawIndexed(sm.IndexCount, r.quad.IndexFormat, sm.IndexOffset)
	return nil
}
