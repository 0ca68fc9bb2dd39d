package opengl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// attributeComponents maps GLSL attribute types to their float component count.
var attributeComponents = map[uint32]int{
	gl.FLOAT:      1,
	gl.FLOAT_VEC2: 2,
	gl.FLOAT_VEC3: 3,
	gl.FLOAT_VEC4: 4,
}

func (b *glBackend) CreateProgram(desc backend.ProgramDescriptor) (backend.ProgramInfo, error) {
	vs, err := compileStage(gl.VERTEX_SHADER, shader.StageSource(desc.Source, desc.Name, shader.StageVertex))
	if err != nil {
		return backend.ProgramInfo{}, fmt.Errorf("%s vertex: %w", desc.Name, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileStage(gl.FRAGMENT_SHADER, shader.StageSource(desc.Source, desc.Name, shader.StageFragment))
	if err != nil {
		return backend.ProgramInfo{}, fmt.Errorf("%s fragment: %w", desc.Name, err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)
	gl.DetachShader(prog, vs)
	gl.DetachShader(prog, fs)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programLog(prog)
		gl.DeleteProgram(prog)
		return backend.ProgramInfo{}, fmt.Errorf("%s link: %s: %w", desc.Name, log, backend.ErrProgramCompile)
	}

	for block, binding := range desc.UniformBlocks {
		idx := gl.GetUniformBlockIndex(prog, gl.Str(block+"\x00"))
		if idx == gl.INVALID_INDEX {
			continue
		}
		gl.UniformBlockBinding(prog, idx, uint32(binding))
	}

	gl.UseProgram(prog)
	for sampler, unit := range desc.Samplers {
		if loc := gl.GetUniformLocation(prog, gl.Str(sampler+"\x00")); loc >= 0 {
			gl.Uniform1i(loc, int32(unit))
		}
	}
	gl.UseProgram(0)

	info := backend.ProgramInfo{
		Handle:     backend.ProgramHandle(prog),
		Attributes: activeAttributes(prog),
		Uniforms:   activeUniforms(prog),
	}
	b.programs[info.Handle] = struct{}{}
	common.Logger().Debug("program linked", "program", desc.Name, "attributes", len(info.Attributes), "uniforms", len(info.Uniforms))
	return info, nil
}

func (b *glBackend) DestroyProgram(h backend.ProgramHandle) {
	if _, ok := b.programs[h]; !ok {
		return
	}
	gl.DeleteProgram(uint32(h))
	delete(b.programs, h)
}

// compileStage compiles one shader stage, returning the full driver log on failure.
func compileStage(stage uint32, source string) (uint32, error) {
	s := gl.CreateShader(stage)
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetShaderInfoLog(s, length, nil, gl.Str(log))
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%s: %w", strings.TrimRight(log, "\x00\n"), backend.ErrProgramCompile)
	}
	return s, nil
}

func programLog(prog uint32) string {
	var length int32
	gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &length)
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(prog, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

// activeAttributes reflects the vertex inputs of a linked program, sorted by location.
func activeAttributes(prog uint32) []backend.AttributeInfo {
	var count, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTES, &count)
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)

	buf := make([]uint8, maxLen+1)
	var out []backend.AttributeInfo
	for i := range uint32(count) {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(prog, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		loc := gl.GetAttribLocation(prog, gl.Str(name+"\x00"))
		if loc < 0 {
			continue
		}
		out = append(out, backend.AttributeInfo{
			Name:       name,
			Location:   uint32(loc),
			Components: common.Coalesce(attributeComponents[xtype], 4),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location < out[j].Location
	})
	return out
}

// activeUniforms reflects every default-block uniform. Block members have no location and are skipped.
func activeUniforms(prog uint32) map[string]backend.UniformLocation {
	var count, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)

	buf := make([]uint8, maxLen+1)
	out := make(map[string]backend.UniformLocation, count)
	for i := range uint32(count) {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(prog, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := uniformName(string(buf[:length]))
		if loc := gl.GetUniformLocation(prog, gl.Str(name+"\x00")); loc >= 0 {
			out[name] = backend.UniformLocation(loc)
		}
	}
	return out
}

// uniformName strips the "[0]" suffix drivers report for array uniforms.
func uniformName(reported string) string {
	return strings.TrimSuffix(reported, "[0]")
}
