// Package pipeline describes the fixed-function state of WebGPU render pipelines and caches the
// compiled pipeline objects. WebGPU bakes vertex layout, attachment formats, depth and blend state
// into the pipeline, so one program can own several pipelines.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// Key identifies one compiled render pipeline.
type Key struct {
	// Program is the program the pipeline was compiled from.
	Program backend.ProgramHandle

	// Vertex is the vertex buffer layout signature, see VertexSignature.
	Vertex string

	// Targets is the color attachment format signature, see TargetSignature.
	Targets string

	// Depth is true when the pass has a depth attachment.
	Depth bool

	DepthTest bool
	Blend     backend.BlendMode
}

// String returns the key as a pipeline label.
func (k Key) String() string {
	return fmt.Sprintf("pipeline %d [%s] -> [%s] depth=%t test=%t blend=%d", k.Program, k.Vertex, k.Targets, k.Depth, k.DepthTest, k.Blend)
}

// VertexSignature builds the Vertex component of a Key from a vertex buffer layout.
//
// Parameters:
//   - layout: the vertex buffer layout
//
// Returns:
//   - string: a signature that is equal for equal layouts
func VertexSignature(layout wgpu.VertexBufferLayout) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", layout.ArrayStride)
	for _, a := range layout.Attributes {
		fmt.Fprintf(&sb, ";%d:%d@%d", a.ShaderLocation, a.Format, a.Offset)
	}
	return sb.String()
}

// TargetSignature builds the Targets component of a Key from the color attachment formats of a pass.
//
// Parameters:
//   - formats: the color attachment formats in output order
//
// Returns:
//   - string: a signature that is equal for equal format lists
func TargetSignature(formats []wgpu.TextureFormat) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = fmt.Sprintf("%d", f)
	}
	return strings.Join(parts, ",")
}

// AdditiveBlend adds the fragment output to the destination on every channel.
var AdditiveBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key Key

	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline holds the configuration state required to create one render pipeline, and the
// pipeline itself once the backend has compiled it.
type Pipeline interface {
	// Key returns the cache key of this pipeline.
	//
	// Returns:
	//   - Key: the key
	Key() Key

	// RenderPipeline returns the compiled pipeline, nil until SetRenderPipeline is called.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the compiled pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the compiled pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// DepthTestEnabled returns whether fragments are depth tested.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether fragments write depth.
	//
	// Returns:
	//   - bool: true if depth writing is enabled
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	//
	// Returns:
	//   - int32: the depth bias
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope scaled depth bias.
	//
	// Returns:
	//   - float32: the slope scale
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether BlendState is applied to the color targets.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when BlendEnabled is true.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// DepthStencilState builds the depth state for the pipeline descriptor.
	//
	// Returns:
	//   - *wgpu.DepthStencilState: the depth state, nil when the key has no depth attachment
	DepthStencilState() *wgpu.DepthStencilState

	// Release frees the compiled pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates the state of one render pipeline. The depth test, depth write and blend
// state default from the key and can be overridden with options.
//
// Parameters:
//   - key: the cache key
//   - opts: functional options
//
// Returns:
//   - Pipeline: the pipeline state
func NewPipeline(key Key, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:               key,
		depthTestEnabled:  key.Depth && key.DepthTest,
		depthWriteEnabled: key.Depth && key.DepthTest,
		blendEnabled:      key.Blend == backend.BlendAdditive,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState:        &AdditiveBlend,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Key() Key {
	return p.key
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) DepthStencilState() *wgpu.DepthStencilState {
	if !p.key.Depth {
		return nil
	}
	compare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		compare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              wgpu.TextureFormatDepth24Plus,
		DepthWriteEnabled:   p.depthWriteEnabled,
		DepthCompare:        compare,
		DepthBias:           p.depthBias,
		DepthBiasSlopeScale: p.depthBiasSlopeScale,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilReadMask:  0xFFFFFFFF,
		StencilWriteMask: 0xFFFFFFFF,
	}
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
