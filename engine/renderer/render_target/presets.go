package render_target

import "github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"

// Labels of the targets configured by the renderer.
const (
	GBufferLabel = "gbuffer"
	HDRLabel     = "hdr_scene"
)

// HDRColor is the single color attachment of the HDR target.
const HDRColor = "color"

// G-buffer attachment names, in color slot order.
const (
	GBufferAlbedo    = "albedo"
	GBufferNormals   = "normals"
	GBufferPosition  = "position"
	GBufferViewDir   = "view_dir"
	GBufferMetallic  = "metallic"
	GBufferRoughness = "roughness"
	GBufferAO        = "ao"
	GBufferEmissive  = "emissive"
)

// GBufferSpec declares the deferred geometry target: an 8-bit albedo attachment, seven 16-bit float
// attachments and a depth buffer.
//
// Parameters:
//   - width: display width in pixels
//   - height: display height in pixels
//
// Returns:
//   - Spec: the G-buffer declaration
func GBufferSpec(width, height int) Spec {
	return Spec{
		Label:  GBufferLabel,
		Width:  width,
		Height: height,
		Attachments: []AttachmentSpec{
			{Name: GBufferAlbedo, Format: backend.TextureFormatRGBA8},
			{Name: GBufferNormals, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferPosition, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferViewDir, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferMetallic, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferRoughness, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferAO, Format: backend.TextureFormatRGBA16F},
			{Name: GBufferEmissive, Format: backend.TextureFormatRGBA16F},
		},
		Depth: true,
	}
}

// HDRSpec declares the floating point scene target that bloom reads from.
//
// Parameters:
//   - width: display width in pixels
//   - height: display height in pixels
//
// Returns:
//   - Spec: the HDR target declaration
func HDRSpec(width, height int) Spec {
	return Spec{
		Label:       HDRLabel,
		Width:       width,
		Height:      height,
		Attachments: []AttachmentSpec{{Name: HDRColor, Format: backend.TextureFormatRGBA16F}},
		Depth:       true,
	}
}
