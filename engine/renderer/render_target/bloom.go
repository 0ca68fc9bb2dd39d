package render_target

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

// BloomMipLevels is the depth of the bloom chain.
const BloomMipLevels = 5

// Bloom is the bloom mip chain: two multi-level textures at half display size and, per level, one
// single-attachment framebuffer onto each texture's mip so a blur pass never has the texture it
// samples bound as a target.
type Bloom struct {
	Bright       backend.TextureHandle
	BlurH        backend.TextureHandle
	BrightLevels [BloomMipLevels]backend.FramebufferHandle
	BlurHLevels  [BloomMipLevels]backend.FramebufferHandle
	Sizes        [BloomMipLevels][2]int
}

// LevelViewport returns the viewport covering one mip level.
//
// Parameters:
//   - level: the mip level
//
// Returns:
//   - backend.Viewport: the full-level viewport
func (b *Bloom) LevelViewport(level int) backend.Viewport {
	return backend.Viewport{Width: b.Sizes[level][0], Height: b.Sizes[level][1]}
}

func (m *manager) ConfigureBloom(width, height int) (*Bloom, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bloom: %w: %dx%d", ErrInvalidSize, width, height)
	}
	if m.bloom != nil {
		m.bloom.destroy(m.backend)
		m.bloom = nil
	}

	bw, bh := max(width/2, 1), max(height/2, 1)
	b := &Bloom{}
	newChainTexture := func(label string) (backend.TextureHandle, error) {
		return m.backend.CreateTexture(backend.TextureDescriptor{
			Label:     label,
			Width:     bw,
			Height:    bh,
			Format:    backend.TextureFormatRGBA16F,
			MipLevels: BloomMipLevels,
			MinFilter: backend.FilterLinearMipmapLinear,
			MagFilter: backend.FilterLinear,
			Wrap:      backend.WrapClampToEdge,
		})
	}

	var err error
	if b.Bright, err = newChainTexture("bloom/bright"); err != nil {
		return nil, fmt.Errorf("bloom: %w", err)
	}
	if b.BlurH, err = newChainTexture("bloom/blur_h"); err != nil {
		b.destroy(m.backend)
		return nil, fmt.Errorf("bloom: %w", err)
	}

	newLevel := func(label string, tex backend.TextureHandle, level int) (backend.FramebufferHandle, error) {
		return m.backend.CreateFramebuffer(backend.FramebufferDescriptor{
			Label:            fmt.Sprintf("bloom/%s/level%d", label, level),
			ColorAttachments: []backend.Attachment{{Texture: tex, MipLevel: level}},
		})
	}
	for i := range BloomMipLevels {
		b.Sizes[i] = [2]int{max(bw>>i, 1), max(bh>>i, 1)}
		if b.BrightLevels[i], err = newLevel("bright", b.Bright, i); err != nil {
			b.destroy(m.backend)
			return nil, fmt.Errorf("bloom level %d: %w", i, err)
		}
		if b.BlurHLevels[i], err = newLevel("blur_h", b.BlurH, i); err != nil {
			b.destroy(m.backend)
			return nil, fmt.Errorf("bloom level %d: %w", i, err)
		}
	}

	m.bloom = b
	common.Logger().Debug("bloom chain configured", "width", bw, "height", bh, "levels", BloomMipLevels)
	return b, nil
}

func (b *Bloom) destroy(be backend.Backend) {
	for _, levels := range []*[BloomMipLevels]backend.FramebufferHandle{&b.BrightLevels, &b.BlurHLevels} {
		for i, fb := range levels {
			if fb != backend.DefaultFramebuffer {
				be.DestroyFramebuffer(fb)
				levels[i] = backend.DefaultFramebuffer
			}
		}
	}
	if b.Bright.Valid() {
		be.DestroyTexture(b.Bright)
		b.Bright = backend.InvalidTexture
	}
	if b.BlurH.Valid() {
		be.DestroyTexture(b.BlurH)
		b.BlurH = backend.InvalidTexture
	}
}
