// Package render_target owns every offscreen render target: the deferred G-buffer, the HDR scene
// target and the bloom mip chain. It is the only owner of their attachment textures.
package render_target

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

var (
	// ErrTooManyAttachments is returned when a spec declares more color attachments than the backend supports.
	ErrTooManyAttachments = errors.New("too many color attachments")

	// ErrInvalidFormat is returned when an attachment format cannot be rendered to.
	ErrInvalidFormat = errors.New("invalid attachment format")

	// ErrInvalidSize is returned for non-positive target sizes.
	ErrInvalidSize = errors.New("invalid render target size")
)

// AttachmentSpec declares one color attachment.
type AttachmentSpec struct {
	Name   string
	Format backend.TextureFormat
}

// Spec declares a render target. Attachments occupy color slots 0..N-1 in order.
type Spec struct {
	Label       string
	Width       int
	Height      int
	Attachments []AttachmentSpec
	Depth       bool
}

// Target is a configured framebuffer and the attachment textures it owns.
type Target struct {
	Spec        Spec
	Framebuffer backend.FramebufferHandle
	Color       []backend.TextureHandle
	Depth       backend.TextureHandle
	DrawBuffers []int
}

// Attachment returns the color texture with the given attachment name.
//
// Parameters:
//   - name: the attachment name from the spec
//
// Returns:
//   - backend.TextureHandle: the texture, or InvalidTexture if the name is unknown
func (t *Target) Attachment(name string) backend.TextureHandle {
	for i, a := range t.Spec.Attachments {
		if a.Name == name {
			return t.Color[i]
		}
	}
	return backend.InvalidTexture
}

// manager is the implementation of the Manager interface.
type manager struct {
	backend backend.Backend
	targets map[string]*Target
	order   []string
	bloom   *Bloom
}

// Manager configures, resizes and destroys render targets.
type Manager interface {
	// Configure creates the target described by spec, destroying any previous target with the same label first.
	// Every color texture uses nearest filtering and clamp-to-edge wrapping, the depth texture matches the color size,
	// and the draw-buffer set is exactly slots 0..N-1.
	//
	// Parameters:
	//   - spec: the target declaration
	//
	// Returns:
	//   - *Target: the configured target
	//   - error: ErrTooManyAttachments, ErrInvalidFormat, ErrInvalidSize, or an error wrapping backend.ErrFramebufferIncomplete
	Configure(spec Spec) (*Target, error)

	// Target returns a configured target by label.
	//
	// Parameters:
	//   - label: the spec label
	//
	// Returns:
	//   - *Target: the target, or nil if not configured
	Target(label string) *Target

	// ConfigureBloom creates the bloom mip chain for a display size, replacing any previous chain.
	//
	// Parameters:
	//   - width: display width in pixels
	//   - height: display height in pixels
	//
	// Returns:
	//   - *Bloom: the chain
	//   - error: error if any texture or framebuffer could not be created
	ConfigureBloom(width, height int) (*Bloom, error)

	// Bloom returns the configured bloom chain, or nil.
	//
	// Returns:
	//   - *Bloom: the chain or nil
	Bloom() *Bloom

	// Resize reconfigures every target at a new display size. Full-size targets track the display,
	// the bloom chain is rebuilt at half size.
	//
	// Parameters:
	//   - width: display width in pixels
	//   - height: display height in pixels
	//
	// Returns:
	//   - error: the first configuration error
	Resize(width, height int) error

	// Destroy releases every target and attachment.
	Destroy()
}

var _ Manager = &manager{}

// NewManager creates an empty render target manager.
//
// Parameters:
//   - b: the backend that creates textures and framebuffers
//
// Returns:
//   - Manager: the manager
func NewManager(b backend.Backend) Manager {
	return &manager{
		backend: b,
		targets: make(map[string]*Target),
	}
}

func (m *manager) Configure(spec Spec) (*Target, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("%s: %w: %dx%d", spec.Label, ErrInvalidSize, spec.Width, spec.Height)
	}
	if limit := m.backend.Limits().MaxColorAttachments; len(spec.Attachments) > limit {
		return nil, fmt.Errorf("%s: %w: %d > %d", spec.Label, ErrTooManyAttachments, len(spec.Attachments), limit)
	}
	for _, a := range spec.Attachments {
		if !a.Format.IsColor() {
			return nil, fmt.Errorf("%s: attachment %q: %w: %s", spec.Label, a.Name, ErrInvalidFormat, a.Format)
		}
	}

	if old, ok := m.targets[spec.Label]; ok {
		m.destroyTarget(old)
		delete(m.targets, spec.Label)
	} else {
		m.order = append(m.order, spec.Label)
	}

	t := &Target{
		Spec:        spec,
		Color:       make([]backend.TextureHandle, 0, len(spec.Attachments)),
		DrawBuffers: make([]int, len(spec.Attachments)),
	}
	for i, a := range spec.Attachments {
		tex, err := m.backend.CreateTexture(backend.TextureDescriptor{
			Label:     spec.Label + "/" + a.Name,
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    a.Format,
			MinFilter: backend.FilterNearest,
			MagFilter: backend.FilterNearest,
			Wrap:      backend.WrapClampToEdge,
		})
		if err != nil {
			m.destroyTarget(t)
			m.forget(spec.Label)
			return nil, fmt.Errorf("%s: attachment %q: %w", spec.Label, a.Name, err)
		}
		t.Color = append(t.Color, tex)
		t.DrawBuffers[i] = i
	}

	desc := backend.FramebufferDescriptor{
		Label:       spec.Label,
		DrawBuffers: t.DrawBuffers,
	}
	for _, tex := range t.Color {
		desc.ColorAttachments = append(desc.ColorAttachments, backend.Attachment{Texture: tex})
	}
	if spec.Depth {
		depth, err := m.backend.CreateTexture(backend.TextureDescriptor{
			Label:     spec.Label + "/depth",
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    backend.TextureFormatDepth24,
			MinFilter: backend.FilterNearest,
			MagFilter: backend.FilterNearest,
			Wrap:      backend.WrapClampToEdge,
		})
		if err != nil {
			m.destroyTarget(t)
			m.forget(spec.Label)
			return nil, fmt.Errorf("%s: depth: %w", spec.Label, err)
		}
		t.Depth = depth
		desc.Depth = &backend.Attachment{Texture: depth}
	}

	fb, err := m.backend.CreateFramebuffer(desc)
	if err != nil {
		m.destroyTarget(t)
		m.forget(spec.Label)
		return nil, fmt.Errorf("%s: %w", spec.Label, err)
	}
	t.Framebuffer = fb
	m.targets[spec.Label] = t

	common.Logger().Debug("render target configured", "label", spec.Label, "width", spec.Width, "height", spec.Height, "attachments", len(spec.Attachments), "depth", spec.Depth)
	return t, nil
}

func (m *manager) Target(label string) *Target {
	return m.targets[label]
}

func (m *manager) Bloom() *Bloom {
	return m.bloom
}

func (m *manager) Resize(width, height int) error {
	for _, label := range append([]string(nil), m.order...) {
		t := m.targets[label]
		if t == nil {
			continue
		}
		spec := t.Spec
		spec.Width, spec.Height = width, height
		if _, err := m.Configure(spec); err != nil {
			return err
		}
	}
	if m.bloom != nil {
		if _, err := m.ConfigureBloom(width, height); err != nil {
			return err
		}
	}
	return nil
}

func (m *manager) Destroy() {
	for _, label := range m.order {
		if t := m.targets[label]; t != nil {
			m.destroyTarget(t)
		}
	}
	clear(m.targets)
	m.order = nil
	if m.bloom != nil {
		m.bloom.destroy(m.backend)
		m.bloom = nil
	}
}

func (m *manager) destroyTarget(t *Target) {
	if t.Framebuffer != backend.DefaultFramebuffer {
		m.backend.DestroyFramebuffer(t.Framebuffer)
		t.Framebuffer = backend.DefaultFramebuffer
	}
	for _, tex := range t.Color {
		m.backend.DestroyTexture(tex)
	}
	t.Color = nil
	if t.Depth.Valid() {
		m.backend.DestroyTexture(t.Depth)
		t.Depth = backend.InvalidTexture
	}
}

func (m *manager) forget(label string) {
	for i, l := range m.order {
		if l == label {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
