package texture

import (
	"fmt"
	"image/color"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

// DefaultIndex is the table slot of the 1x1 white texture.
const DefaultIndex = 0

// Table owns the textures materials refer to by index.
type Table struct {
	b       backend.Backend
	handles []backend.TextureHandle
	names   []string
}

// NewTable creates a table holding only the white default texture.
//
// Parameters:
//   - b: the backend textures are created on
//
// Returns:
//   - *Table: the table
//   - error: error if the default texture cannot be created
func NewTable(b backend.Backend) (*Table, error) {
	t := &Table{b: b}
	if _, err := t.Add(Solid(color.RGBA{255, 255, 255, 255})); err != nil {
		return nil, fmt.Errorf("default texture: %w", err)
	}
	return t, nil
}

// Add uploads an image as a repeating, linearly filtered RGBA8 texture.
//
// Parameters:
//   - img: the image to upload
//
// Returns:
//   - int: the table index of the new texture
//   - error: error if the backend rejects the texture
func (t *Table) Add(img *Image) (int, error) {
	h, err := t.b.CreateTexture(backend.TextureDescriptor{
		Label:     img.Name,
		Width:     img.Width,
		Height:    img.Height,
		Format:    backend.TextureFormatRGBA8,
		MinFilter: backend.FilterLinear,
		MagFilter: backend.FilterLinear,
		Wrap:      backend.WrapRepeat,
		Data:      img.Pixels,
	})
	if err != nil {
		return -1, err
	}
	t.handles = append(t.handles, h)
	t.names = append(t.names, img.Name)
	common.Logger().Debug("texture uploaded", "name", img.Name, "index", len(t.handles)-1, "width", img.Width, "height", img.Height)
	return len(t.handles) - 1, nil
}

// Index returns the slot of the first texture with the given name.
//
// Parameters:
//   - name: the image name given at Add
//
// Returns:
//   - int: the index, or DefaultIndex when no texture has that name
func (t *Table) Index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return DefaultIndex
}

// Handles returns the backend handles in table order.
func (t *Table) Handles() []backend.TextureHandle {
	return t.handles
}

// Len returns the number of textures, including the default.
func (t *Table) Len() int {
	return len(t.handles)
}

// Destroy releases every texture, including the default.
func (t *Table) Destroy() {
	for _, h := range t.handles {
		t.b.DestroyTexture(h)
	}
	t.handles = nil
	t.names = nil
}
