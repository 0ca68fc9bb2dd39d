package shader

// ScalarKind is the component type of a vertex input.
type ScalarKind int

const (
	ScalarFloat ScalarKind = iota
	ScalarSint
	ScalarUint
)

// BindingKind classifies a @group/@binding resource declaration.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingReadOnlyStorage
	BindingTexture
	BindingDepthTexture
	BindingSampler
	BindingComparisonSampler
)

// IsBuffer reports whether the binding is backed by a buffer.
func (k BindingKind) IsBuffer() bool {
	return k == BindingUniform || k == BindingStorage || k == BindingReadOnlyStorage
}

// VertexInput is one @location parameter of the vertex entry point.
type VertexInput struct {
	Name       string
	Location   uint32
	Components int
	Scalar     ScalarKind
}

// Binding is one resource declaration.
type Binding struct {
	Group   int
	Binding int
	Name    string

	// TypeName is the declared WGSL type, e.g. "GlobalParams" or "texture_2d<f32>".
	TypeName string

	Kind BindingKind

	// Size is the byte size of the bound type for buffer bindings, zero otherwise.
	Size int
}

// StructField is one member of a reflected struct with its host-shareable layout.
type StructField struct {
	Name     string
	TypeName string
	Offset   int
	Size     int
}

// StructLayout is the computed layout of a WGSL struct.
type StructLayout struct {
	Name   string
	Size   int
	Align  int
	Fields []StructField
}

// Field looks up a member by name.
func (s StructLayout) Field(name string) (StructField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

// Reflection is everything the WebGPU backend needs to know about a WGSL module.
type Reflection struct {
	VertexEntry   string
	FragmentEntry string

	// VertexInputs are sorted by location.
	VertexInputs []VertexInput

	// Bindings are sorted by group, then binding.
	Bindings []Binding

	// Structs maps struct names to layouts. Structs whose layout cannot be resolved are omitted.
	Structs map[string]StructLayout
}

// Group returns the bindings declared in one group, in binding order.
//
// Parameters:
//   - group: the group index
//
// Returns:
//   - []Binding: the bindings, nil if the group is unused
func (r *Reflection) Group(group int) []Binding {
	var out []Binding
	for _, b := range r.Bindings {
		if b.Group == group {
			out = append(out, b)
		}
	}
	return out
}

// MaxGroup returns the highest group index declared, or -1 when there are no bindings.
func (r *Reflection) MaxGroup() int {
	m := -1
	for _, b := range r.Bindings {
		m = max(m, b.Group)
	}
	return m
}

// vertexFormatInfo holds the component count and scalar kind of a vertex input type.
type vertexFormatInfo struct {
	components int
	scalar     ScalarKind
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type.
type wgslTypeLayout struct {
	size  int
	align int
}

// parsedField represents a single field extracted from a WGSL struct during parsing.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing.
type parsedStruct struct {
	name   string
	fields []parsedField
}
