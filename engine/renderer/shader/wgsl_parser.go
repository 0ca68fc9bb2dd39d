package shader

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoEntryPoint is returned when a module lacks a @vertex or @fragment entry point.
	ErrNoEntryPoint = errors.New("missing entry point")

	// ErrUnsupportedVertexInput is returned for vertex inputs with no vertex format.
	ErrUnsupportedVertexInput = errors.New("unsupported vertex input type")
)

// wgslVertexFormatMap maps WGSL type names to their vertex component count and scalar kind.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {1, ScalarFloat},
	"vec2f":     {2, ScalarFloat},
	"vec2<f32>": {2, ScalarFloat},
	"vec3f":     {3, ScalarFloat},
	"vec3<f32>": {3, ScalarFloat},
	"vec4f":     {4, ScalarFloat},
	"vec4<f32>": {4, ScalarFloat},
	"i32":       {1, ScalarSint},
	"vec2i":     {2, ScalarSint},
	"vec2<i32>": {2, ScalarSint},
	"vec3i":     {3, ScalarSint},
	"vec3<i32>": {3, ScalarSint},
	"vec4i":     {4, ScalarSint},
	"vec4<i32>": {4, ScalarSint},
	"u32":       {1, ScalarUint},
	"vec2u":     {2, ScalarUint},
	"vec2<u32>": {2, ScalarUint},
	"vec3u":     {3, ScalarUint},
	"vec3<u32>": {3, ScalarUint},
	"vec4u":     {4, ScalarUint},
	"vec4<u32>": {4, ScalarUint},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field or parameter: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches the @vertex function and captures its name and parameter list
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\s+fn\s+(\w+)\s*\((.*?)\)\s*(?:->|\{)`)

	// fragmentEntryRegex matches the @fragment function and captures its name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\s+fn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> globals: GlobalParams;
	// or handle types: @group(2) @binding(0) var uTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Reflect extracts entry points, vertex inputs, resource bindings and struct layouts from a
// processed WGSL module.
//
// Parameters:
//   - source: the WGSL source, with includes already expanded
//
// Returns:
//   - *Reflection: the reflected module
//   - error: error wrapping ErrNoEntryPoint or ErrUnsupportedVertexInput
func Reflect(source string) (*Reflection, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	r := &Reflection{Structs: computeStructLayouts(structs)}

	vm := vertexEntryRegex.FindStringSubmatch(cleaned)
	if vm == nil {
		return nil, fmt.Errorf("@vertex: %w", ErrNoEntryPoint)
	}
	r.VertexEntry = vm[1]

	fm := fragmentEntryRegex.FindStringSubmatch(cleaned)
	if fm == nil {
		return nil, fmt.Errorf("@fragment: %w", ErrNoEntryPoint)
	}
	r.FragmentEntry = fm[1]

	inputs, err := parseVertexInputs(vm[2], structs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.VertexEntry, err)
	}
	r.VertexInputs = inputs
	r.Bindings = parseBindings(cleaned, r.Structs)
	return r, nil
}

// parseVertexInputs resolves the vertex entry parameter list into @location inputs. A parameter
// typed as a struct contributes the struct's @location fields.
//
// Parameters:
//   - params: the text between the entry point's parentheses
//   - structs: all parsed structs of the module
//
// Returns:
//   - []VertexInput: inputs sorted by location
//   - error: error if an input type has no vertex format
func parseVertexInputs(params string, structs []parsedStruct) ([]VertexInput, error) {
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var fields []parsedField
	for _, p := range parseStructFields(params) {
		if ps, ok := byName[p.typeName]; ok {
			fields = append(fields, ps.fields...)
			continue
		}
		fields = append(fields, p)
	}

	var inputs []VertexInput
	for _, f := range fields {
		if f.isBuiltin || f.location < 0 {
			continue
		}
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", f.name, ErrUnsupportedVertexInput, f.typeName)
		}
		inputs = append(inputs, VertexInput{
			Name:       f.name,
			Location:   uint32(f.location),
			Components: info.components,
			Scalar:     info.scalar,
		})
	}
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Location < inputs[j].Location
	})
	return inputs, nil
}

// parseBindings extracts all @group(N) @binding(M) declarations.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - layouts: resolved struct layouts, used to size buffer bindings
//
// Returns:
//   - []Binding: bindings sorted by group, then binding
func parseBindings(source string, layouts map[string]StructLayout) []Binding {
	known := make(map[string]wgslTypeLayout, len(layouts))
	for name, l := range layouts {
		known[name] = wgslTypeLayout{l.Size, l.Align}
	}

	var out []Binding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		b := Binding{
			Group:    group,
			Binding:  binding,
			Name:     strings.TrimSpace(match[4]),
			TypeName: strings.TrimSpace(match[5]),
			Kind:     classifyResource(strings.TrimSpace(match[3]), strings.TrimSpace(match[5])),
		}
		if b.Kind.IsBuffer() {
			if l, ok := resolveTypeLayout(b.TypeName, known); ok {
				b.Size = l.size
			}
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

// classifyResource determines the resource kind from the address space qualifier and type name.
//
// Parameters:
//   - addressSpace: e.g. "uniform" or "storage, read_write", empty for handle types
//   - typeName: e.g. "GlobalParams", "texture_2d<f32>" or "sampler"
//
// Returns:
//   - BindingKind: the classified kind
func classifyResource(addressSpace, typeName string) BindingKind {
	switch {
	case addressSpace == "uniform":
		return BindingUniform
	case strings.HasPrefix(addressSpace, "storage"):
		if strings.Contains(addressSpace, "read_write") {
			return BindingStorage
		}
		return BindingReadOnlyStorage
	case typeName == "sampler_comparison":
		return BindingComparisonSampler
	case typeName == "sampler":
		return BindingSampler
	case strings.HasPrefix(typeName, "texture_depth_"):
		return BindingDepthTexture
	default:
		return BindingTexture
	}
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses a comma separated member or parameter list into fields,
// extracting @location and @builtin attributes along with the name and type
//
// Parameters:
//   - body: the content between { and } of a struct, or between ( and ) of a function
//
// Returns:
//   - []parsedField: all fields found in the body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])

		fields = append(fields, field)
	}

	return fields
}
