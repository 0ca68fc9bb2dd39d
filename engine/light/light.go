package light

import "github.com/go-gl/mathgl/mgl32"

// LightType identifies the kind of light source. The value is written to the GPU record as a u32.
type LightType uint32

const (
	// LightTypeDirectional lights every fragment from one direction with no attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint emits in all directions from a position.
	LightTypePoint
)

// String returns the lowercase name used in scene files.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// ParseLightType converts a scene file name into a LightType.
//
// Parameters:
//   - name: "directional" or "point"
//
// Returns:
//   - LightType: the parsed type
//   - bool: false when the name is not recognised
func ParseLightType(name string) (LightType, bool) {
	switch name {
	case "directional", "sun":
		return LightTypeDirectional, true
	case "point":
		return LightTypePoint, true
	default:
		return 0, false
	}
}

type lightImpl struct {
	lightType LightType
	position  mgl32.Vec3
	direction mgl32.Vec3
	color     mgl32.Vec3
	enabled   bool
}

// Light is a light source contributing to the lit passes.
//
// Lights are owned by the scene and packed into the global uniform block each frame.
// Direction is meaningless for point lights and position is meaningless for directional lights.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: directional or point
	Type() LightType

	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light travels.
	//
	// Returns:
	//   - mgl32.Vec3: unit direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Enabled returns whether this light is packed for rendering.
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - p: position
	SetPosition(p mgl32.Vec3)

	// SetDirection sets the direction of the light and normalizes it.
	// A zero vector is ignored.
	//
	// Parameters:
	//   - d: direction (will be normalized)
	SetDirection(d mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: color
	SetColor(c mgl32.Vec3)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a white, enabled Light of the given type pointing straight down.
//
// Parameters:
//   - lightType: directional or point
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		direction: mgl32.Vec3{0, -1, 0},
		color:     mgl32.Vec3{1, 1, 1},
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	if d.Len() == 0 {
		return
	}
	l.direction = d.Normalize()
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
