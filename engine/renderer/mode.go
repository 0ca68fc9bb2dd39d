package renderer

import "fmt"

// Mode selects the frame path.
type Mode int

const (
	// ModeForward shades every entity straight into the back buffer.
	ModeForward Mode = iota

	// ModeDeferred writes the G-buffer and composites it onto the back buffer.
	ModeDeferred

	// ModeBloom shades forward into the HDR target, blurs its bright parts down the bloom chain and
	// adds them back over the image.
	ModeBloom
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeForward:
		return "forward"
	case ModeDeferred:
		return "deferred"
	case ModeBloom:
		return "bloom"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name into a Mode.
//
// Parameters:
//   - name: "forward", "deferred" or "bloom"
//
// Returns:
//   - Mode: the matching mode
//   - error: error if the name is unknown
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeForward, ModeDeferred, ModeBloom} {
		if m.String() == name {
			return m, nil
		}
	}
	return ModeDeferred, fmt.Errorf("unknown render mode %q", name)
}
