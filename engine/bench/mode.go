package bench

import (
	"fmt"
	"strings"
)

// Mode selects the draw strategy used by RenderFrame.
type Mode int

const (
	// ModeTextureUpload re-uploads the instance texture every frame and draws the cube once.
	ModeTextureUpload Mode = iota
	// ModeInstancing draws the cube once per instance with a single instanced draw.
	ModeInstancing
	// ModeMultiDraw submits the range table, one draw per instance.
	ModeMultiDraw
)

var modeNames = [...]string{
	ModeTextureUpload: "texture_upload",
	ModeInstancing:    "instancing",
	ModeMultiDraw:     "multi_draw",
}

// Modes returns every mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeTextureUpload, ModeInstancing, ModeMultiDraw}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= ModeTextureUpload && m <= ModeMultiDraw
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a configuration name such as "multi_draw" into a Mode.
// Matching ignores case, and hyphens are accepted in place of underscores.
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - Mode: the parsed mode
//   - error: ErrUnknownMode if s names no mode
func ParseMode(s string) (Mode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText encodes m by its configuration name, so a Mode reads and writes as a plain TOML string.
//
// Returns:
//   - []byte: the mode name, e.g. "multi_draw"
//   - error: an error wrapping ErrUnknownMode if m is not a defined mode
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText decodes a mode name with the same rules as ParseMode.
//
// Parameters:
//   - text: the mode name
//
// Returns:
//   - error: an error wrapping ErrUnknownMode if text names no mode
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Feature names the device capability m depends on, or "" when it needs none.
func (m Mode) Feature() string {
	switch m {
	case ModeInstancing:
		return "instancing"
	case ModeMultiDraw:
		return "multi-draw"
	default:
		return ""
	}
}
