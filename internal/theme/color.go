package theme

import (
	"regexp"
	"strings"
)

// Color check reasons.
const (
	ReasonInvalidHex = "invalid_hex_format"
	ReasonInvalidRGB = "invalid_rgb_format"
	ReasonInvalidHSL = "invalid_hsl_format"
	ReasonUnknown    = "unknown_color_format"
	ReasonEmpty      = "empty_color_value"
)

const colorNum = `(?:\d+(?:\.\d*)?|\.\d+)`

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
	rgbColorRe = regexp.MustCompile(`(?i)^rgba?\(\s*` +
		colorNum + `%?\s*,\s*` +
		colorNum + `%?\s*,\s*` +
		colorNum + `%?\s*` +
		`(?:,\s*` + colorNum + `\s*)?\)$`)
	hslColorRe = regexp.MustCompile(`(?i)^hsla?\(\s*` +
		`[+-]?` + colorNum + `\s*,\s*` +
		colorNum + `%\s*,\s*` +
		colorNum + `%\s*` +
		`(?:,\s*` + colorNum + `\s*)?\)$`)
)

// ColorCheck is the outcome of ValidateColor. Reason and Message are empty
// when Valid is true.
type ColorCheck struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// LooksLikeColor reports whether value starts with "#" or, ignoring case,
// with "rgb" or "hsl".
func LooksLikeColor(value string) bool {
	if strings.HasPrefix(value, "#") {
		return true
	}
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "rgb") || strings.HasPrefix(lower, "hsl")
}

// ValidateColor checks a hex, rgb()/rgba() or hsl()/hsla() literal. The
// family is chosen by prefix and the value must then match that family's
// grammar exactly.
func ValidateColor(value string) ColorCheck {
	v := strings.TrimSpace(value)
	if v == "" {
		return ColorCheck{Reason: ReasonEmpty, Message: "Empty color value"}
	}

	lower := strings.ToLower(v)
	switch {
	case strings.HasPrefix(v, "#"):
		if hexColorRe.MatchString(v) {
			return ColorCheck{Valid: true}
		}
		return ColorCheck{Reason: ReasonInvalidHex, Message: "Invalid hex color: " + v}
	case strings.HasPrefix(lower, "rgb"):
		if rgbColorRe.MatchString(v) {
			return ColorCheck{Valid: true}
		}
		return ColorCheck{Reason: ReasonInvalidRGB, Message: "Invalid rgb color: " + v}
	case strings.HasPrefix(lower, "hsl"):
		if hslColorRe.MatchString(v) {
			return ColorCheck{Valid: true}
		}
		return ColorCheck{Reason: ReasonInvalidHSL, Message: "Invalid hsl color: " + v}
	default:
		return ColorCheck{Reason: ReasonUnknown, Message: "Unknown color format: " + v}
	}
}
