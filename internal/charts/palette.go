package charts

// Colors used across the dashboard. Series colors are assigned by position,
// never by label.
const (
	ColorIndigo  = "#4f46e5"
	ColorCyan    = "#06b6d4"
	ColorEmerald = "#10b981"
	ColorAmber   = "#f59e0b"
	ColorRed     = "#ef4444"
	ColorViolet  = "#8b5cf6"

	ColorText = "#1e293b"
	ColorGrid = "#e2e8f0"

	barIndigo  = "rgba(79, 70, 229, 0.9)"
	barCyan    = "rgba(6, 182, 212, 0.9)"
	barEmerald = "rgba(16, 185, 129, 0.9)"
	barAmber   = "rgba(245, 158, 11, 0.9)"

	fillIndigo = "rgba(79, 70, 229, 0.1)"
	fillCyan   = "rgba(6, 182, 212, 0.1)"
)

var (
	// PiePalette colors category slices in descending value order.
	PiePalette = []string{ColorIndigo, ColorCyan, ColorEmerald, ColorAmber, ColorRed, ColorViolet}
	// LinePalette colors the supplier trend lines in rank order.
	LinePalette = []string{ColorIndigo, ColorCyan, ColorEmerald, ColorAmber}
)

// PaletteColor returns the color at position i, cycling through palette.
func PaletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		return ColorIndigo
	}
	return palette[i%len(palette)]
}
