// Package layout turns a week of events into a positioned grid: pure
// geometry first, HTML rendering on top.
package layout

// Color is a background/foreground pair for one provider color
// identifier.
type Color struct {
	Background string
	Foreground string
}

// palette maps Google Calendar color identifiers ("1".."11") to display
// colors. Append-only; never mutated at runtime.
var palette = map[string]Color{
	"1":  {"#a4bdfc", "#1d1d1d"}, // Lavender
	"2":  {"#7ae7bf", "#1d1d1d"}, // Sage
	"3":  {"#dbadff", "#1d1d1d"}, // Grape
	"4":  {"#ff887c", "#1d1d1d"}, // Flamingo
	"5":  {"#fbd75b", "#1d1d1d"}, // Banana
	"6":  {"#ffb878", "#1d1d1d"}, // Tangerine
	"7":  {"#46d6db", "#1d1d1d"}, // Peacock
	"8":  {"#e1e1e1", "#1d1d1d"}, // Graphite
	"9":  {"#5484ed", "#ffffff"}, // Blueberry
	"10": {"#51b749", "#ffffff"}, // Basil
	"11": {"#dc2127", "#ffffff"}, // Tomato
}

// defaultColor is returned for identifiers outside the palette. It
// matches entry "1" (Lavender).
var defaultColor = Color{"#a4bdfc", "#1d1d1d"}

// ColorFor maps a provider color identifier to its display pair. Unknown
// identifiers, including the empty string, get the default pair.
func ColorFor(id string) Color {
	if c, ok := palette[id]; ok {
		return c
	}
	return defaultColor
}
