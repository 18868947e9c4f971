package paper

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Size is a portrait paper size in points (1" = 72pt).
type Size struct {
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

var (
	A3      = Size{Name: "A3", Width: 841.89, Height: 1190.55} // 297mm x 420mm
	A4      = Size{Name: "A4", Width: 595.28, Height: 841.89}  // 210mm x 297mm
	A5      = Size{Name: "A5", Width: 419.53, Height: 595.28}  // 148mm x 210mm
	Letter  = Size{Name: "Letter", Width: 612, Height: 792}    // 8.5" x 11"
	Legal   = Size{Name: "Legal", Width: 612, Height: 1008}    // 8.5" x 14"
	Tabloid = Size{Name: "Tabloid", Width: 792, Height: 1224}  // 11" x 17"
)

var byName = map[string]Size{
	"a3":      A3,
	"a4":      A4,
	"a5":      A5,
	"letter":  Letter,
	"legal":   Legal,
	"tabloid": Tabloid,
}

// Lookup returns the paper size with the given case-insensitive name.
func Lookup(name string) (Size, error) {
	s, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Size{}, fmt.Errorf("unknown paper format %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists the known formats.
func Names() []string {
	out := make([]string, 0, len(byName))
	for _, s := range byName {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

// Landscape returns the size with its long edge horizontal.
func (s Size) Landscape() Size {
	if s.Width > s.Height {
		return s
	}
	return Size{Name: s.Name + "L", Width: s.Height, Height: s.Width}
}

// TwoUpScale is the uniform factor that fits two portrait pages of size in
// side by side on a landscape sheet of size out: 1/√2 for A4 on A4, 1 for A4
// on A3.
func TwoUpScale(in, out Size) float64 {
	inShort, inLong := math.Min(in.Width, in.Height), math.Max(in.Width, in.Height)
	outShort, outLong := math.Min(out.Width, out.Height), math.Max(out.Width, out.Height)
	return math.Min(outLong/(2*inShort), outShort/inLong)
}
