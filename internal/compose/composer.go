// Package compose renders a booklet plan into an output PDF.
package compose

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/local/booklets/internal/imposition"
	"github.com/local/booklets/internal/paper"
)

// ErrEmptyDocument is returned when the source has no page to place.
var ErrEmptyDocument = errors.New("document has no pages")

// Job describes one composition: the source file, where to write, the sheet
// sides in output order and the output paper.
type Job struct {
	Input  string
	Output string
	Sides  []imposition.SheetSide
	Paper  paper.Size
}

// Result reports what was written.
type Result struct {
	Output  string `json:"output"`
	Sides   int    `json:"sides"`
	Sheets  int    `json:"sheets"`
	Rotated int    `json:"rotated"`
	// Scale is the factor a source page shrinks or grows by to fit one half
	// of the sheet. The n-up layout applies the fit itself; Scale reports it.
	Scale float64 `json:"scale"`
}

// Composer turns a plan into a physical document. Sides are consumed in order;
// side i of the plan becomes page i+1 of the output.
type Composer interface {
	Compose(ctx context.Context, job Job) (Result, error)
}

// NormalizeInput appends .pdf to a path without extension.
func NormalizeInput(p string) string {
	if strings.EqualFold(filepath.Ext(p), ".pdf") {
		return p
	}
	return p + ".pdf"
}

// OutputName derives the default output path, <stem>_output.pdf, next to the input.
func OutputName(input string) string {
	input = NormalizeInput(input)
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_output.pdf"
}

// slotSelection lists, in output order, the 1-based source page for every slot.
// Blank slots point at blankPage.
func slotSelection(sides []imposition.SheetSide, blankPage int) []string {
	sel := make([]string, 0, 2*len(sides))
	for _, s := range sides {
		for _, ref := range [2]imposition.PageRef{s.Left, s.Right} {
			if idx, ok := ref.Index(); ok {
				sel = append(sel, strconv.Itoa(idx+1))
			} else {
				sel = append(sel, strconv.Itoa(blankPage))
			}
		}
	}
	return sel
}

// rotationSelection lists the 1-based output pages that are turned 180°.
func rotationSelection(sides []imposition.SheetSide) []string {
	var sel []string
	for _, s := range sides {
		if s.Rotate {
			sel = append(sel, strconv.Itoa(s.Index+1))
		}
	}
	return sel
}

// maxPageIndex returns the highest real page referenced, or -1.
func maxPageIndex(sides []imposition.SheetSide) int {
	hi := -1
	for _, s := range sides {
		for _, ref := range [2]imposition.PageRef{s.Left, s.Right} {
			if idx, ok := ref.Index(); ok && idx > hi {
				hi = idx
			}
		}
	}
	return hi
}
