// Package imposition computes saddle-stitch booklet layouts: which two logical
// pages land on every printed sheet side, in which order, and which sides must
// be turned 180° for long-edge duplex printing.
package imposition

import (
	"encoding/json"
	"strconv"
)

// PageRef is one slot of a page sequence: either a real 0-based page of the
// source document or a blank. The zero value is Blank.
type PageRef struct {
	index int
	real  bool
}

// Blank is the empty slot. It never refers to source content.
var Blank = PageRef{}

// Page returns a reference to the source page at 0-based index i.
func Page(i int) PageRef { return PageRef{index: i, real: true} }

// Index returns the source page index and true, or 0 and false for Blank.
func (p PageRef) Index() (int, bool) { return p.index, p.real }

// IsBlank reports whether the slot has no content.
func (p PageRef) IsBlank() bool { return !p.real }

func (p PageRef) String() string {
	if !p.real {
		return "blank"
	}
	return strconv.Itoa(p.index)
}

// MarshalJSON encodes a real page as its index and Blank as null.
func (p PageRef) MarshalJSON() ([]byte, error) {
	if !p.real {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.index)), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *PageRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Blank
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}
	*p = Page(i)
	return nil
}
