package imposition

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when the booklet parameters cannot be
// folded: a booklet size that is not a positive multiple of 4, or a negative
// page or padding count.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Options are the inputs of a booklet plan.
type Options struct {
	PageCount   int  `json:"page_count" yaml:"page_count"`
	BookletSize int  `json:"booklet_size" yaml:"booklet_size"`
	AddBlank    int  `json:"add_blank" yaml:"add_blank"`
	LongEdge    bool `json:"long_edge" yaml:"long_edge"`
}

// Validate checks the preconditions of Plan.
func (o Options) Validate() error {
	if err := validBookletSize(o.BookletSize); err != nil {
		return err
	}
	if o.PageCount < 0 {
		return fmt.Errorf("%w: page count %d is negative", ErrInvalidConfiguration, o.PageCount)
	}
	if o.AddBlank < 0 {
		return fmt.Errorf("%w: blank padding %d is negative", ErrInvalidConfiguration, o.AddBlank)
	}
	return nil
}

func validBookletSize(b int) error {
	if b <= 0 || b%4 != 0 {
		return fmt.Errorf("%w: booklet size %d is not a positive multiple of 4", ErrInvalidConfiguration, b)
	}
	return nil
}

// SequenceLen is the padded length of the page sequence for the given inputs.
// It assumes valid inputs.
func SequenceLen(pageCount, bookletSize, addBlank int) int {
	n := pageCount + 2*addBlank
	if r := n % bookletSize; r != 0 {
		n += bookletSize - r
	}
	return n
}

// BuildSequence lays out the source pages in reading order, pads addBlank
// blanks on both ends, then fills trailing blanks until the length is a
// multiple of bookletSize. The symmetric padding always happens first, so the
// fill lands at the very end.
func BuildSequence(pageCount, bookletSize, addBlank int) ([]PageRef, error) {
	o := Options{PageCount: pageCount, BookletSize: bookletSize, AddBlank: addBlank}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	seq := make([]PageRef, SequenceLen(pageCount, bookletSize, addBlank))
	for i := 0; i < pageCount; i++ {
		seq[addBlank+i] = Page(i)
	}
	return seq, nil
}

// pageAt returns slot i of the sequence BuildSequence would produce, without
// materializing it.
func (o Options) pageAt(i int) PageRef {
	p := i - o.AddBlank
	if p < 0 || p >= o.PageCount {
		return Blank
	}
	return Page(p)
}
