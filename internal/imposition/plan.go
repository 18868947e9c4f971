package imposition

// SheetSide is one printed side of one physical sheet: two page slots side by
// side, and whether the composed side is turned 180°.
type SheetSide struct {
	// Index is the 0-based position of the side in the output document.
	Index int `json:"index"`
	// Booklet is the 0-based booklet the side belongs to.
	Booklet int `json:"booklet"`
	// Offset is the flat page-slot offset of Left, always 2*Index.
	Offset int     `json:"offset"`
	Left   PageRef `json:"left"`
	Right  PageRef `json:"right"`
	Rotate bool    `json:"rotate"`
}

// rotated reports whether the side starting at slot offset must be turned for
// long-edge duplex. Every second side (the back of each sheet) is.
func rotated(longEdge bool, offset int) bool {
	return longEdge && offset%4 != 0
}

// Walk streams the sheet sides of the plan in output order, one booklet at a
// time, without materializing the page sequence. It stops at the first error
// returned by fn and returns it.
func Walk(o Options, fn func(SheetSide) error) error {
	if err := o.Validate(); err != nil {
		return err
	}
	perm := permutation(o.BookletSize)
	total := SequenceLen(o.PageCount, o.BookletSize, o.AddBlank)

	side := 0
	for start := 0; start < total; start += o.BookletSize {
		for k := 0; k < len(perm); k += 2 {
			offset := 2 * side
			s := SheetSide{
				Index:   side,
				Booklet: start / o.BookletSize,
				Offset:  offset,
				Left:    o.pageAt(start + perm[k]),
				Right:   o.pageAt(start + perm[k+1]),
				Rotate:  rotated(o.LongEdge, offset),
			}
			if err := fn(s); err != nil {
				return err
			}
			side++
		}
	}
	return nil
}

// Plan returns the full output sequence for o.
func Plan(o Options) ([]SheetSide, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	sides := make([]SheetSide, 0, SequenceLen(o.PageCount, o.BookletSize, o.AddBlank)/2)
	err := Walk(o, func(s SheetSide) error {
		sides = append(sides, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sides, nil
}

// Layout summarizes the physical shape of a plan.
type Layout struct {
	Slots    int `json:"slots"`
	Booklets int `json:"booklets"`
	Sides    int `json:"sides"`
	Sheets   int `json:"sheets"`
	Blanks   int `json:"blanks"`
}

// Describe returns the Layout of the plan for o without computing it.
func Describe(o Options) (Layout, error) {
	if err := o.Validate(); err != nil {
		return Layout{}, err
	}
	n := SequenceLen(o.PageCount, o.BookletSize, o.AddBlank)
	return Layout{
		Slots:    n,
		Booklets: n / o.BookletSize,
		Sides:    n / 2,
		Sheets:   n / 4,
		Blanks:   n - o.PageCount,
	}, nil
}
