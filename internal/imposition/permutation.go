package imposition

import "sync"

var permutations sync.Map // booklet size -> []int

// Permutation returns the fold table for one booklet of size b: entry k is the
// position, in reading order within the booklet, of the page printed at
// physical slot k. Slots 2s and 2s+1 are the left and right halves of side s.
func Permutation(b int) ([]int, error) {
	if err := validBookletSize(b); err != nil {
		return nil, err
	}
	perm := permutation(b)
	out := make([]int, len(perm))
	copy(out, perm)
	return out, nil
}

// permutation returns the shared cached table. Callers must not modify it.
func permutation(b int) []int {
	if v, ok := permutations.Load(b); ok {
		return v.([]int)
	}
	v, _ := permutations.LoadOrStore(b, buildPermutation(b))
	return v.([]int)
}

// sideOrder reorders each group of four slots so that the outer page of the
// pair sits on the left of the front side.
var sideOrder = [4]int{2, 0, 3, 1}

func buildPermutation(b int) []int {
	half, quarter := b/2, b/4

	// Adjacent reading-order pages form pairs, as two columns.
	first := make([]int, half)
	second := make([]int, half)
	for p := 0; p < half; p++ {
		first[p] = 2 * p
		second[p] = 2*p + 1
	}

	for i, j := 0, half-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}

	// Back half of the pair list is reversed as whole pairs.
	for i, j := quarter, half-1; i < j; i, j = i+1, j-1 {
		first[i], first[j] = first[j], first[i]
		second[i], second[j] = second[j], second[i]
	}

	// Regroup the pair grid column-major into groups of four: element m of the
	// column-major walk is pair m%half, column m/half, and group g takes
	// elements g, g+quarter, g+2*quarter, g+3*quarter.
	cols := [2][]int{first, second}
	perm := make([]int, 0, b)
	for g := 0; g < quarter; g++ {
		var group [4]int
		for j := range group {
			m := g + quarter*j
			group[j] = cols[m/half][m%half]
		}
		for _, k := range sideOrder {
			perm = append(perm, group[k])
		}
	}
	return perm
}

// Fold reorders one booklet of page slots into physical slot order. The
// booklet length must be a positive multiple of 4.
func Fold(booklet []PageRef) ([]PageRef, error) {
	if err := validBookletSize(len(booklet)); err != nil {
		return nil, err
	}
	perm := permutation(len(booklet))
	out := make([]PageRef, len(perm))
	for k, src := range perm {
		out[k] = booklet[src]
	}
	return out, nil
}
