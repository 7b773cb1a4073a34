package roundservice

// computePlayingOrder returns the sequence of hole numbers a group plays: a
// rotation starting at startingHole and wrapping modulo holeCount. A 9-hole
// round starting on the back nine rotates through holes 10-18 instead of
// 1-9.
func computePlayingOrder(holeCount, startingHole int) []int {
	if holeCount <= 0 {
		return nil
	}

	offset := 0
	if holeCount == 9 && startingHole > 9 {
		offset = 9
	}

	start := startingHole - offset
	if start < 1 || start > holeCount {
		start = 1
	}

	order := make([]int, holeCount)
	for i := 0; i < holeCount; i++ {
		order[i] = (start-1+i)%holeCount + 1 + offset
	}
	return order
}
