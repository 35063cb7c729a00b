/*
DESCRIPTION
  peaks.go finds the peaks of an edge projection profile, used when trimming a
  vehicle box to its strongest edges.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lane

// SplitPeaks divides profile into runs of positive values separated by zeros
// and returns the index of the maximum of each run. The first index wins a
// tie. A run still open at the end of the profile is discarded.
func SplitPeaks(profile []int) []int {
	var (
		peaks  []int
		inRun  bool
		maxVal int
		maxIdx int
	)
	for i, v := range profile {
		switch {
		case inRun && v <= 0:
			peaks = append(peaks, maxIdx)
			inRun = false
		case inRun && v > maxVal:
			maxVal, maxIdx = v, i
		case !inRun && v > 0:
			inRun = true
			maxVal, maxIdx = v, i
		}
	}
	return peaks
}

// edgeSpan picks the horizontal extent of a vehicle from the peaks of its
// rising and falling vertical edge profiles. The left side is the first
// rising edge and the right side the last falling edge; if they cross, the
// other pairing is used. ok is false when either profile has no peaks.
func edgeSpan(rising, falling []int) (left, right int, ok bool) {
	if len(rising) == 0 || len(falling) == 0 {
		return 0, 0, false
	}
	left, right = rising[0], falling[len(falling)-1]
	if left > right {
		left, right = falling[0], rising[len(rising)-1]
	}
	return left, right, true
}

// edgeBottom returns the lowest peak of a horizontal edge profile.
func edgeBottom(peaks []int) (int, bool) {
	if len(peaks) == 0 {
		return 0, false
	}
	return peaks[len(peaks)-1], true
}
