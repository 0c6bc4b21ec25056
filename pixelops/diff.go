/*
NAME
  diff.go

DESCRIPTION
  threshold_diff and apply_masks, the first two stages of DetectionModel's
  per-frame pipeline (§4.2 step 1-2).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

// clearPixel / setPixel are the two values ThresholdDiff ever writes to out,
// so that diffs == popcount(out) (§3) reduces to a zero/nonzero count.
const (
	clearPixel = 0
	setPixel   = 1
)

// ThresholdDiff compares ref and virgin pixel-by-pixel and writes setPixel
// to out wherever the absolute difference exceeds noise, clearPixel
// elsewhere. It returns the number of set pixels. ref, virgin and out must
// have equal length; ThresholdDiff panics otherwise, since a length
// mismatch indicates a caller bug rather than a runtime condition.
func ThresholdDiff(ref, virgin []byte, noise uint8, out []byte) int {
	checkEqualLen(ref, virgin, out)
	if active == BackendCV {
		if n, ok := cvThresholdDiff(ref, virgin, noise, out); ok {
			return n
		}
	}
	return thresholdDiffGo(ref, virgin, noise, out)
}

func thresholdDiffGo(ref, virgin []byte, noise uint8, out []byte) int {
	diffs := 0
	n := int(noise)
	for i := range ref {
		d := int(ref[i]) - int(virgin[i])
		if d < 0 {
			d = -d
		}
		if d > n {
			out[i] = setPixel
			diffs++
		} else {
			out[i] = clearPixel
		}
	}
	return diffs
}

// ApplyMasks ANDs out, in place, against every non-nil mask. A nil mask is
// treated as all-pass (every pixel active) and skipped, per the "absent
// masks are treated as all-pass" rule of §3.
func ApplyMasks(out []byte, masks ...[]byte) {
	for _, m := range masks {
		if m == nil {
			continue
		}
		checkEqualLen(out, m)
		for i := range out {
			if m[i] == 0 {
				out[i] = clearPixel
			}
		}
	}
}

// Popcount returns the number of nonzero bytes in a binary diff image,
// used by tests to check the diffs == popcount(out) invariant (§3).
func Popcount(out []byte) int {
	n := 0
	for _, b := range out {
		if b != 0 {
			n++
		}
	}
	return n
}

func checkEqualLen(bufs ...[]byte) {
	if len(bufs) == 0 {
		return
	}
	n := len(bufs[0])
	for _, b := range bufs[1:] {
		if len(b) != n {
			panic("pixelops: mismatched plane lengths")
		}
	}
}
