/*
NAME
  reference.go

DESCRIPTION
  update_reference, the reference-frame update policy of §4.1. Ported from
  the Motion project's alg_update_reference_frame (original_source/alg/):
  UpdateReferenceScalar below is a direct translation of the "plain"
  branchy version; updateReferenceBatched recasts the same policy as
  branchless mask arithmetic (compare -> broadcast mask -> blend), the
  shape the "sse2-algo" reference demonstrates for the real vector kernel.
  Both are derived independently from the per-pixel policy so that they can
  be checked for byte-identical output (§8 property 2) rather than one
  being a copy of the other.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

// UpdateReference applies the reference-frame update policy to every
// pixel, dispatching to whichever backend Init selected. ref and refAge are
// mutated in place. virgin, smartmaskFinal and out must be read-only and
// the same length as ref; refAge must be the same length too.
//
// action == Reset replaces ref with virgin and zeroes refAge, ignoring
// noise and acceptTimer (used at startup and after a lightswitch trigger).
func UpdateReference(ref []byte, refAge []uint32, virgin, smartmaskFinal, out []byte, noise uint8, acceptTimer uint32, action Action) {
	if action == Reset {
		copy(ref, virgin)
		for i := range refAge {
			refAge[i] = 0
		}
		return
	}

	checkEqualLen(ref, virgin, smartmaskFinal, out)
	if len(refAge) != len(ref) {
		panic("pixelops: ref_age length mismatch")
	}

	threshRef := clampThresh(int(noise) * ExcludeLevelPercent / 100)
	timer := clampCounter(acceptTimer)

	switch active {
	case BackendCV:
		if cvUpdateReference(ref, refAge, virgin, smartmaskFinal, out, threshRef, timer) {
			return
		}
		updateReferenceBatched(ref, refAge, virgin, smartmaskFinal, out, threshRef, timer)
	case BackendScalar:
		updateReferenceScalar(ref, refAge, virgin, smartmaskFinal, out, threshRef, timer)
	default:
		updateReferenceBatched(ref, refAge, virgin, smartmaskFinal, out, threshRef, timer)
	}
}

// AcceptTimer computes accept_timer from the capture rate, per §4.1:
// lastrate * ACCEPT_STATIC_OBJECT_TIME, divided by lastrate/3 when
// lastrate > 5 to compensate for rate limiting.
func AcceptTimer(lastrate uint) uint32 {
	t := lastrate * AcceptStaticObjectTime
	if lastrate > 5 {
		t /= lastrate / 3
	}
	return uint32(t)
}

// updateReferenceScalar is the direct, branchy translation of
// alg_update_reference_frame_plain.
func updateReferenceScalar(ref []byte, refAge []uint32, virgin, smartmaskFinal, out []byte, threshRef uint8, acceptTimer uint32) {
	for i := range ref {
		includemask := absDiffByte(ref[i], virgin[i]) > threshRef && smartmaskFinal[i] != 0

		if !includemask {
			refAge[i] = 0
			ref[i] = virgin[i]
			continue
		}

		switch {
		case refAge[i] == 0:
			refAge[i] = 1
		case refAge[i] > acceptTimer:
			refAge[i] = 0
			ref[i] = virgin[i]
		case out[i] != 0:
			refAge[i] = clampCounter(refAge[i] + 1)
		default:
			refAge[i] = 0
			ref[i] = byte((int(ref[i]) + int(virgin[i])) / 2)
		}
	}
}

// all1 and all0 are the two values a boolean broadcasts to across a 32-bit
// lane, standing in for what a real SIMD compare instruction (pcmpgtb,
// pcmpeqw, ...) would produce.
const (
	all0 uint32 = 0x00000000
	all1 uint32 = 0xFFFFFFFF
)

func maskFrom(b bool) uint32 {
	if b {
		return all1
	}
	return all0
}

func selectU32(mask, ifSet, ifClear uint32) uint32 {
	return (ifSet & mask) | (ifClear &^ mask)
}

func selectByte(mask uint32, ifSet, ifClear byte) byte {
	if mask == all1 {
		return ifSet
	}
	return ifClear
}

// updateReferenceBatched recasts the plain per-pixel policy as mask
// arithmetic: every comparison broadcasts to a full mask, and every
// assignment becomes a blend (AND/ANDN/OR) against that mask instead of a
// branch. This is the structure alg_update_reference_frame_sse2_algo.c
// demonstrates (one mask computed per comparison, combined, then applied
// with bitwise select rather than conditional jumps); it is selected by
// default when Init(true) runs and no cgo-accelerated backend is compiled
// in.
func updateReferenceBatched(ref []byte, refAge []uint32, virgin, smartmaskFinal, out []byte, threshRef uint8, acceptTimer uint32) {
	for i := range ref {
		incM := maskFrom(absDiffByte(ref[i], virgin[i]) > threshRef && smartmaskFinal[i] != 0)
		zeroM := maskFrom(refAge[i] == 0)
		timerM := maskFrom(refAge[i] > acceptTimer)
		outM := maskFrom(out[i] != 0)

		notInc := ^incM
		notZero := ^zeroM
		notTimer := ^timerM
		notOut := ^outM

		maskB := incM & zeroM                      // new disturbance: ref_age = 1, ref unchanged.
		maskC := incM & notZero & timerM            // static object timed out: ref_age = 0, ref = virgin.
		maskD := incM & notZero & notTimer & outM    // motion continues: ref_age++, ref unchanged.
		maskE := incM & notZero & notTimer & notOut  // quiescent: ref_age = 0, ref = blend.
		maskToVirgin := notInc | maskC               // not included, or static-object timeout.

		incremented := clampCounter(refAge[i] + 1)
		refAge[i] = selectU32(maskB, 1, selectU32(maskD, incremented, 0))

		blend := byte((int(ref[i]) + int(virgin[i])) / 2)
		ref[i] = selectByte(maskToVirgin, virgin[i], selectByte(maskE, blend, ref[i]))
	}
}

func absDiffByte(a, b byte) uint8 {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return clampThresh(d)
}
