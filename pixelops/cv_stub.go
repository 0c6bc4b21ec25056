//go:build !withcv

/*
NAME
  cv_stub.go

DESCRIPTION
  Default build: no gocv dependency, so the BackendCV path is never
  selected and these are unreachable no-ops. Mirrors the teacher's own
  !withcv stubs in filter/diff.go and filter/motion.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

const cvAvailable = false

func cvThresholdDiff(ref, virgin []byte, noise uint8, out []byte) (int, bool) {
	return 0, false
}

func cvUpdateReference(ref []byte, refAge []uint32, virgin, smartmaskFinal, out []byte, threshRef uint8, acceptTimer uint32) bool {
	return false
}
