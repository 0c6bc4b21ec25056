package pixelops

import "testing"

func allSet(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = setPixel
	}
	return out
}

// TestDespeckleErodeDilateAllOnes checks §8 property 7: applying E then D
// to the all-ones image yields the all-ones image (erode counts off-image
// pixels as set, so E clears nothing and D has nothing to add).
func TestDespeckleErodeDilateAllOnes(t *testing.T) {
	const w, h = 16, 16
	out := allSet(w * h)

	diffs, _ := Despeckle(out, w, h, "ED", 0)
	if diffs != w*h {
		t.Fatalf("Despeckle(\"ED\") on all-ones image = %d set pixels, want %d", diffs, w*h)
	}
	for i, v := range out {
		if v != setPixel {
			t.Fatalf("out[%d] = %d after ED on all-ones image, want %d", i, v, setPixel)
		}
	}
}

// TestDespeckleReplayIdempotent checks §8 property 7: applying the same
// recipe twice yields the same output as applying it once.
func TestDespeckleReplayIdempotent(t *testing.T) {
	const w, h = 16, 16
	out := make([]byte, w*h)
	// A single isolated pixel and a solid 4x4 block; one "Ee" pass removes
	// both (E shrinks the block to 2x2, e then clears it).
	out[5*w+5] = setPixel
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			out[y*w+x] = setPixel
		}
	}

	once := append([]byte(nil), out...)
	Despeckle(once, w, h, "Ee", 0)

	twice := append([]byte(nil), out...)
	Despeckle(twice, w, h, "EeEe", 0)

	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("out[%d]: single pass = %d, double pass = %d, want equal (replay idempotence)", i, once[i], twice[i])
		}
	}
}

func TestDespeckleLabelling(t *testing.T) {
	const w, h = 20, 20
	out := make([]byte, w*h)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			out[y*w+x] = setPixel
		}
	}
	for y := 12; y < 13; y++ {
		out[y*w+12] = setPixel
	}

	_, labels := Despeckle(out, w, h, "l", 1)
	if labels == nil {
		t.Fatal("Despeckle with \"l\": labels is nil")
	}
	if labels.TotalLabels != 2 {
		t.Fatalf("TotalLabels = %d, want 2", labels.TotalLabels)
	}
	if labels.LargestLabelPixels != 16 {
		t.Fatalf("LargestLabelPixels = %d, want 16", labels.LargestLabelPixels)
	}
	want := Box{X: 2, Y: 2, W: 4, H: 4}
	if labels.Location != want {
		t.Fatalf("Location = %+v, want %+v", labels.Location, want)
	}
}

func TestDespeckleMinPixelsClearsSmallComponents(t *testing.T) {
	const w, h = 10, 10
	out := make([]byte, w*h)
	out[1*w+1] = setPixel // isolated single pixel, below minPixels.
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			out[y*w+x] = setPixel
		}
	}

	diffs, labels := Despeckle(out, w, h, "l", 5)
	if diffs != 9 {
		t.Fatalf("diffs after filtering small components = %d, want 9", diffs)
	}
	if labels.TotalLabels != 2 {
		t.Fatalf("TotalLabels = %d, want 2 (small components still counted)", labels.TotalLabels)
	}
	if out[1*w+1] != clearPixel {
		t.Errorf("isolated pixel below minPixels not cleared")
	}
}
