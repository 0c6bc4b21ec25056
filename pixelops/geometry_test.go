package pixelops

import "testing"

func TestScaleHalfRejectsNonMultipleOf16(t *testing.T) {
	src := make([]byte, 24*24)
	dst := make([]byte, 12*12)
	if ScaleHalf(src, 24, 24, dst) {
		t.Fatal("ScaleHalf(24x24): want ok=false (24 is not a multiple of 16)")
	}
}

func TestScaleHalfNearestNeighbour(t *testing.T) {
	const w, h = 16, 16
	src := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src[y*w+x] = byte(x)
		}
	}
	dst := make([]byte, (w/2)*(h/2))
	if !ScaleHalf(src, w, h, dst) {
		t.Fatal("ScaleHalf(16x16): want ok=true")
	}
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			want := byte(2 * x)
			if got := dst[y*(w/2)+x]; got != want {
				t.Errorf("dst[%d,%d] = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestRotateReflect180InPlace(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	dst, w, h := RotateReflect(src, 2, 2, ReflectNone, 180)
	if w != 2 || h != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", w, h)
	}
	want := []byte{4, 3, 2, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestRotateReflect90SwapsDims(t *testing.T) {
	// 2x3 image (w=2,h=3):
	// 1 2
	// 3 4
	// 5 6
	src := []byte{1, 2, 3, 4, 5, 6}
	dst, w, h := RotateReflect(src, 2, 3, ReflectNone, 90)
	if w != 3 || h != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", w, h)
	}
	// Rotated 90 clockwise:
	// 5 3 1
	// 6 4 2
	want := []byte{5, 3, 1, 6, 4, 2}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestRotateReflectRejectsNonMultipleOf90(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("RotateReflect(45): want panic, got none")
		}
	}()
	RotateReflect([]byte{1}, 1, 1, ReflectNone, 45)
}
