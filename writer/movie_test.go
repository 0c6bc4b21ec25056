package writer

import (
	"bytes"
	"io"
	"testing"

	"github.com/ausocean/motion/frame"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestMovieEncoderWritesMagicAndFrames(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewMovieEncoder(nopWriteCloser{&buf}, 80)
	if err != nil {
		t.Fatalf("NewMovieEncoder: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), movieMagic[:]) {
		t.Fatalf("magic = %v, want %v", buf.Bytes(), movieMagic[:])
	}

	f := frame.New(16, 16)
	for i := 0; i < 3; i++ {
		if err := enc.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame %d: %v", i, err)
		}
	}
	if enc.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", enc.Frames())
	}
	if buf.Len() <= len(movieMagic) {
		t.Errorf("buffer too small after writing frames: %d bytes", buf.Len())
	}
	if err := enc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestEncodeStillProducesJPEG(t *testing.T) {
	f := frame.New(16, 16)
	for i := range f.Y {
		f.Y[i] = byte(i)
	}
	data, err := EncodeStill(f, 90)
	if err != nil {
		t.Fatalf("EncodeStill: %v", err)
	}
	// JPEG files start with the SOI marker 0xFFD8.
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("EncodeStill output does not start with JPEG SOI marker")
	}
}
