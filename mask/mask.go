/*
NAME
  mask.go

DESCRIPTION
  Package mask loads binary PGM (P5) mask files used as DetectionModel's
  privacy_mask and fixed_mask (§4.1, §6). A mask whose dimensions don't
  match the camera's W x H is nearest-neighbour resized, with a warning,
  rather than rejected (§12 supplemented feature, from the original
  source's mask-loading behaviour).

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mask

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// ErrBadMagic is returned when a file doesn't start with the P5 (binary
// PGM) magic number.
var ErrBadMagic = errors.New("mask: not a binary PGM (P5) file")

// Load reads a binary PGM mask from path and returns a W*H byte mask
// (0 = masked-out, nonzero = active), resized to w x h if its own
// dimensions differ. log receives a warning on resize; a nil log
// suppresses the message (useful in tests).
func Load(path string, w, h int, log logging.Logger) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mask: opening %s", path)
	}
	defer f.Close()
	return decode(f, path, w, h, log)
}

func decode(r io.Reader, path string, w, h int, log logging.Logger) ([]byte, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return nil, errors.Wrap(err, "mask: reading magic number")
	}
	if magic != "P5" {
		return nil, ErrBadMagic
	}

	srcW, err := readIntToken(br)
	if err != nil {
		return nil, errors.Wrap(err, "mask: reading width")
	}
	srcH, err := readIntToken(br)
	if err != nil {
		return nil, errors.Wrap(err, "mask: reading height")
	}
	maxval, err := readIntToken(br)
	if err != nil {
		return nil, errors.Wrap(err, "mask: reading maxval")
	}
	if maxval <= 0 || maxval > 255 {
		return nil, fmt.Errorf("mask: unsupported maxval %d (want 1-255)", maxval)
	}

	pixels := make([]byte, srcW*srcH)
	if _, err := io.ReadFull(br, pixels); err != nil {
		return nil, errors.Wrap(err, "mask: reading pixel data")
	}

	if srcW == w && srcH == h {
		return pixels, nil
	}

	if log != nil {
		log.Warning("mask dimensions do not match frame size, resizing",
			"path", path, "mask_w", srcW, "mask_h", srcH, "frame_w", w, "frame_h", h)
	}
	return resizeNearest(pixels, srcW, srcH, w, h), nil
}

// resizeNearest nearest-neighbour resizes src (srcW x srcH) to dstW x
// dstH.
func resizeNearest(src []byte, srcW, srcH, dstW, dstH int) []byte {
	dst := make([]byte, dstW*dstH)
	if srcW == 0 || srcH == 0 {
		return dst
	}
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			dst[y*dstW+x] = src[sy*srcW+sx]
		}
	}
	return dst
}

// readToken reads a whitespace-delimited token, skipping '#' comments as
// PGM's ASCII header grammar requires (even though the pixel data itself
// is binary).
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			for {
				c, err := br.ReadByte()
				if err != nil {
					return "", err
				}
				if c == '\n' {
					break
				}
			}
			continue
		}
		if isSpace(b) {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, b)
	}
}

func readIntToken(br *bufio.Reader) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("mask: expected integer, got %q", tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
