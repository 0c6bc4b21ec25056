/*
NAME
  filenamefmt.go

DESCRIPTION
  Package filenamefmt implements the movie/still filename substitution
  language of §6: a strftime-plus-extensions format string with
  motion-detection-specific specifiers (event number, diffs, noise,
  location, ...), each optionally preceded by a numeric minimum-width
  prefix (e.g. %04v).

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filenamefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Vars holds every value the substitution language of §6 can reference.
// Callers populate whichever fields are meaningful for the file being
// named; the zero value of an unused field formats as "0" or "".
type Vars struct {
	EventNumber   uint64
	Shot          uint
	Diffs         int
	Noise         uint8
	LocationW     int
	LocationH     int
	LocationX     int
	LocationY     int
	Threshold     uint
	LabelCount    int
	CameraID      uint
	EventTag      string
	Width, Height int
	Filename      string
	FPS           float64
	FileKindID    int
	Host          string
	Version       string
	CameraName    string
}

// Format expands spec against t and v. strftime specifiers (anything not
// recognised below) are delegated to a minimal strftime implementation
// covering the common directives; a specifier this package doesn't
// recognise and strftime doesn't either is passed through verbatim with a
// warning-worthy but non-fatal no-op (callers that need stricter
// behaviour should validate format strings at config load).
func Format(spec string, t time.Time, v Vars) string {
	var b strings.Builder
	runes := []rune(spec)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}
		i++

		// %{name} form.
		if runes[i] == '{' {
			end := i + 1
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end == len(runes) {
				b.WriteString("%{")
				continue
			}
			name := string(runes[i+1 : end])
			b.WriteString(braceSpecifier(name, v))
			i = end
			continue
		}

		width, consumed := parseWidth(runes[i:])
		i += consumed
		if i >= len(runes) {
			b.WriteByte('%')
			break
		}
		b.WriteString(specifier(runes[i], width, t, v))
	}
	return b.String()
}

func parseWidth(rest []rune) (width int, consumed int) {
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, 0
	}
	w, _ := strconv.Atoi(string(rest[:j]))
	return w, j
}

func pad(s string, width int) string {
	if width <= 0 || len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func specifier(r rune, width int, t time.Time, v Vars) string {
	switch r {
	case 'v':
		return pad(strconv.FormatUint(v.EventNumber, 10), width)
	case 'q':
		return pad(strconv.FormatUint(uint64(v.Shot), 10), width)
	case 'D':
		return pad(strconv.Itoa(v.Diffs), width)
	case 'N':
		return pad(strconv.Itoa(int(v.Noise)), width)
	case 'i':
		return pad(strconv.Itoa(v.LocationW), width)
	case 'J':
		return pad(strconv.Itoa(v.LocationH), width)
	case 'K':
		return pad(strconv.Itoa(v.LocationX+v.LocationW/2), width)
	case 'L':
		return pad(strconv.Itoa(v.LocationY+v.LocationH/2), width)
	case 'o':
		return pad(strconv.Itoa(int(v.Threshold)), width)
	case 'Q':
		return pad(strconv.Itoa(v.LabelCount), width)
	case 't':
		return pad(strconv.FormatUint(uint64(v.CameraID), 10), width)
	case 'C':
		return v.EventTag
	case 'w':
		return pad(strconv.Itoa(v.Width), width)
	case 'h':
		return pad(strconv.Itoa(v.Height), width)
	case 'f':
		if v.Filename != "" {
			return v.Filename
		}
		return fmt.Sprintf("%g", v.FPS)
	case 'n':
		return pad(strconv.Itoa(v.FileKindID), width)
	case '$':
		return v.CameraName
	case '%':
		return "%"
	default:
		return strftime(r, t)
	}
}

func braceSpecifier(name string, v Vars) string {
	switch name {
	case "host":
		return v.Host
	case "fps":
		return fmt.Sprintf("%g", v.FPS)
	case "ver":
		return v.Version
	default:
		return "%{" + name + "}"
	}
}

// strftime covers the common time directives; anything else is passed
// through as a literal "%<r>" since the upstream spec delegates unknown
// specifiers to the platform strftime, which this package doesn't shell
// out to.
func strftime(r rune, t time.Time) string {
	switch r {
	case 'Y':
		return strconv.Itoa(t.Year())
	case 'y':
		return pad(strconv.Itoa(t.Year()%100), 2)
	case 'm':
		return pad(strconv.Itoa(int(t.Month())), 2)
	case 'd':
		return pad(strconv.Itoa(t.Day()), 2)
	case 'H':
		return pad(strconv.Itoa(t.Hour()), 2)
	case 'M':
		return pad(strconv.Itoa(t.Minute()), 2)
	case 'S':
		return pad(strconv.Itoa(t.Second()), 2)
	case 'j':
		return pad(strconv.Itoa(t.YearDay()), 3)
	default:
		return "%" + string(r)
	}
}

// ErrEmptySpec is returned by Validate for an empty format string; an
// output that's been enabled (non-empty path configured) needs a real
// name.
var ErrEmptySpec = errors.New("filenamefmt: empty format spec")

// Validate reports whether spec is non-empty; deeper validation (e.g.
// rejecting specifiers outside the supported set) is left to the caller,
// since an unrecognised specifier degrades gracefully rather than failing.
func Validate(spec string) error {
	if spec == "" {
		return ErrEmptySpec
	}
	return nil
}
