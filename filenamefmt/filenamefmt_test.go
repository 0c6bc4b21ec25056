package filenamefmt

import (
	"testing"
	"time"
)

func TestFormatZeroPaddedEventNumber(t *testing.T) {
	got := Format("event-%04v.mp4", time.Time{}, Vars{EventNumber: 7})
	want := "event-0007.mp4"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormatMixedSpecifiers(t *testing.T) {
	v := Vars{
		EventNumber: 3,
		Diffs:       1200,
		Noise:       16,
		CameraID:    5,
		EventTag:    "dock1",
	}
	got := Format("cam%t-%C-event%v-d%D-n%N", time.Time{}, v)
	want := "cam5-dock1-event3-d1200-n16"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormatStrftimePassthrough(t *testing.T) {
	tm := time.Date(2024, time.March, 5, 9, 8, 7, 0, time.UTC)
	got := Format("%Y-%m-%d_%H%M%S", tm, Vars{})
	want := "2024-03-05_090807"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormatBraceSpecifiers(t *testing.T) {
	got := Format("%{host}-%{ver}", time.Time{}, Vars{Host: "cam01", Version: "1.2.3"})
	want := "cam01-1.2.3"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	if err := Validate(""); err != ErrEmptySpec {
		t.Errorf("Validate(\"\") = %v, want ErrEmptySpec", err)
	}
	if err := Validate("x"); err != nil {
		t.Errorf("Validate(\"x\") = %v, want nil", err)
	}
}
