package camera

import (
	"bytes"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
)

func TestWatchdogNilIsNoop(t *testing.T) {
	var wd *watchdog
	wd.Feed()
	wd.Stop()
	if wd.ResetRequested() != nil {
		t.Error("ResetRequested on nil watchdog: want nil channel")
	}
	if wd.Killed() != nil {
		t.Error("Killed on nil watchdog: want nil channel")
	}
}

func TestWatchdogRequestsResetThenKills(t *testing.T) {
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	wd := startWatchdog(20*time.Millisecond, 40*time.Millisecond, log)
	defer wd.Stop()

	select {
	case <-wd.ResetRequested():
	case <-time.After(time.Second):
		t.Fatal("ResetRequested never fired")
	}

	select {
	case <-wd.Killed():
	case <-time.After(time.Second):
		t.Fatal("Killed never fired")
	}
}

func TestWatchdogFeedPreventsReset(t *testing.T) {
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	wd := startWatchdog(30*time.Millisecond, 30*time.Millisecond, log)
	defer wd.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; i < 15; i++ {
			<-ticker.C
			wd.Feed()
		}
	}()
	<-done

	select {
	case <-wd.ResetRequested():
		t.Fatal("ResetRequested fired despite regular feeding")
	case <-wd.Killed():
		t.Fatal("Killed fired despite regular feeding")
	default:
	}
}
