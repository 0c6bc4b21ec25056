/*
NAME
  watchdog.go

DESCRIPTION
  watchdog pings systemd's WATCHDOG=1 notification on a timer derived
  from Config.WatchdogTimeout, so a hung camera task gets restarted by
  the supervisor instead of silently stalling. Outside systemd the
  notifications are no-ops (SdNotify reports unavailable), but the timer
  still runs for the internal reset/kill tracking below.

  It also implements §4.4 step 7 directly: once WatchdogTimeout has
  elapsed since the last Feed, ResetRequested fires once (Loop.Run asks
  the capture driver to restart); if a further WatchdogKill elapses
  with still no Feed, Killed closes and Loop.Run terminates so a
  process supervisor can restart the whole camera task.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package camera

import (
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/ausocean/utils/logging"
)

// watchdog pets the systemd watchdog every interval until stop is
// closed. camera.New starts one per Loop; Loop.Run calls Feed after
// every successfully processed frame, so each watchdog tracks the
// liveness of its own camera only.
type watchdog struct {
	interval time.Duration
	timeout  time.Duration
	kill     time.Duration
	feed     chan struct{}
	stop     chan struct{}
	reset    chan struct{}
	killed   chan struct{}
}

// startWatchdog begins notifying systemd at half of Config.WatchdogTimeout,
// the conventional safety margin for WATCHDOG_USEC-based health checks,
// and separately tracks timeout/kill against Feed for the internal
// reset/terminate behaviour of §4.4 step 7. It returns nil if timeout is
// 0 (watchdog disabled).
func startWatchdog(timeout, kill time.Duration, log logging.Logger) *watchdog {
	if timeout <= 0 {
		return nil
	}
	wd := &watchdog{
		interval: timeout / 2,
		timeout:  timeout,
		kill:     kill,
		feed:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		reset:    make(chan struct{}, 1),
		killed:   make(chan struct{}),
	}
	ok, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warning("sd_notify failed", "error", err.Error())
	} else if !ok {
		log.Debug("not running under systemd, watchdog is a no-op")
	}
	go wd.loop(log)
	return wd
}

func (wd *watchdog) loop(log logging.Logger) {
	t := time.NewTicker(wd.interval)
	defer t.Stop()
	lastFeed := time.Now()
	resetSent := false
	for {
		select {
		case <-wd.stop:
			return
		case <-wd.feed:
			lastFeed = time.Now()
			resetSent = false
		case <-t.C:
			since := time.Since(lastFeed)
			if since < wd.timeout {
				if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
					log.Warning("sd_notify watchdog ping failed", "error", err.Error())
				}
				continue
			}
			log.Warning("watchdog missed a feed interval", "since", since.String())
			if !resetSent {
				resetSent = true
				select {
				case wd.reset <- struct{}{}:
				default:
				}
			}
			if wd.kill > 0 && since >= wd.timeout+wd.kill {
				log.Error("watchdog kill threshold exceeded", "since", since.String())
				close(wd.killed)
				return
			}
		}
	}
}

// Feed marks the loop as alive for this interval.
func (wd *watchdog) Feed() {
	if wd == nil {
		return
	}
	select {
	case wd.feed <- struct{}{}:
	default:
	}
}

// ResetRequested reports when the watchdog wants the capture driver
// restarted after WatchdogTimeout has elapsed with no Feed. Safe to
// select on a nil watchdog (the channel is then nil and never fires).
func (wd *watchdog) ResetRequested() <-chan struct{} {
	if wd == nil {
		return nil
	}
	return wd.reset
}

// Killed closes once WatchdogKill has elapsed past the timeout with
// still no Feed, signalling Loop.Run to terminate. Safe to select on a
// nil watchdog.
func (wd *watchdog) Killed() <-chan struct{} {
	if wd == nil {
		return nil
	}
	return wd.killed
}

// Stop ends the watchdog goroutine.
func (wd *watchdog) Stop() {
	if wd == nil {
		return
	}
	close(wd.stop)
}
