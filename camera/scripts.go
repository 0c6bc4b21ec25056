/*
NAME
  scripts.go

DESCRIPTION
  Exec implements event.ScriptRunner: it launches configured script hooks
  (on_event_start, on_event_end, ...) as detached subprocesses, grounded
  on §9's "single per-process subprocess-launcher task" design note and
  on the teacher's own os/exec usage in cmd/rv (the "syncreboot" call in
  its Shutdown handling). cmdline is split on whitespace; hooks needing
  shell features should themselves invoke a shell.

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
	"os/exec"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Exec runs script hooks as subprocesses without blocking the caller. A
// single goroutine drains a bounded queue so a storm of triggers (e.g.
// repeated on_motion_detected firings) can't spawn unbounded processes;
// a hook that's still running when the queue is full is dropped.
type Exec struct {
	log   logging.Logger
	queue chan string
}

// scriptQueueSize bounds how many pending script invocations are queued
// per camera before new ones are dropped.
const scriptQueueSize = 8

// NewExec returns an Exec and starts its dispatch goroutine.
func NewExec(log logging.Logger) *Exec {
	e := &Exec{log: log, queue: make(chan string, scriptQueueSize)}
	go e.loop()
	return e
}

// Run implements event.ScriptRunner.
func (e *Exec) Run(cmdline string) {
	select {
	case e.queue <- cmdline:
	default:
		e.log.Warning("script queue full, dropping hook", "cmdline", cmdline)
	}
}

func (e *Exec) loop() {
	for cmdline := range e.queue {
		e.run(cmdline)
	}
}

func (e *Exec) run(cmdline string) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return
	}
	out, err := exec.Command(fields[0], fields[1:]...).CombinedOutput()
	if err != nil {
		e.log.Warning("script hook failed", "cmdline", cmdline, "error", err.Error(), "output", string(out))
		return
	}
	e.log.Debug("script hook completed", "cmdline", cmdline)
}
