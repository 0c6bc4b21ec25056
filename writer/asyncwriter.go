/*
NAME
  asyncwriter.go

DESCRIPTION
  AsyncWriteCloser decouples the movie encoder from the underlying disk
  write, queueing encoded bytes through a pool.Buffer ring and draining
  them from a background goroutine. Grounded on revid/senders.go's
  mtsSender/rtmpSender output routines, which use the same ring buffer
  to keep a slow network destination from blocking packetisation;
  here the destination is a local file instead of a network sender, but
  the risk it guards against is the same one motion's own event loop
  cares about: OpenMovie/WriteMovieFrame/CloseMovie all run on the
  camera.Loop goroutine that also has to keep pulling frames from
  Capture, so a slow disk must not stall detection.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package writer

import (
	"io"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Ring buffer sizing for AsyncWriteCloser. A movie writer's writes are
// JPEG-frame-sized or MTS-packet-sized, not MTS-clip-sized like the
// teacher's mtsSender, so the element size is far smaller than
// mtsBufferPoolMaxAlloc; asyncPoolElements of headroom lets a handful of
// frames queue up before Write starts blocking the caller.
const (
	asyncPoolElementSize = 64 * 1024
	asyncPoolElements    = 32
	asyncPoolReadTimeout = 500 * time.Millisecond
	asyncPoolMaxAlloc    = asyncPoolElements * asyncPoolElementSize
)

// AsyncWriteCloser implements io.WriteCloser, buffering writes to dst
// through a bounded pool.Buffer so a slow dst (disk contention, a full
// filesystem) applies backpressure to the ring rather than to the
// caller's goroutine directly. Once the ring itself is full, Write
// blocks up to asyncPoolReadTimeout the same way pool.Buffer always
// has, so backpressure still eventually reaches the caller; it just
// absorbs brief stalls for free.
type AsyncWriteCloser struct {
	dst  io.WriteCloser
	ring *pool.Buffer
	log  logging.Logger
	done chan struct{}
	wg   sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewAsyncWriteCloser starts the draining goroutine and returns a ready
// AsyncWriteCloser writing to dst.
func NewAsyncWriteCloser(dst io.WriteCloser, log logging.Logger) *AsyncWriteCloser {
	pool.MaxAlloc(asyncPoolMaxAlloc)
	w := &AsyncWriteCloser{
		dst:  dst,
		ring: pool.NewBuffer(asyncPoolElements, asyncPoolElementSize, asyncPoolReadTimeout),
		log:  log,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.drain()
	return w
}

// drain reads chunks from the ring and writes them to dst until Close has
// been called and the ring has no chunk left to give. A write error to dst
// is recorded but does not stop draining; the caller observes it on the
// next Write or on Close.
func (w *AsyncWriteCloser) drain() {
	defer w.wg.Done()
	for {
		chunk, err := w.ring.Next(asyncPoolReadTimeout)
		if err != nil {
			if err != pool.ErrTimeout && err != io.EOF {
				w.log.Warning("async writer: ring read error", "error", err.Error())
			}
			select {
			case <-w.done:
				return
			default:
			}
			continue
		}

		if _, err := w.dst.Write(chunk.Bytes()); err != nil {
			w.log.Warning("async writer: destination write failed", "error", err.Error())
			w.setErr(err)
		}
		chunk.Close()
	}
}

func (w *AsyncWriteCloser) setErr(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *AsyncWriteCloser) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Write implements io.Writer, queueing p on the ring buffer. It returns
// any destination error observed since the last call, surfacing a bad
// disk to the encoder without making every frame wait for the disk.
func (w *AsyncWriteCloser) Write(p []byte) (int, error) {
	if err := w.Err(); err != nil {
		return 0, err
	}
	if _, err := w.ring.Write(p); err != nil {
		return 0, err
	}
	w.ring.Flush()
	return len(p), nil
}

// Close waits for the drain goroutine to write out what is queued, then
// closes dst. It returns the close error if there is one, otherwise the
// first drain error.
func (w *AsyncWriteCloser) Close() error {
	close(w.done)
	w.wg.Wait()
	if err := w.dst.Close(); err != nil {
		return err
	}
	return w.Err()
}
