// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipe implements the in-memory byte sink which captures console
// output of guest processes.
package pipe

import (
	"sync"

	"import.name/lock"
)

// Pipe has independent write and read cursors.  Reads never block: an empty
// pipe yields zero bytes.  Bytes are delivered at most once, in write order.
//
// One writer and one reader may use the pipe concurrently.
type Pipe struct {
	limit int

	mu      sync.Mutex // Guards the fields below.
	buf     []byte
	off     int // Read position in buf.
	written uint64
	read    uint64
	dropped uint64
}

// New pipe.  If limit is positive, at most that many unread bytes are
// retained; the oldest unread bytes are discarded to make room for new ones.
func New(limit int) *Pipe {
	if limit < 0 {
		limit = 0
	}
	return &Pipe{limit: limit}
}

// Write always succeeds.
func (p *Pipe) Write(b []byte) (n int, err error) {
	n = len(b)
	if n == 0 {
		return
	}

	lock.Guard(&p.mu, func() {
		p.written += uint64(n)

		if p.limit > 0 {
			if n >= p.limit {
				p.dropped += uint64(len(p.buf)-p.off) + uint64(n-p.limit)
				p.buf = append(p.buf[:0], b[n-p.limit:]...)
				p.off = 0
				return
			}

			if excess := len(p.buf) - p.off + n - p.limit; excess > 0 {
				p.off += excess
				p.dropped += uint64(excess)
			}
		}

		p.compact()
		p.buf = append(p.buf, b...)
	})
	return
}

// Read copies up to len(b) unread bytes and advances the read cursor.  It
// returns 0 and nil error when there is nothing to read.
func (p *Pipe) Read(b []byte) (n int, err error) {
	lock.Guard(&p.mu, func() {
		n = copy(b, p.buf[p.off:])
		p.off += n
		p.read += uint64(n)

		if p.off == len(p.buf) {
			p.buf = p.buf[:0]
			p.off = 0
		}
	})
	return
}

// WriteString is like Write.
func (p *Pipe) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// Len returns the number of unread bytes.
func (p *Pipe) Len() (n int) {
	lock.Guard(&p.mu, func() {
		n = len(p.buf) - p.off
	})
	return
}

// Written is the write cursor position: total number of bytes ever written.
func (p *Pipe) Written() (n uint64) {
	lock.Guard(&p.mu, func() {
		n = p.written
	})
	return
}

// Consumed is the read cursor position: total number of bytes ever read.
func (p *Pipe) Consumed() (n uint64) {
	lock.Guard(&p.mu, func() {
		n = p.read
	})
	return
}

// Dropped is the number of bytes discarded due to the limit.
func (p *Pipe) Dropped() (n uint64) {
	lock.Guard(&p.mu, func() {
		n = p.dropped
	})
	return
}

// Reset discards unread bytes without counting them as dropped.  The cursors
// keep their positions.
func (p *Pipe) Reset() {
	lock.Guard(&p.mu, func() {
		p.buf = nil
		p.off = 0
	})
}

// compact moves unread bytes to the start of the buffer once the consumed
// prefix dominates.  Caller must hold the mutex.
func (p *Pipe) compact() {
	if p.off == 0 || p.off < len(p.buf)/2 {
		return
	}

	n := copy(p.buf, p.buf[p.off:])
	p.buf = p.buf[:n]
	p.off = 0
}
