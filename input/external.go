//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package input implements the producer side of the pipeline: staging
// buffers that outside code feeds bytes into, and pumps that feed them
// from io.Readers.
package input

import (
	"sync"
	"time"

	"trpc.group/trpc-go/streambuf/appendbuffer"
	"trpc.group/trpc-go/streambuf/errs"
	"trpc.group/trpc-go/streambuf/internal/broadcast"
)

// External is a staging input fed by hand from other goroutines. It pairs
// an append buffer with a mutex and a broadcast signal, so one side Feeds
// bytes and the other side Drains them with an optional deadline.
type External struct {
	mu     sync.Mutex
	buf    appendbuffer.Buffer
	avail  broadcast.Signal
	closed bool
}

// NewExternal creates an empty staging input.
func NewExternal() *External {
	return &External{}
}

// Feed appends a copy of p to the staged bytes and wakes waiting drainers.
func (e *External) Feed(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errs.ErrInputClosed
	}
	wasEmpty := e.buf.Len() == 0
	n := e.buf.Append(p)
	if wasEmpty && n > 0 {
		e.avail.Broadcast()
	}
	return n, nil
}

// Buffered returns the number of staged bytes.
func (e *External) Buffered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Len()
}

// Drain moves every staged byte into dst, blocking without limit until at
// least one byte is staged. Draining a closed empty stage returns
// errs.ErrInputClosed.
func (e *External) Drain(dst *appendbuffer.Buffer) error {
	return e.drain(dst, time.Time{}, false)
}

// TryDrain is Drain with an already expired deadline.
func (e *External) TryDrain(dst *appendbuffer.Buffer) error {
	return e.drain(dst, time.Time{}, true)
}

// DrainDeadline is Drain bounded by an absolute deadline. The zero
// deadline counts as already expired.
func (e *External) DrainDeadline(dst *appendbuffer.Buffer, deadline time.Time) error {
	return e.drain(dst, deadline, true)
}

func (e *External) drain(dst *appendbuffer.Buffer, deadline time.Time, timed bool) error {
	e.mu.Lock()
	for e.buf.Len() == 0 {
		if e.closed {
			e.mu.Unlock()
			return errs.ErrInputClosed
		}
		if !timed {
			e.avail.Wait(&e.mu)
			continue
		}
		if e.avail.WaitDeadline(&e.mu, deadline) {
			e.mu.Unlock()
			return errs.ErrTimeout
		}
	}
	defer e.mu.Unlock()
	if dst.Len() == 0 {
		appendbuffer.Move(dst, &e.buf)
		return nil
	}
	if _, err := dst.ReadFrom(&e.buf); err != nil {
		return err
	}
	return nil
}

// Close marks the stage closed and wakes every waiting drainer. Staged
// bytes already fed remain drainable exactly once; further Feeds fail.
func (e *External) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.avail.Broadcast()
	return nil
}
