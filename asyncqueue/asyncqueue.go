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

// Package asyncqueue implements a bounded blocking FIFO of byte messages
// for multiple producers and multiple consumers.
//
// Push blocks while the queue is full, Pop blocks while it is empty. Both
// take an absolute wall-clock deadline in their *Deadline forms; the zero
// deadline means already expired, which is what the Try forms use. Waiters
// are woken by broadcast only on the empty to non-empty and full to
// non-full transitions: a waiter that arrives while its condition already
// holds proceeds under the mutex without sleeping, so transition-only
// broadcasts lose no wake-ups.
package asyncqueue

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"trpc.group/trpc-go/streambuf/errs"
	"trpc.group/trpc-go/streambuf/internal/broadcast"
	"trpc.group/trpc-go/streambuf/internal/linklist"
)

// Capacity is the maximum number of pending messages.
const Capacity = 128

// Stats are cumulative operation counters.
type Stats struct {
	Pushes   uint64
	Pops     uint64
	Timeouts uint64
}

// Queue is a bounded blocking message queue. Use New; the zero value is not
// usable.
type Queue struct {
	mu       sync.Mutex
	messages *linklist.List[[]byte]

	msgAvail   broadcast.Signal // message available, waited on by Pop
	spaceAvail broadcast.Signal // space available, waited on by Push

	pushes   atomic.Uint64
	pops     atomic.Uint64
	timeouts atomic.Uint64
}

// New creates an empty queue, immediately usable.
func New() *Queue {
	return &Queue{messages: linklist.New[[]byte]()}
}

// Drain discards every pending message and returns how many were dropped.
// It must not be called concurrently with blocked pushers or poppers.
func (q *Queue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.messages.Len()
	q.messages.Init()
	if n == Capacity {
		q.spaceAvail.Broadcast()
	}
	return n
}

// Empty reports whether no messages are pending.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.messages.Len() == 0
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.messages.Len()
}

// Stats returns a snapshot of the cumulative counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Pushes:   q.pushes.Load(),
		Pops:     q.pops.Load(),
		Timeouts: q.timeouts.Load(),
	}
}

// Push appends a copy of data at the tail, blocking without limit while the
// queue is full.
func (q *Queue) Push(data []byte) error {
	return q.push(data, time.Time{}, false)
}

// TryPush is Push with an already expired deadline: it fails with
// errs.ErrTimeout instead of blocking.
func (q *Queue) TryPush(data []byte) error {
	return q.push(data, time.Time{}, true)
}

// PushDeadline is Push bounded by an absolute deadline. The zero deadline
// counts as already expired.
func (q *Queue) PushDeadline(data []byte, deadline time.Time) error {
	return q.push(data, deadline, true)
}

func (q *Queue) push(data []byte, deadline time.Time, timed bool) error {
	q.mu.Lock()
	for q.messages.Len() >= Capacity {
		if !timed {
			q.spaceAvail.Wait(&q.mu)
			continue
		}
		if q.spaceAvail.WaitDeadline(&q.mu, deadline) {
			q.mu.Unlock()
			q.timeouts.Inc()
			return errs.ErrTimeout
		}
	}
	// the caller keeps ownership of data, the queue holds a copy
	msg := make([]byte, len(data))
	copy(msg, data)
	wasEmpty := q.messages.Len() == 0
	q.messages.PushBack(msg)
	if wasEmpty {
		// Nobody waits on msgAvail while the list is non-empty, so only
		// the empty to non-empty transition needs a broadcast.
		q.msgAvail.Broadcast()
	}
	q.mu.Unlock()
	q.pushes.Inc()
	return nil
}

// Pop removes and returns the first pending message, blocking without limit
// while the queue is empty. The returned slice is owned by the caller.
func (q *Queue) Pop() ([]byte, error) {
	return q.pop(time.Time{}, false)
}

// TryPop is Pop with an already expired deadline.
func (q *Queue) TryPop() ([]byte, error) {
	return q.pop(time.Time{}, true)
}

// PopDeadline is Pop bounded by an absolute deadline. The zero deadline
// counts as already expired.
func (q *Queue) PopDeadline(deadline time.Time) ([]byte, error) {
	return q.pop(deadline, true)
}

func (q *Queue) pop(deadline time.Time, timed bool) ([]byte, error) {
	q.mu.Lock()
	for q.messages.Len() == 0 {
		if !timed {
			q.msgAvail.Wait(&q.mu)
			continue
		}
		if q.msgAvail.WaitDeadline(&q.mu, deadline) {
			q.mu.Unlock()
			q.timeouts.Inc()
			return nil, errs.ErrTimeout
		}
	}
	msg := q.messages.Remove(q.messages.Front())
	if q.messages.Len() == Capacity-1 {
		// full to non-full transition
		q.spaceAvail.Broadcast()
	}
	q.mu.Unlock()
	q.pops.Inc()
	return msg, nil
}
