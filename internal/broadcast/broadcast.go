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

// Package broadcast implements a broadcast-only condition variable whose
// waits support absolute deadlines, which sync.Cond cannot do.
//
// A Signal is always used together with a caller-owned sync.Mutex guarding
// the waited-on predicate. Broadcast, Wait and WaitDeadline must all be
// called with that mutex held. Wake-ups are not to be trusted: callers wrap
// every wait in a loop re-checking the predicate.
package broadcast

import (
	"sync"
	"time"

	"trpc.group/trpc-go/streambuf/internal/timeutil"
)

// Signal is a broadcast-only condition variable. The zero value is ready
// to use.
type Signal struct {
	ch chan struct{}
}

// channel returns the notification channel waiters of the current
// generation block on. Caller holds the guarding mutex.
func (s *Signal) channel() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes every waiter of the current generation.
// Caller holds the guarding mutex.
func (s *Signal) Broadcast() {
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
}

// Wait blocks until the next Broadcast. Caller holds mu; Wait releases it
// while blocked and reacquires it before returning.
func (s *Signal) Wait(mu *sync.Mutex) {
	ch := s.channel()
	mu.Unlock()
	<-ch
	mu.Lock()
}

// WaitDeadline blocks until the next Broadcast or until the absolute
// deadline passes, whichever comes first, and reports whether it timed
// out. The zero deadline counts as already expired and returns true
// without releasing mu. Caller holds mu; it is held again on return.
func (s *Signal) WaitDeadline(mu *sync.Mutex, deadline time.Time) bool {
	if timeutil.Expired(deadline) {
		return true
	}
	ch := s.channel()
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	mu.Unlock()
	select {
	case <-ch:
		mu.Lock()
		return false
	case <-timer.C:
		mu.Lock()
		return true
	}
}
