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

// Package timeutil provides absolute-deadline helpers for blocking
// operations. A deadline is a wall-clock time.Time; the zero value is the
// "already expired" sentinel used by the try variants of blocking calls.
package timeutil

import "time"

// Timeout converts a relative wait into an absolute deadline.
func Timeout(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// Expired reports whether deadline has passed.
// The zero time counts as already expired.
func Expired(deadline time.Time) bool {
	if deadline.IsZero() {
		return true
	}
	return !deadline.After(time.Now())
}
