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

package input

import (
	"context"
	"io"

	"trpc.group/trpc-go/streambuf/log"
)

// Source pumps an io.Reader into an External stage until EOF, reader error
// or context cancellation.
type Source struct {
	name  string
	r     io.Reader
	ext   *External
	chunk int
	log   log.Logger
}

// NewSource creates a pump feeding ext from r.
func NewSource(name string, r io.Reader, ext *External, opt ...Option) *Source {
	opts := newOptions(opt...)
	return &Source{
		name:  name,
		r:     r,
		ext:   ext,
		chunk: opts.ChunkSize,
		log:   opts.Logger,
	}
}

// Run pumps until the reader is exhausted. The context is checked between
// reads; a blocking Read is not interrupted. The stage is closed when Run
// returns so drainers observe end of input.
func (s *Source) Run(ctx context.Context) error {
	defer s.ext.Close()
	buf := make([]byte, s.chunk)
	for {
		select {
		case <-ctx.Done():
			s.log.Debugf("input: source %s canceled", s.name)
			return ctx.Err()
		default:
		}
		n, err := s.r.Read(buf)
		if n > 0 {
			if _, ferr := s.ext.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			s.log.Debugf("input: source %s drained", s.name)
			return nil
		}
		if err != nil {
			s.log.Errorf("input: source %s read: %v", s.name, err)
			return err
		}
	}
}
