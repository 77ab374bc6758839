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

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Group runs a set of Sources on a shared goroutine pool and joins them.
type Group struct {
	opts *Options
	pool *ants.Pool
	srcs []*Source
}

// NewGroup creates an empty Group.
func NewGroup(opt ...Option) (*Group, error) {
	opts := newOptions(opt...)
	pool, err := ants.NewPool(opts.PoolSize)
	if err != nil {
		return nil, err
	}
	return &Group{opts: opts, pool: pool}, nil
}

// Add registers a pump from r into ext. Call before Run.
func (g *Group) Add(name string, r io.Reader, ext *External) {
	g.srcs = append(g.srcs, NewSource(name, r, ext,
		WithChunkSize(g.opts.ChunkSize), WithLogger(g.opts.Logger)))
}

// Run schedules every pump on the pool and blocks until all finish. The
// first pump error cancels the context the others poll.
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range g.srcs {
		s := s
		errCh := make(chan error, 1)
		if err := g.pool.Submit(func() { errCh <- s.Run(ctx) }); err != nil {
			return err
		}
		eg.Go(func() error { return <-errCh })
	}
	return eg.Wait()
}

// Close closes every closable reader and releases the pool, aggregating
// the errors.
func (g *Group) Close() error {
	var merr *multierror.Error
	for _, s := range g.srcs {
		if c, ok := s.r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
	}
	g.pool.Release()
	return merr.ErrorOrNil()
}
