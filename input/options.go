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
	"trpc.group/trpc-go/streambuf/config"
	"trpc.group/trpc-go/streambuf/log"
)

const (
	defaultPoolSize  = 8
	defaultChunkSize = 4096
)

// Options are the input options.
type Options struct {
	// PoolSize caps the goroutines a Group runs pumps on.
	PoolSize int
	// ChunkSize is the per-read scratch buffer size of a Source.
	ChunkSize int
	// Logger is the logger pumps report through.
	Logger log.Logger
}

// Option modifies the Options.
type Option func(*Options)

func newOptions(opt ...Option) *Options {
	opts := &Options{
		PoolSize:  defaultPoolSize,
		ChunkSize: defaultChunkSize,
		Logger:    log.GetDefaultLogger(),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// WithPoolSize caps the goroutines a Group runs pumps on.
func WithPoolSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// WithChunkSize sets the per-read scratch buffer size.
func WithChunkSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.ChunkSize = n
		}
	}
}

// WithLogger sets the logger pumps report through.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// optionsFile mirrors the options config file.
type optionsFile struct {
	PoolSize  int `yaml:"pool_size"`
	ChunkSize int `yaml:"chunk_size"`
}

// LoadOptions reads input options from a yaml, json or toml file.
func LoadOptions(path string) ([]Option, error) {
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	var f optionsFile
	if err := c.Unmarshal(&f); err != nil {
		return nil, err
	}
	return []Option{
		WithPoolSize(f.PoolSize),
		WithChunkSize(f.ChunkSize),
	}, nil
}
