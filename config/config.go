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

// Package config provides a small loader for library tunables: codecs for
// yaml, json and toml, pluggable data providers with change watching, and
// typed access to dotted keys.
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v3"

	"trpc.group/trpc-go/streambuf/errs"
)

var (
	// ErrCodecNotExist is the unknown codec error.
	ErrCodecNotExist = errors.New("config: codec not exist")
	// ErrProviderNotExist is the unknown provider error.
	ErrProviderNotExist = errors.New("config: provider not exist")
)

func init() {
	RegisterCodec(&YamlCodec{})
	RegisterCodec(&JSONCodec{})
	RegisterCodec(&TomlCodec{})
	RegisterProvider(newFileProvider())
}

// Codec deserializes raw config data.
type Codec interface {
	// Name returns the codec name.
	Name() string
	// Unmarshal deserializes in into out.
	Unmarshal(in []byte, out interface{}) error
}

// YamlCodec is the yaml codec.
type YamlCodec struct{}

// Name returns yaml codec's name.
func (*YamlCodec) Name() string { return "yaml" }

// Unmarshal deserializes the in bytes into out by yaml.
func (*YamlCodec) Unmarshal(in []byte, out interface{}) error {
	return yaml.Unmarshal(in, out)
}

// JSONCodec is the json codec.
type JSONCodec struct{}

// Name returns json codec's name.
func (*JSONCodec) Name() string { return "json" }

// Unmarshal deserializes the in bytes into out by json.
func (*JSONCodec) Unmarshal(in []byte, out interface{}) error {
	return jsoniter.Unmarshal(in, out)
}

// TomlCodec is the toml codec.
type TomlCodec struct{}

// Name returns toml codec's name.
func (*TomlCodec) Name() string { return "toml" }

// Unmarshal deserializes the in bytes into out by toml.
func (*TomlCodec) Unmarshal(in []byte, out interface{}) error {
	return toml.Unmarshal(in, out)
}

var (
	codecs    sync.Map
	providers sync.Map
)

// RegisterCodec registers a codec by its name.
func RegisterCodec(c Codec) {
	codecs.Store(c.Name(), c)
}

// GetCodec returns the codec registered under name.
func GetCodec(name string) Codec {
	if v, ok := codecs.Load(name); ok {
		return v.(Codec)
	}
	return nil
}

// RegisterProvider registers a data provider by its name.
func RegisterProvider(p DataProvider) {
	providers.Store(p.Name(), p)
}

// GetProvider returns the provider registered under name.
func GetProvider(name string) DataProvider {
	if v, ok := providers.Load(name); ok {
		return v.(DataProvider)
	}
	return nil
}

// Config is a loaded piece of configuration.
type Config interface {
	// Unmarshal decodes the whole config into out.
	Unmarshal(out interface{}) error
	// Get returns the value at the dotted key, or def when absent.
	Get(key string, def interface{}) interface{}
	// GetString returns the string at the dotted key.
	GetString(key, def string) string
	// GetInt returns the int at the dotted key.
	GetInt(key string, def int) int
	// GetBool returns the bool at the dotted key.
	GetBool(key string, def bool) bool
	// GetDuration returns the duration at the dotted key.
	GetDuration(key string, def time.Duration) time.Duration
	// Bytes returns the raw config data.
	Bytes() []byte
	// Watch registers cb to run whenever the provider reports a change.
	Watch(cb func(Config))
}

type options struct {
	codec    string
	provider string
}

// LoadOption modifies loading.
type LoadOption func(*options)

// WithCodec forces the codec instead of deriving it from the extension.
func WithCodec(name string) LoadOption {
	return func(o *options) { o.codec = name }
}

// WithProvider selects the data provider, default "file".
func WithProvider(name string) LoadOption {
	return func(o *options) { o.provider = name }
}

// Load reads and parses the config at path. The codec defaults to the file
// extension, the provider to "file".
func Load(path string, opts ...LoadOption) (Config, error) {
	o := options{provider: "file"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == "" {
		o.codec = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	codec := GetCodec(o.codec)
	if codec == nil {
		return nil, ErrCodecNotExist
	}
	p := GetProvider(o.provider)
	if p == nil {
		return nil, ErrProviderNotExist
	}
	c := &cfg{path: path, codec: codec, p: p}
	if err := c.load(); err != nil {
		return nil, err
	}
	p.Watch(func(changed string, data []byte) {
		if changed != path {
			return
		}
		c.reload(data)
	})
	return c, nil
}

var _ Config = (*cfg)(nil)

type cfg struct {
	path  string
	codec Codec
	p     DataProvider

	mu   sync.RWMutex
	raw  []byte
	data map[string]interface{}
	cbs  []func(Config)
}

func (c *cfg) load() error {
	raw, err := c.p.Read(c.path)
	if err != nil {
		return err
	}
	return c.parse(raw)
}

func (c *cfg) parse(raw []byte) error {
	data := make(map[string]interface{})
	if err := c.codec.Unmarshal(raw, &data); err != nil {
		return errs.Wrapf(err, errs.RetConfigDecodeFail, "decode %s as %s", c.path, c.codec.Name())
	}
	c.mu.Lock()
	c.raw = raw
	c.data = data
	c.mu.Unlock()
	return nil
}

func (c *cfg) reload(raw []byte) {
	if err := c.parse(raw); err != nil {
		return
	}
	c.mu.RLock()
	cbs := make([]func(Config), len(c.cbs))
	copy(cbs, c.cbs)
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(c)
	}
}

// Unmarshal decodes the whole config into out.
func (c *cfg) Unmarshal(out interface{}) error {
	c.mu.RLock()
	data := c.data
	c.mu.RUnlock()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "yaml",
	})
	if err != nil {
		return errs.Wrap(err, errs.RetConfigDecodeFail, "build decoder")
	}
	if err := dec.Decode(data); err != nil {
		return errs.Wrap(err, errs.RetConfigDecodeFail, "decode config")
	}
	return nil
}

// Get returns the value at the dotted key, or def when absent.
func (c *cfg) Get(key string, def interface{}) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cur := interface{}(c.data)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return def
		}
		if cur, ok = m[part]; !ok {
			return def
		}
	}
	return cur
}

// GetString returns the string at the dotted key.
func (c *cfg) GetString(key, def string) string {
	v, err := cast.ToStringE(c.Get(key, def))
	if err != nil {
		return def
	}
	return v
}

// GetInt returns the int at the dotted key.
func (c *cfg) GetInt(key string, def int) int {
	v, err := cast.ToIntE(c.Get(key, def))
	if err != nil {
		return def
	}
	return v
}

// GetBool returns the bool at the dotted key.
func (c *cfg) GetBool(key string, def bool) bool {
	v, err := cast.ToBoolE(c.Get(key, def))
	if err != nil {
		return def
	}
	return v
}

// GetDuration returns the duration at the dotted key.
func (c *cfg) GetDuration(key string, def time.Duration) time.Duration {
	v, err := cast.ToDurationE(c.Get(key, def))
	if err != nil {
		return def
	}
	return v
}

// Bytes returns the raw config data.
func (c *cfg) Bytes() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raw
}

// Watch registers cb to run whenever the provider reports a change.
func (c *cfg) Watch(cb func(Config)) {
	c.mu.Lock()
	c.cbs = append(c.cbs, cb)
	c.mu.Unlock()
}
