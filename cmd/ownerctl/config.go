// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"modernc.org/owner"
)

// fileConfig mirrors owner.Config but in a JSON/JSONC-serializable shape,
// so a pool's parameters can be checked into a config file instead of
// re-typed as flags every run.
type fileConfig struct {
	TargetChunkBytes uint32 `json:"target_chunk_bytes,omitempty"`
	MaxElements      uint32 `json:"max_elements,omitempty"`
	ThreadSafe       bool   `json:"thread_safe,omitempty"`
	Description      string `json:"description,omitempty"`
}

// loadConfigFile reads a JSONC (hujson) config file describing pool
// parameters. A missing path is not an error; it yields the zero
// fileConfig so CLI flags and owner.Config's own defaults take over.
func loadConfigFile(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return fc, nil
}

// toOwnerConfig converts fc into owner.Config, with flag values taking
// precedence whenever the flag was set explicitly.
func (fc fileConfig) toOwnerConfig(flags *flagOverrides) owner.Config {
	cfg := owner.Config{
		TargetChunkBytes: fc.TargetChunkBytes,
		MaxElements:      fc.MaxElements,
		ThreadSafe:       fc.ThreadSafe,
		Description:      fc.Description,
	}

	if flags.chunkBytesSet {
		cfg.TargetChunkBytes = flags.chunkBytes
	}
	if flags.maxElementsSet {
		cfg.MaxElements = flags.maxElements
	}
	if flags.threadSafeSet {
		cfg.ThreadSafe = flags.threadSafe
	}
	if flags.describeSet {
		cfg.Description = flags.describe
	}

	return cfg
}
