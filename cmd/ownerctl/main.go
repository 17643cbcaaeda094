// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ownerctl is a diagnostic CLI for exercising an owner.Owner[[]byte] pool
// from the command line: construct a pool with a chosen configuration,
// drive it through a scripted workload, and print occupancy statistics.
//
// Usage:
//
//	ownerctl [flags]
//
// Flags:
//
//	-c, --config string        optional JSONC config file (see config.go)
//	    --chunk-bytes uint32    target bytes per chunk
//	    --max-elements uint32   element cap for the pool
//	    --thread-safe           serialize the pool behind a mutex
//	    --describe string       diagnostic tag for the pool
//	-n, --make int              number of slots to fill before reporting (default 8)
//	    --payload-size int      byte size of each slot's payload (default 64)
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"modernc.org/owner"
	"modernc.org/owner/rawmem"
)

// flagOverrides tracks which flags were set explicitly on the command
// line, so config-file values are only overridden where the user actually
// asked for it rather than whenever a flag happens to hold its zero value.
type flagOverrides struct {
	chunkBytes     uint32
	chunkBytesSet  bool
	maxElements    uint32
	maxElementsSet bool
	threadSafe     bool
	threadSafeSet  bool
	describe       string
	describeSet    bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ownerctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("ownerctl", flag.ContinueOnError)

	configPath := fs.StringP("config", "c", "", "optional JSONC config file")
	chunkBytes := fs.Uint32("chunk-bytes", 0, "target bytes per chunk")
	maxElements := fs.Uint32("max-elements", 0, "element cap for the pool")
	threadSafe := fs.Bool("thread-safe", false, "serialize the pool behind a mutex")
	describe := fs.String("describe", "", "diagnostic tag for the pool")
	makeCount := fs.IntP("make", "n", 8, "number of slots to fill before reporting")
	payloadSize := fs.Int("payload-size", 64, "byte size of each slot's payload")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ownerctl [flags]")
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	fc, err := loadConfigFile(*configPath)
	if err != nil {
		return err
	}

	overrides := &flagOverrides{
		chunkBytes:     *chunkBytes,
		chunkBytesSet:  fs.Changed("chunk-bytes"),
		maxElements:    *maxElements,
		maxElementsSet: fs.Changed("max-elements"),
		threadSafe:     *threadSafe,
		threadSafeSet:  fs.Changed("thread-safe"),
		describe:       *describe,
		describeSet:    fs.Changed("describe"),
	}

	cfg := fc.toOwnerConfig(overrides)

	rawmem.SetErrorSink(func(msg string) {
		fmt.Fprintln(os.Stderr, "[owner]", msg)
	})

	report, err := drive(cfg, *makeCount, *payloadSize)
	if err != nil {
		return err
	}

	printReport(os.Stdout, report)
	return nil
}

// poolReport summarizes a drive run for display.
type poolReport struct {
	Description string
	Requested   int
	Made        int
	Count       uint32
	Stats       rawmem.Stats
}

// drive constructs a byte-slice pool with cfg, fills it with n payloads of
// the given size, then frees every other one, so the report shows the
// occupancy left after those frees.
func drive(cfg owner.Config, n, payloadSize int) (poolReport, error) {
	if n < 0 {
		return poolReport{}, fmt.Errorf("--make must be >= 0, got %d", n)
	}
	if payloadSize < 0 {
		return poolReport{}, fmt.Errorf("--payload-size must be >= 0, got %d", payloadSize)
	}

	o := owner.New[[]byte](cfg)

	handles := make([]owner.Handle, 0, n)
	for i := 0; i < n; i++ {
		h := o.MakeValue(make([]byte, payloadSize))
		if h.IsNull() {
			break
		}
		handles = append(handles, h)
	}

	for i, h := range handles {
		if i%2 == 0 {
			o.Free(h)
		}
	}

	return poolReport{
		Description: cfg.Description,
		Requested:   n,
		Made:        len(handles),
		Count:       o.Count(),
		Stats:       rawmem.CurrentStats(),
	}, nil
}

func printReport(w *os.File, r poolReport) {
	desc := r.Description
	if desc == "" {
		desc = "(unnamed)"
	}
	fmt.Fprintf(w, "pool:       %s\n", desc)
	fmt.Fprintf(w, "requested:  %d\n", r.Requested)
	fmt.Fprintf(w, "made:       %d\n", r.Made)
	fmt.Fprintf(w, "live:       %d\n", r.Count)
	fmt.Fprintf(w, "raw bytes:  live=%d peak=%d\n", r.Stats.LiveBytes, r.Stats.MaxBytes)
}
