// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"storj.io/common/memory"
	"storj.io/common/testcontext"
	"storj.io/common/testrand"
	"storj.io/datasheet"
	"storj.io/datasheet/private/capture"
)

const testPayload = 30

func writeCapture(t *testing.T, path string, header datasheet.PageHeader, data []byte, skip map[int]bool) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)

	require.NoError(t, w.Write(capture.Record{Kind: capture.KindPage, Header: header}))
	var stats datasheet.PageStats
	for start := 0; start < len(data); start += testPayload {
		if skip[start/testPayload] {
			stats.Bad++
			continue
		}
		block := make([]byte, testPayload)
		copy(block, data[start:])
		require.NoError(t, w.Write(capture.Record{
			Kind:     capture.KindFragment,
			Fragment: datasheet.Fragment{Addr: uint32(start), Payload: block},
		}))
		stats.Good++
	}
	require.NoError(t, w.Write(capture.Record{Kind: capture.KindPageEnd, Stats: stats}))
	require.NoError(t, w.Flush())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRun(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	output := ctx.Dir("output")
	data := testrand.BytesInt(100)
	header := datasheet.PageHeader{
		Name:     "letter.txt",
		DataSize: uint32(len(data)),
		OrigSize: uint32(len(data)),
		PageSize: 2 * testPayload,
		Page:     1,
	}

	first := filepath.Join(ctx.Dir("captures"), "first.cap")
	writeCapture(t, first, header, data, map[int]bool{3: true})

	config := ctx.File("restore.yaml")
	require.NoError(t, os.WriteFile(config, []byte("payload_size: 30\ncodec: none\noutput: "+output+"\n"), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, run(ctx, []string{"--config", config, first}, &stdout))
	require.Contains(t, stdout.String(), "letter.txt page 1: Page processed")
	require.Contains(t, stdout.String(), "scan again: 2")
	require.Contains(t, stdout.String(), "letter.txt: incomplete, 3 of 4 blocks, scan again: 2")
	require.NoFileExists(t, filepath.Join(output, "letter.txt"))

	second := filepath.Join(ctx.Dir("captures"), "second.cap")
	header.Page = 2
	writeCapture(t, second, header, data, map[int]bool{0: true, 1: true})

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"--config", config, first, second}, &stdout))
	require.Contains(t, stdout.String(), "File saved: "+filepath.Join(output, "letter.txt"))

	restored, err := os.ReadFile(filepath.Join(output, "letter.txt"))
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestRunForce(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	output := ctx.Dir("output")
	data := testrand.BytesInt(90)
	header := datasheet.PageHeader{Name: "partial.bin", DataSize: 90, OrigSize: 90, Page: 1}

	path := filepath.Join(ctx.Dir("captures"), "partial.cap")
	writeCapture(t, path, header, data, map[int]bool{1: true})

	var stdout bytes.Buffer
	args := []string{"--payload-size", "30", "--codec", "none", "--output", output, "--force", path}
	require.NoError(t, run(ctx, args, &stdout))
	require.Contains(t, stdout.String(), "File saved")

	restored, err := os.ReadFile(filepath.Join(output, "partial.bin"))
	require.NoError(t, err)
	require.Equal(t, data[:30], restored[:30])
	require.Equal(t, make([]byte, 30), restored[30:60])
	require.Equal(t, data[60:], restored[60:])
}

func TestRunErrors(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	var stdout bytes.Buffer
	require.Error(t, run(ctx, nil, &stdout))
	require.Error(t, run(ctx, []string{"--log-level", "loud", "x.cap"}, &stdout))
	require.Error(t, run(ctx, []string{"--max-file-size", "huge", "x.cap"}, &stdout))
	require.Error(t, run(ctx, []string{"--output", ctx.Dir("out"), filepath.Join(ctx.Dir("none"), "missing.cap")}, &stdout))
	require.Error(t, run(ctx, []string{"--config", filepath.Join(ctx.Dir("none"), "missing.yaml"), "x.cap"}, &stdout))
}

func TestOptionsOverride(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	path := ctx.File("options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 2\ncodec: zstd\nauto_save: false\nmax_file_size: 64MiB\n"), 0o644))

	opts := defaultOptions()
	require.NoError(t, opts.loadFile(path))

	flagged := defaultOptions()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagged.bind(flags)
	require.NoError(t, flags.Parse([]string{"--codec", "lz4", "--force"}))
	opts.override(flags, flagged)

	require.Equal(t, 2, opts.Capacity)
	require.Equal(t, "lz4", opts.Codec)
	require.False(t, opts.AutoSave)
	require.True(t, opts.Force)
	require.Equal(t, datasheet.DefaultPayloadSize, opts.PayloadSize)

	config, err := opts.restorerConfig(nil)
	require.NoError(t, err)
	require.Equal(t, 64*memory.MiB, config.MaxFileSize)
	require.Equal(t, 2, config.Capacity)

	defaults := defaultOptions()
	config, err = defaults.restorerConfig(nil)
	require.NoError(t, err)
	require.Equal(t, datasheet.DefaultMaxFileSize, config.MaxFileSize)
}
