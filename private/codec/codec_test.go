// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"storj.io/common/memory"
)

func sample(t *testing.T) []byte {
	data, err := os.ReadFile(filepath.Join("testdata", "sample.txt"))
	require.NoError(t, err)
	return data
}

func TestRoundTrip(t *testing.T) {
	data := sample(t)

	for _, tag := range []Tag{None, Zstd, LZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := Compress(tag, data)
			require.NoError(t, err)
			if tag != None {
				require.Less(t, len(compressed), len(data))
			}

			out, err := Decompress(tag, compressed, len(data))
			require.NoError(t, err)
			require.Equal(t, data, out)

			// a generous limit returns the real length.
			out, err = Decompress(tag, compressed, 4*len(data))
			require.NoError(t, err)
			require.Equal(t, data, out)
		})
	}
}

func TestBzip2(t *testing.T) {
	data := sample(t)
	compressed, err := os.ReadFile(filepath.Join("testdata", "sample.txt.bz2"))
	require.NoError(t, err)

	out, err := Decompress(Bzip2, compressed, len(data))
	require.NoError(t, err)
	require.Equal(t, data, out)

	_, err = Decompress(Bzip2, compressed, len(data)-1)
	require.True(t, ErrCorrupt.Has(err))

	_, err = Decompress(Bzip2, compressed[:len(compressed)/2], len(data))
	require.True(t, ErrCorrupt.Has(err))

	_, err = Compress(Bzip2, data)
	require.Error(t, err)
}

func TestDecompressLimit(t *testing.T) {
	data := sample(t)
	for _, tag := range []Tag{None, Zstd, LZ4} {
		compressed, err := Compress(tag, data)
		require.NoError(t, err)

		_, err = Decompress(tag, compressed, len(data)-1)
		require.True(t, ErrCorrupt.Has(err), tag.String())
	}

	_, err := Decompress(Zstd, nil, -1)
	require.Error(t, err)
}

func TestZstdBoundedOutput(t *testing.T) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	require.NoError(t, err)
	packed := enc.EncodeAll(make([]byte, 64*memory.MiB.Int()), nil)
	require.NoError(t, enc.Close())
	require.Less(t, len(packed), memory.MiB.Int())

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	_, err = Decompress(Zstd, packed, 100)

	runtime.ReadMemStats(&after)
	require.True(t, ErrCorrupt.Has(err))
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(32*memory.MiB.Int()))
}

func TestDecompressGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xFF}, 256)
	for _, tag := range []Tag{Bzip2, Zstd, LZ4} {
		_, err := Decompress(tag, garbage, 4096)
		require.True(t, ErrCorrupt.Has(err), tag.String())
	}

	_, err := Decompress(Tag(42), garbage, 4096)
	require.Error(t, err)
	require.False(t, ErrCorrupt.Has(err))
}

func TestParseTag(t *testing.T) {
	for _, tag := range []Tag{None, Bzip2, Zstd, LZ4} {
		parsed, err := ParseTag(tag.String())
		require.NoError(t, err)
		require.Equal(t, tag, parsed)
	}
	parsed, err := ParseTag("bz2")
	require.NoError(t, err)
	require.Equal(t, Bzip2, parsed)

	_, err = ParseTag("gzip")
	require.Error(t, err)
	require.Equal(t, "unknown(9)", Tag(9).String())

	var tag Tag
	require.NoError(t, tag.UnmarshalText([]byte("lz4")))
	require.Equal(t, LZ4, tag)
	text, err := tag.MarshalText()
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("lz4"), text))
}
