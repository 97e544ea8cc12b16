// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package codec implements the block decompressors a restored file payload
// may have been packed with.
package codec

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/errs"
)

var (
	// Error is the default codec errs class.
	Error = errs.Class("codec")

	// ErrCorrupt is returned when the payload cannot be decompressed.
	ErrCorrupt = errs.Class("decompress")
)

// Tag identifies a compression algorithm.
type Tag uint8

const (
	// None means the payload is stored as is.
	None Tag = iota
	// Bzip2 is the stream format printed sheets are packed with.
	Bzip2
	// Zstd is zstandard.
	Zstd
	// LZ4 is the LZ4 block format.
	LZ4
)

// String returns the name of the tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case Bzip2:
		return "bzip2"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseTag parses the name of a tag.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none":
		return None, nil
	case "bzip2", "bz2":
		return Bzip2, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, Error.New("unknown compression %q", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tag *Tag) UnmarshalText(text []byte) (err error) {
	*tag, err = ParseTag(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (tag Tag) MarshalText() ([]byte, error) {
	return []byte(tag.String()), nil
}

// zstdEncoder is safe for concurrent use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
}

// Decompress unpacks compressed into at most limit bytes. Output that does
// not fit into limit bytes is treated as corrupt.
func Decompress(tag Tag, compressed []byte, limit int) ([]byte, error) {
	if limit < 0 {
		return nil, Error.New("invalid limit %d", limit)
	}

	switch tag {
	case None:
		if len(compressed) > limit {
			return nil, ErrCorrupt.New("%d bytes do not fit into %d", len(compressed), limit)
		}
		return compressed, nil

	case Bzip2:
		return readLimited(bzip2.NewReader(bytes.NewReader(compressed)), limit)

	case Zstd:
		// frames are streamed, so a frame claiming more than limit bytes
		// never gets its output allocated.
		dec, err := zstd.NewReader(bytes.NewReader(compressed),
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true))
		if err != nil {
			return nil, ErrCorrupt.Wrap(err)
		}
		defer dec.Close()
		return readLimited(dec, limit)

	case LZ4:
		out := make([]byte, limit)
		n, err := lz4.UncompressBlock(compressed, out)
		if err != nil {
			return nil, ErrCorrupt.Wrap(err)
		}
		return out[:n], nil

	default:
		return nil, Error.New("unsupported compression %v", tag)
	}
}

// Compress packs data. Bzip2 is only supported for decompression.
func Compress(tag Tag, data []byte) ([]byte, error) {
	switch tag {
	case None:
		return data, nil

	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case LZ4:
		out := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if n == 0 {
			return nil, Error.New("lz4: data is incompressible")
		}
		return out[:n], nil

	default:
		return nil, Error.New("compression with %v is not supported", tag)
	}
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, ErrCorrupt.Wrap(err)
	}
	if len(out) > limit {
		return nil, ErrCorrupt.New("output exceeds %d bytes", limit)
	}
	return out, nil
}
