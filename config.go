// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package datasheet

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"storj.io/common/memory"
	"storj.io/datasheet/private/codec"
	"storj.io/datasheet/private/storage/filestore"
)

const (
	// DefaultCapacity is the number of files that can be restored at once.
	DefaultCapacity = 5
	// DefaultPayloadSize is the number of file bytes carried by a fragment.
	DefaultPayloadSize = 90
	// DefaultMaxFileSize bounds the block table of a single file.
	DefaultMaxFileSize = 1 * memory.GiB
	// DefaultCompression is the decompressor of files printed compressed.
	DefaultCompression = "bzip2"
)

// Config defines configuration for restoring files.
type Config struct {
	// Capacity is the number of files that can be in flight at once.
	Capacity int

	// PayloadSize is the size of a single fragment payload.
	PayloadSize int

	// MaxFileSize is the largest block table that is allocated for a file.
	MaxFileSize memory.Size

	// AutoSave saves files as soon as their last block arrives. It can be
	// overridden per page with FinishOptions.
	AutoSave bool

	// Compression names the decompressor used for files printed with the
	// compressed flag: bzip2, zstd, lz4 or none.
	Compression string

	// Destination asks where a restored file should be written. Saving fails
	// when it is nil.
	Destination Destination

	// Storage writes restored files. The local file system is used when nil.
	Storage Storage

	// Log receives diagnostic messages. Nothing is logged when nil.
	Log *zap.Logger
}

// setup fills in defaults and validates the configuration.
func (config *Config) setup() (codec.Tag, error) {
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.PayloadSize <= 0 {
		config.PayloadSize = DefaultPayloadSize
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	if config.Compression == "" {
		config.Compression = DefaultCompression
	}
	if config.Storage == nil {
		config.Storage = &filestore.Store{}
	}
	if config.Log == nil {
		config.Log = zap.NewNop()
	}

	tag, err := codec.ParseTag(config.Compression)
	if err != nil {
		return codec.None, Error.Wrap(err)
	}
	return tag, nil
}

// Destination asks the operator for the path of a restored file.
type Destination interface {
	// SelectPath returns the path to write the file to. name is the name
	// recorded on the printed sheets. Returning an error cancels the save.
	SelectPath(ctx context.Context, name string) (string, error)
}

// DestinationFunc implements Destination with a function.
type DestinationFunc func(ctx context.Context, name string) (string, error)

// SelectPath implements Destination.
func (fn DestinationFunc) SelectPath(ctx context.Context, name string) (string, error) {
	return fn(ctx, name)
}

// DirectoryDestination writes every restored file into the directory, named
// after the recorded file name.
type DirectoryDestination string

// SelectPath implements Destination.
func (dir DirectoryDestination) SelectPath(ctx context.Context, name string) (string, error) {
	return filepath.Join(string(dir), baseName(name)), nil
}

// baseName strips any directory from a recorded name. Sheets printed on
// Windows may use backslashes.
func baseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case ".", "..", "/", "":
		return "restored.bin"
	}
	return base
}

// Storage writes restored files.
type Storage interface {
	// WriteFile writes data to path, then restores the modification time
	// and attributes. It returns the number of bytes written.
	WriteFile(ctx context.Context, path string, data []byte, modified time.Time, attributes uint32) (int, error)
}
