// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package filestore writes restored files to the local file system and puts
// their original timestamp and attributes back.
package filestore

import (
	"context"
	"os"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	// Error is the default filestore errs class.
	Error = errs.Class("filestore")

	mon = monkit.Package()
)

// File attributes as recorded on printed sheets.
const (
	AttrReadOnly uint32 = 0x01
	AttrHidden   uint32 = 0x02
	AttrSystem   uint32 = 0x04
	AttrArchive  uint32 = 0x20
	AttrNormal   uint32 = 0x80
)

// Store writes files into the local file system.
type Store struct {
	// Perm is used for newly created files, 0644 when zero.
	Perm os.FileMode
}

// WriteFile creates or truncates path and writes data into it. It then
// restores the modification time (when not zero) and the attributes. The
// number of bytes written is returned even on failure.
func (store *Store) WriteFile(ctx context.Context, path string, data []byte, modified time.Time, attributes uint32) (written int, err error) {
	defer mon.Task()(&ctx)(&err)

	perm := store.Perm
	if perm == 0 {
		perm = 0o644
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, Error.Wrap(err)
	}

	written, err = file.Write(data)
	err = errs.Combine(err, file.Close())
	if err != nil {
		return written, Error.Wrap(err)
	}

	if !modified.IsZero() {
		if err := os.Chtimes(path, modified, modified); err != nil {
			return written, Error.Wrap(err)
		}
	}
	if err := setAttributes(path, attributes); err != nil {
		return written, Error.Wrap(err)
	}
	return written, nil
}
