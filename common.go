// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package datasheet rebuilds files printed on paper data sheets from the
// fragments a decoder recognizes on scanned pages, repairing lost blocks
// from the redundancy printed alongside them.
package datasheet

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/datasheet/private/codec"
	"storj.io/datasheet/private/reassembly"
	"storj.io/datasheet/private/registry"
	"storj.io/eventkit"
)

var (
	mon = monkit.Package()
	evs = eventkit.Package()
)

// Error is default error class for datasheet.
var Error = errs.Class("datasheet")

var (
	// ErrRegistryFull is returned when a new file is seen while every slot
	// is busy. Closing another file makes room.
	ErrRegistryFull = errs.Class("registry full")

	// ErrOutOfMemory is returned when the block table of a file cannot be
	// allocated.
	ErrOutOfMemory = errs.Class("out of memory")

	// ErrMisaligned is returned for fragments whose address or redundancy
	// scope does not match the block layout. The fragment is dropped.
	ErrMisaligned = errs.Class("misaligned fragment")

	// ErrOutOfRange is returned for fragments past the end of the file. The
	// fragment is dropped.
	ErrOutOfRange = errs.Class("fragment out of range")

	// ErrUnsupportedProtection is returned when saving a file that was
	// printed in the legacy encrypted mode.
	ErrUnsupportedProtection = errs.Class("unsupported protection")

	// ErrDecompressFailed is returned when the collected payload cannot be
	// decompressed. The file stays open.
	ErrDecompressFailed = errs.Class("decompress failed")

	// ErrIO is returned when the restored file cannot be written.
	ErrIO = errs.Class("i/o error")

	// ErrIncomplete is returned when saving a file that still misses data
	// without forcing it.
	ErrIncomplete = errs.Class("file incomplete")

	// ErrUnknownFile is returned for handles that do not refer to an open file.
	ErrUnknownFile = errs.Class("unknown file")

	// ErrCanceled is returned when the operator cancels the destination prompt.
	ErrCanceled = errs.Class("canceled")
)

// convertKnownErrors maps errors of the internal packages to the exported
// classes.
func convertKnownErrors(err error) error {
	switch {
	case err == nil:
		return nil
	case registry.ErrFull.Has(err):
		return ErrRegistryFull.Wrap(errs.Unwrap(err))
	case registry.ErrUnknown.Has(err):
		return ErrUnknownFile.Wrap(errs.Unwrap(err))
	case reassembly.ErrOutOfMemory.Has(err):
		return ErrOutOfMemory.Wrap(errs.Unwrap(err))
	case reassembly.ErrMisaligned.Has(err):
		return ErrMisaligned.Wrap(errs.Unwrap(err))
	case reassembly.ErrOutOfRange.Has(err):
		return ErrOutOfRange.Wrap(errs.Unwrap(err))
	case codec.ErrCorrupt.Has(err):
		return ErrDecompressFailed.Wrap(errs.Unwrap(err))
	}
	return Error.Wrap(err)
}
