// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package reassembly keeps the reconstruction state of a single logical file
// across any number of page scans.
package reassembly

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	// Error is the default reassembly errs class.
	Error = errs.Class("reassembly")

	// ErrMisaligned is returned for fragments whose address or scope does not
	// line up with the block or group layout.
	ErrMisaligned = errs.Class("misaligned fragment")

	// ErrOutOfRange is returned for fragments addressing slots past the end
	// of the file.
	ErrOutOfRange = errs.Class("fragment out of range")

	// ErrOutOfMemory is returned when the block table cannot be allocated.
	ErrOutOfMemory = errs.Class("out of memory")

	mon = monkit.Package()
)
