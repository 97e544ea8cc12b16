// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package reassembly

import (
	"strings"
	"time"
)

// MaxNameLength is the number of name bytes that take part in matching.
const MaxNameLength = 64

// Mode is the set of protection flags a file was printed with.
type Mode uint8

const (
	// ModeCompressed means the payload has to be decompressed on save.
	ModeCompressed Mode = 0x01
	// ModeEncrypted is the legacy encrypted mode. It is accepted during
	// ingestion but can never be saved.
	ModeEncrypted Mode = 0x02
)

// Compressed returns whether the compressed flag is set.
func (mode Mode) Compressed() bool { return mode&ModeCompressed != 0 }

// Encrypted returns whether the encrypted flag is set.
func (mode Mode) Encrypted() bool { return mode&ModeEncrypted != 0 }

// Header is the metadata record the decoder recognizes on every page.
type Header struct {
	Name       string
	Mode       Mode
	Modified   time.Time
	Attributes uint32
	Checksum   uint16

	// DataSize is the size of the, possibly compressed, payload.
	DataSize uint32
	// OrigSize is the size after decompression, 0 when unknown.
	OrigSize uint32
	// PageSize is the number of payload bytes printed on a page, 0 when
	// unknown.
	PageSize uint32

	// Page is the 1-based index of the page being scanned.
	Page int
	// Group is the number of blocks sharing a redundancy fragment, 0 when
	// the file carries no redundancy.
	Group int
}

// Fragment is one payload recognized by the decoder.
type Fragment struct {
	// Addr is the byte address of the fragment within the file.
	Addr uint32
	// Scope is 0 for ordinary data, or the number of bytes spanned by the
	// redundancy group for a recovery fragment.
	Scope uint32
	// Payload holds exactly one block of bytes.
	Payload []byte
}

// IsRecovery returns whether the fragment carries redundancy data.
func (fragment Fragment) IsRecovery() bool { return fragment.Scope != 0 }

// boundedName returns the part of name that takes part in matching.
func boundedName(name string) string {
	if len(name) > MaxNameLength {
		return name[:MaxNameLength]
	}
	return name
}

// sameFile returns whether both names refer to the same file.
func sameFile(a, b string) bool {
	return strings.EqualFold(boundedName(a), boundedName(b))
}
