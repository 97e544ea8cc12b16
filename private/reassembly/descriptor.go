// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package reassembly

import (
	"time"

	"storj.io/datasheet/private/blocktable"
	"storj.io/datasheet/private/eestream"
)

// MaxRemainingPages is the length cap of the rescan list.
const MaxRemainingPages = 8

// Descriptor is the reconstruction state of one logical file.
type Descriptor struct {
	Name       string
	Mode       Mode
	Modified   time.Time
	Attributes uint32
	Checksum   uint16

	DataSize uint32
	OrigSize uint32
	PageSize uint32
	Pages    int

	Page  int
	Group int

	GoodBlocks      int
	BadBlocks       int
	RestoredBytes   uint64
	RecoveredBlocks int

	payloadSize int
	table       *blocktable.Table
	touched     eestream.AddrRange
	remaining   []int
}

// BlockCount returns ceil(datasize / payloadsize).
func BlockCount(dataSize uint32, payloadSize int) int {
	return int((uint64(dataSize) + uint64(payloadSize) - 1) / uint64(payloadSize))
}

// NewDescriptor allocates the block table for the file described by header.
// Tables larger than maxTableSize bytes are refused with ErrOutOfMemory.
func NewDescriptor(header Header, payloadSize int, maxTableSize int64) (*Descriptor, error) {
	if payloadSize <= 0 {
		return nil, Error.New("invalid payload size %d", payloadSize)
	}

	nblock := BlockCount(header.DataSize, payloadSize)
	if maxTableSize > 0 && int64(nblock)*int64(payloadSize) > maxTableSize {
		return nil, ErrOutOfMemory.New("%d blocks of %d bytes exceed %d bytes", nblock, payloadSize, maxTableSize)
	}

	table, err := blocktable.New(nblock, payloadSize)
	if err != nil {
		return nil, ErrOutOfMemory.Wrap(err)
	}

	d := &Descriptor{
		Name:        boundedName(header.Name),
		Mode:        header.Mode,
		Modified:    header.Modified,
		Attributes:  header.Attributes,
		Checksum:    header.Checksum,
		DataSize:    header.DataSize,
		OrigSize:    header.OrigSize,
		PageSize:    header.PageSize,
		payloadSize: payloadSize,
		table:       table,
	}
	if d.PageSize > 0 {
		d.Pages = int((uint64(d.DataSize) + uint64(d.PageSize) - 1) / uint64(d.PageSize))
	}
	for page := 1; page <= d.Pages && page <= MaxRemainingPages; page++ {
		d.remaining = append(d.remaining, page)
	}
	return d, nil
}

// Matches returns whether header describes the file of this descriptor.
// The page size is not compared.
func (d *Descriptor) Matches(header Header) bool {
	return sameFile(d.Name, header.Name) &&
		d.Mode == header.Mode &&
		d.Modified.Equal(header.Modified) &&
		d.DataSize == header.DataSize &&
		d.OrigSize == header.OrigSize
}

// BeginPage prepares the descriptor for the fragments of a new page. A page
// size that differs from the recorded one means two copies were printed with
// different settings; the page size becomes unknown.
func (d *Descriptor) BeginPage(header Header) {
	if d.PageSize != header.PageSize {
		d.PageSize = 0
	}
	d.Page = header.Page
	d.Group = header.Group
	d.touched = eestream.AddrRange{}
}

// PayloadSize returns the size of one block.
func (d *Descriptor) PayloadSize() int { return d.payloadSize }

// BlockCount returns the number of blocks of the file.
func (d *Descriptor) BlockCount() int { return d.table.BlockCount() }

// Filled returns the number of blocks holding confirmed data.
func (d *Descriptor) Filled() int { return d.table.Filled() }

// Complete returns whether every block holds confirmed data.
func (d *Descriptor) Complete() bool { return d.table.Complete() }

// Touched returns the address range touched since the page began.
func (d *Descriptor) Touched() eestream.AddrRange { return d.touched }

// Tag returns the validity tag of block index.
func (d *Descriptor) Tag(index int) (blocktable.Tag, error) { return d.table.Tag(index) }

// Block returns a copy of the payload of block index.
func (d *Descriptor) Block(index int) ([]byte, error) {
	slot, err := d.table.Slot(index)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), slot...), nil
}

// Remaining returns the lowest numbered pages that still miss data.
func (d *Descriptor) Remaining() []int {
	return append([]int(nil), d.remaining...)
}

// Payload returns the first DataSize bytes of the file. Blocks that are not
// confirmed are returned as zeroes. The result must not be modified.
func (d *Descriptor) Payload() []byte {
	data := d.table.Bytes()
	if !d.table.Complete() {
		data = d.table.Snapshot()
	}
	return data[:min(int(d.DataSize), len(data))]
}

// Release frees the block table.
func (d *Descriptor) Release() {
	d.table.Release()
	d.remaining = nil
}
