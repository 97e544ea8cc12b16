// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package blocktable implements the sparse per-file store of fixed-size
// payload slots together with their validity tags.
package blocktable

import (
	"fmt"

	"github.com/zeebo/errs"
)

var (
	// Error is the default blocktable errs class.
	Error = errs.Class("blocktable")

	// ErrOutOfRange is returned when a slot index is outside of the table.
	ErrOutOfRange = errs.Class("slot out of range")

	// ErrReleased is returned when the table buffers were already released.
	ErrReleased = errs.Class("table released")
)

// Tag is the validity state of a single slot.
type Tag uint8

const (
	// Missing means that nothing is known about the slot.
	Missing Tag = iota
	// Data means that the slot holds confirmed file bytes.
	Data
	// PendingRecovery means that the slot holds a copy of the redundancy
	// payload of its group, waiting for the end-of-page recovery pass.
	PendingRecovery
)

// String implements fmt.Stringer.
func (tag Tag) String() string {
	switch tag {
	case Missing:
		return "missing"
	case Data:
		return "data"
	case PendingRecovery:
		return "pending-recovery"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(tag))
	}
}

// Table is a fixed number of payloadSize byte slots and a parallel array of
// tags. Both buffers are allocated together by New and freed together by
// Release; they are never resized.
type Table struct {
	payloadSize int
	nblock      int
	data        []byte
	tags        []Tag
	filled      int
	released    bool
}

// New allocates a zeroed table of nblock slots of payloadSize bytes each.
// All slots start as Missing.
func New(nblock, payloadSize int) (*Table, error) {
	if payloadSize <= 0 {
		return nil, Error.New("invalid payload size %d", payloadSize)
	}
	if nblock < 0 {
		return nil, Error.New("invalid block count %d", nblock)
	}
	return &Table{
		payloadSize: payloadSize,
		nblock:      nblock,
		data:        make([]byte, nblock*payloadSize),
		tags:        make([]Tag, nblock),
	}, nil
}

// BlockCount returns the number of slots in the table.
func (table *Table) BlockCount() int { return table.nblock }

// PayloadSize returns the size of a single slot.
func (table *Table) PayloadSize() int { return table.payloadSize }

// Filled returns how many slots are tagged Data.
func (table *Table) Filled() int { return table.filled }

// Complete returns true when every slot is tagged Data.
func (table *Table) Complete() bool { return table.filled == table.nblock }

// Released returns whether Release was called.
func (table *Table) Released() bool { return table.released }

func (table *Table) check(index int) error {
	if table.Released() {
		return ErrReleased.New("")
	}
	if index < 0 || index >= table.nblock {
		return ErrOutOfRange.New("%d not in [0, %d)", index, table.nblock)
	}
	return nil
}

// Slot returns the payload of slot index. The returned slice aliases the
// table memory.
func (table *Table) Slot(index int) ([]byte, error) {
	if err := table.check(index); err != nil {
		return nil, err
	}
	offset := index * table.payloadSize
	return table.data[offset : offset+table.payloadSize : offset+table.payloadSize], nil
}

// Tag returns the tag of slot index.
func (table *Table) Tag(index int) (Tag, error) {
	if err := table.check(index); err != nil {
		return Missing, err
	}
	return table.tags[index], nil
}

// SetTag changes the tag of slot index. A slot tagged Data is never demoted.
func (table *Table) SetTag(index int, tag Tag) error {
	if err := table.check(index); err != nil {
		return err
	}
	if tag > PendingRecovery {
		return Error.New("invalid tag %d", uint8(tag))
	}

	current := table.tags[index]
	switch {
	case current == tag:
		return nil
	case current == Data:
		return Error.New("slot %d: cannot demote data to %v", index, tag)
	case tag == Data:
		table.filled++
	}
	table.tags[index] = tag
	return nil
}

// Fill copies payload into slot index and tags it Data. It is a no-op when
// the slot is already tagged Data. It reports whether the slot changed.
func (table *Table) Fill(index int, payload []byte) (bool, error) {
	slot, err := table.Slot(index)
	if err != nil {
		return false, err
	}
	if table.tags[index] == Data {
		return false, nil
	}
	copy(slot, payload)
	clear(slot[min(len(payload), len(slot)):])
	return true, table.SetTag(index, Data)
}

// FirstNotData returns the index of the first slot in [first, end) that is
// not tagged Data, or -1 when there is none. The range is clipped to the
// table.
func (table *Table) FirstNotData(first, end int) int {
	first = max(first, 0)
	end = min(end, len(table.tags))
	for i := first; i < end; i++ {
		if table.tags[i] != Data {
			return i
		}
	}
	return -1
}

// Bytes returns the whole table contents. The returned slice aliases the
// table memory.
func (table *Table) Bytes() []byte { return table.data }

// Snapshot returns a copy of the table contents where every slot that is not
// tagged Data is zeroed.
func (table *Table) Snapshot() []byte {
	out := make([]byte, len(table.data))
	for i, tag := range table.tags {
		if tag != Data {
			continue
		}
		offset := i * table.payloadSize
		copy(out[offset:offset+table.payloadSize], table.data[offset:])
	}
	return out
}

// Release frees both buffers. Later accesses fail with ErrReleased.
func (table *Table) Release() {
	table.data = nil
	table.tags = nil
	table.filled = 0
	table.released = true
}
