// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package reassembly

import (
	"storj.io/datasheet/private/blocktable"
)

// Ingest places fragment into the block table. Fragments that were already
// seen are accepted again without changing anything, so pages can be
// rescanned any number of times. Invalid fragments are rejected with
// ErrMisaligned or ErrOutOfRange and leave the descriptor untouched.
func (d *Descriptor) Ingest(fragment Fragment) (changed bool, err error) {
	if len(fragment.Payload) != d.payloadSize {
		return false, ErrMisaligned.New("payload is %d bytes, expected %d", len(fragment.Payload), d.payloadSize)
	}
	if fragment.IsRecovery() {
		return d.ingestRecovery(fragment)
	}
	return d.ingestData(fragment)
}

func (d *Descriptor) ingestData(fragment Fragment) (changed bool, err error) {
	payloadSize := uint64(d.payloadSize)
	addr := uint64(fragment.Addr)

	if addr%payloadSize != 0 {
		return false, ErrMisaligned.New("address %d is not a multiple of %d", addr, payloadSize)
	}
	index := addr / payloadSize
	if index >= uint64(d.table.BlockCount()) {
		return false, ErrOutOfRange.New("block %d, file has %d", index, d.table.BlockCount())
	}

	changed, err = d.table.Fill(int(index), fragment.Payload)
	if err != nil {
		return false, Error.Wrap(err)
	}
	d.touched.Extend(addr, addr+payloadSize)
	return changed, nil
}

func (d *Descriptor) ingestRecovery(fragment Fragment) (changed bool, err error) {
	scope := uint64(fragment.Scope)
	addr := uint64(fragment.Addr)

	if d.Group <= 0 || scope != uint64(d.Group)*uint64(d.payloadSize) {
		return false, ErrMisaligned.New("recovery scope %d does not match group of %d blocks", scope, d.Group)
	}
	if addr%scope != 0 {
		return false, ErrMisaligned.New("recovery address %d is not a multiple of %d", addr, scope)
	}
	first := addr / uint64(d.payloadSize)
	if first+uint64(d.Group) > uint64(d.table.BlockCount()) {
		return false, ErrOutOfRange.New("group [%d, %d), file has %d blocks", first, first+uint64(d.Group), d.table.BlockCount())
	}

	for i := int(first); i < int(first)+d.Group; i++ {
		tag, err := d.table.Tag(i)
		if err != nil {
			return changed, Error.Wrap(err)
		}
		if tag != blocktable.Missing {
			continue
		}
		slot, err := d.table.Slot(i)
		if err != nil {
			return changed, Error.Wrap(err)
		}
		copy(slot, fragment.Payload)
		if err := d.table.SetTag(i, blocktable.PendingRecovery); err != nil {
			return changed, Error.Wrap(err)
		}
		changed = true
	}
	d.touched.Extend(addr, addr+scope)
	return changed, nil
}
