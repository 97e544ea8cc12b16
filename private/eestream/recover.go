// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package eestream

import (
	"context"

	"storj.io/datasheet/private/blocktable"
)

// AddrRange is the half-open span of file byte addresses touched while one
// page was ingested. The zero value is empty.
type AddrRange struct {
	Min, Max uint64
	touched  bool
}

// Extend grows the range to include [start, end).
func (r *AddrRange) Extend(start, end uint64) {
	if !r.touched {
		r.Min, r.Max, r.touched = start, end, true
		return
	}
	r.Min = min(r.Min, start)
	r.Max = max(r.Max, end)
}

// Empty returns true when nothing was touched.
func (r AddrRange) Empty() bool { return !r.touched }

// Stats summarizes a single recovery pass.
type Stats struct {
	// Groups is the number of groups examined.
	Groups int
	// Recovered is the number of blocks reconstructed.
	Recovered int
	// Discarded is the number of pending slots returned to Missing because
	// their group had more than one erasure.
	Discarded int
}

// RecoverGroups walks every redundancy group of ngroup blocks overlapping
// touched and reconstructs the single unknown block of each group whose
// redundancy payload is pending. Pending slots are always returned to
// Missing, whether or not they were consumed; a future scan has to supply
// the redundancy fragment again.
//
// The walk stops at the first group that does not fit into the table.
func RecoverGroups(ctx context.Context, table *blocktable.Table, ngroup int, touched AddrRange) (stats Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	if ngroup <= 0 || touched.Empty() {
		return stats, nil
	}

	scheme := NewXORScheme(table.PayloadSize())
	span := uint64(ngroup) * uint64(table.PayloadSize())
	rmin := int(touched.Min/span) * ngroup
	rmax := int(touched.Max/span) * ngroup

	for r := rmin; r <= rmax; r += ngroup {
		if r+ngroup > table.BlockCount() {
			break
		}
		stats.Groups++

		recovered, discarded, err := recoverGroup(table, scheme, r, ngroup)
		if err != nil {
			return stats, err
		}
		if recovered {
			stats.Recovered++
		}
		stats.Discarded += discarded
	}

	mon.Counter("blocks_recovered").Inc(int64(stats.Recovered))
	return stats, nil
}

func recoverGroup(table *blocktable.Table, scheme ErasureScheme, first, ngroup int) (recovered bool, discarded int, err error) {
	pending, count := -1, 0
	for i := first; i < first+ngroup; i++ {
		tag, err := table.Tag(i)
		if err != nil {
			return false, 0, Error.Wrap(err)
		}
		if tag != blocktable.PendingRecovery {
			continue
		}
		count++
		pending = i
		if err := table.SetTag(i, blocktable.Missing); err != nil {
			return false, 0, Error.Wrap(err)
		}
	}
	if count != 1 {
		return false, count, nil
	}

	unknown, err := table.Slot(pending)
	if err != nil {
		return false, 0, Error.Wrap(err)
	}
	known := make([][]byte, 0, ngroup-1)
	for i := first; i < first+ngroup; i++ {
		if i == pending {
			continue
		}
		if tag, _ := table.Tag(i); tag != blocktable.Data {
			continue
		}
		slot, err := table.Slot(i)
		if err != nil {
			return false, 0, Error.Wrap(err)
		}
		known = append(known, slot)
	}

	if err := scheme.Decode(unknown, known); err != nil {
		return false, 0, err
	}
	if err := table.SetTag(pending, blocktable.Data); err != nil {
		return false, 0, Error.Wrap(err)
	}
	return true, 0, nil
}
