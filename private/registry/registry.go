// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package registry implements the fixed-capacity arena of files that are
// being reconstructed.
package registry

import (
	"github.com/zeebo/errs"

	"storj.io/datasheet/private/reassembly"
)

var (
	// Error is the default registry errs class.
	Error = errs.Class("registry")

	// ErrFull is returned when a new file is seen and all slots are busy.
	ErrFull = errs.Class("registry full")

	// ErrUnknown is returned for handles that do not point to a busy slot.
	ErrUnknown = errs.Class("unknown file")
)

// ID is the index of a slot in the registry.
type ID int

// Registry owns a fixed number of descriptor slots. It is not safe for
// concurrent use.
type Registry struct {
	payloadSize  int
	maxTableSize int64
	slots        []*reassembly.Descriptor
}

// New creates a registry with capacity slots. New descriptors use payloadSize
// byte blocks and refuse block tables larger than maxTableSize (0 means no
// limit).
func New(capacity, payloadSize int, maxTableSize int64) *Registry {
	return &Registry{
		payloadSize:  payloadSize,
		maxTableSize: maxTableSize,
		slots:        make([]*reassembly.Descriptor, capacity),
	}
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int { return len(r.slots) }

// Len returns the number of busy slots.
func (r *Registry) Len() (n int) {
	for _, d := range r.slots {
		if d != nil {
			n++
		}
	}
	return n
}

// BeginPage finds the descriptor of the file described by header, or
// allocates one in the first free slot, and prepares it for a new page.
func (r *Registry) BeginPage(header reassembly.Header) (id ID, created bool, err error) {
	free := -1
	found := -1
	for i, d := range r.slots {
		if d == nil {
			if free < 0 {
				free = i
			}
			continue
		}
		if d.Matches(header) {
			found = i
			break
		}
	}

	if found < 0 {
		if free < 0 {
			return -1, false, ErrFull.New("all %d slots are busy", len(r.slots))
		}
		d, err := reassembly.NewDescriptor(header, r.payloadSize, r.maxTableSize)
		if err != nil {
			return -1, false, err
		}
		r.slots[free] = d
		found, created = free, true
	}

	r.slots[found].BeginPage(header)
	return ID(found), created, nil
}

// Get returns the descriptor in slot id.
func (r *Registry) Get(id ID) (*reassembly.Descriptor, error) {
	if id < 0 || int(id) >= len(r.slots) {
		return nil, ErrUnknown.New("slot %d not in [0, %d)", id, len(r.slots))
	}
	d := r.slots[id]
	if d == nil {
		return nil, ErrUnknown.New("slot %d is free", id)
	}
	return d, nil
}

// Release frees the buffers of the descriptor in slot id and frees the slot.
func (r *Registry) Release(id ID) error {
	d, err := r.Get(id)
	if err != nil {
		return err
	}
	d.Release()
	r.slots[id] = nil
	return nil
}

// Each calls fn for every busy slot in slot order.
func (r *Registry) Each(fn func(id ID, d *reassembly.Descriptor)) {
	for i, d := range r.slots {
		if d != nil {
			fn(ID(i), d)
		}
	}
}
