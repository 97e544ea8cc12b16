// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package eestream

// ErasureScheme is a code that protects a group of equally sized shares
// with a single redundancy share.
type ErasureScheme interface {
	// Encode fills out with the redundancy share of in.
	Encode(in [][]byte, out []byte) error

	// Decode reconstructs the one unknown share in place. unknown must hold
	// the redundancy share on entry and holds the reconstructed share on
	// return. known are all other shares of the group.
	Decode(unknown []byte, known [][]byte) error

	// ShareSize is the size of every share handled by the scheme.
	ShareSize() int
}

type xorScheme struct {
	shareSize int
}

// NewXORScheme returns the inverted-XOR scheme used by printed data sheets.
// The redundancy share is the bitwise complement of the XOR of all shares in
// the group, which allows exactly one erasure per group to be repaired.
func NewXORScheme(shareSize int) ErasureScheme {
	return &xorScheme{shareSize: shareSize}
}

func (s *xorScheme) ShareSize() int { return s.shareSize }

func (s *xorScheme) Encode(in [][]byte, out []byte) error {
	if len(out) != s.shareSize {
		return Error.New("redundancy share is %d bytes, expected %d", len(out), s.shareSize)
	}
	clear(out)
	for i, share := range in {
		if len(share) != s.shareSize {
			return Error.New("share %d is %d bytes, expected %d", i, len(share), s.shareSize)
		}
		xorInto(out, share)
	}
	invert(out)
	return nil
}

func (s *xorScheme) Decode(unknown []byte, known [][]byte) error {
	if len(unknown) != s.shareSize {
		return Error.New("unknown share is %d bytes, expected %d", len(unknown), s.shareSize)
	}
	for i, share := range known {
		if len(share) != s.shareSize {
			return Error.New("share %d is %d bytes, expected %d", i, len(share), s.shareSize)
		}
	}
	invert(unknown)
	for _, share := range known {
		xorInto(unknown, share)
	}
	return nil
}

// Parity returns the redundancy share for blocks. All blocks must have the
// same length.
func Parity(blocks ...[]byte) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, Error.New("no blocks")
	}
	out := make([]byte, len(blocks[0]))
	if err := NewXORScheme(len(out)).Encode(blocks, out); err != nil {
		return nil, err
	}
	return out, nil
}

func invert(data []byte) {
	for i := range data {
		data[i] ^= 0xFF
	}
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
