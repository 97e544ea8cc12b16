// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storj.io/common/testrand"
	"storj.io/datasheet/private/reassembly"
)

func header(name string) reassembly.Header {
	return reassembly.Header{
		Name:     name,
		Modified: time.Date(2023, 7, 14, 8, 0, 0, 0, time.UTC),
		DataSize: 180,
		OrigSize: 180,
		PageSize: 90,
		Page:     1,
		Group:    2,
	}
}

func TestBeginPageMatchesExisting(t *testing.T) {
	r := New(3, 30, 0)
	require.Equal(t, 3, r.Capacity())

	id, created, err := r.BeginPage(header("a.bin"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, ID(0), id)

	d, err := r.Get(id)
	require.NoError(t, err)
	_, err = d.Ingest(reassembly.Fragment{Addr: 0, Payload: testrand.BytesInt(30)})
	require.NoError(t, err)

	second := header("A.BIN")
	second.Page = 2
	second.Group = 3
	second.PageSize = 60
	again, created, err := r.BeginPage(second)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, id, again)
	require.Equal(t, 1, r.Len())

	require.Equal(t, 1, d.Filled())
	require.Equal(t, 2, d.Page)
	require.Equal(t, 3, d.Group)
	require.EqualValues(t, 0, d.PageSize)
	require.True(t, d.Touched().Empty())
}

func TestBeginPageFull(t *testing.T) {
	r := New(2, 30, 0)
	for i := 0; i < 2; i++ {
		_, _, err := r.BeginPage(header(fmt.Sprintf("file-%d", i)))
		require.NoError(t, err)
	}

	_, _, err := r.BeginPage(header("third"))
	require.True(t, ErrFull.Has(err))

	// known files still match when the registry is full.
	id, created, err := r.BeginPage(header("file-1"))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, ID(1), id)

	require.NoError(t, r.Release(0))
	id, created, err = r.BeginPage(header("third"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, ID(0), id)
}

func TestBeginPageOutOfMemory(t *testing.T) {
	r := New(1, 30, 60)
	_, _, err := r.BeginPage(header("big"))
	require.True(t, reassembly.ErrOutOfMemory.Has(err))
	require.Equal(t, 0, r.Len())
}

func TestGetAndRelease(t *testing.T) {
	r := New(2, 30, 0)

	_, err := r.Get(-1)
	require.True(t, ErrUnknown.Has(err))
	_, err = r.Get(2)
	require.True(t, ErrUnknown.Has(err))
	_, err = r.Get(0)
	require.True(t, ErrUnknown.Has(err))

	id, _, err := r.BeginPage(header("x"))
	require.NoError(t, err)
	d, err := r.Get(id)
	require.NoError(t, err)

	require.NoError(t, r.Release(id))
	require.True(t, ErrUnknown.Has(r.Release(id)))
	_, err = d.Block(0)
	require.Error(t, err)
	require.Equal(t, 0, r.Len())
}

func TestEach(t *testing.T) {
	r := New(4, 30, 0)
	for _, name := range []string{"a", "b", "c"} {
		_, _, err := r.BeginPage(header(name))
		require.NoError(t, err)
	}
	require.NoError(t, r.Release(1))

	var names []string
	var ids []ID
	r.Each(func(id ID, d *reassembly.Descriptor) {
		ids = append(ids, id)
		names = append(names, d.Name)
	})
	require.Equal(t, []ID{0, 2}, ids)
	require.Equal(t, []string{"a", "c"}, names)
}
