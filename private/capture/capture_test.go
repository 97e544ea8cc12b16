// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package capture

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storj.io/common/testrand"
	"storj.io/datasheet/private/reassembly"
)

func TestWriteRead(t *testing.T) {
	header := reassembly.Header{
		Name:       "photo.jpg",
		Mode:       reassembly.ModeCompressed,
		Modified:   time.Date(2011, 2, 3, 4, 5, 6, 700, time.UTC),
		Attributes: 0x20,
		Checksum:   0xBEEF,
		DataSize:   1800,
		OrigSize:   4000,
		PageSize:   900,
		Page:       2,
		Group:      5,
	}
	fragment := reassembly.Fragment{Addr: 900, Scope: 450, Payload: testrand.BytesInt(90)}
	stats := reassembly.PageStats{Good: 10, Bad: 2, RestoredBytes: 17}

	records := []Record{
		{Kind: KindPage, Header: header},
		{Kind: KindFragment, Fragment: fragment},
		{Kind: KindFragment, Fragment: reassembly.Fragment{Payload: testrand.BytesInt(90)}},
		{Kind: KindPageEnd, Stats: stats},
	}

	var buf bytes.Buffer
	writer := NewWriter(&buf)
	for _, record := range records {
		require.NoError(t, writer.Write(record))
	}
	require.NoError(t, writer.Flush())
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte(Magic)))

	reader := NewReader(&buf)
	for _, expected := range records {
		record, err := reader.Next()
		require.NoError(t, err)
		require.Equal(t, expected.Kind, record.Kind)

		switch record.Kind {
		case KindPage:
			require.True(t, expected.Header.Modified.Equal(record.Header.Modified))
			record.Header.Modified = expected.Header.Modified
			require.Equal(t, expected.Header, record.Header)
		case KindFragment:
			require.Equal(t, expected.Fragment.Addr, record.Fragment.Addr)
			require.Equal(t, expected.Fragment.Scope, record.Fragment.Scope)
			require.Equal(t, expected.Fragment.Payload, record.Fragment.Payload)
		case KindPageEnd:
			require.Equal(t, expected.Stats, record.Stats)
		}
	}

	_, err := reader.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadEmpty(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil)).Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadInvalid(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not a capture file"))).Next()
	require.True(t, Error.Has(err))

	// truncated record
	var buf bytes.Buffer
	writer := NewWriter(&buf)
	require.NoError(t, writer.Write(Record{Kind: KindFragment, Fragment: reassembly.Fragment{Payload: testrand.BytesInt(90)}}))
	require.NoError(t, writer.Flush())
	_, err = NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()-5])).Next()
	require.True(t, Error.Has(err))

	// unknown kind
	buf.Reset()
	writer = NewWriter(&buf)
	require.NoError(t, writer.Write(Record{Kind: Kind(9)}))
	require.NoError(t, writer.Flush())
	_, err = NewReader(&buf).Next()
	require.True(t, Error.Has(err))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "page", KindPage.String())
	require.Equal(t, "fragment", KindFragment.String())
	require.Equal(t, "page-end", KindPageEnd.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}
