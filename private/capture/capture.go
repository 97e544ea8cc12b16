// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package capture implements a file format for decoder output, so that page
// scans can be stored and replayed into a restorer later.
//
// A capture starts with a magic string followed by records. Every record is
// a protobuf message prefixed by its uvarint encoded length.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/errs"

	"storj.io/datasheet/private/reassembly"
	"storj.io/datasheet/private/storage/filestore"
	"storj.io/picobuf"
)

// Error is the default capture errs class.
var Error = errs.Class("capture")

// Magic starts every capture.
const Magic = "DSCAP\x01"

// maxRecordSize bounds a single record, a fragment is far below it.
const maxRecordSize = 1 << 20

// Kind is the type of a record.
type Kind uint32

const (
	// KindPage starts a page and carries its header.
	KindPage Kind = 1
	// KindFragment carries one recognized fragment.
	KindFragment Kind = 2
	// KindPageEnd ends a page and carries the decoder statistics.
	KindPageEnd Kind = 3
)

// String implements fmt.Stringer.
func (kind Kind) String() string {
	switch kind {
	case KindPage:
		return "page"
	case KindFragment:
		return "fragment"
	case KindPageEnd:
		return "page-end"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(kind))
	}
}

// Record is a single decoder event.
type Record struct {
	Kind     Kind
	Header   reassembly.Header
	Fragment reassembly.Fragment
	Stats    reassembly.PageStats
}

const (
	fieldKind = iota + 1
	fieldName
	fieldMode
	fieldModified
	fieldAttributes
	fieldChecksum
	fieldDataSize
	fieldOrigSize
	fieldPageSize
	fieldPage
	fieldGroup
	fieldAddr
	fieldScope
	fieldPayload
	fieldGood
	fieldBad
	fieldRestored
)

// wireRecord is the flat protobuf layout of a record.
type wireRecord struct {
	kind       uint32
	name       string
	mode       uint32
	modified   uint64
	attributes uint32
	checksum   uint32
	dataSize   uint32
	origSize   uint32
	pageSize   uint32
	page       int32
	group      int32
	addr       uint32
	scope      uint32
	payload    []byte
	good       int32
	bad        int32
	restored   uint64
}

func toWire(record Record) wireRecord {
	w := wireRecord{kind: uint32(record.Kind)}
	switch record.Kind {
	case KindPage:
		h := record.Header
		w.name = h.Name
		w.mode = uint32(h.Mode)
		w.modified = filestore.ToFiletime(h.Modified)
		w.attributes = h.Attributes
		w.checksum = uint32(h.Checksum)
		w.dataSize = h.DataSize
		w.origSize = h.OrigSize
		w.pageSize = h.PageSize
		w.page = int32(h.Page)
		w.group = int32(h.Group)
	case KindFragment:
		w.addr = record.Fragment.Addr
		w.scope = record.Fragment.Scope
		w.payload = record.Fragment.Payload
	case KindPageEnd:
		w.good = int32(record.Stats.Good)
		w.bad = int32(record.Stats.Bad)
		w.restored = record.Stats.RestoredBytes
	}
	return w
}

func (w wireRecord) record() Record {
	record := Record{Kind: Kind(w.kind)}
	switch record.Kind {
	case KindPage:
		record.Header = reassembly.Header{
			Name:       w.name,
			Mode:       reassembly.Mode(w.mode),
			Modified:   filestore.FromFiletime(w.modified),
			Attributes: w.attributes,
			Checksum:   uint16(w.checksum),
			DataSize:   w.dataSize,
			OrigSize:   w.origSize,
			PageSize:   w.pageSize,
			Page:       int(w.page),
			Group:      int(w.group),
		}
	case KindFragment:
		record.Fragment = reassembly.Fragment{Addr: w.addr, Scope: w.scope, Payload: w.payload}
	case KindPageEnd:
		record.Stats = reassembly.PageStats{Good: int(w.good), Bad: int(w.bad), RestoredBytes: w.restored}
	}
	return record
}

func (w *wireRecord) encode(enc *picobuf.Encoder) {
	enc.Uint32(fieldKind, &w.kind)
	enc.String(fieldName, &w.name)
	enc.Uint32(fieldMode, &w.mode)
	enc.Uint64(fieldModified, &w.modified)
	enc.Uint32(fieldAttributes, &w.attributes)
	enc.Uint32(fieldChecksum, &w.checksum)
	enc.Uint32(fieldDataSize, &w.dataSize)
	enc.Uint32(fieldOrigSize, &w.origSize)
	enc.Uint32(fieldPageSize, &w.pageSize)
	enc.Int32(fieldPage, &w.page)
	enc.Int32(fieldGroup, &w.group)
	enc.Uint32(fieldAddr, &w.addr)
	enc.Uint32(fieldScope, &w.scope)
	enc.Bytes(fieldPayload, &w.payload)
	enc.Int32(fieldGood, &w.good)
	enc.Int32(fieldBad, &w.bad)
	enc.Uint64(fieldRestored, &w.restored)
}

func (w *wireRecord) decode(dec *picobuf.Decoder) {
	dec.Loop(func(d *picobuf.Decoder) {
		d.Uint32(fieldKind, &w.kind)
		d.String(fieldName, &w.name)
		d.Uint32(fieldMode, &w.mode)
		d.Uint64(fieldModified, &w.modified)
		d.Uint32(fieldAttributes, &w.attributes)
		d.Uint32(fieldChecksum, &w.checksum)
		d.Uint32(fieldDataSize, &w.dataSize)
		d.Uint32(fieldOrigSize, &w.origSize)
		d.Uint32(fieldPageSize, &w.pageSize)
		d.Int32(fieldPage, &w.page)
		d.Int32(fieldGroup, &w.group)
		d.Uint32(fieldAddr, &w.addr)
		d.Uint32(fieldScope, &w.scope)
		d.Bytes(fieldPayload, &w.payload)
		d.Int32(fieldGood, &w.good)
		d.Int32(fieldBad, &w.bad)
		d.Uint64(fieldRestored, &w.restored)
	})
}

// Writer appends records to a capture.
type Writer struct {
	w       *bufio.Writer
	started bool
	scratch [binary.MaxVarintLen64]byte
}

// NewWriter returns a writer that writes a capture into w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends a record.
func (writer *Writer) Write(record Record) error {
	if !writer.started {
		if _, err := writer.w.WriteString(Magic); err != nil {
			return Error.Wrap(err)
		}
		writer.started = true
	}

	wire := toWire(record)
	enc := picobuf.NewEncoder()
	wire.encode(enc)
	message := enc.Buffer()

	n := binary.PutUvarint(writer.scratch[:], uint64(len(message)))
	if _, err := writer.w.Write(writer.scratch[:n]); err != nil {
		return Error.Wrap(err)
	}
	if _, err := writer.w.Write(message); err != nil {
		return Error.Wrap(err)
	}
	return nil
}

// Flush writes buffered records to the underlying writer.
func (writer *Writer) Flush() error {
	return Error.Wrap(writer.w.Flush())
}

// Reader reads records of a capture.
type Reader struct {
	r       *bufio.Reader
	started bool
}

// NewReader returns a reader of the capture in r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF after the last record.
func (reader *Reader) Next() (Record, error) {
	if !reader.started {
		magic := make([]byte, len(Magic))
		if _, err := io.ReadFull(reader.r, magic); err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, Error.Wrap(err)
		}
		if string(magic) != Magic {
			return Record{}, Error.New("not a capture")
		}
		reader.started = true
	}

	size, err := binary.ReadUvarint(reader.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, Error.Wrap(err)
	}
	if size > maxRecordSize {
		return Record{}, Error.New("record of %d bytes", size)
	}

	message := make([]byte, size)
	if _, err := io.ReadFull(reader.r, message); err != nil {
		return Record{}, Error.Wrap(err)
	}

	var wire wireRecord
	dec := picobuf.NewDecoder(message)
	wire.decode(dec)
	if err := dec.Err(); err != nil {
		return Record{}, Error.Wrap(err)
	}

	record := wire.record()
	switch record.Kind {
	case KindPage, KindFragment, KindPageEnd:
		return record, nil
	default:
		return Record{}, Error.New("unknown record %v", record.Kind)
	}
}
