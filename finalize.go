// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package datasheet

import (
	"context"
	"errors"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/datasheet/private/codec"
	"storj.io/datasheet/private/reassembly"
	"storj.io/eventkit"
)

// SaveResult describes a file written by Finalize.
type SaveResult struct {
	Name    string
	Path    string
	Written int
}

// Finalize writes the restored file and releases it. An incomplete file is
// refused unless force is set, in which case missing blocks are written as
// zeroes. On failure the file stays open.
func (r *Restorer) Finalize(ctx context.Context, id FileID, force bool) (result SaveResult, err error) {
	defer mon.Task()(&ctx)(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.files.Get(id)
	if err != nil {
		return SaveResult{}, convertKnownErrors(err)
	}
	return r.finalize(ctx, id, d, force)
}

// finalize must be called with r.mu held.
func (r *Restorer) finalize(ctx context.Context, id FileID, d *reassembly.Descriptor, force bool) (result SaveResult, err error) {
	if !d.Complete() && !force {
		return SaveResult{}, ErrIncomplete.New("%q has %d of %d blocks", d.Name, d.Filled(), d.BlockCount())
	}
	if d.Mode.Encrypted() {
		return SaveResult{}, ErrUnsupportedProtection.New("%q is encrypted", d.Name)
	}

	data, err := r.restoredData(d)
	if err != nil {
		return SaveResult{}, err
	}

	if r.config.Destination == nil {
		return SaveResult{}, Error.New("no destination configured")
	}
	path, err := r.config.Destination.SelectPath(ctx, d.Name)
	if err != nil {
		if ErrCanceled.Has(err) {
			return SaveResult{}, err
		}
		if errors.Is(err, context.Canceled) {
			return SaveResult{}, ErrCanceled.Wrap(err)
		}
		return SaveResult{}, Error.Wrap(err)
	}
	if path == "" {
		return SaveResult{}, ErrCanceled.New("no path selected for %q", d.Name)
	}

	written, err := r.config.Storage.WriteFile(ctx, path, data, d.Modified, d.Attributes)
	if err != nil {
		return SaveResult{}, ErrIO.Wrap(err)
	}
	if written != len(data) {
		return SaveResult{}, ErrIO.New("short write to %q: %d of %d bytes", path, written, len(data))
	}

	result = SaveResult{Name: d.Name, Path: path, Written: written}

	evs.Event("file-restored",
		eventkit.String("name", d.Name),
		eventkit.Int64("size", int64(written)),
		eventkit.Bool("compressed", d.Mode.Compressed()),
		eventkit.Bool("forced", !d.Complete()),
		eventkit.Int64("recovered", int64(d.RecoveredBlocks)))
	r.log.Info(MessageSaved,
		zap.Int("file", int(id)),
		zap.String("name", d.Name),
		zap.String("path", path),
		zap.Int("size", written))

	if err := r.files.Release(id); err != nil {
		return result, convertKnownErrors(err)
	}
	return result, nil
}

// restoredData returns the file contents held by the descriptor.
func (r *Restorer) restoredData(d *reassembly.Descriptor) ([]byte, error) {
	payload := d.Payload()

	if !d.Mode.Compressed() {
		length := len(payload)
		if d.OrigSize > 0 && int(d.OrigSize) <= length {
			length = int(d.OrigSize)
		}
		return payload[:length], nil
	}

	limit := int(d.OrigSize)
	if limit == 0 {
		// older sheets do not record the original size.
		limit = 4 * int(d.DataSize)
	}

	data, err := codec.Decompress(r.codec, payload, limit)
	if err != nil {
		r.log.Warn("unable to decompress", zap.String("name", d.Name), zap.Stringer("codec", r.codec), zap.Error(err))
		return nil, ErrDecompressFailed.Wrap(errs.Unwrap(err))
	}
	return data, nil
}
