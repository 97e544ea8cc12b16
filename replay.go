// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package datasheet

import (
	"context"
	"errors"
	"io"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/datasheet/private/capture"
)

// Replay feeds a recorded capture of decoder output into the restorer.
//
// Rejected fragments are dropped and replay continues. Pages whose header
// cannot be registered are skipped until the next page header; their errors
// are combined into the returned error. An outcome is returned for every
// finished page.
func (r *Restorer) Replay(ctx context.Context, source io.Reader, options *FinishOptions) (outcomes []Outcome, err error) {
	defer mon.Task()(&ctx)(&err)

	reader := capture.NewReader(source)

	var group errs.Group
	current, valid := FileID(-1), false
	for {
		if err := ctx.Err(); err != nil {
			return outcomes, errs.Combine(Error.Wrap(err), group.Err())
		}

		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return outcomes, errs.Combine(Error.Wrap(err), group.Err())
		}

		switch record.Kind {
		case capture.KindPage:
			current, err = r.BeginPage(ctx, record.Header)
			valid = err == nil
			group.Add(err)

		case capture.KindFragment:
			if !valid {
				continue
			}
			// dropped fragments are counted and logged by Ingest.
			_ = r.Ingest(ctx, current, record.Fragment)

		case capture.KindPageEnd:
			if !valid {
				continue
			}
			valid = false

			outcome, err := r.FinishPage(ctx, current, record.Stats, options)
			if err != nil {
				group.Add(err)
				continue
			}
			outcomes = append(outcomes, outcome)
		}
	}

	r.log.Debug("replay finished", zap.Int("pages", len(outcomes)))
	return outcomes, group.Err()
}
