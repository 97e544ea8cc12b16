// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package reassembly

import (
	"context"
	"fmt"

	"storj.io/datasheet/private/eestream"
)

// PageStatus is the state of the page that was just scanned.
type PageStatus int

const (
	// PageClean means the page was read without damage.
	PageClean PageStatus = iota
	// PageRepaired means there were bad blocks, but all of them were restored.
	PageRepaired
	// PageDamaged means the page still misses data and must be scanned again.
	PageDamaged
)

// String implements fmt.Stringer.
func (status PageStatus) String() string {
	switch status {
	case PageClean:
		return "clean"
	case PageRepaired:
		return "repaired"
	case PageDamaged:
		return "damaged"
	default:
		return fmt.Sprintf("PageStatus(%d)", int(status))
	}
}

// Message returns the operator message for the status.
func (status PageStatus) Message() string {
	switch status {
	case PageRepaired:
		return "Page processed, all bad blocks successfully restored"
	case PageDamaged:
		return "Unrecoverable errors on page, please scan it again"
	default:
		return "Page processed"
	}
}

// PageStats are the counters reported by the decoder for one page.
type PageStats struct {
	Good          int
	Bad           int
	RestoredBytes uint64
}

// PageReport is the result of finishing a page.
type PageReport struct {
	Status    PageStatus
	Recovery  eestream.Stats
	Remaining []int
	Complete  bool
}

// FinishPage accumulates the decoder statistics, repairs what the collected
// redundancy fragments allow, and recomputes which pages still miss data.
func (d *Descriptor) FinishPage(ctx context.Context, stats PageStats) (report PageReport, err error) {
	defer mon.Task()(&ctx)(&err)

	d.GoodBlocks += stats.Good
	d.BadBlocks += stats.Bad
	d.RestoredBytes += stats.RestoredBytes

	report.Recovery, err = eestream.RecoverGroups(ctx, d.table, d.Group, d.touched)
	if err != nil {
		return report, Error.Wrap(err)
	}
	d.RecoveredBlocks += report.Recovery.Recovered

	switch {
	case !d.pageComplete(d.Page):
		report.Status = PageDamaged
	case stats.Bad > 0:
		report.Status = PageRepaired
	default:
		report.Status = PageClean
	}

	d.remaining = d.remainingPages()
	report.Remaining = d.Remaining()
	report.Complete = d.Complete()
	return report, nil
}

// blocksPerPage returns the number of blocks printed on one page, 0 when the
// page size is unknown.
func (d *Descriptor) blocksPerPage() int {
	return int(d.PageSize) / d.payloadSize
}

// pageComplete returns whether every block of the 1-based page is confirmed.
func (d *Descriptor) pageComplete(page int) bool {
	perPage := d.blocksPerPage()
	if page < 1 || perPage == 0 {
		return true
	}
	first := (page - 1) * perPage
	return d.table.FirstNotData(first, first+perPage) < 0
}

func (d *Descriptor) remainingPages() []int {
	var pages []int
	if d.PageSize == 0 {
		return pages
	}
	for page := 1; page <= d.Pages && len(pages) < MaxRemainingPages; page++ {
		if !d.pageComplete(page) {
			pages = append(pages, page)
		}
	}
	return pages
}
