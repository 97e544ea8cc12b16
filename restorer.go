// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package datasheet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storj.io/datasheet/private/codec"
	"storj.io/datasheet/private/reassembly"
	"storj.io/datasheet/private/registry"
	"storj.io/eventkit"
)

type (
	// FileID is the handle of a file that is being restored.
	FileID = registry.ID

	// PageHeader is the metadata the decoder recognizes on every page.
	PageHeader = reassembly.Header

	// Fragment is a single data or recovery payload.
	Fragment = reassembly.Fragment

	// PageStats are the decoder counters for one page.
	PageStats = reassembly.PageStats

	// PageStatus describes the page that was just scanned.
	PageStatus = reassembly.PageStatus

	// Mode holds the protection flags of a file.
	Mode = reassembly.Mode
)

const (
	// ModeCompressed marks files whose payload is compressed.
	ModeCompressed = reassembly.ModeCompressed
	// ModeEncrypted marks files printed with the legacy encryption.
	ModeEncrypted = reassembly.ModeEncrypted

	// PageClean means the page was read without damage.
	PageClean = reassembly.PageClean
	// PageRepaired means all bad blocks of the page were restored.
	PageRepaired = reassembly.PageRepaired
	// PageDamaged means the page must be scanned again.
	PageDamaged = reassembly.PageDamaged
)

// Operator messages shown once a file has all of its data.
const (
	MessageRestored = `File restored. Press "Save" to save it to disk`
	MessageComplete = "File complete"
	MessageSaved    = "File saved"
)

// Restorer collects fragments of scanned pages and rebuilds the files they
// were printed from.
//
// All methods are safe for concurrent use, calls are serialized.
type Restorer struct {
	mu     sync.Mutex
	config Config
	codec  codec.Tag
	log    *zap.Logger
	files  *registry.Registry
}

// NewRestorer creates a restorer using the specified configuration.
func NewRestorer(config Config) (*Restorer, error) {
	tag, err := config.setup()
	if err != nil {
		return nil, err
	}

	return &Restorer{
		config: config,
		codec:  tag,
		log:    config.Log,
		files:  registry.New(config.Capacity, config.PayloadSize, config.MaxFileSize.Int64()),
	}, nil
}

// BeginPage registers the header of a scanned page and returns the handle
// of the file it belongs to. A new file is opened when no open file matches.
func (r *Restorer) BeginPage(ctx context.Context, header PageHeader) (id FileID, err error) {
	defer mon.Task()(&ctx)(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	id, created, err := r.files.BeginPage(header)
	if err != nil {
		r.log.Warn("unable to begin page",
			zap.String("name", header.Name),
			zap.Int("page", header.Page),
			zap.Error(err))
		return -1, convertKnownErrors(err)
	}

	if created {
		r.log.Info("new file",
			zap.Int("file", int(id)),
			zap.String("name", header.Name),
			zap.Uint32("size", header.DataSize),
			zap.Int("group", header.Group))
	}
	return id, nil
}

// Ingest stores a fragment of the current page. Rejected fragments are
// dropped without changing the file.
func (r *Restorer) Ingest(ctx context.Context, id FileID, fragment Fragment) (err error) {
	defer mon.Task()(&ctx)(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.files.Get(id)
	if err != nil {
		return convertKnownErrors(err)
	}

	if _, err := d.Ingest(fragment); err != nil {
		mon.Counter("fragments_dropped").Inc(1)
		r.log.Debug("fragment dropped",
			zap.Int("file", int(id)),
			zap.Uint32("addr", fragment.Addr),
			zap.Uint32("scope", fragment.Scope),
			zap.Error(err))
		return convertKnownErrors(err)
	}
	mon.Counter("fragments_ingested").Inc(1)
	return nil
}

// FinishOptions overrides the configuration for a single FinishPage call.
type FinishOptions struct {
	AutoSave bool
}

// Outcome is the result of finishing a page.
type Outcome struct {
	File FileID
	Name string
	Page int

	// Status and Message describe the page that was just scanned.
	Status  PageStatus
	Message string

	// Recovered is the number of blocks rebuilt from redundancy.
	Recovered int
	// Remaining lists the first pages that still miss data.
	Remaining []int

	// Complete is set once all data of the file is present. Completion
	// holds the matching operator message.
	Complete   bool
	Completion string

	// Saved is set when the file was written by auto-save, Path is where.
	// A failed auto-save leaves the file open and reports SaveErr.
	Saved   bool
	Path    string
	SaveErr error
}

// FinishPage completes the current page of a file: it rebuilds what the
// collected redundancy allows, reports the state of the page and, when
// all data is present, optionally saves the file.
func (r *Restorer) FinishPage(ctx context.Context, id FileID, stats PageStats, options *FinishOptions) (outcome Outcome, err error) {
	defer mon.Task()(&ctx)(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.files.Get(id)
	if err != nil {
		return Outcome{}, convertKnownErrors(err)
	}

	report, err := d.FinishPage(ctx, stats)
	if err != nil {
		return Outcome{}, convertKnownErrors(err)
	}

	outcome = Outcome{
		File:      id,
		Name:      d.Name,
		Page:      d.Page,
		Status:    report.Status,
		Message:   report.Status.Message(),
		Recovered: report.Recovery.Recovered,
		Remaining: report.Remaining,
		Complete:  report.Complete,
	}

	mon.Counter("fragments_repaired").Inc(int64(report.Recovery.Recovered))
	mon.IntVal("remaining_pages").Observe(int64(len(report.Remaining)))
	evs.Event("page-finished",
		eventkit.String("name", d.Name),
		eventkit.Int64("page", int64(d.Page)),
		eventkit.String("status", report.Status.String()),
		eventkit.Int64("recovered", int64(report.Recovery.Recovered)),
		eventkit.Int64("remaining", int64(len(report.Remaining))),
		eventkit.Bool("complete", report.Complete))

	r.log.Info(outcome.Message,
		zap.Int("file", int(id)),
		zap.String("name", d.Name),
		zap.Int("page", d.Page),
		zap.Int("recovered", report.Recovery.Recovered),
		zap.Ints("remaining", report.Remaining))

	if !report.Complete {
		return outcome, nil
	}

	autoSave := r.config.AutoSave
	if options != nil {
		autoSave = options.AutoSave
	}
	if !autoSave {
		outcome.Completion = MessageRestored
		return outcome, nil
	}

	outcome.Completion = MessageComplete
	result, err := r.finalize(ctx, id, d, false)
	if err != nil {
		// the file stays open so it can be saved manually.
		outcome.SaveErr = err
		r.log.Warn("auto-save failed", zap.String("name", d.Name), zap.Error(err))
		return outcome, nil
	}

	outcome.Saved = true
	outcome.Path = result.Path
	outcome.Completion = MessageSaved
	return outcome, nil
}

// Abandon discards a file and frees its slot.
func (r *Restorer) Abandon(ctx context.Context, id FileID) (err error) {
	defer mon.Task()(&ctx)(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.files.Get(id)
	if err != nil {
		return convertKnownErrors(err)
	}

	evs.Event("file-abandoned",
		eventkit.String("name", d.Name),
		eventkit.Int64("blocks", int64(d.BlockCount())),
		eventkit.Int64("filled", int64(d.Filled())))
	r.log.Info("file abandoned", zap.Int("file", int(id)), zap.String("name", d.Name))

	return convertKnownErrors(r.files.Release(id))
}

// FileInfo describes a file that is being restored.
type FileInfo struct {
	ID         FileID
	Name       string
	Mode       Mode
	Modified   time.Time
	Attributes uint32
	Checksum   uint16

	DataSize uint32
	OrigSize uint32
	PageSize uint32
	Page     int
	Group    int

	Blocks int
	Filled int

	GoodBlocks      int
	BadBlocks       int
	RestoredBytes   uint64
	RecoveredBlocks int

	Remaining []int
	Complete  bool
}

// Info returns the state of a single file.
func (r *Restorer) Info(id FileID) (FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.files.Get(id)
	if err != nil {
		return FileInfo{}, convertKnownErrors(err)
	}
	return newFileInfo(id, d), nil
}

// Files returns the state of all open files, ordered by handle.
func (r *Restorer) Files() []FileInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	var infos []FileInfo
	r.files.Each(func(id registry.ID, d *reassembly.Descriptor) {
		infos = append(infos, newFileInfo(id, d))
	})
	return infos
}

func newFileInfo(id FileID, d *reassembly.Descriptor) FileInfo {
	return FileInfo{
		ID:         id,
		Name:       d.Name,
		Mode:       d.Mode,
		Modified:   d.Modified,
		Attributes: d.Attributes,
		Checksum:   d.Checksum,

		DataSize: d.DataSize,
		OrigSize: d.OrigSize,
		PageSize: d.PageSize,
		Page:     d.Page,
		Group:    d.Group,

		Blocks: d.BlockCount(),
		Filled: d.Filled(),

		GoodBlocks:      d.GoodBlocks,
		BadBlocks:       d.BadBlocks,
		RestoredBytes:   d.RestoredBytes,
		RecoveredBlocks: d.RecoveredBlocks,

		Remaining: d.Remaining(),
		Complete:  d.Complete(),
	}
}
