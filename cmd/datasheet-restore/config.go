// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"storj.io/common/memory"
	"storj.io/datasheet"
)

// options are the settings of a restore run. They are read from the config
// file first, flags given on the command line take precedence.
type options struct {
	Capacity    int    `yaml:"capacity"`
	PayloadSize int    `yaml:"payload_size"`
	AutoSave    bool   `yaml:"auto_save"`
	Codec       string `yaml:"codec"`
	Output      string `yaml:"output"`
	Force       bool   `yaml:"force"`
	LogLevel    string `yaml:"log_level"`
	MaxFileSize string `yaml:"max_file_size"`
}

func defaultOptions() options {
	return options{
		Capacity:    datasheet.DefaultCapacity,
		PayloadSize: datasheet.DefaultPayloadSize,
		AutoSave:    true,
		Codec:       datasheet.DefaultCompression,
		Output:      ".",
		LogLevel:    "warn",
		MaxFileSize: datasheet.DefaultMaxFileSize.String(),
	}
}

func (opts *options) bind(flags *pflag.FlagSet) {
	flags.IntVar(&opts.Capacity, "capacity", opts.Capacity, "number of files restored at once")
	flags.IntVar(&opts.PayloadSize, "payload-size", opts.PayloadSize, "bytes of file data per block")
	flags.BoolVar(&opts.AutoSave, "auto-save", opts.AutoSave, "save files as soon as they are complete")
	flags.StringVar(&opts.Codec, "codec", opts.Codec, "decompressor for compressed files: bzip2, zstd, lz4 or none")
	flags.StringVar(&opts.Output, "output", opts.Output, "directory restored files are written to")
	flags.BoolVar(&opts.Force, "force", opts.Force, "save incomplete files with missing blocks zeroed")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&opts.MaxFileSize, "max-file-size", opts.MaxFileSize, "largest file that is restored")
}

// loadFile merges the yaml file at path into opts.
func (opts *options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return errs.New("invalid config %q: %v", path, err)
	}
	return nil
}

// override copies the flags that were set on the command line from flagged.
func (opts *options) override(flags *pflag.FlagSet, flagged options) {
	flags.Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "capacity":
			opts.Capacity = flagged.Capacity
		case "payload-size":
			opts.PayloadSize = flagged.PayloadSize
		case "auto-save":
			opts.AutoSave = flagged.AutoSave
		case "codec":
			opts.Codec = flagged.Codec
		case "output":
			opts.Output = flagged.Output
		case "force":
			opts.Force = flagged.Force
		case "log-level":
			opts.LogLevel = flagged.LogLevel
		case "max-file-size":
			opts.MaxFileSize = flagged.MaxFileSize
		}
	})
}

// restorerConfig converts the options into the configuration of a restorer.
func (opts *options) restorerConfig(log *zap.Logger) (datasheet.Config, error) {
	var maxFileSize memory.Size
	if err := maxFileSize.Set(opts.MaxFileSize); err != nil {
		return datasheet.Config{}, errs.New("invalid max file size %q: %v", opts.MaxFileSize, err)
	}

	return datasheet.Config{
		Capacity:    opts.Capacity,
		PayloadSize: opts.PayloadSize,
		MaxFileSize: maxFileSize,
		AutoSave:    opts.AutoSave,
		Compression: opts.Codec,
		Destination: datasheet.DirectoryDestination(opts.Output),
		Log:         log,
	}, nil
}

// newLogger creates a console logger writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errs.New("invalid log level %q: %v", level, err)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = atomic
	config.DisableStacktrace = true
	return config.Build()
}
