// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

//go:build windows

package filestore

import "golang.org/x/sys/windows"

func setAttributes(path string, attributes uint32) error {
	if attributes == 0 {
		return nil
	}
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(name, attributes)
}
