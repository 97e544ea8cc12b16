// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

//go:build !windows

package filestore

import "os"

// setAttributes maps the read-only attribute to the permission bits. The
// other attributes have no equivalent.
func setAttributes(path string, attributes uint32) error {
	if attributes&AttrReadOnly == 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()&^0o222)
}
