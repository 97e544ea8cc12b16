// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package filestore

import "time"

// filetimeUnixEpoch is 1970-01-01 in 100ns intervals since 1601-01-01.
const filetimeUnixEpoch = 116444736000000000

// FromFiletime converts a Windows FILETIME value to time. Zero stays zero.
func FromFiletime(filetime uint64) time.Time {
	if filetime == 0 {
		return time.Time{}
	}
	return time.Unix(0, (int64(filetime)-filetimeUnixEpoch)*100).UTC()
}

// ToFiletime converts time to a Windows FILETIME value. The zero time
// becomes zero.
func ToFiletime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano()/100 + filetimeUnixEpoch)
}
