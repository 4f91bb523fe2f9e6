// Package ufs exposes the small slice of platform filesystem metadata that a
// disk usage scan needs: device and inode identity, link counts, and the
// space actually allocated to an entry.
//
// Not every platform can answer every question. Stat records which fields
// were populated so callers can degrade instead of guessing.
package ufs

import (
	"errors"
	"io/fs"
)

// BlockSize is the unit st_blocks is reported in, regardless of the block
// size of the underlying filesystem.
const BlockSize = 512

// Re-using the same names as Go's official `os` package does.
var (
	ErrExist        = fs.ErrExist
	ErrNotExist     = fs.ErrNotExist
	ErrPermission   = fs.ErrPermission
	ErrNotDirectory = errors.New("not a directory")

	// ErrBadPathResolution is returned when a path cannot be resolved, for
	// example because of a symlink loop.
	ErrBadPathResolution = errors.New("bad path resolution")
)

// PathError records an error and the operation and file path that caused it.
type PathError = fs.PathError

// Stat is the metadata of a single directory entry, read without following
// symbolic links.
type Stat struct {
	Mode fs.FileMode

	Dev    uint64
	Ino    uint64
	Nlink  uint64
	Blocks uint64

	// Allocated is the number of bytes the filesystem has allocated for the
	// entry. On unix this is always Blocks * BlockSize.
	Allocated uint64

	HasDev       bool
	HasIno       bool
	HasBlocks    bool
	HasAllocated bool
}

// IsDir reports whether the entry is a directory.
func (s Stat) IsDir() bool {
	return s.Mode.IsDir()
}

// IsRegular reports whether the entry is a regular file.
func (s Stat) IsRegular() bool {
	return s.Mode.IsRegular()
}

// IsSymlink reports whether the entry is a symbolic link.
func (s Stat) IsSymlink() bool {
	return s.Mode&fs.ModeSymlink != 0
}

// SameDevice reports whether both entries live on the same device. When
// either side does not know its device the answer is always true.
func (s Stat) SameDevice(o Stat) bool {
	if !s.HasDev || !o.HasDev {
		return true
	}
	return s.Dev == o.Dev
}
