//go:build unix

package ufs

import (
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// Dir is an open directory. Entries are stat'd relative to the directory's
// file descriptor so a deep path only has to be resolved once.
type Dir struct {
	f     *os.File
	dirfd int
	path  string
}

// OpenDir opens the directory at path for listing.
func OpenDir(path string) (*Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, convertErrorType(err)
	}
	return &Dir{f: f, dirfd: int(f.Fd()), path: path}, nil
}

// Names returns the names of every entry in the directory, excluding "." and
// "..". The order is whatever the filesystem returns.
func (d *Dir) Names() ([]string, error) {
	names, err := d.f.Readdirnames(-1)
	if err != nil {
		return names, convertErrorType(err)
	}
	return names, nil
}

// Lstat returns the metadata of the named entry inside the directory without
// following a final symbolic link.
func (d *Dir) Lstat(name string) (Stat, error) {
	var st unix.Stat_t
	err := ignoringEINTR(func() error {
		return unix.Fstatat(d.dirfd, name, &st, unix.AT_SYMLINK_NOFOLLOW)
	})
	if err != nil {
		return Stat{}, convertErrorType(&PathError{Op: "lstatat", Path: d.path + "/" + name, Err: err})
	}
	return fromStatT(&st), nil
}

// Close releases the directory's file descriptor.
func (d *Dir) Close() error {
	return d.f.Close()
}

// StatPath returns the metadata of path, following symbolic links. It is used
// for the scan root, where a symlinked directory should behave like the
// directory it points at.
func StatPath(path string) (Stat, error) {
	var st unix.Stat_t
	err := ignoringEINTR(func() error {
		return unix.Stat(path, &st)
	})
	if err != nil {
		return Stat{}, convertErrorType(&PathError{Op: "stat", Path: path, Err: err})
	}
	return fromStatT(&st), nil
}

func fromStatT(st *unix.Stat_t) Stat {
	blocks := uint64(st.Blocks)
	return Stat{
		Mode:         fileMode(uint32(st.Mode)),
		Dev:          uint64(st.Dev),
		Ino:          uint64(st.Ino),
		Nlink:        uint64(st.Nlink),
		Blocks:       blocks,
		Allocated:    blocks * BlockSize,
		HasDev:       true,
		HasIno:       true,
		HasBlocks:    true,
		HasAllocated: true,
	}
}

// fileMode converts the type bits of st_mode into an fs.FileMode. Permission
// bits are carried over unchanged.
func fileMode(mode uint32) fs.FileMode {
	m := fs.FileMode(mode & 0o777)
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		m |= fs.ModeDir
	case unix.S_IFLNK:
		m |= fs.ModeSymlink
	case unix.S_IFIFO:
		m |= fs.ModeNamedPipe
	case unix.S_IFSOCK:
		m |= fs.ModeSocket
	case unix.S_IFBLK:
		m |= fs.ModeDevice
	case unix.S_IFCHR:
		m |= fs.ModeDevice | fs.ModeCharDevice
	}
	return m
}

// ignoringEINTR makes a function call and repeats it if it returns an
// EINTR error.
func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}
