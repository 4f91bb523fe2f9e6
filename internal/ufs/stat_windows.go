//go:build windows

package ufs

import (
	"io/fs"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetCompressedFileSizeW = modkernel32.NewProc("GetCompressedFileSizeW")
)

const invalidFileSize = 0xFFFFFFFF

// Dir is an open directory. Windows has no dirfd relative stat, so entries
// are resolved by joining their name onto the directory path.
type Dir struct {
	f    *os.File
	path string
}

// OpenDir opens the directory at path for listing.
func OpenDir(path string) (*Dir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, convertErrorType(err)
	}
	return &Dir{f: f, path: path}, nil
}

// Names returns the names of every entry in the directory.
func (d *Dir) Names() ([]string, error) {
	names, err := d.f.Readdirnames(-1)
	if err != nil {
		return names, convertErrorType(err)
	}
	return names, nil
}

// Lstat returns the metadata of the named entry without following a final
// symbolic link. Device, inode and block counts are not available; the
// allocated size comes from GetCompressedFileSizeW.
func (d *Dir) Lstat(name string) (Stat, error) {
	p := filepath.Join(d.path, name)
	info, err := os.Lstat(p)
	if err != nil {
		return Stat{}, convertErrorType(err)
	}
	return fromFileInfo(p, info), nil
}

// Close releases the directory handle.
func (d *Dir) Close() error {
	return d.f.Close()
}

// StatPath returns the metadata of path, following symbolic links.
func StatPath(path string) (Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stat{}, convertErrorType(err)
	}
	return fromFileInfo(path, info), nil
}

func fromFileInfo(path string, info fs.FileInfo) Stat {
	st := Stat{Mode: info.Mode(), Nlink: 1}
	if !info.Mode().IsRegular() {
		return st
	}
	if n, err := compressedFileSize(path); err == nil {
		st.Allocated = n
		st.HasAllocated = true
	}
	return st
}

func compressedFileSize(path string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var high uint32
	low, _, e1 := procGetCompressedFileSizeW.Call(uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&high)))
	if uint32(low) == invalidFileSize {
		if errno, ok := e1.(windows.Errno); ok && errno != windows.ERROR_SUCCESS {
			return 0, &PathError{Op: "getcompressedfilesize", Path: path, Err: errno}
		}
	}
	return uint64(high)<<32 | uint64(uint32(low)), nil
}
