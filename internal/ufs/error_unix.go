//go:build unix

package ufs

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// convertErrorType converts errors from the os and unix packages into path
// errors wrapping one of this package's sentinel values where possible, so
// callers only have to check with errors.Is.
func convertErrorType(err error) error {
	if err == nil {
		return nil
	}
	var pErr *PathError
	if errors.As(err, &pErr) {
		if errno, ok := pErr.Err.(syscall.Errno); ok {
			return errnoToPathError(errno, pErr.Op, pErr.Path)
		}
		return pErr
	}
	if errno, ok := err.(syscall.Errno); ok {
		return errnoToPathError(errno, "", "")
	}
	return err
}

// errnoToPathError converts an errno into a proper path error.
func errnoToPathError(err syscall.Errno, op, path string) error {
	switch err {
	// No such file or directory
	case unix.ENOENT:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  ErrNotExist,
		}
	// Permission denied
	case unix.EACCES:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  ErrPermission,
		}
	// Operation not permitted
	case unix.EPERM:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  ErrPermission,
		}
	// Not a directory
	case unix.ENOTDIR:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  ErrNotDirectory,
		}
	// Too many levels of symbolic links
	case unix.ELOOP:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  ErrBadPathResolution,
		}
	default:
		return &PathError{
			Op:   op,
			Path: path,
			Err:  err,
		}
	}
}
