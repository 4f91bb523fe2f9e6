//go:build windows

package ufs

import (
	"errors"
	"syscall"
)

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
	return err
}

// errnoToPathError converts an errno into a proper path error.
// On Windows, syscall.Errno matches Windows error codes.
func errnoToPathError(err syscall.Errno, op, path string) error {
	switch err {
	case syscall.ERROR_FILE_EXISTS, syscall.ERROR_ALREADY_EXISTS:
		return &PathError{Op: op, Path: path, Err: ErrExist}
	case syscall.ERROR_PATH_NOT_FOUND, syscall.ERROR_FILE_NOT_FOUND:
		return &PathError{Op: op, Path: path, Err: ErrNotExist}
	case syscall.ERROR_ACCESS_DENIED:
		return &PathError{Op: op, Path: path, Err: ErrPermission}
	default:
		return &PathError{Op: op, Path: path, Err: err}
	}
}
