// Result codes seen by a filesystem engine at the block device boundary. The
// values follow the engine's own negative error enumeration so they can be
// handed back unchanged by C-style callers.

package errors

import (
	"fmt"
)

type Code int

var errorMessagesByCode map[Code]string

const (
	EOK          Code = 0
	ENOENT       Code = -2
	EIO          Code = -5
	EBADF        Code = -9
	ENOMEM       Code = -12
	EEXIST       Code = -17
	ENOTDIR      Code = -20
	EISDIR       Code = -21
	EINVAL       Code = -22
	EFBIG        Code = -27
	ENOSPC       Code = -28
	ENAMETOOLONG Code = -36
	ENOTEMPTY    Code = -39
	ENOATTR      Code = -61
	ECORRUPT     Code = -84
	// ETIMEDOUT is never produced by the engine itself. It is only returned
	// when a bounded wait is configured and the controller doesn't answer.
	ETIMEDOUT Code = -110
)

var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrInvalidFileDescriptor = New(EBADF)
var ErrNoMemory = New(ENOMEM)
var ErrExists = New(EEXIST)
var ErrNotADirectory = New(ENOTDIR)
var ErrIsADirectory = New(EISDIR)
var ErrInvalidArgument = New(EINVAL)
var ErrFileTooLarge = New(EFBIG)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrNameTooLong = New(ENAMETOOLONG)
var ErrDirectoryNotEmpty = New(ENOTEMPTY)
var ErrNoAttribute = New(ENOATTR)
var ErrCorrupted = New(ECORRUPT)
var ErrTimedOut = New(ETIMEDOUT)

func init() {
	errorMessagesByCode = make(map[Code]string, 16)
	errorMessagesByCode[EOK] = "Success"
	errorMessagesByCode[ENOENT] = "No such file or directory"
	errorMessagesByCode[EIO] = "Input/output error"
	errorMessagesByCode[EBADF] = "Bad file descriptor"
	errorMessagesByCode[ENOMEM] = "Cannot allocate memory"
	errorMessagesByCode[EEXIST] = "File exists"
	errorMessagesByCode[ENOTDIR] = "Not a directory"
	errorMessagesByCode[EISDIR] = "Is a directory"
	errorMessagesByCode[EINVAL] = "Invalid argument"
	errorMessagesByCode[EFBIG] = "File too large"
	errorMessagesByCode[ENOSPC] = "No space left on device"
	errorMessagesByCode[ENAMETOOLONG] = "File name too long"
	errorMessagesByCode[ENOTEMPTY] = "Directory not empty"
	errorMessagesByCode[ENOATTR] = "No data available"
	errorMessagesByCode[ECORRUPT] = "Corrupted"
	errorMessagesByCode[ETIMEDOUT] = "Connection timed out"
}

func StrError(code Code) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}
