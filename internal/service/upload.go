package service

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// IncomingUpload is the request-scoped upload received by the HTTP boundary.
// It owns the local temporary resource backing the bytes and guarantees it is
// released at most once.
type IncomingUpload struct {
	Filename     string
	DeclaredType string
	Size         int64

	body     io.ReadSeeker
	closer   io.Closer
	tempPath string

	discardOnce sync.Once
	discardErr  error
}

// NewIncomingUpload wraps an in-memory buffer. There is no temp file to
// delete; Discard is still safe to call.
func NewIncomingUpload(body io.ReadSeeker, filename, declaredType string, size int64) *IncomingUpload {
	return &IncomingUpload{
		Filename:     filename,
		DeclaredType: declaredType,
		Size:         size,
		body:         body,
	}
}

// IncomingUploadFromFile wraps a temp file owned exclusively by this upload.
// Discard closes and deletes it.
func IncomingUploadFromFile(f *os.File, filename, declaredType string, size int64) *IncomingUpload {
	return &IncomingUpload{
		Filename:     filename,
		DeclaredType: declaredType,
		Size:         size,
		body:         f,
		closer:       f,
		tempPath:     f.Name(),
	}
}

func (u *IncomingUpload) Body() io.ReadSeeker {
	return u.body
}

// Discard releases the local temporary resource. Only the first call does
// any work; a file already removed by someone else is not an error.
func (u *IncomingUpload) Discard() error {
	u.discardOnce.Do(func() {
		if u.closer != nil {
			u.closer.Close()
		}
		if u.tempPath != "" {
			if err := os.Remove(u.tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				u.discardErr = err
			}
		}
	})
	return u.discardErr
}
