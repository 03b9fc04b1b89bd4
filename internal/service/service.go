package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"videorelay/internal/media"
	"videorelay/internal/models"
)

// ErrNoVideoFile is returned when no upload was attached to the request.
var ErrNoVideoFile = errors.New("no video file uploaded")

// RemoteStore is the slice of the remote provider the relay needs.
type RemoteStore interface {
	CreateObject(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (*models.ObjectRef, error)
	UpdateContentType(ctx context.Context, objectID, contentType string) (*models.ObjectRef, error)
}

// Granter schedules a best-effort public-read grant for a stored object. It
// never reports back; grant failures only surface in logs and metrics.
type Granter interface {
	Grant(objectID string)
}

type Clock func() time.Time

// Relay is the upload pipeline and the retroactive content-type fixer.
type Relay struct {
	store     RemoteStore
	grants    Granter
	clock     Clock
	logger    *zap.Logger
	uploadSem *semaphore.Weighted
}

type Option func(*Relay)

// WithClock fixes the capture timestamp source, for tests.
func WithClock(clock Clock) Option {
	return func(r *Relay) { r.clock = clock }
}

// WithMaxConcurrentUploads bounds simultaneous remote transfers.
func WithMaxConcurrentUploads(n int64) Option {
	return func(r *Relay) {
		if n > 0 {
			r.uploadSem = semaphore.NewWeighted(n)
		}
	}
}

func NewRelay(store RemoteStore, grants Granter, logger *zap.Logger, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		grants:    grants,
		clock:     time.Now,
		logger:    logger,
		uploadSem: semaphore.NewWeighted(8),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UploadOptions selects the naming mode and visibility for one upload.
type UploadOptions struct {
	// PersonName is the free-text person identifier the stored name is
	// derived from.
	PersonName string
	// KeepOriginalName forwards the original filename unchanged instead of
	// composing a canonical one.
	KeepOriginalName bool
	MakePublic       bool
}

// UploadResult is what a successful upload reports back to the boundary.
type UploadResult struct {
	Object     *models.ObjectRef
	PersonName string
	UploadedAt time.Time
}

// Upload relays one incoming file to the remote store. The upload's temp
// resource is released exactly once on every path, success or failure. The
// public-read grant is handed to the granter after the create completes and
// is never joined with the result.
func (r *Relay) Upload(ctx context.Context, up *IncomingUpload, opts UploadOptions) (result *UploadResult, err error) {
	if up == nil {
		return nil, ErrNoVideoFile
	}
	defer func() {
		if derr := up.Discard(); derr != nil {
			r.logger.Warn("failed to discard upload temp resource",
				zap.String("filename", up.Filename), zap.Error(derr))
		}
	}()

	// 1. Destination name.
	now := r.clock()
	storedName := up.Filename
	personName := opts.PersonName
	if !opts.KeepOriginalName {
		personName, err = media.SanitizePersonName(opts.PersonName)
		if err != nil {
			return nil, err
		}
		storedName, err = media.FormatStoredName(opts.PersonName, up.Filename, now)
		if err != nil {
			return nil, err
		}
	}

	// 2. Content type: a declared video type is trusted verbatim, anything
	// else is resolved from the extension or rejected.
	contentType := up.DeclaredType
	if !media.IsVideoType(contentType) {
		contentType, err = media.ResolveContentType(up.Filename)
		if err != nil {
			return nil, err
		}
	}

	// 3. Bound the number of simultaneous remote transfers.
	if err := r.uploadSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.uploadSem.Release(1)

	// 4. Create the remote object.
	ref, err := r.store.CreateObject(ctx, storedName, contentType, up.Body(), up.Size)
	if err != nil {
		return nil, err
	}

	// 5. Best-effort visibility grant. The object may be briefly private
	// after the response goes out.
	if opts.MakePublic {
		r.grants.Grant(ref.ID)
	}

	return &UploadResult{
		Object:     ref,
		PersonName: personName,
		UploadedAt: now,
	}, nil
}

// FixContentType resolves the correct content type for fileName and pushes a
// metadata-only update to the remote object. The remote store is not
// contacted when resolution fails.
func (r *Relay) FixContentType(ctx context.Context, objectID, fileName string) (*models.ObjectRef, error) {
	contentType, err := media.ResolveContentType(fileName)
	if err != nil {
		return nil, err
	}
	return r.store.UpdateContentType(ctx, objectID, contentType)
}
