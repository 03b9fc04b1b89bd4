package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"videorelay/internal/models"
)

// ErrObjectNotFound is returned when the remote object id does not exist.
var ErrObjectNotFound = errors.New("remote object not found")

// S3StoreConfig configures the remote store client. Credentials are held in
// memory only; they are never written to disk.
type S3StoreConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	Prefix          string // destination folder for new objects
	PublicBaseURL   string // optional override for share links
	AccessKeyID     string
	SecretAccessKey string
	UploadTimeout   time.Duration
	MaxRetries      uint64
}

// S3Store talks to the remote object store. One instance is shared across
// requests; it holds no per-request state.
type S3Store struct {
	client *s3.Client
	cfg    S3StoreConfig
	logger *zap.Logger
	tracer trace.Tracer
}

func NewS3Store(ctx context.Context, cfg S3StoreConfig, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 5 * time.Minute
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("videorelay/storage"),
	}, nil
}

// CreateObject uploads the body under the configured prefix and returns a
// reference to the stored object. Transient transport failures are retried
// with exponential backoff; application errors are not. The whole call is
// bounded by the configured upload timeout.
func (s *S3Store) CreateObject(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (*models.ObjectRef, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "s3.CreateObject")
	defer span.End()

	key := s.objectKey(name)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		// The body must be rewound before each attempt.
		if _, serr := body.Seek(0, io.SeekStart); serr != nil {
			return serr
		}
		_, perr := s.client.PutObject(ctx, input)
		if perr != nil && isTransient(perr) {
			s.logger.Warn("transient create-object failure, retrying",
				zap.String("key", key), zap.Error(perr))
			return retry.RetryableError(perr)
		}
		return perr
	})
	if err != nil {
		return nil, fmt.Errorf("create object %q: %w", key, err)
	}

	return &models.ObjectRef{
		ID:          key,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Link:        s.ShareLink(key),
	}, nil
}

// GrantPublicRead allows anonymous reads of an existing object.
func (s *S3Store) GrantPublicRead(ctx context.Context, objectID string) error {
	ctx, span := s.tracer.Start(ctx, "s3.GrantPublicRead")
	defer span.End()

	_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(objectID),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("grant public read on %q: %w", objectID, err)
	}
	return nil
}

// UpdateContentType rewrites only the stored content type of an existing
// object. No object bytes are transferred; the object is copied onto itself
// with replaced metadata.
func (s *S3Store) UpdateContentType(ctx context.Context, objectID, contentType string) (*models.ObjectRef, error) {
	ctx, span := s.tracer.Start(ctx, "s3.UpdateContentType")
	defer span.End()

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.cfg.Bucket),
		Key:               aws.String(objectID),
		CopySource:        aws.String(s.cfg.Bucket + "/" + objectID),
		ContentType:       aws.String(contentType),
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectID)
		}
		return nil, fmt.Errorf("update content type of %q: %w", objectID, err)
	}

	return &models.ObjectRef{
		ID:          objectID,
		Name:        path.Base(objectID),
		ContentType: contentType,
		Link:        s.ShareLink(objectID),
	}, nil
}

// ShareLink builds the public URL of a stored object.
func (s *S3Store) ShareLink(objectID string) string {
	escaped := escapeKey(objectID)
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + escaped
	}
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
}

func (s *S3Store) objectKey(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

// escapeKey percent-encodes each path segment of an object key, keeping the
// separators intact.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// isTransient reports whether an error is worth retrying: a 5xx from the
// provider or a transport-level network error. Application errors (4xx,
// validation) never are.
func isTransient(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
