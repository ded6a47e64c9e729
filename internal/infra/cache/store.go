// Package cache keeps remote files on local disk, keyed by the last segment of their URL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"apod-feed/internal/observability/logging"
	"apod-feed/internal/observability/metrics"
	"apod-feed/internal/observability/tracing"
	"apod-feed/internal/usecase/feed"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidCacheKey indicates a URL whose last path segment cannot name a file.
var ErrInvalidCacheKey = errors.New("invalid cache key")

// WriteError is a failure to store a downloaded file. It matches feed.ErrCacheWrite.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is matches feed.ErrCacheWrite.
func (e *WriteError) Is(target error) bool { return target == feed.ErrCacheWrite }

// Downloader retrieves a remote file. It follows the feed.PageFetcher contract:
// feed.ErrNotFound for a confirmed absence, *feed.FetchError otherwise.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Validator reports whether an existing cache file can be served.
type Validator func(path string, info fs.FileInfo) bool

// PresenceValidator accepts any existing regular file.
func PresenceValidator(_ string, info fs.FileInfo) bool {
	return info.Mode().IsRegular()
}

// NonEmptyValidator accepts regular files with at least one byte, so that a truncated
// zero-length file left by an interrupted writer is downloaded again.
func NonEmptyValidator(_ string, info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Size() > 0
}

// Stats counts cache activity since the store was created.
type Stats struct {
	Hits         int64
	Misses       int64
	BytesWritten int64
}

// Store implements feed.CacheStore on a flat directory.
// Concurrent EnsureCached calls for the same file share one download.
type Store struct {
	root       string
	downloader Downloader
	validator  Validator
	group      singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	bytesWritten atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithValidator replaces PresenceValidator.
func WithValidator(v Validator) Option {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewStore creates the root directory if needed and returns a store writing into it.
func NewStore(root string, downloader Downloader, opts ...Option) (*Store, error) {
	dir, err := EnsureCacheRoot(root)
	if err != nil {
		return nil, err
	}
	s := &Store{
		root:       dir,
		downloader: downloader,
		validator:  PresenceValidator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		BytesWritten: s.bytesWritten.Load(),
	}
}

// EnsureCacheRoot creates dir and its parents. It is idempotent.
func EnsureCacheRoot(dir string) (string, error) {
	if dir == "" {
		return "", &WriteError{Path: dir, Err: errors.New("empty cache root")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &WriteError{Path: dir, Err: err}
	}
	return dir, nil
}

// LocalPathFor maps a URL to its file under root: the last segment of the URL path.
// It does not touch the filesystem.
func LocalPathFor(rawURL, root string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCacheKey, err)
	}
	name := path.Base(u.Path)
	switch name {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidCacheKey, rawURL)
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q is not a plain file name", ErrInvalidCacheKey, name)
	}
	return filepath.Join(root, name), nil
}

// EnsureCached returns the local path of rawURL, downloading it on a miss.
//
// Returns:
//   - the path on a hit, with no download
//   - the downloader's error unchanged when the download fails
//   - *WriteError when the file cannot be stored
func (s *Store) EnsureCached(ctx context.Context, rawURL string) (string, error) {
	localPath, err := LocalPathFor(rawURL, s.root)
	if err != nil {
		return "", err
	}

	ctx, span := tracing.GetTracer().Start(ctx, "cache.EnsureCached")
	defer span.End()
	span.SetAttributes(attribute.String("cache.file", filepath.Base(localPath)))

	logger := logging.FromContext(ctx)

	if s.valid(localPath) {
		s.hits.Add(1)
		metrics.RecordCacheLookup(true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		logger.Debug("cache hit", slog.String("path", localPath))
		return localPath, nil
	}

	s.misses.Add(1)
	metrics.RecordCacheLookup(false)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// The download runs detached from ctx; each caller waits on its own ctx.
	ch := s.group.DoChan(localPath, func() (interface{}, error) {
		// Another caller may have finished the same file between the check and DoChan.
		if s.valid(localPath) {
			return nil, nil
		}
		return nil, s.download(context.WithoutCancel(ctx), rawURL, localPath)
	})

	select {
	case <-ctx.Done():
		err := ctx.Err()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			return "", res.Err
		}
		if res.Shared {
			logger.Debug("cache download shared", slog.String("path", localPath))
		}
		return localPath, nil
	}
}

func (s *Store) valid(localPath string) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		return false
	}
	return s.validator(localPath, info)
}

func (s *Store) download(ctx context.Context, rawURL, localPath string) error {
	data, err := s.downloader.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".download-*")
	if err != nil {
		return &WriteError{Path: localPath, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return &WriteError{Path: localPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &WriteError{Path: localPath, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return &WriteError{Path: localPath, Err: err}
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		cleanup()
		return &WriteError{Path: localPath, Err: err}
	}

	s.bytesWritten.Add(int64(len(data)))
	metrics.RecordCacheWrite(int64(len(data)))
	logging.FromContext(ctx).Debug("cached remote file",
		slog.String("url", rawURL),
		slog.String("path", localPath),
		slog.Int("bytes", len(data)))
	return nil
}
