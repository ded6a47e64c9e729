package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/observability/logging"
	"apod-feed/internal/observability/metrics"
	"apod-feed/internal/observability/tracing"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// PageFetcher retrieves one remote resource.
// A confirmed absence returns ErrNotFound; any other failure returns a *FetchError.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageParser extracts the title, image link and caption from a daily page.
// A page that does not match the template returns a *ParseError.
type PageParser interface {
	Parse(html []byte) (*entity.ParsedPage, error)
}

// CacheStore materializes a remote file in the local cache and returns its path.
type CacheStore interface {
	EnsureCached(ctx context.Context, url string) (string, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Skip reasons used in logs, stats and metrics.
const (
	SkipReasonAbsent           = "absent"
	SkipReasonMalformed        = "malformed"
	SkipReasonNetworkFailure   = "network_failure"
	SkipReasonThumbnailMissing = "thumbnail_missing"
)

// Options controls the date walk.
type Options struct {
	// BaseURL is the archive root that page and thumbnail names are appended to.
	BaseURL string

	// Inception is the oldest date that can have a page. Walking past it ends the walk.
	Inception time.Time

	// SkipMalformed skips dates whose page does not parse. When false the parse error aborts.
	SkipMalformed bool

	// SkipNetworkFailures skips dates that could not be fetched. When false a failure aborts.
	SkipNetworkFailures bool

	// Parallelism is the number of dates probed concurrently. 1 or less walks sequentially.
	Parallelism int

	// MemoSize bounds the in-process memo of parsed pages. 0 disables the memo.
	MemoSize int

	// Clock and Location define "today". Today's page is never memoized because it may
	// not be published yet.
	Clock    Clock
	Location *time.Location
}

// DefaultOptions returns the options used by the CLI and the worker.
func DefaultOptions() Options {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return Options{
		BaseURL:             DefaultBaseURL,
		Inception:           entity.Inception,
		SkipMalformed:       true,
		SkipNetworkFailures: false,
		Parallelism:         1,
		MemoSize:            256,
		Clock:               SystemClock,
		Location:            loc,
	}
}

// Service assembles feed entries by walking dates backward.
type Service struct {
	fetcher    PageFetcher
	parser     PageParser
	thumbnails CacheStore
	opts       Options
	memo       *lru.Cache[string, *entity.ParsedPage]
}

// NewService creates a feed Service.
//
// Parameters:
//   - fetcher: retrieves daily pages
//   - parser: extracts fields from a page
//   - thumbnails: caches thumbnails for accepted entries
//   - opts: walk policy; zero values of Clock, Location, BaseURL and Inception take defaults
func NewService(fetcher PageFetcher, parser PageParser, thumbnails CacheStore, opts Options) (*Service, error) {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.Inception.IsZero() {
		opts.Inception = defaults.Inception
	}
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}

	s := &Service{
		fetcher:    fetcher,
		parser:     parser,
		thumbnails: thumbnails,
		opts:       opts,
	}
	if opts.MemoSize > 0 {
		memo, err := lru.New[string, *entity.ParsedPage](opts.MemoSize)
		if err != nil {
			return nil, fmt.Errorf("create page memo: %w", err)
		}
		s.memo = memo
	}
	return s, nil
}

// BaseURL returns the archive root the service builds URLs from.
func (s *Service) BaseURL() string { return s.opts.BaseURL }

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	return entity.Day(s.opts.Clock.Now().In(s.opts.Location))
}

// AssembleStats contains statistics about one assembly.
type AssembleStats struct {
	DatesVisited int
	Skipped      map[string]int
	Entries      int
	Duration     time.Duration
}

type dateOutcome struct {
	date    time.Time
	outcome Outcome
}

// Assemble returns exactly count entries in strictly decreasing date order, walking
// backward from startDate.
//
// Absent dates are skipped without counting. Malformed pages are skipped unless
// SkipMalformed is false. A network failure aborts with the *FetchError unless
// SkipNetworkFailures is true. A date whose thumbnail is confirmed absent is skipped.
//
// When the walk passes Inception the collected entries are returned together with an
// *ExhaustedHistoryError.
func (s *Service) Assemble(ctx context.Context, count int, startDate time.Time) ([]entity.Entry, error) {
	if count < 1 {
		return nil, fmt.Errorf("assemble %d entries: %w", count, ErrInvalidCount)
	}

	start := time.Now()
	startDay := entity.Day(startDate)
	logger := logging.WithRunID(ctx, logging.FromContext(ctx))

	ctx, span := tracing.GetTracer().Start(ctx, "feed.Assemble",
		trace.WithAttributes(
			attribute.Int("feed.count", count),
			attribute.String("feed.start_date", startDay.Format(entity.InputLayout)),
		),
	)
	defer span.End()

	stats := &AssembleStats{Skipped: make(map[string]int)}
	entries, err := s.walk(ctx, logger, count, startDay, stats)
	stats.Entries = len(entries)
	stats.Duration = time.Since(start)

	status := "success"
	switch {
	case errors.Is(err, ErrExhaustedHistory):
		status = "exhausted"
	case err != nil:
		status = "failure"
	}
	metrics.RecordAssemble(status, stats.Entries, stats.Duration)
	span.SetAttributes(
		attribute.Int("feed.dates_visited", stats.DatesVisited),
		attribute.Int("feed.entries", stats.Entries),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("feed assembly stopped",
			slog.String("status", status),
			slog.Int("requested", count),
			slog.Int("collected", stats.Entries),
			slog.Int("dates_visited", stats.DatesVisited),
			slog.Any("error", err))
		if errors.Is(err, ErrExhaustedHistory) {
			return entries, err
		}
		return nil, err
	}

	logger.Info("feed assembled",
		slog.Int("entries", stats.Entries),
		slog.Int("dates_visited", stats.DatesVisited),
		slog.Any("skipped", stats.Skipped),
		slog.Duration("duration", stats.Duration))
	return entries, nil
}

func (s *Service) walk(ctx context.Context, logger *slog.Logger, count int, date time.Time, stats *AssembleStats) ([]entity.Entry, error) {
	entries := make([]entity.Entry, 0, count)
	var pending []dateOutcome

	for len(entries) < count {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assemble: %w", err)
		}

		if len(pending) == 0 {
			if date.Before(s.opts.Inception) {
				return entries, &ExhaustedHistoryError{
					Requested: count,
					Collected: len(entries),
					Oldest:    s.opts.Inception,
					Entries:   entries,
				}
			}
			pending = s.probeWindow(ctx, date)
			date = entity.PreviousDay(pending[len(pending)-1].date)
		}

		cur := pending[0]
		pending = pending[1:]
		stats.DatesVisited++

		entry, reason, err := s.accept(ctx, cur)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			stats.Skipped[reason]++
			metrics.RecordDateSkipped(reason)
			logger.Debug("date skipped",
				slog.String("date", cur.date.Format(entity.InputLayout)),
				slog.String("reason", reason))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// accept applies the skip policy to one probed date. It returns either an entry,
// a non-empty skip reason, or an error that aborts the walk.
func (s *Service) accept(ctx context.Context, cur dateOutcome) (entity.Entry, string, error) {
	switch cur.outcome.Kind {
	case OutcomeAbsent:
		return entity.Entry{}, SkipReasonAbsent, nil

	case OutcomeMalformed:
		if !s.opts.SkipMalformed {
			return entity.Entry{}, "", fmt.Errorf("probe %s: %w", entity.DateCode(cur.date), cur.outcome.Err)
		}
		return entity.Entry{}, SkipReasonMalformed, nil

	case OutcomeNetworkFailure:
		if err := ctx.Err(); err != nil {
			return entity.Entry{}, "", fmt.Errorf("assemble: %w", err)
		}
		if !s.opts.SkipNetworkFailures {
			return entity.Entry{}, "", fmt.Errorf("probe %s: %w", entity.DateCode(cur.date), cur.outcome.Err)
		}
		return entity.Entry{}, SkipReasonNetworkFailure, nil
	}

	entry, err := s.buildEntry(cur.date, cur.outcome.Page)
	if err != nil {
		if s.opts.SkipMalformed {
			return entity.Entry{}, SkipReasonMalformed, nil
		}
		return entity.Entry{}, "", err
	}

	path, err := s.thumbnails.EnsureCached(ctx, entry.ThumbnailURL)
	switch {
	case err == nil:
		entry.ThumbnailLocalPath = path
		return entry, "", nil
	case errors.Is(err, ErrNotFound):
		return entity.Entry{}, SkipReasonThumbnailMissing, nil
	case ctx.Err() != nil:
		return entity.Entry{}, "", fmt.Errorf("assemble: %w", ctx.Err())
	case errors.Is(err, ErrFetchFailed) && s.opts.SkipNetworkFailures:
		return entity.Entry{}, SkipReasonNetworkFailure, nil
	default:
		return entity.Entry{}, "", fmt.Errorf("cache thumbnail for %s: %w", entity.DateCode(cur.date), err)
	}
}

func (s *Service) buildEntry(date time.Time, page *entity.ParsedPage) (entity.Entry, error) {
	imageURL, err := ResolveImageURL(s.opts.BaseURL, page.ImageRelativeURL)
	if err != nil {
		return entity.Entry{}, err
	}
	if err := entity.ValidateURL(imageURL); err != nil {
		return entity.Entry{}, &ParseError{Element: "a[1]", Reason: fmt.Sprintf("image link %q: %v", page.ImageRelativeURL, err)}
	}
	return entity.Entry{
		Date:          date,
		Title:         page.Title,
		PageURL:       PageURL(s.opts.BaseURL, date),
		ImageURL:      imageURL,
		ThumbnailURL:  ThumbnailURL(s.opts.BaseURL, date),
		CaptionMarkup: page.CaptionMarkup,
	}, nil
}

// probeWindow probes Parallelism consecutive dates starting at date and going back,
// never past Inception. The result is ordered newest first and is never empty.
func (s *Service) probeWindow(ctx context.Context, date time.Time) []dateOutcome {
	window := make([]dateOutcome, 0, s.opts.Parallelism)
	for d := date; len(window) < s.opts.Parallelism && !d.Before(s.opts.Inception); d = entity.PreviousDay(d) {
		window = append(window, dateOutcome{date: d})
	}

	if len(window) == 1 {
		window[0].outcome = s.Probe(ctx, window[0].date)
		return window
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Parallelism)
	for i := range window {
		i := i
		g.Go(func() error {
			window[i].outcome = s.Probe(ctx, window[i].date)
			return nil
		})
	}
	_ = g.Wait()
	return window
}

// Probe fetches and parses the page for one date.
func (s *Service) Probe(ctx context.Context, date time.Time) Outcome {
	date = entity.Day(date)
	key := entity.DateCode(date)

	ctx, span := tracing.GetTracer().Start(ctx, "feed.Probe",
		trace.WithAttributes(attribute.String("feed.date", date.Format(entity.InputLayout))),
	)
	defer span.End()

	if s.memo != nil {
		if page, ok := s.memo.Get(key); ok {
			span.SetAttributes(attribute.Bool("feed.memo_hit", true), attribute.String("feed.outcome", OutcomeFound.String()))
			return found(page)
		}
	}

	outcome := s.probeRemote(ctx, date)
	span.SetAttributes(attribute.String("feed.outcome", outcome.Kind.String()))
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
	}

	if outcome.Kind == OutcomeFound && s.memo != nil && date.Before(s.Today()) {
		s.memo.Add(key, outcome.Page)
	}
	return outcome
}

func (s *Service) probeRemote(ctx context.Context, date time.Time) Outcome {
	body, err := s.fetcher.Fetch(ctx, PageURL(s.opts.BaseURL, date))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return absent()
		}
		return networkFailure(err)
	}

	page, err := s.parser.Parse(body)
	if err != nil {
		return malformed(err)
	}
	return found(page)
}
