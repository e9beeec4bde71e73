package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/minewatch/minewatch-api/internal/domain/user"
	"github.com/minewatch/minewatch-api/internal/pkg/logger"
)

var tracer = otel.Tracer("github.com/minewatch/minewatch-api/internal/domain/report")

// ReporterLookup finds the account that filed a report
type ReporterLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// StatusNotifier tells a reporter their report changed status
type StatusNotifier interface {
	SendReportStatus(to, title, status string)
}

// Service implements report submission and retrieval
type Service struct {
	repo          Repository
	cache         *QueryCache
	photos        PhotoUploader
	feed          EventPublisher
	maxPhotoBytes int64

	reporters ReporterLookup
	notifier  StatusNotifier
}

// NewService creates report service. photos and feed may be nil.
func NewService(repo Repository, cache *QueryCache, photos PhotoUploader, feed EventPublisher, maxPhotoBytes int64) *Service {
	if cache == nil {
		cache = NewQueryCache(nil, 0)
	}
	return &Service{
		repo:          repo,
		cache:         cache,
		photos:        photos,
		feed:          feed,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// SetStatusNotifier enables email notices to reporters on status changes
func (s *Service) SetStatusNotifier(reporters ReporterLookup, notifier StatusNotifier) {
	s.reporters = reporters
	s.notifier = notifier
}

// FetchAll returns every report, newest first
func (s *Service) FetchAll(ctx context.Context) ([]Report, error) {
	return s.cache.Reports(ctx, CacheKeyAll, s.loadAll)
}

func (s *Service) loadAll(ctx context.Context) ([]Report, error) {
	ctx, span := tracer.Start(ctx, "report.loadAll")
	defer span.End()

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, newBackendError("fetch reports", err))
	}

	reports := make([]Report, 0, len(rows))
	for _, row := range rows {
		r, err := Normalize(row)
		if err != nil {
			log.Warn().Err(err).Str("report_id", row.ID.String()).Msg("Skipping unreadable report")
			continue
		}
		reports = append(reports, r)
	}
	span.SetAttributes(attribute.Int("report.count", len(reports)))
	return reports, nil
}

// List returns reports matching f, newest first
func (s *Service) List(ctx context.Context, f Filter) ([]Report, error) {
	reports, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(reports, f), nil
}

// Summary aggregates all reports for the map view
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	reports, err := s.FetchAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(reports), nil
}

// Get returns a single report
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Report, error) {
	ctx, span := tracer.Start(ctx, "report.Get", trace.WithAttributes(attribute.String("report.id", id.String())))
	defer span.End()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Report{}, fail(span, newBackendError("get report", err))
	}
	if row == nil {
		return Report{}, ErrReportNotFound
	}
	return Normalize(*row)
}

// Create files a report for userID. Photos are stored before the row is written
// and removed again if the insert fails.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Report, error) {
	if userID == uuid.Nil {
		return Report{}, ErrAuthRequired
	}

	ctx, span := tracer.Start(ctx, "report.Create", trace.WithAttributes(attribute.Int("report.photos", len(in.Photos))))
	defer span.End()

	in.prepare()
	if verr := Validate(in, s.maxPhotoBytes); verr != nil {
		return Report{}, verr
	}

	images := append([]string{}, in.ImageURLs...)
	var uploaded []string
	if len(in.Photos) > 0 {
		if s.photos == nil {
			return Report{}, &ValidationError{Fields: map[string]string{"photos": "Photo uploads are not enabled"}}
		}
		urls, err := s.photos.Upload(ctx, in.Photos)
		if err != nil {
			return Report{}, fail(span, newBackendError("upload photos", err))
		}
		uploaded = urls
		images = append(images, urls...)
	}

	row, err := s.repo.Create(ctx, NewReport{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Images:      images,
		UserID:      userID,
	})
	if err != nil {
		if len(uploaded) > 0 {
			s.photos.Remove(context.WithoutCancel(ctx), uploaded)
		}
		return Report{}, fail(span, newBackendError("create report", err))
	}

	created, err := Normalize(*row)
	if err != nil {
		return Report{}, fail(span, fmt.Errorf("normalize created report: %w", err))
	}
	span.SetAttributes(attribute.String("report.id", created.ID.String()))

	s.cache.Invalidate(ctx, CacheKeyAll)
	s.publish(ctx, EventReportCreated, created)

	logger.LogInfo(ctx, "Report created",
		"report_id", created.ID.String(),
		"user_id", userID.String(),
		"images", len(created.Images),
	)

	return created, nil
}

// UpdateStatus overwrites a report's status. Any known status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Report, error) {
	if !status.IsValid() {
		return Report{}, &ValidationError{Fields: map[string]string{"status": "Invalid status"}}
	}

	ctx, span := tracer.Start(ctx, "report.UpdateStatus", trace.WithAttributes(
		attribute.String("report.id", id.String()),
		attribute.String("report.status", string(status)),
	))
	defer span.End()

	row, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return Report{}, fail(span, newBackendError("update report status", err))
	}
	if row == nil {
		return Report{}, ErrReportNotFound
	}

	updated, err := Normalize(*row)
	if err != nil {
		return Report{}, fail(span, fmt.Errorf("normalize updated report: %w", err))
	}

	s.cache.Invalidate(ctx, CacheKeyAll)
	s.publish(ctx, EventStatusChanged, updated)
	s.notifyReporter(ctx, updated)

	logger.LogInfo(ctx, "Report status updated", "report_id", id.String(), "status", string(status))

	return updated, nil
}

func (s *Service) publish(ctx context.Context, typ EventType, r Report) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(ctx, FeedEvent{Type: typ, Report: r})
}

func (s *Service) notifyReporter(ctx context.Context, r Report) {
	if s.notifier == nil || s.reporters == nil || r.UserID == nil {
		return
	}
	u, err := s.reporters.GetByID(ctx, *r.UserID)
	if err != nil {
		logger.LogWarn(ctx, "Failed to look up reporter", "report_id", r.ID.String(), "error", err.Error())
		return
	}
	if u == nil || u.ContactEmail() == "" {
		return
	}
	s.notifier.SendReportStatus(u.ContactEmail(), r.Title, string(r.Status))
}

// fail records err on span and returns it
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
