package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/jobs"
)

// SweepJobType identifies decrement sweep jobs on the queue.
const SweepJobType = "enrollment_sweep"

type sweepRepository interface {
	Apply(ctx context.Context, day time.Time) (*models.SweepResult, error)
	ListRecent(ctx context.Context, limit int) ([]models.SweepRun, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SweepJob is the queue payload for a sweep request.
type SweepJob struct {
	Day     time.Time
	ActorID string
}

// SweepService runs the once-per-day enrollment decrement.
type SweepService struct {
	repo    sweepRepository
	audit   auditLogger
	cache   *CacheService
	metrics *MetricsService
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewSweepService constructs the service. Days are interpreted in loc.
func NewSweepService(repo sweepRepository, audit auditLogger, cache *CacheService, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *SweepService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{repo: repo, audit: audit, cache: cache, metrics: metrics, loc: loc, logger: logger, now: time.Now}
}

// Today returns the current calendar day in the sweep location.
func (s *SweepService) Today() time.Time {
	return s.now().In(s.loc)
}

// RunDailySweep decrements every usable enrollment by one day and expires the ones
// that reached zero. A day that was already swept is skipped without changes.
func (s *SweepService) RunDailySweep(ctx context.Context, day time.Time) (*models.SweepResult, error) {
	return s.run(ctx, day, nil)
}

func (s *SweepService) run(ctx context.Context, day time.Time, actor *string) (*models.SweepResult, error) {
	day = day.In(s.loc)
	start := time.Now()
	result, err := s.repo.Apply(ctx, day)
	elapsed := time.Since(start)
	s.metrics.ObserveSweep(result, elapsed, s.now())
	if err != nil {
		s.logger.Error("enrollment sweep failed",
			zap.String("day", day.Format("2006-01-02")),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrollment sweep failed")
	}

	if result.Skipped {
		s.logger.Info("enrollment sweep skipped, day already processed", zap.String("day", day.Format("2006-01-02")))
		return result, nil
	}

	s.logger.Info("enrollment sweep applied",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int64("reduced", result.Reduced),
		zap.Int64("expired", result.Expired),
		zap.Duration("duration", elapsed),
	)
	s.recordAudit(ctx, actor, result)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	return result, nil
}

// ListRecent returns the latest sweep markers.
func (s *SweepService) ListRecent(ctx context.Context, limit int) ([]models.SweepRun, error) {
	runs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sweeps")
	}
	return runs, nil
}

// Handle processes a queued sweep job. Failures are returned so the queue logs them;
// the sweep queue does not retry, the next trigger does.
func (s *SweepService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(SweepJob)
	if !ok {
		return fmt.Errorf("sweep job %s: unexpected payload %T", job.ID, job.Payload)
	}
	var actor *string
	if payload.ActorID != "" {
		actor = &payload.ActorID
	}
	_, err := s.run(ctx, payload.Day, actor)
	return err
}

func (s *SweepService) recordAudit(ctx context.Context, actor *string, result *models.SweepResult) {
	if s.audit == nil {
		return
	}
	newBytes, _ := json.Marshal(result)
	day := result.SweepDate.Format("2006-01-02")
	log := &models.AuditLog{
		UserID:     actor,
		Action:     models.AuditActionEnrollmentSweep,
		Resource:   "enrollment_sweep",
		ResourceID: &day,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "sweep-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record sweep audit", zap.Error(err))
	}
}

// SweepDispatcher funnels scheduled and manual sweep requests through a single queue
// so two sweeps never run at the same time.
type SweepDispatcher struct {
	queue  jobEnqueuer
	sweeps *SweepService
	logger *zap.Logger
}

// NewSweepDispatcher constructs a dispatcher over queue.
func NewSweepDispatcher(queue jobEnqueuer, sweeps *SweepService, logger *zap.Logger) *SweepDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepDispatcher{queue: queue, sweeps: sweeps, logger: logger}
}

// Fire enqueues the sweep for the day containing at. It matches scheduler.FireFunc.
func (d *SweepDispatcher) Fire(ctx context.Context, at time.Time) {
	if _, err := d.enqueue(at, ""); err != nil {
		d.logger.Error("failed to enqueue scheduled sweep", zap.Time("at", at), zap.Error(err))
	}
}

// Trigger enqueues a sweep for today on behalf of an administrator.
func (d *SweepDispatcher) Trigger(actor *models.JWTClaims) (time.Time, error) {
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	day, err := d.enqueue(d.sweeps.Today(), actorID)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule sweep")
	}
	return day, nil
}

func (d *SweepDispatcher) enqueue(at time.Time, actorID string) (time.Time, error) {
	day := at.In(d.sweeps.loc)
	job := jobs.Job{
		ID:      fmt.Sprintf("sweep-%s", day.Format("2006-01-02")),
		Type:    SweepJobType,
		Payload: SweepJob{Day: day, ActorID: actorID},
	}
	if err := d.queue.Enqueue(job); err != nil {
		return time.Time{}, err
	}
	return day, nil
}
