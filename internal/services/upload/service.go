package uploadservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"kbdedup/internal/models"
	"kbdedup/internal/repositories"
	"kbdedup/internal/services/access"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pkg = "uploadService/"

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 10 * time.Millisecond
)

// errDryRun rolls back a unit that was only evaluated.
var errDryRun = errors.New("dry run")

type Options struct {
	// MaxAttempts bounds how often a decision is replayed after losing a
	// uniqueness race to a concurrent upload.
	MaxAttempts int
	RetryDelay  time.Duration
	Clock       clock.Clock
}

type Service struct {
	log      *slog.Logger
	store    DocumentStore
	hasher   Hasher
	quota    *access.QuotaEnforcer
	granter  *access.Granter
	cache    Cache
	metrics  Metrics
	tracer   trace.Tracer
	opts     Options
	dispatch map[decisionKey]action
}

func New(
	log *slog.Logger,
	store DocumentStore,
	hasher Hasher,
	quota *access.QuotaEnforcer,
	cache Cache,
	metrics Metrics,
	opts Options,
) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	s := &Service{
		log:     log,
		store:   store,
		hasher:  hasher,
		quota:   quota,
		granter: access.NewGranter(log, quota),
		cache:   cache,
		metrics: metrics,
		tracer:  otel.Tracer("kbdedup/internal/services/upload"),
		opts:    opts,
	}
	s.dispatch = s.newDispatchTable()

	return s
}

// Decide runs one upload through the decision state machine and returns its
// terminal verdict. Policy outcomes such as quota or duplicate conflicts are
// verdicts; only malformed requests and unexpected store failures are errors.
func (s *Service) Decide(ctx context.Context, req models.UploadRequest, content io.Reader) (*models.Verdict, error) {
	op := pkg + "Decide"

	log := s.log.With(
		slog.String("op", op),
		slog.String("kb_id", req.KnowledgeBaseID),
		slog.String("user_id", req.Uploader.ID),
	)

	if err := normalize(&req); err != nil {
		log.Warn("invalid upload request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, span := s.tracer.Start(ctx, "upload.Decide", trace.WithAttributes(
		attribute.String("kb.id", req.KnowledgeBaseID),
		attribute.String("user.role", string(req.Uploader.Role)),
		attribute.Bool("upload.dry_run", req.DryRun),
	))
	defer span.End()

	start := s.opts.Clock.Now()

	log.Debug("deciding upload", slog.String("name", req.Name), slog.Bool("force", req.Force), slog.Bool("dry_run", req.DryRun))

	verdict, err := s.decide(ctx, log, req, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("upload decision failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verdict.DryRun = req.DryRun

	span.SetAttributes(
		attribute.String("upload.action", string(verdict.Action)),
		attribute.String("upload.branch", string(verdict.Branch)),
		attribute.String("upload.error_kind", string(verdict.ErrorKind)),
	)

	s.metrics.DecisionMade(req.Uploader.Role, verdict.Action, verdict.ErrorKind, s.opts.Clock.Now().Sub(start))

	log.Info("upload decided",
		slog.String("action", string(verdict.Action)),
		slog.String("branch", string(verdict.Branch)),
		slog.String("state", string(verdict.State)),
		slog.String("error_kind", string(verdict.ErrorKind)),
	)

	return verdict, nil
}

func (s *Service) decide(ctx context.Context, log *slog.Logger, req models.UploadRequest, content io.Reader) (*models.Verdict, error) {
	fp, size, err := s.hasher.Compute(content)
	if err != nil {
		log.Error("failed to hash content", slog.String("error", err.Error()))
		return &models.Verdict{
			Action:    models.ActionReject,
			ErrorKind: models.ErrKindHashComputationFailure,
			Message:   models.ErrHashComputation.Error(),
			State:     models.StateDenied,
		}, nil
	}

	d := &decision{
		req:  req,
		user: &req.Uploader,
		hash: fp.String(),
		size: size,
	}

	var verdict *models.Verdict

	err = retry.Call(retry.CallArgs{
		Func: func() error {
			v, err := s.attempt(ctx, d)
			if err != nil {
				return err
			}
			verdict = v
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, models.ErrUNIQUEConstraintFailed)
		},
		NotifyFunc: func(err error, attempt int) {
			s.metrics.StorageConflictRetried()
			log.Warn("lost uniqueness race to a concurrent upload",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		},
		Attempts: s.opts.MaxAttempts,
		Delay:    s.opts.RetryDelay,
		Clock:    s.opts.Clock,
		Stop:     ctx.Done(),
	})

	switch {
	case err == nil:
	case retry.IsAttemptsExceeded(err):
		return &models.Verdict{
			Action:    models.ActionReject,
			ErrorKind: models.ErrKindStorageConflict,
			Message:   models.ErrStorageConflict.Error(),
			Branch:    d.match.Kind.Branch(),
			State:     models.StateDenied,
			Retryable: true,
		}, nil
	case errors.Is(err, models.ErrLockTimeout):
		return &models.Verdict{
			Action:    models.ActionReject,
			ErrorKind: models.ErrKindLockTimeout,
			Message:   models.ErrLockTimeout.Error(),
			State:     models.StateDenied,
			Retryable: true,
		}, nil
	case retry.IsRetryStopped(err):
		return nil, ctx.Err()
	default:
		return nil, err
	}

	if d.mutated && !req.DryRun {
		s.invalidateList(ctx, log, req.KnowledgeBaseID)
	}

	return verdict, nil
}

// attempt evaluates the dispatch table inside the uploader's critical
// section. Everything it reads and writes commits together.
func (s *Service) attempt(ctx context.Context, d *decision) (*models.Verdict, error) {
	var verdict *models.Verdict

	d.mutated = false

	err := s.store.WithinUserLock(ctx, d.user.ID, func(ctx context.Context, tx repositories.DocumentTx) error {
		match, err := access.Resolve(ctx, tx, d.hash, d.req.KnowledgeBaseID, d.user)
		if err != nil {
			return err
		}
		d.match = match

		act, ok := s.dispatch[decisionKey{role: d.user.Role, match: match.Kind}]
		if !ok {
			return fmt.Errorf("no action for role %q and %s", d.user.Role, match.Kind)
		}

		v, err := act(ctx, tx, d)
		if err != nil {
			return err
		}

		v.Branch = match.Kind.Branch()
		v.State = models.StateResolved
		if v.IsRejected() {
			v.State = models.StateDenied
		}
		verdict = v

		if d.req.DryRun {
			return errDryRun
		}

		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	return verdict, nil
}

func normalize(req *models.UploadRequest) error {
	if req.KnowledgeBaseID == "" || req.Uploader.ID == "" || !req.Uploader.Role.IsValid() {
		return models.ErrInvalidParams
	}

	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}

	if !req.Visibility.IsValid() {
		return models.ErrInvalidParams
	}

	// only admins confirm past a duplicate
	if !req.Uploader.IsAdmin() {
		req.Force = false
	}

	return nil
}

type nopMetrics struct{}

func (nopMetrics) DecisionMade(models.Role, models.Action, models.ErrorKind, time.Duration) {}

func (nopMetrics) StorageConflictRetried() {}
