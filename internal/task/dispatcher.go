package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/events"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/logger"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// DispatcherConfig holds configuration for the job dispatcher.
type DispatcherConfig struct {
	// MaxJobs is the default batch size when a dispatch request does not
	// specify one
	MaxJobs int

	// StuckJobAge defines how long a job can sit in processing state
	// before the reaper returns it to pending
	StuckJobAge time.Duration

	// ReapInterval defines how often the background reaper runs.
	// If zero, defaults to 5 minutes.
	ReapInterval time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxJobs:      5,
		StuckJobAge:  30 * time.Minute,
		ReapInterval: 5 * time.Minute,
	}
}

// DispatchResult summarizes one dispatch cycle.
type DispatchResult struct {
	// Processed is the number of jobs that completed successfully
	Processed int `json:"processed"`

	// Failed is the number of jobs whose execution returned an error,
	// whether they were requeued for retry or failed terminally
	Failed int `json:"failed"`

	// Total is the number of jobs claimed in this cycle
	Total int `json:"total"`
}

// DocumentJobStatus combines a document's processing state with its most
// recent job, for status reporting.
type DocumentJobStatus struct {
	Document *domain.Document `json:"document"`
	Job      *domain.Job      `json:"job,omitempty"`
}

// Dispatcher claims batches of pending jobs and executes them through
// registered stages. Claiming is a single atomic store operation, so any
// number of dispatcher instances (or overlapping dispatch requests) can
// run against the same jobs table without double-execution.
type Dispatcher struct {
	jobs      store.JobStore
	documents store.DocumentStore
	registry  *StageRegistry
	emitter   events.EventEmitter
	config    DispatcherConfig
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher. The emitter may be nil, in which
// case lifecycle events are not published.
func NewDispatcher(
	jobs store.JobStore,
	documents store.DocumentStore,
	registry *StageRegistry,
	emitter events.EventEmitter,
	config DispatcherConfig,
	logger *slog.Logger,
) *Dispatcher {
	if jobs == nil {
		panic("jobs store cannot be nil")
	}
	if documents == nil {
		panic("documents store cannot be nil")
	}
	if registry == nil {
		panic("stage registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxJobs <= 0 {
		config.MaxJobs = DefaultDispatcherConfig().MaxJobs
	}
	if config.ReapInterval == 0 {
		config.ReapInterval = 5 * time.Minute
	}

	return &Dispatcher{
		jobs:      jobs,
		documents: documents,
		registry:  registry,
		emitter:   emitter,
		config:    config,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch claims up to maxJobs pending jobs and executes them concurrently,
// one goroutine per job. A non-positive maxJobs falls back to the configured
// default. Job failures are isolated: one job's error never aborts the rest
// of the batch, and Dispatch itself only errors when claiming fails.
func (d *Dispatcher) Dispatch(ctx context.Context, maxJobs int) (DispatchResult, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	if maxJobs <= 0 {
		maxJobs = d.config.MaxJobs
	}

	claimed, err := d.jobs.ClaimBatch(ctx, maxJobs)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to claim jobs: %w", err)
	}

	if len(claimed) == 0 {
		log.Debug("no pending jobs to dispatch")
		return DispatchResult{}, nil
	}

	log.Info("dispatching job batch",
		slog.Int("claimed", len(claimed)),
		slog.Int("max_jobs", maxJobs))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		failed    int
	)

	for _, job := range claimed {
		wg.Add(1)
		go func(job *domain.Job) {
			defer wg.Done()

			ok := d.runJob(ctx, job)

			mu.Lock()
			if ok {
				processed++
			} else {
				failed++
			}
			mu.Unlock()
		}(job)
	}

	wg.Wait()

	result := DispatchResult{
		Processed: processed,
		Failed:    failed,
		Total:     len(claimed),
	}

	log.Info("dispatch cycle finished",
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("total", result.Total))

	return result, nil
}

// runJob executes one claimed job through its stage and records the outcome.
// Returns true when the job completed successfully.
func (d *Dispatcher) runJob(ctx context.Context, job *domain.Job) (ok bool) {
	log := d.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", string(job.Type)),
		slog.String("document_id", job.DocumentID.String()),
		slog.Int("attempt", job.Attempts))
	ctx = logger.WithLogger(ctx, log)

	// A panicking stage must not take down the whole batch; treat it as
	// a job failure like any other.
	defer func() {
		if p := recover(); p != nil {
			log.Error("stage panicked", slog.Any("panic", p))
			d.recordFailure(ctx, job, fmt.Errorf("stage panicked: %v", p))
			ok = false
		}
	}()

	stage, err := d.registry.Get(job.Type)
	if err != nil {
		// No stage can ever run this job, so retrying is pointless.
		log.Error("no stage for job type", slog.String("error", err.Error()))
		d.failTerminally(ctx, job, err)
		return false
	}

	log.Info("executing job")

	if err := stage.Run(ctx, job); err != nil {
		log.Error("job execution failed", slog.String("error", err.Error()))
		d.recordFailure(ctx, job, err)
		return false
	}

	if err := d.jobs.MarkCompleted(ctx, job.ID); err != nil {
		log.Error("failed to mark job completed", slog.String("error", err.Error()))
		return false
	}

	// Embedding follow-ups are auxiliary work; they never own the
	// document lifecycle.
	if job.Type != domain.JobTypeGenerateEmbeddings {
		if err := d.documents.UpdateProcessing(
			ctx, job.DocumentID, domain.ProcessingStatusCompleted, 100, "",
		); err != nil {
			log.Error("failed to mark document completed", slog.String("error", err.Error()))
		}
	}

	log.Info("job completed")
	d.emit(ctx, events.EventJobCompleted, job, nil)
	return true
}

// recordFailure applies the retry policy after a failed execution: requeue
// while attempt budget remains, fail terminally otherwise.
func (d *Dispatcher) recordFailure(ctx context.Context, job *domain.Job, execErr error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	if job.AttemptsRemaining() {
		if err := d.jobs.Requeue(ctx, job.ID, execErr.Error()); err != nil {
			log.Error("failed to requeue job", slog.String("error", err.Error()))
			return
		}
		log.Info("job requeued for retry",
			slog.Int("attempts", job.Attempts),
			slog.Int("max_attempts", job.MaxAttempts))
		return
	}

	d.failTerminally(ctx, job, execErr)
}

// failTerminally marks the job failed, marks its document failed, and emits
// a failure event. The document update is best-effort: a job whose document
// row cannot be updated still ends up failed.
func (d *Dispatcher) failTerminally(ctx context.Context, job *domain.Job, execErr error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	if err := d.jobs.MarkFailed(ctx, job.ID, execErr.Error()); err != nil {
		log.Error("failed to mark job failed", slog.String("error", err.Error()))
	}

	if err := d.documents.UpdateProcessing(
		ctx,
		job.DocumentID,
		domain.ProcessingStatusFailed,
		0,
		execErr.Error(),
	); err != nil {
		log.Error("failed to mark document failed", slog.String("error", err.Error()))
	}

	log.Warn("job failed terminally",
		slog.Int("attempts", job.Attempts),
		slog.Int("max_attempts", job.MaxAttempts))

	d.emit(ctx, events.EventJobFailed, job, execErr)
}

// emit publishes a job lifecycle event if an emitter is wired.
func (d *Dispatcher) emit(ctx context.Context, eventType string, job *domain.Job, execErr error) {
	if d.emitter == nil {
		return
	}

	payload := events.JobLifecyclePayload{
		JobID:      job.ID,
		DocumentID: job.DocumentID,
		JobType:    string(job.Type),
	}
	if execErr != nil {
		payload.Error = execErr.Error()
	}

	event, err := events.NewJobEvent(eventType, payload)
	if err != nil {
		d.logger.Error("failed to build lifecycle event", slog.String("error", err.Error()))
		return
	}

	if err := d.emitter.EmitEvent(ctx, event); err != nil {
		d.logger.Error("lifecycle event handler failed", slog.String("error", err.Error()))
	}
}

// Status returns the document's processing state together with its most
// recent job. The job is nil when the document has never been enqueued.
func (d *Dispatcher) Status(ctx context.Context, documentID uuid.UUID) (*DocumentJobStatus, error) {
	doc, err := d.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	job, err := d.jobs.GetLatestByDocument(ctx, documentID)
	if err != nil && !errors.Is(err, store.ErrJobNotFound) && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return &DocumentJobStatus{
		Document: doc,
		Job:      job,
	}, nil
}

// PendingCount returns the number of jobs currently waiting to be claimed.
func (d *Dispatcher) PendingCount(ctx context.Context) (int, error) {
	return d.jobs.CountPending(ctx)
}

// Reap recovers jobs stuck in processing longer than the configured age.
// Jobs with claim budget left go back to pending for a later dispatch; jobs
// that already spent their budget are failed terminally along with their
// documents, since requeueing them would let the next claim push attempts
// past the store's bound.
func (d *Dispatcher) Reap(ctx context.Context) (int, error) {
	failed, err := d.jobs.FailStuck(ctx, d.config.StuckJobAge)
	if err != nil {
		return 0, fmt.Errorf("failed to settle exhausted stuck jobs: %w", err)
	}
	for _, job := range failed {
		stuckErr := errors.New("job stuck in processing with no attempts remaining")
		if err := d.documents.UpdateProcessing(
			ctx, job.DocumentID, domain.ProcessingStatusFailed, 0, stuckErr.Error(),
		); err != nil {
			d.logger.Error("failed to mark document failed",
				slog.String("error", err.Error()),
				slog.String("document_id", job.DocumentID.String()))
		}
		d.emit(ctx, events.EventJobFailed, job, stuckErr)
	}

	n, err := d.jobs.RequeueStuck(ctx, d.config.StuckJobAge)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stuck jobs: %w", err)
	}
	if n > 0 {
		d.logger.Info("requeued stuck jobs", slog.Int("count", n))
	}
	return n, nil
}

// StartReaper runs Reap on the configured interval until the context is
// cancelled. Call it in its own goroutine from process startup.
func (d *Dispatcher) StartReaper(ctx context.Context) {
	ticker := time.NewTicker(d.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Reap(ctx); err != nil {
				d.logger.Error("stuck job sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
