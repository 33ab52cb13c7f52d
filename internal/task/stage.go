package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
)

// ErrUnknownJobType indicates a claimed job has a type no registered
// stage can handle.
var ErrUnknownJobType = errors.New("no stage registered for job type")

// Stage executes the work for one job type. Implementations receive the
// claimed job and are responsible for all document updates and progress
// checkpoints for that stage; the dispatcher owns the job row itself.
type Stage interface {
	// Name returns the job type this stage handles
	Name() domain.JobType

	// Run executes the stage logic for the given job
	Run(ctx context.Context, job *domain.Job) error
}

// StageRegistry maps job types to the stages that execute them.
type StageRegistry struct {
	stages map[domain.JobType]Stage
}

// NewStageRegistry creates an empty stage registry.
func NewStageRegistry() *StageRegistry {
	return &StageRegistry{
		stages: make(map[domain.JobType]Stage),
	}
}

// Register adds a stage to the registry, keyed by its job type.
// Registering two stages for the same type is a wiring bug, so it panics.
func (r *StageRegistry) Register(stage Stage) {
	if _, exists := r.stages[stage.Name()]; exists {
		panic(fmt.Sprintf("stage already registered for job type %q", stage.Name()))
	}
	r.stages[stage.Name()] = stage
}

// Get returns the stage for the given job type, or ErrUnknownJobType.
func (r *StageRegistry) Get(jobType domain.JobType) (Stage, error) {
	stage, ok := r.stages[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	return stage, nil
}
