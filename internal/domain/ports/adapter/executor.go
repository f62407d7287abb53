package adapter

import "context"

// SkillExecutor produces output for one claimed job. Implementations may read
// skill content but must not touch the job store; the worker runner owns all
// job state transitions. Failure is a normal outcome and is recorded on the
// job, never propagated to crash a worker loop.
type SkillExecutor interface {
	Run(ctx context.Context, skillID int64, inputText string) (string, error)
}
