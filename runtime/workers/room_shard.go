package workers

import (
	"chat-live/contract"
	"chat-live/errors"
	"context"
	"fmt"
	"log/slog"
)

// Ensure *RoomShardWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*RoomShardWorker)(nil)

// Job is one unit of room-scoped work. Reply is buffered so the worker never
// blocks on a caller that gave up waiting.
type Job struct {
	Ctx   context.Context
	Run   func(ctx context.Context) error
	Reply chan error
}

func NewJob(ctx context.Context, fn func(ctx context.Context) error) Job {
	return Job{Ctx: ctx, Run: fn, Reply: make(chan error, 1)}
}

// RoomShardWorker executes the jobs of every room hashed to its shard,
// one at a time and in arrival order.
type RoomShardWorker struct {
	shard int
	jobs  chan Job
	log   *slog.Logger
}

func NewRoomShardWorker(shard int, jobs chan Job, log *slog.Logger) *RoomShardWorker {
	return &RoomShardWorker{shard: shard, jobs: jobs, log: log}
}

func (w *RoomShardWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room shard worker", "shard", w.shard)
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Channel is closed", "shard", w.shard)
				return nil
			}
			if err := job.Ctx.Err(); err != nil {
				// The caller is gone, nobody reads the outcome.
				job.Reply <- err
				continue
			}
			job.Reply <- w.run(job)
		}
	}
}

// run executes a started job on a context detached from its caller: once the
// work began it is never cut short, so its outcome is the one reported.
// A panic is answered before it reaches the supervisor.
func (w *RoomShardWorker) run(job Job) error {
	defer func() {
		if r := recover(); r != nil {
			job.Reply <- fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
			panic(r)
		}
	}()
	return job.Run(context.WithoutCancel(job.Ctx))
}
