// Package runtime holds the process-local machinery of the live core: the
// session registry, room fan-out and the sequencing of room-scoped work.
// It contains no business rules.
package runtime

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var _ contract.ISequencer = (*Orchestrator)(nil)

// Orchestrator routes room-scoped work to a fixed set of shard workers.
// A room always hashes to the same shard, so work submitted for one room is
// executed one job at a time in submission order while distinct rooms
// progress in parallel.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	shards     []chan workers.Job
	started    bool
	done       chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, numWorkers, bufferSize int) *Orchestrator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	shards := make([]chan workers.Job, numWorkers)
	for i := range shards {
		shards[i] = make(chan workers.Job, bufferSize)
	}
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		shards:     shards,
		done:       make(chan struct{}),
	}
}

// Start registers one shard worker per shard to the supervisor and runs it in
// the background. It returns immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true

	for i, jobs := range o.shards {
		o.supervisor.Add(workers.NewRoomShardWorker(i, jobs, o.log))
	}
	o.log.Info("Starting orchestrator and all supervised workers", "shards", len(o.shards))
	go func() {
		defer close(o.done)
		o.supervisor.Run(ctx)
	}()
	return nil
}

// Dispatch queues fn on the shard owning roomID and waits for its outcome.
// The caller's context only bounds the wait for a queue slot. A queued job is
// either skipped, when its caller is gone before it starts, or run to the end,
// and the returned error is always the one of what really happened.
func (o *Orchestrator) Dispatch(ctx context.Context, roomID domain.RoomID, fn func(ctx context.Context) error) error {
	job := workers.NewJob(ctx, fn)
	select {
	case o.shardFor(roomID) <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.Reply:
		return err
	case <-o.done:
		select {
		case err := <-job.Reply:
			return err
		default:
			return errors.ErrSequencerStopped
		}
	}
}

// Channels names the shard queues for capacity sampling.
func (o *Orchestrator) Channels() []workers.NamedChannel {
	channels := make([]workers.NamedChannel, len(o.shards))
	for i, jobs := range o.shards {
		channels[i] = workers.NamedChannel{Name: fmt.Sprintf("room_shard_%d", i), Channel: jobs}
	}
	return channels
}

func (o *Orchestrator) shardFor(roomID domain.RoomID) chan workers.Job {
	return o.shards[uint64(roomID)%uint64(len(o.shards))]
}

// Stop cancels the shard workers and waits for them to return.
func (o *Orchestrator) Stop() {
	o.supervisor.Stop()
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if started {
		<-o.done
	}
	o.log.Info("Orchestrator stopped")
}
