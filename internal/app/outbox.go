package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

type SyncAction string

const (
	SyncCreate SyncAction = "create"
	SyncUpdate SyncAction = "update"
	SyncDelete SyncAction = "delete"
)

// SyncTask is one outbound mirror update, emitted after the local write
// committed.
type SyncTask struct {
	AccountID string     `json:"account_id"`
	BookingID string     `json:"booking_id"`
	Action    SyncAction `json:"action"`
}

// SyncResult is the single notification produced per task.
type SyncResult struct {
	Task    SyncTask `json:"task"`
	EventID string   `json:"event_id,omitempty"`
	Err     error    `json:"-"`
}

// Notifier receives exactly one result per enqueued task.
type Notifier func(SyncResult)

// RunFunc executes one sync task and returns the external event id.
type RunFunc func(context.Context, SyncTask) (string, error)

// Outbox decouples assignment mutations from the external calendar: tasks are
// queued without blocking and a single worker pushes them out in order of
// receipt. Delivery order at the external service is still not guaranteed
// across rapid successive tasks for the same booking.
type Outbox struct {
	tasks  chan SyncTask
	run    RunFunc
	notify Notifier
	log    zerolog.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

func NewOutbox(run RunFunc, notify Notifier, size int, log zerolog.Logger) *Outbox {
	o := &Outbox{
		tasks:  make(chan SyncTask, size),
		run:    run,
		notify: notify,
		log:    log,
	}
	if o.notify == nil {
		o.notify = o.logResult
	}
	return o
}

// Start launches the worker. ctx bounds the execution of individual tasks.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for t := range o.tasks {
			eventID, err := o.run(ctx, t)
			o.notify(SyncResult{Task: t, EventID: eventID, Err: err})
		}
	}()
}

// Enqueue hands a task to the worker without blocking the caller. A full
// queue is reported as a failed sync rather than dropped silently.
func (o *Outbox) Enqueue(t SyncTask) {
	select {
	case o.tasks <- t:
	default:
		o.notify(SyncResult{Task: t, Err: fmt.Errorf("%w: sync queue full", ErrSyncFailed)})
	}
}

// Close stops accepting tasks and waits for the worker to drain the queue.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.tasks) })
	o.wg.Wait()
}

func (o *Outbox) logResult(r SyncResult) {
	ev := o.log.Info()
	if r.Err != nil {
		ev = o.log.Error().Err(r.Err)
	}
	ev.Str("booking", r.Task.BookingID).
		Str("account", r.Task.AccountID).
		Str("action", string(r.Task.Action)).
		Str("event_id", r.EventID).
		Msg("calendar sync")
}
