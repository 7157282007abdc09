package store

import (
	"context"
	"log"
	"sync"
	"time"

	"quizlytics/api/models"
)

const forwardQueueSize = 256

type mirrorJob struct {
	event  *models.Event
	result *models.Result
}

// Forwarder ships successful local writes to the mirror store from a
// background worker. The request path only enqueues; a full queue drops
// the write. There is no retry, a failed or dropped mirror write is lost.
type Forwarder struct {
	mirror MirrorStore
	jobs   chan mirrorJob
	wg     sync.WaitGroup
}

func NewForwarder(mirror MirrorStore) *Forwarder {
	f := &Forwarder{
		mirror: mirror,
		jobs:   make(chan mirrorJob, forwardQueueSize),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// EnqueueEvent hands an event to the background worker without blocking.
func (f *Forwarder) EnqueueEvent(e models.Event) {
	select {
	case f.jobs <- mirrorJob{event: &e}:
	default:
		log.Printf("Mirror queue full, dropping event %s", e.ID)
	}
}

// EnqueueResult hands a result to the background worker without blocking.
func (f *Forwarder) EnqueueResult(r models.Result) {
	select {
	case f.jobs <- mirrorJob{result: &r}:
	default:
		log.Printf("Mirror queue full, dropping result %s", r.ID)
	}
}

// Close stops accepting jobs and waits for the queue to drain.
func (f *Forwarder) Close() {
	close(f.jobs)
	f.wg.Wait()
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for job := range f.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		switch {
		case job.event != nil:
			if err := f.mirror.InsertEvent(ctx, *job.event); err != nil {
				log.Printf("Mirror write failed: %v", err)
			}
		case job.result != nil:
			if err := f.mirror.InsertResult(ctx, *job.result); err != nil {
				log.Printf("Mirror write failed: %v", err)
			}
		}
		cancel()
	}
}
