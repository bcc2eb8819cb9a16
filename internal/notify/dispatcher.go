// Package notify sends welcome emails to newly registered customers off the
// request path. Delivery is best effort: failures are logged and dropped.
package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"customerhub/internal/domain"
)

const (
	enqueueTimeout = 2 * time.Second
	sendTimeout    = 15 * time.Second
	retryPause     = time.Second
)

// Dispatcher queues welcome jobs for created customers and delivers them from Run.
type Dispatcher struct {
	queue    Queue
	renderer *Renderer
	sender   Sender
	from     string
	logger   *log.Logger
}

// NewDispatcher wires a queue to a sender. from is the envelope sender address.
func NewDispatcher(queue Queue, sender Sender, from string, logger *log.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{queue: queue, renderer: renderer, sender: sender, from: from, logger: logger}, nil
}

// CustomerCreated enqueues a welcome job and returns immediately. The request
// context may be cancelled as soon as the response is written, so the enqueue
// runs on a detached context with its own short deadline.
func (d *Dispatcher) CustomerCreated(ctx context.Context, c domain.Customer) {
	job := WelcomeJob{CustomerID: c.ID, Email: c.Email, FirstName: c.FirstName}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.logger.Printf("notify: dropped welcome for customer %s: %v", c.ID, err)
	}
}

// Run delivers queued jobs until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Printf("notify: dispatcher started")
	for {
		job, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Printf("notify: dispatcher stopped")
				return nil
			}
			d.logger.Printf("notify: dequeue: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryPause):
			}
			continue
		}
		d.deliver(ctx, job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job WelcomeJob) {
	subject, body, err := d.renderer.Render(job)
	if err != nil {
		d.logger.Printf("notify: render welcome for customer %s: %v", job.CustomerID, err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err = d.sender.Send(ctx, Message{From: d.from, To: job.Email, Subject: subject, HTML: body})
	switch {
	case err == nil:
		d.logger.Printf("notify: welcome sent to %s", RedactEmail(job.Email))
	case errors.Is(err, context.Canceled):
		d.logger.Printf("notify: welcome to %s interrupted", RedactEmail(job.Email))
	default:
		d.logger.Printf("notify: welcome to %s failed: %v", RedactEmail(job.Email), err)
	}
}
